package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/OCAP2/combatlog/internal/cache"
	"github.com/OCAP2/combatlog/internal/fight"
	"github.com/OCAP2/combatlog/internal/state"
	"github.com/OCAP2/combatlog/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0       = time.Date(2024, 4, 21, 20, 0, 0, 0, time.UTC)
	jaina    = core.GUID(0x0000000000000002)
	thrall   = core.GUID(0x0000000000000001)
	ragnaros = core.GUID(0xF130002CEE000077)
	son      = core.GUID(0xF130002F54000101)
)

func newTestState(t *testing.T) *state.ParseState {
	t.Helper()

	st := state.New(cache.StaticNames{12116: "Son of Flame"}, fight.DefaultConfig(), 10, nil)
	st.Registry.Observe(jaina, t0, "Jaina", 0x511)
	st.Registry.Observe(thrall, t0, "Thrall", 0x511)
	st.Registry.Observe(ragnaros, t0, "Ragnaros", 0xa48)
	st.Registry.Touch(son)

	events := []*core.Event{
		{Time: t0, Kind: core.EventZoneChange, Payload: core.ZoneChange{Zone: core.Zone{Name: "Molten Core", InstanceID: 409}}},
		{Time: t0.Add(time.Second), Kind: core.EventEncounterStart,
			Payload: core.EncounterStart{Encounter: core.Encounter{ID: 672, Name: "Ragnaros", Difficulty: 9}}},
		{Time: t0.Add(2 * time.Second), Kind: core.EventSpellDamage,
			Source: core.Unit{GUID: jaina}, Dest: core.Unit{GUID: ragnaros}, Payload: core.Damage{Amount: 300}},
		{Time: t0.Add(2 * time.Second), Kind: core.EventSpellDamage,
			Source: core.Unit{GUID: thrall}, Dest: core.Unit{GUID: son}, Payload: core.Damage{Amount: 200}},
		{Time: t0.Add(3 * time.Second), Kind: core.EventSpellHeal,
			Source: core.Unit{GUID: thrall}, Dest: core.Unit{GUID: jaina}, Payload: core.Heal{Amount: 90, Overheal: 40}},
		{Time: t0.Add(4 * time.Second), Kind: core.EventUnitDied, Dest: core.Unit{GUID: son}, Payload: core.Died{}},
		{Time: t0.Add(5 * time.Second), Kind: core.EventUnitDied, Dest: core.Unit{GUID: ragnaros}, Payload: core.Died{}},
		{Time: t0.Add(6 * time.Second), Kind: core.EventEncounterEnd,
			Payload: core.EncounterEnd{Encounter: core.Encounter{ID: 672}, Success: true}},
	}
	for _, ev := range events {
		if d := st.Fights.Handle(ev); d != nil {
			st.AddDiagnostic(*d)
		}
	}

	st.Casts.RecordCast(jaina, 116, "Frostbolt")
	st.Casts.RecordCast(thrall, 403, "Lightning Bolt")
	st.Casts.RecordCast(jaina, 10, "Blizzard")
	st.AddDiagnostic(core.Diagnostic{Line: 3, Stream: core.StreamRaw, Kind: core.DiagMalformedLine, Message: "bad"})
	st.CountUnknownKind("SPELL_MISSED")
	st.CountLine(core.StreamPrimary)
	st.CountLine(core.StreamRaw)
	st.Stats.Events = 2
	return st
}

func TestBuild_Entities(t *testing.T) {
	snap := Build(newTestState(t), Meta{Year: 2024})

	assert.Equal(t, Version, snap.Version)
	assert.Equal(t, 2024, snap.Year)
	require.Len(t, snap.Entities, 4)

	assert.Equal(t, thrall.String(), snap.Entities[0].GUID)
	assert.Equal(t, jaina.String(), snap.Entities[1].GUID)
	assert.Equal(t, ragnaros.String(), snap.Entities[2].GUID)

	son := snap.Entities[3]
	assert.Equal(t, "npc", son.Kind)
	assert.Equal(t, uint32(12116), son.EntryID)
	assert.Equal(t, "Son of Flame", son.Name, "name comes from the lookup table")
	assert.Empty(t, son.Instances)
}

func TestBuild_Fight(t *testing.T) {
	snap := Build(newTestState(t), Meta{})

	require.Len(t, snap.Fights, 1)
	f := snap.Fights[0]

	require.NotNil(t, f.End)
	assert.Equal(t, t0.Add(6*time.Second), *f.End)
	assert.Equal(t, "encounter", f.Trigger)
	assert.Equal(t, "hostiles_dead", f.CloseReason)
	require.NotNil(t, f.Zone)
	assert.Equal(t, "Molten Core", f.Zone.Name)
	require.NotNil(t, f.Encounter)
	assert.True(t, f.Encounter.Success)
	assert.Equal(t, uint32(9), f.Encounter.Difficulty)

	assert.Equal(t, []string{thrall.String(), jaina.String()}, f.Friendly)
	assert.Equal(t, []string{ragnaros.String(), son.String()}, f.Hostile)
	assert.Empty(t, f.Unknown)

	require.Len(t, f.Deaths, 2)
	assert.Equal(t, ragnaros.String(), f.Deaths[0].GUID)

	require.Len(t, f.DamageDone, 2)
	assert.Equal(t, Amount{GUID: thrall.String(), Name: "Thrall", Amount: 200}, f.DamageDone[0])
	assert.Equal(t, Amount{GUID: jaina.String(), Name: "Jaina", Amount: 300}, f.DamageDone[1])

	require.Len(t, f.HealingDone, 1)
	assert.Equal(t, int64(50), f.HealingDone[0].Amount)
}

func TestBuild_CastsAndStats(t *testing.T) {
	snap := Build(newTestState(t), Meta{})

	require.Len(t, snap.Casts, 2)
	assert.Equal(t, thrall.String(), snap.Casts[0].GUID)
	jainaCasts := snap.Casts[1]
	assert.Equal(t, "Jaina", jainaCasts.Name)
	require.Len(t, jainaCasts.Spells, 2)
	assert.Equal(t, uint32(10), jainaCasts.Spells[0].SpellID)
	assert.Equal(t, uint32(116), jainaCasts.Spells[1].SpellID)

	assert.Equal(t, 2, snap.Stats.TotalLines)
	assert.Equal(t, 1, snap.Stats.Diagnostics)
	assert.Equal(t, map[string]int{"MalformedLine": 1}, snap.Stats.DiagnosticsByKind)
	assert.Equal(t, 1, snap.Stats.UnknownEventKinds)
	assert.Equal(t, map[string]int{"SPELL_MISSED": 1}, snap.Stats.UnknownKinds)

	require.Len(t, snap.Diagnostics, 1)
	assert.Equal(t, Diagnostic{Line: 3, Stream: "raw", Kind: "MalformedLine", Message: "bad"}, snap.Diagnostics[0])
}

func TestBuild_OpenFightHasNullEnd(t *testing.T) {
	st := state.New(nil, fight.DefaultConfig(), 10, nil)
	st.Fights.Handle(&core.Event{Time: t0, Kind: core.EventEncounterStart,
		Payload: core.EncounterStart{Encounter: core.Encounter{ID: 1}}})

	b, err := json.Marshal(Build(st, Meta{}))
	require.NoError(t, err)

	var doc struct {
		Fights []map[string]any `json:"fights"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	require.Len(t, doc.Fights, 1)
	end, ok := doc.Fights[0]["end"]
	assert.True(t, ok)
	assert.Nil(t, end)
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := json.Marshal(Build(newTestState(t), Meta{}))
	require.NoError(t, err)
	b, err := json.Marshal(Build(newTestState(t), Meta{}))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestBuild_EmptyListsAreArrays(t *testing.T) {
	b, err := json.Marshal(Build(state.New(nil, fight.DefaultConfig(), 10, nil), Meta{}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"entities":[]`)
	assert.Contains(t, string(b), `"fights":[]`)
	assert.Contains(t, string(b), `"casts":[]`)
	assert.Contains(t, string(b), `"diagnostics":[]`)
}
