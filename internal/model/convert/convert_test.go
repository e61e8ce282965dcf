package convert

import (
	"testing"
	"time"

	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/internal/model"
	"github.com/OCAP2/combatlog/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2024, 7, 4, 20, 0, 0, 0, time.UTC)
	t1 = t0.Add(95 * time.Second)
)

func newTestSnapshot() *v1.Snapshot {
	return &v1.Snapshot{
		Version: v1.Version,
		Year:    2024,
		Entities: []v1.Entity{
			{GUID: "0x0000000000024225", Kind: "player", Name: "Thrall", Instances: []v1.Instance{{FirstSeen: t0, Name: "Thrall", Flags: 0x511}}},
			{GUID: "0xF130002CEE000077", Kind: "npc", EntryID: 11502, Name: "Ragnaros", Instances: nil},
		},
		Fights: []v1.Fight{
			{
				ID:          1,
				Start:       t0,
				End:         &t1,
				Zone:        &v1.Zone{Name: "Molten Core", InstanceID: 409},
				Trigger:     "encounter",
				CloseReason: "encounter_end",
				Encounter:   &v1.Encounter{ID: 672, Name: "Ragnaros", Difficulty: 9, Success: true},
				Friendly:    []string{"0x0000000000024225"},
				Hostile:     []string{"0xF130002CEE000077"},
				Unknown:     []string{},
				Deaths:      []v1.Death{{GUID: "0xF130002CEE000077", Time: t1}},
				DamageDone:  []v1.Amount{{GUID: "0x0000000000024225", Name: "Thrall", Amount: 1200}},
				DamageTaken: []v1.Amount{{GUID: "0xF130002CEE000077", Name: "Ragnaros", Amount: 1200}},
				HealingDone: []v1.Amount{},
			},
			{ID: 2, Start: t1, Trigger: "implicit"},
		},
		Casts: []v1.Caster{
			{GUID: "0x0000000000024225", Name: "Thrall", Spells: []v1.SpellCount{{SpellID: 403, Name: "Lightning Bolt", Count: 3}, {SpellID: 421, Name: "Chain Lightning", Count: 1}}},
		},
		Stats: v1.Stats{
			TotalLines:        10,
			PrimaryLines:      8,
			RawLines:          2,
			Events:            9,
			Diagnostics:       1,
			DiagnosticsByKind: map[string]int{"MalformedLine": 1},
		},
		Diagnostics: []v1.Diagnostic{{Line: 4, Stream: "primary", Kind: "MalformedLine", Message: "invalid timestamp"}},
	}
}

func TestSnapshotToRun(t *testing.T) {
	run := &core.Run{ID: "run-1", PrimaryFile: "WoWCombatLog.txt", StartedAt: t0, Duration: 1500 * time.Millisecond}
	m, err := SnapshotToRun(run, newTestSnapshot())
	require.NoError(t, err)

	assert.Equal(t, "run-1", m.ID)
	assert.Equal(t, int64(1500), m.DurationMs)
	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, 10, m.TotalLines)
	assert.Equal(t, 1, m.DiagnosticCount)
	assert.JSONEq(t, `{"MalformedLine":1}`, string(m.DiagnosticsByKind))
	assert.JSONEq(t, `{}`, string(m.UnknownKinds))

	require.Len(t, m.Entities, 2)
	assert.Equal(t, uint32(11502), m.Entities[1].EntryID)
	assert.JSONEq(t, `[]`, string(m.Entities[1].Instances))

	require.Len(t, m.Fights, 2)
	require.Len(t, m.Casts, 2)
	assert.Equal(t, "Chain Lightning", m.Casts[1].SpellName)
	assert.Equal(t, "Thrall", m.Casts[1].CasterName)

	require.Len(t, m.Diagnostics, 1)
	assert.Equal(t, "run-1", m.Diagnostics[0].RunID)
}

func TestFightToModel(t *testing.T) {
	snap := newTestSnapshot()

	t.Run("closed encounter", func(t *testing.T) {
		f := FightToModel("run-1", snap.Fights[0])
		assert.Equal(t, 1, f.Number)
		assert.True(t, f.End.Valid)
		assert.Equal(t, t1, f.End.Time)
		assert.Equal(t, "Molten Core", f.Zone)
		assert.Equal(t, uint32(409), f.ZoneInstance)
		assert.Equal(t, uint32(672), f.EncounterID)
		assert.True(t, f.EncounterSuccess)
		assert.Equal(t, "encounter_end", f.CloseReason)

		require.Len(t, f.Members, 2)
		assert.Equal(t, "friendly", f.Members[0].Side)
		assert.Equal(t, "hostile", f.Members[1].Side)

		require.Len(t, f.Amounts, 2)
		assert.Equal(t, model.TableDamageDone, f.Amounts[0].Table)
		assert.Equal(t, model.TableDamageTaken, f.Amounts[1].Table)
		assert.Equal(t, int64(1200), f.Amounts[1].Amount)

		require.Len(t, f.Deaths, 1)
		assert.Equal(t, t1, f.Deaths[0].Time)
	})

	t.Run("open implicit", func(t *testing.T) {
		f := FightToModel("run-1", snap.Fights[1])
		assert.False(t, f.End.Valid)
		assert.Empty(t, f.Zone)
		assert.Zero(t, f.EncounterID)
		assert.Empty(t, f.Members)
		assert.Equal(t, "implicit", f.Trigger)
	})
}

func TestRunToSnapshot(t *testing.T) {
	snap := newTestSnapshot()
	m, err := SnapshotToRun(&core.Run{ID: "run-2", StartedAt: t0}, snap)
	require.NoError(t, err)

	back, err := RunToSnapshot(m)
	require.NoError(t, err)
	assert.Equal(t, snap.Stats, back.Stats)
	require.Len(t, back.Fights, 2)
	assert.Nil(t, back.Fights[1].End)
	assert.Equal(t, "Ragnaros", back.Fights[0].Encounter.Name)

	_, err = RunToSnapshot(model.Run{ID: "empty"})
	assert.Error(t, err)
}
