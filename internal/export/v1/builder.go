package v1

import (
	"cmp"
	"maps"
	"slices"

	"github.com/OCAP2/combatlog/internal/cache"
	"github.com/OCAP2/combatlog/internal/fight"
	"github.com/OCAP2/combatlog/internal/state"
	"github.com/OCAP2/combatlog/pkg/core"
)

// Meta carries values that are not part of the parse state.
type Meta struct {
	Year int
}

// Build renders the parse state. It reads the state and never mutates it.
// Every list is ordered by GUID, then time, so equal input gives equal output.
func Build(st *state.ParseState, meta Meta) Snapshot {
	snap := Snapshot{
		Version:     Version,
		Year:        meta.Year,
		Entities:    buildEntities(st.Registry),
		Fights:      make([]Fight, 0),
		Casts:       buildCasts(st),
		Diagnostics: make([]Diagnostic, 0),
	}

	for _, f := range st.Fights.Fights() {
		snap.Fights = append(snap.Fights, buildFight(f, st.Registry))
	}

	for _, d := range st.Diagnostics() {
		snap.Diagnostics = append(snap.Diagnostics, Diagnostic{
			Line:    d.Line,
			Stream:  d.Stream.String(),
			Kind:    string(d.Kind),
			Message: d.Message,
		})
	}

	snap.Stats = Stats{
		TotalLines:        st.Stats.TotalLines(),
		PrimaryLines:      st.Stats.PrimaryLines,
		RawLines:          st.Stats.RawLines,
		Events:            st.Stats.Events,
		Diagnostics:       st.DiagnosticCount(),
		DiagnosticsByKind: make(map[string]int),
		UnknownKinds:      maps.Clone(st.Stats.UnknownEventKinds),
	}
	for k, n := range st.DiagnosticsByKind() {
		snap.Stats.DiagnosticsByKind[string(k)] = n
	}
	for _, n := range st.Stats.UnknownEventKinds {
		snap.Stats.UnknownEventKinds += n
	}
	if snap.Stats.UnknownKinds == nil {
		snap.Stats.UnknownKinds = make(map[string]int)
	}

	return snap
}

func buildEntities(reg *cache.EntityRegistry) []Entity {
	entities := reg.Entities()
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		ent := Entity{
			GUID:      e.GUID.String(),
			Kind:      e.Kind.String(),
			Name:      reg.Lookup(e.GUID),
			Instances: make([]Instance, 0, len(e.Instances)),
		}
		if entry, ok := e.GUID.Entry(); ok {
			ent.EntryID = entry
		}
		for _, inst := range e.Instances {
			i := Instance{
				FirstSeen: inst.FirstSeen,
				Name:      inst.Name,
				Flags:     inst.Flags,
				Class:     inst.Class,
			}
			if !inst.Owner.IsNil() {
				i.Owner = inst.Owner.String()
			}
			ent.Instances = append(ent.Instances, i)
		}
		out = append(out, ent)
	}
	return out
}

func buildFight(f *fight.Fight, reg *cache.EntityRegistry) Fight {
	out := Fight{
		ID:          f.ID,
		Start:       f.Start,
		Trigger:     string(f.Trigger),
		CloseReason: string(f.CloseReason),
		Friendly:    guidStrings(f.Members(fight.SideFriendly)),
		Hostile:     guidStrings(f.Members(fight.SideHostile)),
		Unknown:     guidStrings(f.Members(fight.SideUnknown)),
		Deaths:      make([]Death, 0, len(f.Deaths)),
		DamageDone:  amounts(f.DamageDone, reg),
		DamageTaken: amounts(f.DamageTaken, reg),
		HealingDone: amounts(f.HealingDone, reg),
	}
	if f.Closed {
		end := f.End
		out.End = &end
	}
	if !f.Zone.IsZero() {
		out.Zone = &Zone{Name: f.Zone.Name, InstanceID: f.Zone.InstanceID}
	}
	if f.Encounter != nil {
		out.Encounter = &Encounter{
			ID:         f.Encounter.ID,
			Name:       f.Encounter.Name,
			Difficulty: f.Encounter.Difficulty,
			Success:    f.Encounter.Success,
		}
	}

	deaths := slices.Clone(f.Deaths)
	slices.SortStableFunc(deaths, func(a, b fight.Death) int {
		if c := cmp.Compare(a.GUID, b.GUID); c != 0 {
			return c
		}
		return a.Time.Compare(b.Time)
	})
	for _, d := range deaths {
		out.Deaths = append(out.Deaths, Death{GUID: d.GUID.String(), Time: d.Time})
	}
	return out
}

func buildCasts(st *state.ParseState) []Caster {
	casters := st.Casts.Casters()
	out := make([]Caster, 0, len(casters))
	for _, g := range casters {
		c := Caster{
			GUID:   g.String(),
			Name:   st.Registry.Lookup(g),
			Spells: make([]SpellCount, 0),
		}
		for _, sc := range st.Casts.Spells(g) {
			c.Spells = append(c.Spells, SpellCount{SpellID: sc.SpellID, Name: sc.Name, Count: sc.Count})
		}
		out = append(out, c)
	}
	return out
}

func amounts(table map[core.GUID]int64, reg *cache.EntityRegistry) []Amount {
	keys := slices.Sorted(maps.Keys(table))
	out := make([]Amount, 0, len(keys))
	for _, g := range keys {
		out = append(out, Amount{GUID: g.String(), Name: reg.Lookup(g), Amount: table[g]})
	}
	return out
}

func guidStrings(gs []core.GUID) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.String()
	}
	return out
}
