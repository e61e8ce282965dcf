package state

import (
	"cmp"
	"slices"

	"github.com/OCAP2/combatlog/pkg/core"
)

// SpellCasts is the tally for one spell cast by one entity.
type SpellCasts struct {
	SpellID uint32
	Name    string
	Count   int
}

// CastTable tallies successful casts per entity across the whole log.
type CastTable struct {
	casts map[core.GUID]map[uint32]*SpellCasts
}

func NewCastTable() *CastTable {
	return &CastTable{casts: make(map[core.GUID]map[uint32]*SpellCasts)}
}

// RecordCast counts one cast. The latest non-empty name replaces the stored one.
func (c *CastTable) RecordCast(g core.GUID, spellID uint32, name string) {
	if g.IsNil() {
		return
	}
	spells, ok := c.casts[g]
	if !ok {
		spells = make(map[uint32]*SpellCasts)
		c.casts[g] = spells
	}
	sc, ok := spells[spellID]
	if !ok {
		sc = &SpellCasts{SpellID: spellID}
		spells[spellID] = sc
	}
	sc.Count++
	if name != "" {
		sc.Name = name
	}
}

// Get returns the tally for one entity and spell.
func (c *CastTable) Get(g core.GUID, spellID uint32) (SpellCasts, bool) {
	if sc, ok := c.casts[g][spellID]; ok {
		return *sc, true
	}
	return SpellCasts{}, false
}

// Casters returns every GUID with at least one cast, in GUID order.
func (c *CastTable) Casters() []core.GUID {
	out := make([]core.GUID, 0, len(c.casts))
	for g := range c.casts {
		out = append(out, g)
	}
	slices.Sort(out)
	return out
}

// Spells returns the tallies for g ordered by spell ID.
func (c *CastTable) Spells(g core.GUID) []SpellCasts {
	spells := c.casts[g]
	out := make([]SpellCasts, 0, len(spells))
	for _, sc := range spells {
		out = append(out, *sc)
	}
	slices.SortFunc(out, func(a, b SpellCasts) int {
		return cmp.Compare(a.SpellID, b.SpellID)
	})
	return out
}
