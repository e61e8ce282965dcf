package fight

import (
	"time"

	"github.com/OCAP2/combatlog/pkg/core"
)

// Trigger names what opened a fight.
type Trigger string

const (
	TriggerEncounter Trigger = "encounter"
	TriggerImplicit  Trigger = "implicit"
)

// CloseReason names what closed a fight.
type CloseReason string

const (
	CloseEncounterEnd CloseReason = "encounter_end"
	CloseHostilesDead CloseReason = "hostiles_dead"
	CloseZoneChange   CloseReason = "zone_change"
	CloseIdle         CloseReason = "idle"
	CloseSuperseded   CloseReason = "superseded"
)

// Side is the roster set a participant belongs to.
type Side uint8

const (
	SideUnknown Side = iota
	SideFriendly
	SideHostile
)

func (s Side) String() string {
	switch s {
	case SideFriendly:
		return "friendly"
	case SideHostile:
		return "hostile"
	}
	return "unknown"
}

// SideOf places an entity kind on a roster side.
func SideOf(k core.EntityKind) Side {
	switch k {
	case core.KindPlayer, core.KindPet:
		return SideFriendly
	case core.KindNPC:
		return SideHostile
	}
	return SideUnknown
}

// Encounter is the boss encounter a fight belongs to, if any.
type Encounter struct {
	core.Encounter
	Success bool
}

// Death is one recorded death inside a fight.
type Death struct {
	GUID core.GUID
	Time time.Time
}

// Fight is one bounded combat engagement.
type Fight struct {
	ID          int
	Start       time.Time
	End         time.Time
	Closed      bool
	Zone        core.Zone
	Trigger     Trigger
	CloseReason CloseReason
	Encounter   *Encounter

	// roster holds every participant with its side. Each GUID has exactly one side.
	roster map[core.GUID]Side
	dead   map[core.GUID]bool

	Deaths      []Death
	DamageDone  map[core.GUID]int64
	DamageTaken map[core.GUID]int64
	HealingDone map[core.GUID]int64

	lastActivity time.Time
}

func newFight(id int, start time.Time, zone core.Zone, trigger Trigger) *Fight {
	return &Fight{
		ID:           id,
		Start:        start,
		Zone:         zone,
		Trigger:      trigger,
		roster:       make(map[core.GUID]Side),
		dead:         make(map[core.GUID]bool),
		DamageDone:   make(map[core.GUID]int64),
		DamageTaken:  make(map[core.GUID]int64),
		HealingDone:  make(map[core.GUID]int64),
		lastActivity: start,
	}
}

// Open reports whether the fight has no end yet.
func (f *Fight) Open() bool {
	return !f.Closed
}

// Duration is zero while the fight is open.
func (f *Fight) Duration() time.Duration {
	if !f.Closed {
		return 0
	}
	return f.End.Sub(f.Start)
}

// Side returns the roster side of g, if g participated.
func (f *Fight) Side(g core.GUID) (Side, bool) {
	s, ok := f.roster[g]
	return s, ok
}

// Members returns the participants on one side in GUID order.
func (f *Fight) Members(side Side) []core.GUID {
	out := make([]core.GUID, 0)
	for g, s := range f.roster {
		if s == side {
			out = append(out, g)
		}
	}
	sortGUIDs(out)
	return out
}

// addParticipant puts g on side unless it already has one.
func (f *Fight) addParticipant(g core.GUID, side Side) {
	if g.IsNil() {
		return
	}
	if _, ok := f.roster[g]; !ok {
		f.roster[g] = side
	}
}

// promote moves g out of the unknown set. Known sides never change.
func (f *Fight) promote(g core.GUID, side Side) bool {
	if cur, ok := f.roster[g]; ok && cur == SideUnknown && side != SideUnknown {
		f.roster[g] = side
		return true
	}
	return false
}

// RecordDamage adds amount to the source's done and the target's taken totals.
// Negative amounts count as zero. A nil source only touches the taken table.
func (f *Fight) RecordDamage(src, dst core.GUID, amount int64) {
	if amount < 0 {
		amount = 0
	}
	if !src.IsNil() {
		f.DamageDone[src] += amount
	}
	if !dst.IsNil() {
		f.DamageTaken[dst] += amount
	}
}

// RecordHeal adds effective healing to the source's total.
func (f *Fight) RecordHeal(src, dst core.GUID, amount int64) {
	if amount < 0 {
		amount = 0
	}
	if !src.IsNil() {
		f.HealingDone[src] += amount
	}
}

func (f *Fight) recordDeath(g core.GUID, ts time.Time) {
	f.Deaths = append(f.Deaths, Death{GUID: g, Time: ts})
	f.dead[g] = true
}

func (f *Fight) revive(g core.GUID) {
	delete(f.dead, g)
}

// hostilesDead reports whether the roster has hostiles and all of them are dead.
func (f *Fight) hostilesDead() bool {
	n := 0
	for g, s := range f.roster {
		if s != SideHostile {
			continue
		}
		if !f.dead[g] {
			return false
		}
		n++
	}
	return n > 0
}

func (f *Fight) close(ts time.Time, reason CloseReason) {
	if ts.Before(f.Start) {
		ts = f.Start
	}
	f.End = ts
	f.Closed = true
	f.CloseReason = reason
}
