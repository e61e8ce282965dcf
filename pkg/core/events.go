// pkg/core/events.go
package core

import (
	"time"
)

// EventKind is the tag in field 1 of a log line.
type EventKind string

const (
	EventSwingDamage         EventKind = "SWING_DAMAGE"
	EventRangeDamage         EventKind = "RANGE_DAMAGE"
	EventSpellDamage         EventKind = "SPELL_DAMAGE"
	EventSpellPeriodicDamage EventKind = "SPELL_PERIODIC_DAMAGE"
	EventEnvironmentalDamage EventKind = "ENVIRONMENTAL_DAMAGE"
	EventSpellHeal           EventKind = "SPELL_HEAL"
	EventSpellPeriodicHeal   EventKind = "SPELL_PERIODIC_HEAL"
	EventCastStart           EventKind = "SPELL_CAST_START"
	EventCastSuccess         EventKind = "SPELL_CAST_SUCCESS"
	EventCastFailed          EventKind = "SPELL_CAST_FAILED"
	EventAuraApplied         EventKind = "SPELL_AURA_APPLIED"
	EventAuraRemoved         EventKind = "SPELL_AURA_REMOVED"
	EventUnitDied            EventKind = "UNIT_DIED"
	EventZoneChange          EventKind = "ZONE_CHANGE"
	EventEncounterStart      EventKind = "ENCOUNTER_START"
	EventEncounterEnd        EventKind = "ENCOUNTER_END"

	// Raw stream kinds
	EventUnitInfo      EventKind = "UNIT_INFO"
	EventZoneInfo      EventKind = "ZONE_INFO"
	EventCombatantInfo EventKind = "COMBATANT_INFO"
)

// Stream identifies which input buffer a line came from.
type Stream uint8

const (
	StreamPrimary Stream = iota
	StreamRaw
)

func (s Stream) String() string {
	if s == StreamRaw {
		return "raw"
	}
	return "primary"
}

// MarshalText renders the stream by name.
func (s Stream) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Unit is one side of a unit prefix: GUID, display name and unit flags.
type Unit struct {
	GUID  GUID
	Name  string
	Flags uint32
}

// School holds spell school flags. A line may carry one value or a sub-list.
type School struct {
	Flags []uint32
}

// Mask ORs all flags together.
func (s School) Mask() uint32 {
	var m uint32
	for _, f := range s.Flags {
		m |= f
	}
	return m
}

// Spell identifies the ability behind a spell-family event.
type Spell struct {
	ID     uint32
	Name   string
	School School
}

// Event is one decoded log line. Payload holds the kind-specific variant.
type Event struct {
	Time    time.Time
	Kind    EventKind
	Line    int
	Stream  Stream
	Source  Unit
	Dest    Unit
	Payload Payload
}

// Payload is implemented by every kind-specific event body.
type Payload interface {
	payload()
}

// Damage covers swing, range, spell, periodic and environmental damage.
type Damage struct {
	Spell         *Spell // nil for swing and environmental damage
	Environmental string
	Amount        int64
	Absorbed      int64
	School        School
	Critical      bool
}

// Heal covers direct and periodic heals.
type Heal struct {
	Spell    Spell
	Amount   int64
	Overheal int64
	Critical bool
}

// Effective is the amount that landed, without overheal.
func (h Heal) Effective() int64 {
	v := h.Amount - h.Overheal
	if v < 0 {
		return 0
	}
	return v
}

// CastAction distinguishes the three cast events.
type CastAction uint8

const (
	CastStart CastAction = iota
	CastSuccess
	CastFailed
)

// Cast is a cast start, success or failure.
type Cast struct {
	Action CastAction
	Spell  Spell
	Reason string
}

// Aura is an aura apply or remove.
type Aura struct {
	Applied  bool
	Spell    Spell
	AuraType string
}

// Died marks Dest as dead.
type Died struct{}

// ZoneChange moves the player into a new zone.
type ZoneChange struct {
	Zone       Zone
	Difficulty uint32
}

// EncounterStart is the explicit fight-open marker.
type EncounterStart struct {
	Encounter Encounter
	GroupSize uint32
	Instance  uint32
}

// EncounterEnd is the explicit fight-close marker.
type EncounterEnd struct {
	Encounter Encounter
	GroupSize uint32
	Success   bool
}

// UnitInfo comes from the raw stream and describes one unit.
type UnitInfo struct {
	GUID         GUID
	Name         string
	IsPlayer     bool
	CanCooperate bool
	Owner        GUID
}

// ZoneInfo comes from the raw stream and names the current zone.
type ZoneInfo struct {
	Zone Zone
}

// CombatantInfo comes from the raw stream and carries class data for players.
type CombatantInfo struct {
	GUID    GUID
	Name    string
	Class   string
	Race    string
	Talents []string
}

// Generic is the passthrough shape for kinds missing from the schema table.
type Generic struct {
	Kind      string
	RawFields []string
}

func (Damage) payload()         {}
func (Heal) payload()           {}
func (Cast) payload()           {}
func (Aura) payload()           {}
func (Died) payload()           {}
func (ZoneChange) payload()     {}
func (EncounterStart) payload() {}
func (EncounterEnd) payload()   {}
func (UnitInfo) payload()       {}
func (ZoneInfo) payload()       {}
func (CombatantInfo) payload()  {}
func (Generic) payload()        {}

// Zone is a named map instance.
type Zone struct {
	Name       string `json:"name"`
	InstanceID uint32 `json:"instanceId,omitempty"`
}

func (z Zone) IsZero() bool {
	return z.Name == "" && z.InstanceID == 0
}

// Equal compares instance IDs when both sides carry one and falls back to names.
func (z Zone) Equal(other Zone) bool {
	if z.InstanceID != 0 && other.InstanceID != 0 {
		return z.InstanceID == other.InstanceID
	}
	return z.Name == other.Name
}

// Encounter identifies a boss encounter from its start or end marker.
type Encounter struct {
	ID         uint32 `json:"id"`
	Name       string `json:"name"`
	Difficulty uint32 `json:"difficulty,omitempty"`
}
