// Package v1 contains the v1 snapshot format for a parsed combat log.
// Field names are stable; consumers must ignore fields they do not know.
package v1

import "time"

// Version is written into every snapshot.
const Version = 1

// Snapshot is the root document.
type Snapshot struct {
	Version     int          `json:"version" yaml:"version"`
	Year        int          `json:"year,omitempty" yaml:"year,omitempty"`
	Entities    []Entity     `json:"entities" yaml:"entities"`
	Fights      []Fight      `json:"fights" yaml:"fights"`
	Casts       []Caster     `json:"casts" yaml:"casts"`
	Stats       Stats        `json:"stats" yaml:"stats"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// Entity is one GUID with everything observed for it.
type Entity struct {
	GUID      string     `json:"guid" yaml:"guid"`
	Kind      string     `json:"kind" yaml:"kind"`
	EntryID   uint32     `json:"entryId,omitempty" yaml:"entryId,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Instances []Instance `json:"instances" yaml:"instances"`
}

// Instance is one observed name and flag snapshot.
type Instance struct {
	FirstSeen time.Time `json:"firstSeen" yaml:"firstSeen"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Flags     uint32    `json:"flags,omitempty" yaml:"flags,omitempty"`
	Class     string    `json:"class,omitempty" yaml:"class,omitempty"`
	Owner     string    `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// Fight is one closed or open engagement.
type Fight struct {
	ID          int        `json:"id" yaml:"id"`
	Start       time.Time  `json:"start" yaml:"start"`
	End         *time.Time `json:"end" yaml:"end"`
	Zone        *Zone      `json:"zone,omitempty" yaml:"zone,omitempty"`
	Trigger     string     `json:"trigger" yaml:"trigger"`
	CloseReason string     `json:"closeReason,omitempty" yaml:"closeReason,omitempty"`
	Encounter   *Encounter `json:"encounter,omitempty" yaml:"encounter,omitempty"`
	Friendly    []string   `json:"friendly" yaml:"friendly"`
	Hostile     []string   `json:"hostile" yaml:"hostile"`
	Unknown     []string   `json:"unknown" yaml:"unknown"`
	Deaths      []Death    `json:"deaths" yaml:"deaths"`
	DamageDone  []Amount   `json:"damageDone" yaml:"damageDone"`
	DamageTaken []Amount   `json:"damageTaken" yaml:"damageTaken"`
	HealingDone []Amount   `json:"healingDone" yaml:"healingDone"`
}

// Zone is the zone a fight started in.
type Zone struct {
	Name       string `json:"name" yaml:"name"`
	InstanceID uint32 `json:"instanceId,omitempty" yaml:"instanceId,omitempty"`
}

// Encounter is the boss encounter of a fight.
type Encounter struct {
	ID         uint32 `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Difficulty uint32 `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Success    bool   `json:"success" yaml:"success"`
}

// Death is a unit death inside a fight.
type Death struct {
	GUID string    `json:"guid" yaml:"guid"`
	Time time.Time `json:"time" yaml:"time"`
}

// Amount is one row of a damage or healing table.
type Amount struct {
	GUID   string `json:"guid" yaml:"guid"`
	Name   string `json:"name" yaml:"name"`
	Amount int64  `json:"amount" yaml:"amount"`
}

// Caster holds the cast tallies of one entity.
type Caster struct {
	GUID   string       `json:"guid" yaml:"guid"`
	Name   string       `json:"name" yaml:"name"`
	Spells []SpellCount `json:"spells" yaml:"spells"`
}

// SpellCount is the tally for one spell.
type SpellCount struct {
	SpellID uint32 `json:"spellId" yaml:"spellId"`
	Name    string `json:"name" yaml:"name"`
	Count   int    `json:"count" yaml:"count"`
}

// Stats summarizes the parse.
type Stats struct {
	TotalLines        int            `json:"totalLines" yaml:"totalLines"`
	PrimaryLines      int            `json:"primaryLines" yaml:"primaryLines"`
	RawLines          int            `json:"rawLines" yaml:"rawLines"`
	Events            int            `json:"events" yaml:"events"`
	Diagnostics       int            `json:"diagnostics" yaml:"diagnostics"`
	DiagnosticsByKind map[string]int `json:"diagnosticsByKind" yaml:"diagnosticsByKind"`
	UnknownEventKinds int            `json:"unknownEventKinds" yaml:"unknownEventKinds"`
	UnknownKinds      map[string]int `json:"unknownKinds" yaml:"unknownKinds"`
}

// Diagnostic is a recoverable problem tied to one line.
type Diagnostic struct {
	Line    int    `json:"line" yaml:"line"`
	Stream  string `json:"stream" yaml:"stream"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}
