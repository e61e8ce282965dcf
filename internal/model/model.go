package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels lists every table, in migration order.
var DatabaseModels = []interface{}{
	&Run{},
	&Entity{},
	&Fight{},
	&FightMember{},
	&FightAmount{},
	&FightDeath{},
	&CastCount{},
	&Diagnostic{},
}

// Amount tables stored in FightAmount.Table.
const (
	TableDamageDone  = "damage_done"
	TableDamageTaken = "damage_taken"
	TableHealingDone = "healing_done"
)

// Run is one parse of a primary log and its optional raw companion.
// Document holds the full snapshot so it can be returned without joins.
type Run struct {
	ID                string         `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt         time.Time      `json:"createdAt"`
	StartedAt         time.Time      `json:"startedAt" gorm:"index:idx_run_started_at"`
	DurationMs        int64          `json:"durationMs"`
	PrimaryFile       string         `json:"primaryFile" gorm:"size:255"`
	RawFile           string         `json:"rawFile" gorm:"size:255"`
	Year              int            `json:"year"`
	TotalLines        int            `json:"totalLines"`
	PrimaryLines      int            `json:"primaryLines"`
	RawLines          int            `json:"rawLines"`
	Events            int            `json:"events"`
	DiagnosticCount   int            `json:"diagnosticCount"`
	DiagnosticsByKind datatypes.JSON `json:"diagnosticsByKind"`
	UnknownKinds      datatypes.JSON `json:"unknownKinds"`
	Document          datatypes.JSON `json:"document"`

	Entities    []Entity     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Fights      []Fight      `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Casts       []CastCount  `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Diagnostics []Diagnostic `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}

func (*Run) TableName() string {
	return "runs"
}

// Entity is one GUID seen during a run. Instances keeps the observed
// name and flag history as JSON.
type Entity struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID     string         `json:"runId" gorm:"size:36;index:idx_entity_run_guid"`
	GUID      string         `json:"guid" gorm:"size:18;index:idx_entity_run_guid"`
	Kind      string         `json:"kind" gorm:"size:16"`
	EntryID   uint32         `json:"entryId"`
	Name      string         `json:"name" gorm:"size:127"`
	Instances datatypes.JSON `json:"instances"`
}

func (*Entity) TableName() string {
	return "entities"
}

// Fight is one segmented engagement. Number is the fight ID within its run.
type Fight struct {
	ID               uint         `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID            string       `json:"runId" gorm:"size:36;index:idx_fight_run"`
	Number           int          `json:"number"`
	Start            time.Time    `json:"start"`
	End              sql.NullTime `json:"end"`
	Zone             string       `json:"zone" gorm:"size:127"`
	ZoneInstance     uint32       `json:"zoneInstance"`
	Trigger          string       `json:"trigger" gorm:"size:16"`
	CloseReason      string       `json:"closeReason" gorm:"size:16"`
	EncounterID      uint32       `json:"encounterId"`
	EncounterName    string       `json:"encounterName" gorm:"size:127"`
	Difficulty       uint32       `json:"difficulty"`
	EncounterSuccess bool         `json:"encounterSuccess"`

	Members []FightMember `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Amounts []FightAmount `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Deaths  []FightDeath  `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}

func (*Fight) TableName() string {
	return "fights"
}

// FightMember is a roster entry with its side.
type FightMember struct {
	ID      uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	FightID uint   `json:"fightId" gorm:"index:idx_member_fight"`
	GUID    string `json:"guid" gorm:"size:18"`
	Side    string `json:"side" gorm:"size:16"`
}

func (*FightMember) TableName() string {
	return "fight_members"
}

// FightAmount is one row of a per-fight damage or healing table.
type FightAmount struct {
	ID      uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	FightID uint   `json:"fightId" gorm:"index:idx_amount_fight_table"`
	Table   string `json:"table" gorm:"column:amount_table;size:16;index:idx_amount_fight_table"`
	GUID    string `json:"guid" gorm:"size:18"`
	Name    string `json:"name" gorm:"size:127"`
	Amount  int64  `json:"amount"`
}

func (*FightAmount) TableName() string {
	return "fight_amounts"
}

type FightDeath struct {
	ID      uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	FightID uint      `json:"fightId" gorm:"index:idx_death_fight"`
	GUID    string    `json:"guid" gorm:"size:18"`
	Time    time.Time `json:"time"`
}

func (*FightDeath) TableName() string {
	return "fight_deaths"
}

// CastCount is the successful cast tally of one spell by one caster.
type CastCount struct {
	ID         uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID      string `json:"runId" gorm:"size:36;index:idx_cast_run"`
	GUID       string `json:"guid" gorm:"size:18"`
	CasterName string `json:"casterName" gorm:"size:127"`
	SpellID    uint32 `json:"spellId"`
	SpellName  string `json:"spellName" gorm:"size:127"`
	Count      int    `json:"count"`
}

func (*CastCount) TableName() string {
	return "cast_counts"
}

type Diagnostic struct {
	ID      uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID   string `json:"runId" gorm:"size:36;index:idx_diagnostic_run"`
	Line    int    `json:"line"`
	Stream  string `json:"stream" gorm:"size:8"`
	Kind    string `json:"kind" gorm:"size:32"`
	Message string `json:"message" gorm:"size:512"`
}

func (*Diagnostic) TableName() string {
	return "diagnostics"
}
