// Package convert maps snapshots onto the GORM models and back.
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/internal/model"
	"github.com/OCAP2/combatlog/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v. Nil maps and slices become empty instead of null.
func toJSON(v any, empty string) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return datatypes.JSON(empty), nil
	}
	return datatypes.JSON(data), nil
}

// SnapshotToRun builds the row tree for one run. Children are linked by
// association so a single Create stores everything.
func SnapshotToRun(run *core.Run, snap *v1.Snapshot) (model.Run, error) {
	doc, err := json.Marshal(snap)
	if err != nil {
		return model.Run{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	byKind, err := toJSON(snap.Stats.DiagnosticsByKind, "{}")
	if err != nil {
		return model.Run{}, err
	}
	unknown, err := toJSON(snap.Stats.UnknownKinds, "{}")
	if err != nil {
		return model.Run{}, err
	}

	m := model.Run{
		ID:                run.ID,
		StartedAt:         run.StartedAt,
		DurationMs:        run.Duration.Milliseconds(),
		PrimaryFile:       run.PrimaryFile,
		RawFile:           run.RawFile,
		Year:              snap.Year,
		TotalLines:        snap.Stats.TotalLines,
		PrimaryLines:      snap.Stats.PrimaryLines,
		RawLines:          snap.Stats.RawLines,
		Events:            snap.Stats.Events,
		DiagnosticCount:   snap.Stats.Diagnostics,
		DiagnosticsByKind: byKind,
		UnknownKinds:      unknown,
		Document:          datatypes.JSON(doc),
	}

	for _, e := range snap.Entities {
		ent, err := EntityToModel(run.ID, e)
		if err != nil {
			return model.Run{}, err
		}
		m.Entities = append(m.Entities, ent)
	}
	for _, f := range snap.Fights {
		m.Fights = append(m.Fights, FightToModel(run.ID, f))
	}
	for _, c := range snap.Casts {
		for _, s := range c.Spells {
			m.Casts = append(m.Casts, model.CastCount{
				RunID:      run.ID,
				GUID:       c.GUID,
				CasterName: c.Name,
				SpellID:    s.SpellID,
				SpellName:  s.Name,
				Count:      s.Count,
			})
		}
	}
	for _, d := range snap.Diagnostics {
		m.Diagnostics = append(m.Diagnostics, model.Diagnostic{
			RunID:   run.ID,
			Line:    d.Line,
			Stream:  d.Stream,
			Kind:    d.Kind,
			Message: d.Message,
		})
	}
	return m, nil
}

// EntityToModel converts one snapshot entity.
func EntityToModel(runID string, e v1.Entity) (model.Entity, error) {
	instances, err := toJSON(e.Instances, "[]")
	if err != nil {
		return model.Entity{}, fmt.Errorf("failed to encode instances of %s: %w", e.GUID, err)
	}
	return model.Entity{
		RunID:     runID,
		GUID:      e.GUID,
		Kind:      e.Kind,
		EntryID:   e.EntryID,
		Name:      e.Name,
		Instances: instances,
	}, nil
}

// FightToModel converts one fight with its roster, tables and deaths.
func FightToModel(runID string, f v1.Fight) model.Fight {
	m := model.Fight{
		RunID:       runID,
		Number:      f.ID,
		Start:       f.Start,
		Trigger:     f.Trigger,
		CloseReason: f.CloseReason,
	}
	if f.End != nil {
		m.End = sql.NullTime{Time: *f.End, Valid: true}
	}
	if f.Zone != nil {
		m.Zone = f.Zone.Name
		m.ZoneInstance = f.Zone.InstanceID
	}
	if f.Encounter != nil {
		m.EncounterID = f.Encounter.ID
		m.EncounterName = f.Encounter.Name
		m.Difficulty = f.Encounter.Difficulty
		m.EncounterSuccess = f.Encounter.Success
	}

	members := func(side string, guids []string) {
		for _, g := range guids {
			m.Members = append(m.Members, model.FightMember{GUID: g, Side: side})
		}
	}
	members("friendly", f.Friendly)
	members("hostile", f.Hostile)
	members("unknown", f.Unknown)

	amounts := func(table string, rows []v1.Amount) {
		for _, r := range rows {
			m.Amounts = append(m.Amounts, model.FightAmount{Table: table, GUID: r.GUID, Name: r.Name, Amount: r.Amount})
		}
	}
	amounts(model.TableDamageDone, f.DamageDone)
	amounts(model.TableDamageTaken, f.DamageTaken)
	amounts(model.TableHealingDone, f.HealingDone)

	for _, d := range f.Deaths {
		m.Deaths = append(m.Deaths, model.FightDeath{GUID: d.GUID, Time: d.Time})
	}
	return m
}

// RunToSnapshot decodes the stored document of a run.
func RunToSnapshot(m model.Run) (*v1.Snapshot, error) {
	if len(m.Document) == 0 {
		return nil, fmt.Errorf("run %s has no stored snapshot", m.ID)
	}
	var snap v1.Snapshot
	if err := json.Unmarshal(m.Document, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot of run %s: %w", m.ID, err)
	}
	return &snap, nil
}
