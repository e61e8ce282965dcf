package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// fileName builds <primary log name>_<start time>_<run id prefix>.<ext>.
func (b *Backend) fileName() string {
	base := "combatlog"
	if b.run.PrimaryFile != "" {
		base = strings.TrimSuffix(filepath.Base(b.run.PrimaryFile), filepath.Ext(b.run.PrimaryFile))
	}
	base = strings.NewReplacer(" ", "_", ":", "_").Replace(base)

	id := b.run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("%s_%s_%s", base, b.run.StartedAt.Format("20060102_150405"), id)

	switch {
	case b.cfg.Format == FormatYAML:
		name += ".yaml"
	case b.cfg.Format == FormatXLSX:
		name += ".xlsx"
	default:
		name += ".json"
	}
	if b.cfg.CompressOutput && b.cfg.Format != FormatXLSX {
		name += ".gz"
	}
	return name
}

// export writes the current snapshot. Callers hold b.mu.
func (b *Backend) export() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, b.fileName())

	var err error
	if b.cfg.Format == FormatXLSX {
		err = writeXLSX(outputPath, b.snapshot)
	} else {
		err = b.writeEncoded(outputPath)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) writeEncoded(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := b.encode(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// encode writes the snapshot to w, gzip compressed when configured.
func (b *Backend) encode(w io.Writer) error {
	if !b.cfg.CompressOutput {
		return b.encodeSnapshot(w)
	}

	gzWriter := gzip.NewWriter(w)
	if err := b.encodeSnapshot(gzWriter); err != nil {
		_ = gzWriter.Close()
		return err
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

func (b *Backend) encodeSnapshot(w io.Writer) error {
	if b.cfg.Format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b.snapshot); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	encoder := json.NewEncoder(w)
	if err := encoder.Encode(b.snapshot); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// writeXLSX writes a Fights overview sheet plus one damage/healing sheet per fight.
func writeXLSX(path string, snap *v1.Snapshot) error {
	xl := excelize.NewFile()
	defer xl.Close()

	const overview = "Fights"
	if err := xl.SetSheetName("Sheet1", overview); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"ID", "Start", "End", "Zone", "Trigger", "Close reason", "Encounter", "Success", "Friendly", "Hostile", "Deaths"}
	if err := xl.SetSheetRow(overview, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, f := range snap.Fights {
		end, zone, encounter, success := "", "", "", ""
		if f.End != nil {
			end = f.End.Format("2006-01-02 15:04:05.000")
		}
		if f.Zone != nil {
			zone = f.Zone.Name
		}
		if f.Encounter != nil {
			encounter = f.Encounter.Name
			success = fmt.Sprint(f.Encounter.Success)
		}
		row := []any{
			f.ID,
			f.Start.Format("2006-01-02 15:04:05.000"),
			end,
			zone,
			f.Trigger,
			f.CloseReason,
			encounter,
			success,
			len(f.Friendly),
			len(f.Hostile),
			len(f.Deaths),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(overview, cell, &row); err != nil {
			return fmt.Errorf("failed to write fight %d: %w", f.ID, err)
		}

		if err := writeFightSheet(xl, f); err != nil {
			return err
		}
	}

	if err := xl.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save xlsx: %w", err)
	}
	return nil
}

func writeFightSheet(xl *excelize.File, f v1.Fight) error {
	sheet := fmt.Sprintf("Fight %d", f.ID)
	if _, err := xl.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	tables := []struct {
		title string
		rows  []v1.Amount
	}{
		{"Damage done", f.DamageDone},
		{"Damage taken", f.DamageTaken},
		{"Healing done", f.HealingDone},
	}
	for col, tbl := range tables {
		// three columns per table plus a spacer
		x := col*4 + 1
		head := []any{tbl.title, "GUID", "Amount"}
		cell, _ := excelize.CoordinatesToCellName(x, 1)
		if err := xl.SetSheetRow(sheet, cell, &head); err != nil {
			return fmt.Errorf("failed to write %s header: %w", sheet, err)
		}
		for i, a := range tbl.rows {
			row := []any{a.Name, a.GUID, a.Amount}
			cell, _ := excelize.CoordinatesToCellName(x, i+2)
			if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s row: %w", sheet, err)
			}
		}
	}
	return nil
}
