package main

import (
	"bytes"
	"testing"
	"time"

	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/internal/worker"
	"github.com/OCAP2/combatlog/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFight() v1.Fight {
	start := time.Date(2024, 4, 21, 20, 14, 30, 0, time.UTC)
	end := start.Add(3 * time.Second)
	return v1.Fight{
		ID:    1,
		Start: start,
		End:   &end,
		Zone:  &v1.Zone{Name: "Molten Core", InstanceID: 409},
		Encounter: &v1.Encounter{
			ID: 672, Name: "Ragnaros", Difficulty: 9, Success: true,
		},
		DamageDone: []v1.Amount{
			{GUID: "0x0000000000000001", Name: "Jaina", Amount: 1500},
			{GUID: "0x0000000000000002", Name: "Thrall", Amount: 1200},
		},
		HealingDone: []v1.Amount{{GUID: "0x0000000000000003", Name: "Anduin", Amount: 800}},
		Deaths:      []v1.Death{{GUID: "0xF130002CEE000077", Time: end}},
	}
}

func TestFightRow(t *testing.T) {
	open := newTestFight()
	open.End = nil

	noEncounter := newTestFight()
	noEncounter.Encounter = nil
	noEncounter.CloseReason = "hostiles_dead"
	noEncounter.Zone = nil

	wipe := newTestFight()
	wipe.Encounter.Success = false

	tests := []struct {
		name  string
		fight v1.Fight
		want  []string
	}{
		{"kill", newTestFight(), []string{"1", "20:14:30", "3s", "Ragnaros", "Molten Core", "kill", "2,700", "800", "1", "Jaina (1,500)"}},
		{"wipe", wipe, []string{"1", "20:14:30", "3s", "Ragnaros", "Molten Core", "wipe", "2,700", "800", "1", "Jaina (1,500)"}},
		{"open", open, []string{"1", "20:14:30", "open", "Ragnaros", "Molten Core", "in progress", "2,700", "800", "1", "Jaina (1,500)"}},
		{"implicit", noEncounter, []string{"1", "20:14:30", "3s", "-", "-", "hostiles_dead", "2,700", "800", "1", "Jaina (1,500)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fightRow(tt.fight))
		})
	}
}

func TestFightRow_TopDamageTieUsesFirstGUID(t *testing.T) {
	f := newTestFight()
	f.DamageDone = []v1.Amount{
		{GUID: "0x0000000000000002", Amount: 100},
		{GUID: "0x0000000000000001", Amount: 100},
	}
	assert.Equal(t, "0x0000000000000001 (100)", fightRow(f)[9])
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatInt(tt.in))
		})
	}
}

func TestRenderSummary(t *testing.T) {
	run := &core.Run{
		ID:          "2c1f6a0e-0000-4000-8000-000000000001",
		PrimaryFile: "/logs/WoWCombatLog.txt",
		RawFile:     "/logs/WoWCombatLog-raw.txt",
		Duration:    12 * time.Millisecond,
	}
	snap := &v1.Snapshot{
		Version: 1,
		Fights:  []v1.Fight{newTestFight()},
		Stats: v1.Stats{
			TotalLines: 6, PrimaryLines: 4, RawLines: 2, Events: 6,
			Diagnostics:       1,
			DiagnosticsByKind: map[string]int{"MalformedLine": 1},
			UnknownEventKinds: 2,
			UnknownKinds:      map[string]int{"SPELL_AURA_APPLIED": 2},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, renderSummary(&buf, run, snap, worker.Result{ExportedFile: "/out/run.json", Points: 4}))
	out := buf.String()

	assert.Contains(t, out, "WoWCombatLog.txt")
	assert.Contains(t, out, run.ID)
	assert.Contains(t, out, "WoWCombatLog-raw.txt")
	assert.Contains(t, out, "6 (4 primary, 2 raw)")
	assert.Contains(t, out, "/out/run.json")
	assert.Contains(t, out, "Ragnaros")
	assert.Contains(t, out, "Jaina (1,500)")
	assert.Contains(t, out, "1 diagnostics")
	assert.Contains(t, out, "MalformedLine:")
	assert.Contains(t, out, "SPELL_AURA_APPLIED")
	assert.NotContains(t, out, "Uploaded")
}

func TestRenderSummary_NoFights(t *testing.T) {
	var buf bytes.Buffer
	run := &core.Run{ID: "r", PrimaryFile: "empty.txt"}
	require.NoError(t, renderSummary(&buf, run, &v1.Snapshot{}, worker.Result{}))

	assert.Contains(t, buf.String(), "No fights found.")
	assert.NotContains(t, buf.String(), "diagnostics")
}
