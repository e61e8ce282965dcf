package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ragnarosLog = `4/21 20:14:30.000  ENCOUNTER_START,672,"Ragnaros",9,40,409
4/21 20:14:31.000  SPELL_DAMAGE,0x0000000000000001,"Jaina",0x511,0xF130002CEE000077,"Ragnaros",0xa48,133,"Fireball",0x4,500,0,nil
4/21 20:14:32.000  UNIT_DIED,0x0000000000000000,nil,0x0,0xF130002CEE000077,"Ragnaros",0xa48
4/21 20:14:33.000  ENCOUNTER_END,672,"Ragnaros",9,40,1
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// newTestApp loads a config that stores json snapshots in outDir and logs to stderr.
func newTestApp(t *testing.T, outDir string) *app {
	t.Helper()
	t.Cleanup(viper.Reset)

	cfgDir := t.TempDir()
	cfg := map[string]any{
		"logLevel": "error",
		"logsDir":  filepath.Join(cfgDir, "logs"),
		"parser":   map[string]any{"year": 2024},
		"storage": map[string]any{
			"type":   "memory",
			"memory": map[string]any{"outputDir": outDir, "format": "json"},
		},
	}
	body, err := json.Marshal(cfg)
	require.NoError(t, err)
	writeFile(t, cfgDir, "combatlog.cfg.json", string(body))

	a, err := newApp(cfgDir, "", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newTestPipeline(t *testing.T, a *app) *pipeline {
	t.Helper()
	p, err := newPipeline(context.Background(), a, loadSettings())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestReadInputs(t *testing.T) {
	dir := t.TempDir()
	primary := writeFile(t, dir, "primary.txt", "a\n")
	raw := writeFile(t, dir, "raw.txt", "b\n")

	t.Run("both", func(t *testing.T) {
		p, r, err := readInputs(context.Background(), primary, raw)
		require.NoError(t, err)
		assert.Equal(t, "a\n", string(p))
		assert.Equal(t, "b\n", string(r))
	})

	t.Run("no raw", func(t *testing.T) {
		p, r, err := readInputs(context.Background(), primary, "")
		require.NoError(t, err)
		assert.Equal(t, "a\n", string(p))
		assert.Nil(t, r)
	})

	t.Run("missing raw", func(t *testing.T) {
		_, _, err := readInputs(context.Background(), primary, filepath.Join(dir, "nope.txt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read raw log")
	})
}

func TestLogArgs(t *testing.T) {
	p, r := logArgs([]string{"a.txt"})
	assert.Equal(t, "a.txt", p)
	assert.Equal(t, "", r)

	p, r = logArgs([]string{"a.txt", "b.txt"})
	assert.Equal(t, "a.txt", p)
	assert.Equal(t, "b.txt", r)
}

func TestPipeline_Process(t *testing.T) {
	outDir := t.TempDir()
	a := newTestApp(t, outDir)
	p := newTestPipeline(t, a)

	primary := writeFile(t, t.TempDir(), "WoWCombatLog.txt", ragnarosLog)

	var buf bytes.Buffer
	require.NoError(t, p.process(context.Background(), &buf, primary, ""))

	assert.Contains(t, buf.String(), "Ragnaros")
	assert.Contains(t, buf.String(), "kill")

	run := a.session.Run()
	require.NotNil(t, run)
	assert.Equal(t, primary, run.PrimaryFile)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "WoWCombatLog_"))

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	var snap v1.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Len(t, snap.Fights, 1)
	assert.Equal(t, 2024, snap.Year)
}

func TestPipeline_Quiet(t *testing.T) {
	a := newTestApp(t, t.TempDir())
	s := loadSettings()
	s.quiet = true
	p, err := newPipeline(context.Background(), a, s)
	require.NoError(t, err)
	defer p.Close()

	primary := writeFile(t, t.TempDir(), "WoWCombatLog.txt", ragnarosLog)
	var buf bytes.Buffer
	require.NoError(t, p.process(context.Background(), &buf, primary, ""))
	assert.Empty(t, buf.String())
}

func TestPipeline_EmptyInputIsFatal(t *testing.T) {
	a := newTestApp(t, t.TempDir())
	p := newTestPipeline(t, a)

	primary := writeFile(t, t.TempDir(), "empty.txt", "")
	err := p.process(context.Background(), &bytes.Buffer{}, primary, "")
	require.Error(t, err)
	assert.True(t, core.IsFatal(err))
}

func TestNewPipeline_UnknownStorage(t *testing.T) {
	a := newTestApp(t, t.TempDir())
	s := loadSettings()
	s.storage.Type = "cassandra"

	_, err := newPipeline(context.Background(), a, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestEngineOptions_MissingNamesFile(t *testing.T) {
	a := newTestApp(t, t.TempDir())
	s := loadSettings()
	s.parser.NamesFile = filepath.Join(t.TempDir(), "npcs.yaml")

	_, err := engineOptions(a, s)
	require.Error(t, err)
}

func TestEngineOptions_NamesFile(t *testing.T) {
	a := newTestApp(t, t.TempDir())
	s := loadSettings()
	s.parser.NamesFile = writeFile(t, t.TempDir(), "npcs.yaml", "11502: Ragnaros\n")

	opts, err := engineOptions(a, s)
	require.NoError(t, err)
	assert.Len(t, opts, 6)
}
