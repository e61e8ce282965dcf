package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mergeRawLog = `4/21 20:14:29.000  ZONE_INFO,"Molten Core",409
4/21 20:14:31.000  UNIT_INFO,0xF140001A2B000042,0,"Wolf",1,0x0000000000000001
4/21 20:14:32.500  ZONE_INFO,"Molten Core",409
`

func splitOutput(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestMergeLogs(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		raw     string
		want    []string
		dropped int
	}{
		{
			name:    "interleaves by timestamp, primary first on ties",
			primary: ragnarosLog,
			raw:     mergeRawLog,
			want: []string{
				`4/21 20:14:29.000  ZONE_INFO,"Molten Core",409`,
				`4/21 20:14:30.000  ENCOUNTER_START,672,"Ragnaros",9,40,409`,
				`4/21 20:14:31.000  SPELL_DAMAGE,0x0000000000000001,"Jaina",0x511,0xF130002CEE000077,"Ragnaros",0xa48,133,"Fireball",0x4,500,0,nil`,
				`4/21 20:14:31.000  UNIT_INFO,0xF140001A2B000042,0,"Wolf",1,0x0000000000000001`,
				`4/21 20:14:32.000  UNIT_DIED,0x0000000000000000,nil,0x0,0xF130002CEE000077,"Ragnaros",0xa48`,
				`4/21 20:14:32.500  ZONE_INFO,"Molten Core",409`,
				`4/21 20:14:33.000  ENCOUNTER_END,672,"Ragnaros",9,40,1`,
			},
		},
		{
			name:    "unreadable lines are dropped",
			primary: "garbage\n\n" + ragnarosLog,
			raw:     "also garbage\n",
			want:    splitOutput(ragnarosLog),
			dropped: 2,
		},
		{
			name: "end of one encounter goes before the start of the next",
			primary: `4/21 20:20:00.000  ENCOUNTER_START,663,"Lucifron",9,40,409
4/21 20:20:00.000  ENCOUNTER_END,672,"Ragnaros",9,40,1
`,
			want: []string{
				`4/21 20:20:00.000  ENCOUNTER_END,672,"Ragnaros",9,40,1`,
				`4/21 20:20:00.000  ENCOUNTER_START,663,"Lucifron",9,40,409`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			res, err := mergeLogs(context.Background(), slog.Default(), &buf, []byte(tt.primary), []byte(tt.raw), 2024)
			require.NoError(t, err)

			assert.Equal(t, tt.want, splitOutput(buf.String()))
			assert.Equal(t, len(tt.want), res.Written)
			assert.Equal(t, tt.dropped, res.Dropped)
		})
	}
}

func TestMergeLogs_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := mergeLogs(ctx, slog.Default(), &buf, []byte(ragnarosLog), nil, 2024)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeCommand(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfgDir := t.TempDir()
	writeFile(t, cfgDir, "combatlog.cfg.json", `{"logLevel": "error"}`)
	primary := writeFile(t, dir, "WoWCombatLog.txt", ragnarosLog)
	raw := writeFile(t, dir, "WoWRawCombatLog.txt", mergeRawLog)
	out := filepath.Join(dir, "merged.txt")

	rootCmd.SetArgs([]string{"merge", "-c", cfgDir, "--no-log-file", "--year", "2024", "-o", out, primary, raw})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		mergeOutFlag = ""
		mergeYearFlag = 0
		configDir = ""
		noLogFile = false
	})

	require.NoError(t, rootCmd.Execute())

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	merged := splitOutput(string(body))
	require.Len(t, merged, 7)
	assert.True(t, strings.HasPrefix(merged[0], "4/21 20:14:29.000  ZONE_INFO"))
	assert.True(t, strings.HasSuffix(merged[6], "ENCOUNTER_END,672,\"Ragnaros\",9,40,1"))
}
