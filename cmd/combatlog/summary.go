package main

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/internal/worker"
	"github.com/OCAP2/combatlog/pkg/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

var fightHeaders = []string{"#", "Start", "Length", "Encounter", "Zone", "Result", "Damage", "Healing", "Deaths", "Top damage"}

// renderSummary prints the run header, the fight table and the diagnostic counts.
func renderSummary(w io.Writer, run *core.Run, snap *v1.Snapshot, res worker.Result) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("combatlog  " + filepath.Base(run.PrimaryFile)))
	b.WriteString("\n")
	writeField(&b, "Run", run.ID)
	if run.RawFile != "" {
		writeField(&b, "Raw log", filepath.Base(run.RawFile))
	}
	writeField(&b, "Lines", fmt.Sprintf("%s (%s primary, %s raw)",
		formatInt(int64(snap.Stats.TotalLines)),
		formatInt(int64(snap.Stats.PrimaryLines)),
		formatInt(int64(snap.Stats.RawLines))))
	writeField(&b, "Events", formatInt(int64(snap.Stats.Events)))
	writeField(&b, "Entities", strconv.Itoa(len(snap.Entities)))
	writeField(&b, "Parsed in", run.Duration.Round(time.Millisecond).String())
	if res.ExportedFile != "" {
		writeField(&b, "Snapshot", res.ExportedFile)
	}
	if res.Points > 0 {
		writeField(&b, "Points", strconv.Itoa(res.Points))
	}
	if res.Uploaded {
		writeField(&b, "Uploaded", successStyle.Render("yes"))
	}
	b.WriteString("\n")

	if len(snap.Fights) == 0 {
		b.WriteString(mutedStyle.Render("No fights found."))
		b.WriteString("\n")
	} else {
		b.WriteString(fightTable(snap.Fights).Render())
		b.WriteString("\n")
	}

	if snap.Stats.Diagnostics > 0 || snap.Stats.UnknownEventKinds > 0 {
		b.WriteString("\n")
		b.WriteString(accentStyle.Render(fmt.Sprintf("%d diagnostics", snap.Stats.Diagnostics)))
		b.WriteString("\n")
		for _, kind := range sortedKeys(snap.Stats.DiagnosticsByKind) {
			fmt.Fprintf(&b, "  %s %d\n", mutedStyle.Render(kind+":"), snap.Stats.DiagnosticsByKind[kind])
		}
		if snap.Stats.UnknownEventKinds > 0 {
			fmt.Fprintf(&b, "  %s %d (%s)\n", mutedStyle.Render("unknown event kinds:"),
				snap.Stats.UnknownEventKinds, strings.Join(sortedKeys(snap.Stats.UnknownKinds), ", "))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
}

func fightTable(fights []v1.Fight) *table.Table {
	rows := make([][]string, 0, len(fights))
	for _, f := range fights {
		rows = append(rows, fightRow(f))
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(fightHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func fightRow(f v1.Fight) []string {
	length := "open"
	if f.End != nil {
		length = f.End.Sub(f.Start).Round(time.Second).String()
	}

	encounter, result := "-", f.CloseReason
	if f.Encounter != nil {
		encounter = f.Encounter.Name
		result = "wipe"
		if f.Encounter.Success {
			result = "kill"
		}
	}
	if f.End == nil {
		result = "in progress"
	}
	if result == "" {
		result = "-"
	}

	zone := "-"
	if f.Zone != nil && f.Zone.Name != "" {
		zone = f.Zone.Name
	}

	top := "-"
	if len(f.DamageDone) > 0 {
		best := slices.MaxFunc(f.DamageDone, func(a, b v1.Amount) int {
			if a.Amount != b.Amount {
				if a.Amount < b.Amount {
					return -1
				}
				return 1
			}
			// equal amounts: the earlier GUID wins
			return strings.Compare(b.GUID, a.GUID)
		})
		top = fmt.Sprintf("%s (%s)", displayName(best), formatInt(best.Amount))
	}

	return []string{
		strconv.Itoa(f.ID),
		f.Start.Format("15:04:05"),
		length,
		encounter,
		zone,
		result,
		formatInt(sumAmounts(f.DamageDone)),
		formatInt(sumAmounts(f.HealingDone)),
		strconv.Itoa(len(f.Deaths)),
		top,
	}
}

func displayName(a v1.Amount) string {
	if a.Name != "" {
		return a.Name
	}
	return a.GUID
}

func sumAmounts(rows []v1.Amount) int64 {
	var total int64
	for _, r := range rows {
		total += r.Amount
	}
	return total
}

// formatInt groups digits by thousands: 1234567 -> "1,234,567".
func formatInt(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
