// Package state holds the single owned value a parse mutates.
package state

import (
	"log/slog"
	"maps"

	"github.com/OCAP2/combatlog/internal/cache"
	"github.com/OCAP2/combatlog/internal/fight"
	"github.com/OCAP2/combatlog/pkg/core"
)

// Stats counts what the parse has seen.
type Stats struct {
	PrimaryLines int
	RawLines     int
	Events       int
	// UnknownEventKinds counts events decoded to the generic shape, by kind.
	UnknownEventKinds map[string]int
}

// TotalLines is the sum of both streams.
func (s Stats) TotalLines() int {
	return s.PrimaryLines + s.RawLines
}

// ParseState owns everything one parse builds. It has a single writer.
type ParseState struct {
	Registry *cache.EntityRegistry
	Fights   *fight.Tracker
	Casts    *CastTable
	Stats    Stats

	diagnostics    []core.Diagnostic
	diagByKind     map[core.DiagnosticKind]int
	maxDiagnostics int
}

// New creates an empty state. maxDiagnostics bounds how many diagnostics are kept;
// counts stay exact past the limit. A negative value keeps them all.
func New(names cache.NameLookup, cfg fight.Config, maxDiagnostics int, logger *slog.Logger) *ParseState {
	return &ParseState{
		Registry:       cache.NewEntityRegistry(names),
		Fights:         fight.NewTracker(cfg, logger),
		Casts:          NewCastTable(),
		Stats:          Stats{UnknownEventKinds: make(map[string]int)},
		diagByKind:     make(map[core.DiagnosticKind]int),
		maxDiagnostics: maxDiagnostics,
	}
}

// CountLine records one tokenized line from stream.
func (s *ParseState) CountLine(stream core.Stream) {
	if stream == core.StreamRaw {
		s.Stats.RawLines++
	} else {
		s.Stats.PrimaryLines++
	}
}

// CountUnknownKind records an event that decoded to the generic shape.
// It is informational and not a diagnostic.
func (s *ParseState) CountUnknownKind(kind string) {
	s.Stats.UnknownEventKinds[kind]++
}

// AddDiagnostic records a recoverable problem.
func (s *ParseState) AddDiagnostic(d core.Diagnostic) {
	s.diagByKind[d.Kind]++
	if s.maxDiagnostics < 0 || len(s.diagnostics) < s.maxDiagnostics {
		s.diagnostics = append(s.diagnostics, d)
	}
}

// Diagnostics returns the retained diagnostics in the order they were recorded.
func (s *ParseState) Diagnostics() []core.Diagnostic {
	return append([]core.Diagnostic(nil), s.diagnostics...)
}

// DiagnosticCount is the total number of diagnostics, retained or not.
func (s *ParseState) DiagnosticCount() int {
	n := 0
	for _, c := range s.diagByKind {
		n += c
	}
	return n
}

// DiagnosticsByKind returns a copy of the per-kind counts.
func (s *ParseState) DiagnosticsByKind() map[core.DiagnosticKind]int {
	return maps.Clone(s.diagByKind)
}
