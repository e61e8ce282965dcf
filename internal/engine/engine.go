// Package engine runs a whole parse: tokenize, decode, merge, dispatch, snapshot.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/OCAP2/combatlog/internal/dispatcher"
	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/internal/handlers"
	"github.com/OCAP2/combatlog/internal/lines"
	"github.com/OCAP2/combatlog/internal/merge"
	"github.com/OCAP2/combatlog/internal/parser"
	"github.com/OCAP2/combatlog/internal/state"
	"github.com/OCAP2/combatlog/pkg/core"
)

// Parse reads the primary combat log and the raw supplementary log and returns
// the snapshot. Per-line problems become diagnostics in the snapshot. The only
// errors are a fatal *core.ParseError and the context's error on cancellation.
func Parse(ctx context.Context, primary, raw []byte, opts ...Option) (*v1.Snapshot, error) {
	st, year, err := Run(ctx, primary, raw, opts...)
	if err != nil {
		return nil, err
	}
	snap := v1.Build(st, v1.Meta{Year: year})
	return &snap, nil
}

// Run is Parse without the final rendering. It returns the state and the year used.
func Run(ctx context.Context, primary, raw []byte, opts ...Option) (*state.ParseState, int, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	started := time.Now()

	primaryOK := lines.Readable(primary, o.threshold)
	rawOK := lines.Readable(raw, o.threshold)
	if !primaryOK && !rawOK {
		return nil, 0, &core.ParseError{
			Kind:    core.DiagEmptyOrUnreadableInput,
			Message: "both buffers are empty or not text",
		}
	}
	if !primaryOK && len(primary) > 0 {
		logger.Warn("primary log is not text, skipping it", "bytes", len(primary))
	}
	if !rawOK && len(raw) > 0 {
		logger.Warn("raw log is not text, skipping it", "bytes", len(raw))
	}

	st := state.New(o.names, o.fight, o.maxDiagnostics, logger)

	parserOpts := []parser.Option{parser.WithYear(o.year)}
	if o.clock != nil {
		parserOpts = append(parserOpts, parser.WithClock(o.clock))
	}
	p := parser.NewParser(logger, parserOpts...)

	d, err := dispatcher.New(logger)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	handlers.NewService(handlers.Dependencies{State: st, Logger: logger}).RegisterHandlers(d)

	var primarySrc, rawSrc merge.Source
	if primaryOK {
		primarySrc = newLineSource(ctx, primary, p, core.StreamPrimary, st)
	} else {
		primarySrc = merge.NewSliceSource(nil)
	}
	if rawOK {
		rawSrc = newLineSource(ctx, raw, p, core.StreamRaw, st)
	}

	m := merge.New(primarySrc, rawSrc)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		ev, ok := m.Next()
		if !ok {
			break
		}
		st.Stats.Events++
		if err := d.Dispatch(ev); err != nil {
			logger.Error("failed to apply event", "line", ev.Line, "stream", ev.Stream, "error", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	if st.Stats.TotalLines() == 0 {
		return nil, 0, &core.ParseError{
			Kind:    core.DiagEmptyOrUnreadableInput,
			Message: "no lines could be read from either buffer",
		}
	}

	logger.Info("parse complete",
		"lines", st.Stats.TotalLines(),
		"events", st.Stats.Events,
		"fights", len(st.Fights.Fights()),
		"entities", st.Registry.Len(),
		"diagnostics", st.DiagnosticCount(),
		"duration", time.Since(started),
	)
	return st, p.Year(), nil
}
