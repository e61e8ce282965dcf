package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/OCAP2/combatlog/internal/api"
	"github.com/OCAP2/combatlog/internal/cache"
	"github.com/OCAP2/combatlog/internal/config"
	"github.com/OCAP2/combatlog/internal/database"
	"github.com/OCAP2/combatlog/internal/engine"
	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/internal/fight"
	"github.com/OCAP2/combatlog/internal/influx"
	"github.com/OCAP2/combatlog/internal/storage"
	"github.com/OCAP2/combatlog/internal/worker"
	"github.com/OCAP2/combatlog/pkg/core"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// settings is the configuration one pipeline runs with, after flag overrides.
type settings struct {
	parser  config.ParserConfig
	fight   config.FightConfig
	storage config.StorageConfig
	influx  config.InfluxConfig
	api     config.APIConfig
	quiet   bool
}

func loadSettings() settings {
	return settings{
		parser:  config.GetParserConfig(),
		fight:   config.GetFightConfig(),
		storage: config.GetStorageConfig(),
		influx:  config.GetInfluxConfig(),
		api:     config.GetAPIConfig(),
	}
}

// pipeline reads, parses and persists one pair of log files at a time.
type pipeline struct {
	app     *app
	opts    []engine.Option
	backend storage.Backend
	influx  *influx.Manager
	worker  *worker.Manager
	runs    metric.Int64Counter
	quiet   bool
}

func newPipeline(ctx context.Context, a *app, s settings) (*pipeline, error) {
	logger := a.logger
	p := &pipeline{app: a, quiet: s.quiet}

	opts, err := engineOptions(a, s)
	if err != nil {
		return nil, err
	}
	p.opts = opts

	backend, err := storage.NewBackend(s.storage, database.NewManager(a.zlog), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to initialize %s storage: %w", s.storage.Type, err)
	}
	p.backend = backend
	logger.Info("storage ready", "type", s.storage.Type)

	deps := worker.Dependencies{Logger: logger, Tag: s.api.Tag}
	if s.influx.Enabled {
		backup := filepath.Join(config.GetString("logsDir"),
			fmt.Sprintf("influx_backup_%s.lp.gz", a.started.Format("20060102_150405")))
		if err := os.MkdirAll(filepath.Dir(backup), 0755); err != nil {
			logger.Warn("failed to create influx backup dir", "error", err)
		}
		m := influx.NewManager(s.influx, a.zlog, backup)
		if err := m.Connect(ctx); err != nil {
			logger.Warn("influx disabled", "error", err)
			_ = m.Close()
		} else {
			p.influx = m
			deps.Points = m
		}
	}
	if s.api.Enabled {
		c := api.New(s.api.ServerURL, s.api.APIKey)
		if err := c.Healthcheck(); err != nil {
			logger.Warn("upload frontend is not reachable, uploads may fail", "url", s.api.ServerURL, "error", err)
		}
		deps.Uploader = c
	}
	p.worker = worker.NewManager(deps, backend)

	runs, err := a.otel.Meter(appName).Int64Counter("combatlog.runs.completed")
	if err != nil {
		logger.Warn("failed to create run counter", "error", err)
	}
	p.runs = runs

	return p, nil
}

func engineOptions(a *app, s settings) ([]engine.Option, error) {
	opts := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithYear(s.parser.Year),
		engine.WithDecodeFailureThreshold(s.parser.DecodeFailureThreshold),
		engine.WithMaxDiagnostics(s.parser.MaxDiagnostics),
		engine.WithFightConfig(fight.Config{
			ImplicitOpen: s.fight.ImplicitOpen,
			IdleGap:      s.fight.IdleGap,
			IdleTimeout:  s.fight.IdleTimeout,
		}),
	}
	if s.parser.NamesFile != "" {
		names, err := cache.LoadNames(s.parser.NamesFile)
		if err != nil {
			return nil, err
		}
		a.logger.Info("loaded name table", "file", s.parser.NamesFile, "entries", len(names))
		opts = append(opts, engine.WithNames(cache.NewNameCache(names)))
	}
	return opts, nil
}

// readInputs loads both files concurrently. An empty rawPath yields a nil raw buffer.
func readInputs(ctx context.Context, primaryPath, rawPath string) (primary, raw []byte, err error) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := os.ReadFile(primaryPath)
		if err != nil {
			return fmt.Errorf("failed to read combat log: %w", err)
		}
		primary = b
		return nil
	})
	if rawPath != "" {
		g.Go(func() error {
			b, err := os.ReadFile(rawPath)
			if err != nil {
				return fmt.Errorf("failed to read raw log: %w", err)
			}
			raw = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return primary, raw, nil
}

// parse runs the engine over the files and records the run in the session.
func (p *pipeline) parse(ctx context.Context, primaryPath, rawPath string) (*core.Run, *v1.Snapshot, error) {
	run := p.app.session.Begin(primaryPath, rawPath, time.Now())

	primary, raw, err := readInputs(ctx, primaryPath, rawPath)
	if err != nil {
		return nil, nil, err
	}

	snap, err := engine.Parse(ctx, primary, raw, p.opts...)
	run.Duration = time.Since(run.StartedAt)
	if err != nil {
		if core.IsFatal(err) {
			return nil, nil, fmt.Errorf("cannot parse %s: %w", filepath.Base(primaryPath), err)
		}
		return nil, nil, err
	}
	return run, snap, nil
}

// process parses, persists and prints the summary to w.
func (p *pipeline) process(ctx context.Context, w io.Writer, primaryPath, rawPath string) error {
	run, snap, err := p.parse(ctx, primaryPath, rawPath)
	if err != nil {
		return err
	}

	res, err := p.worker.Persist(run, snap)
	if err != nil {
		return err
	}
	if p.runs != nil {
		p.runs.Add(ctx, 1)
	}

	p.app.logger.Info("run stored",
		"fights", len(snap.Fights),
		"entities", len(snap.Entities),
		"diagnostics", snap.Stats.Diagnostics,
		"writeDuration", p.worker.GetLastDBWriteDuration(),
	)
	if p.quiet {
		return nil
	}
	return renderSummary(w, run, snap, res)
}

func (p *pipeline) Close() error {
	var errs []error
	if p.influx != nil {
		errs = append(errs, p.influx.Close())
	}
	if p.backend != nil {
		errs = append(errs, p.backend.Close())
	}
	return errors.Join(errs...)
}
