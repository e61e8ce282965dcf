package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OCAP2/combatlog/internal/config"
	"github.com/OCAP2/combatlog/internal/logging"
	intOtel "github.com/OCAP2/combatlog/internal/otel"
	"github.com/OCAP2/combatlog/internal/session"

	"github.com/rs/zerolog"
)

const appName = "combatlog"

// app holds the process-wide services shared by the subcommands.
type app struct {
	started time.Time
	logs    *logging.SlogManager
	logger  *slog.Logger
	zlog    zerolog.Logger
	session *session.Context
	otel    *intOtel.Provider
	logPath string
	closers []io.Closer
}

// newApp loads configuration and wires logging. With toFile false every log
// line goes to stderr.
func newApp(dir, level string, toFile bool) (*app, error) {
	a := &app{
		started: time.Now(),
		logs:    logging.NewSlogManager(),
		session: session.NewContext(),
	}

	if err := config.Load(dir); err != nil {
		return nil, err
	}
	if level == "" {
		level = config.GetString("logLevel")
	}

	var logWriter io.Writer
	if toFile {
		logsDir := config.GetString("logsDir")
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs dir: %w", err)
		}
		a.logPath = logging.LogFilePath(logsDir, appName, a.started)
		f, err := os.OpenFile(a.logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		logWriter = f
	}

	provider, err := intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), logWriter))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create otel provider: %w", err)
	}
	a.otel = provider

	var extra []slog.Handler
	if config.GetBool("graylog.enabled") {
		h, closer, err := logging.NewGelfHandler(config.GetString("graylog.address"), level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "graylog disabled: %v\n", err)
		} else {
			extra = append(extra, h)
			a.closers = append(a.closers, closer)
		}
	}

	a.logs.SetContext(a.session.Attrs)
	a.logs.Setup(logWriter, level, provider.LoggerProvider(), extra...)
	a.logger = a.logs.Logger()
	a.zlog = newZerolog(logWriter, level)

	a.logger.Debug("configuration loaded", "logLevel", level, "logFile", a.logPath, "otel", provider.Enabled())
	return a, nil
}

// newZerolog builds the logger the database and influx managers take.
func newZerolog(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", appName).Logger()
}

// Close flushes telemetry and closes log sinks.
func (a *app) Close() error {
	var errs []error
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.logs.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := a.otel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
