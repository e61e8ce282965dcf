// Package worker persists finished parse runs to the configured sinks.
package worker

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/combatlog/internal/api"
	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/internal/storage"
	"github.com/OCAP2/combatlog/pkg/core"
)

// PointWriter receives per-fight time series for a run.
type PointWriter interface {
	WriteSnapshot(runID string, snap *v1.Snapshot) (int, error)
}

// Uploader sends an exported snapshot file to a remote frontend.
type Uploader interface {
	Upload(filePath string, meta api.UploadMetadata) error
}

// Dependencies holds all dependencies for the worker manager.
// Points and Uploader are optional.
type Dependencies struct {
	Points   PointWriter
	Uploader Uploader
	Tag      string
	Logger   *slog.Logger
}

// Result summarizes one Persist call.
type Result struct {
	ExportedFile string
	Points       int
	Uploaded     bool
}

// Manager writes each run to the backend and then to the optional sinks.
type Manager struct {
	deps    Dependencies
	backend storage.Backend

	mu        sync.RWMutex
	lastWrite time.Duration
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// Persist saves the snapshot. A backend failure is returned; failures of the
// optional sinks are logged and leave the stored snapshot in place.
func (m *Manager) Persist(run *core.Run, snap *v1.Snapshot) (Result, error) {
	var res Result
	logger := m.deps.Logger

	start := time.Now()
	if err := m.backend.SaveSnapshot(run, snap); err != nil {
		return res, fmt.Errorf("failed to save snapshot: %w", err)
	}
	elapsed := time.Since(start)
	m.mu.Lock()
	m.lastWrite = elapsed
	m.mu.Unlock()
	logger.Debug("snapshot stored", "duration", elapsed)

	if exp, ok := m.backend.(storage.Exporter); ok {
		res.ExportedFile = exp.ExportedFilePath()
	}

	if m.deps.Points != nil {
		n, err := m.deps.Points.WriteSnapshot(run.ID, snap)
		if err != nil {
			logger.Error("failed to write fight points", "error", err)
		}
		res.Points = n
	}

	if m.deps.Uploader != nil {
		if res.ExportedFile == "" {
			logger.Warn("upload enabled but the storage backend does not export files")
			return res, nil
		}
		meta := api.UploadMetadata{
			RunID:       run.ID,
			PrimaryFile: run.PrimaryFile,
			Fights:      len(snap.Fights),
			Duration:    run.Duration,
			Tag:         m.deps.Tag,
		}
		if err := m.deps.Uploader.Upload(res.ExportedFile, meta); err != nil {
			logger.Error("failed to upload snapshot", "file", res.ExportedFile, "error", err)
		} else {
			res.Uploaded = true
			logger.Info("snapshot uploaded", "file", res.ExportedFile)
		}
	}

	return res, nil
}

// GetLastDBWriteDuration returns the duration of the last backend write.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastWrite
}
