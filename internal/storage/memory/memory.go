// Package memory keeps the latest snapshot in memory and writes each one to
// OutputDir as json, gzipped json, yaml or xlsx.
package memory

import (
	"fmt"
	"sync"

	"github.com/OCAP2/combatlog/internal/config"
	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/pkg/core"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatXLSX = "xlsx"
)

// Backend writes snapshots to files.
type Backend struct {
	cfg config.MemoryConfig

	mu             sync.RWMutex
	run            *core.Run
	snapshot       *v1.Snapshot
	lastExportPath string
}

// New creates a new memory backend. An empty format means json.
func New(cfg config.MemoryConfig) *Backend {
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	return &Backend{cfg: cfg}
}

// Init validates the configured format.
func (b *Backend) Init() error {
	switch b.cfg.Format {
	case FormatJSON, FormatYAML, FormatXLSX:
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", b.cfg.Format)
	}
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SaveSnapshot keeps the snapshot and exports it.
func (b *Backend) SaveSnapshot(run *core.Run, snap *v1.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.run = run
	b.snapshot = snap
	return b.export()
}

// Snapshot returns the last saved run and snapshot.
func (b *Backend) Snapshot() (*core.Run, *v1.Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.run, b.snapshot
}

// ExportedFilePath returns the path of the last written file.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
