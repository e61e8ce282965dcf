package storage

import (
	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/pkg/core"
)

// Backend is the interface all snapshot sinks must satisfy.
type Backend interface {
	Init() error
	Close() error

	// SaveSnapshot stores the result of one parse run.
	SaveSnapshot(run *core.Run, snap *v1.Snapshot) error
}

// Exporter is implemented by backends that write a file per run.
type Exporter interface {
	ExportedFilePath() string
}
