// Package sqlitestorage stores snapshots in SQLite through the GORM backend.
// With an in-memory database and a DumpPath, every save is followed by a
// VACUUM INTO snapshot of the whole database on disk.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/combatlog/internal/config"
	"github.com/OCAP2/combatlog/internal/database"
	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	gormstorage "github.com/OCAP2/combatlog/internal/storage/gorm"
	"github.com/OCAP2/combatlog/pkg/core"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg config.SQLiteConfig
	dbm *database.Manager
	log *slog.Logger
}

// New opens the SQLite database named by cfg.Path.
func New(cfg config.SQLiteConfig, dbm *database.Manager, logger *slog.Logger) (*Backend, error) {
	db, err := dbm.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:      db,
			Logger:  logger,
			Migrate: dbm.Setup,
		}),
		cfg: cfg,
		dbm: dbm,
		log: logger,
	}, nil
}

// SaveSnapshot stores the run and dumps the database when a dump path is set.
func (b *Backend) SaveSnapshot(run *core.Run, snap *v1.Snapshot) error {
	if err := b.Backend.SaveSnapshot(run, snap); err != nil {
		return err
	}
	return b.Dump()
}

// Dump writes the database to cfg.DumpPath. It is a no-op without one.
func (b *Backend) Dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	start := time.Now()
	if err := b.dbm.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
		b.log.Error("Error dumping to disk", "error", err)
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}
