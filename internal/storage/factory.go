package storage

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/combatlog/internal/config"
	"github.com/OCAP2/combatlog/internal/database"
	"github.com/OCAP2/combatlog/internal/storage/memory"
	"github.com/OCAP2/combatlog/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/combatlog/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, dbm *database.Manager, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		b, err := postgres.New(cfg.Postgres, dbm, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "sqlite":
		b, err := sqlitestorage.New(cfg.SQLite, dbm, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
