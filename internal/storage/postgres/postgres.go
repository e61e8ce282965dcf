// Package postgres stores snapshots in PostgreSQL through the GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/combatlog/internal/config"
	"github.com/OCAP2/combatlog/internal/database"
	gormstorage "github.com/OCAP2/combatlog/internal/storage/gorm"
)

// Backend is the GORM backend on a Postgres connection.
type Backend struct {
	*gormstorage.Backend
}

// New connects to Postgres and wraps the connection.
func New(cfg config.PostgresConfig, dbm *database.Manager, logger *slog.Logger) (*Backend, error) {
	db, err := dbm.GetPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:      db,
			Logger:  logger,
			Migrate: dbm.Setup,
		}),
	}, nil
}
