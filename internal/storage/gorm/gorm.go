// Package gormstorage stores snapshots through GORM. The sqlite and postgres
// backends embed it and only differ in how the connection is made.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"

	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	"github.com/OCAP2/combatlog/internal/model"
	"github.com/OCAP2/combatlog/internal/model/convert"
	"github.com/OCAP2/combatlog/pkg/core"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned by LoadSnapshot for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
	// Migrate runs schema migration; nil means AutoMigrate of all models.
	Migrate func(*gorm.DB) error
}

// Backend implements storage.Backend on a *gorm.DB.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("no database connection")
	}
	migrate := b.deps.Migrate
	if migrate == nil {
		migrate = func(db *gorm.DB) error { return db.AutoMigrate(model.DatabaseModels...) }
	}
	if err := migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// SaveSnapshot writes the run and all of its rows in one transaction.
// Saving the same run ID twice replaces the earlier rows.
func (b *Backend) SaveSnapshot(run *core.Run, snap *v1.Snapshot) error {
	row, err := convert.SnapshotToRun(run, snap)
	if err != nil {
		return err
	}

	err = b.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteRun(tx, run.ID); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.deps.Logger.Info("Saved snapshot",
		"run", run.ID,
		"dialect", b.deps.DB.Dialector.Name(),
		"fights", len(row.Fights),
		"entities", len(row.Entities))
	return nil
}

// LoadSnapshot returns the stored snapshot of a run.
func (b *Backend) LoadSnapshot(runID string) (*v1.Snapshot, error) {
	var row model.Run
	err := b.deps.DB.First(&row, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return convert.RunToSnapshot(row)
}

// Runs lists stored runs, newest first, without their documents.
func (b *Backend) Runs() ([]model.Run, error) {
	var runs []model.Run
	err := b.deps.DB.Omit("document").Order("started_at DESC").Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// deleteRun removes a run and its children.
func deleteRun(tx *gorm.DB, runID string) error {
	var fightIDs []uint
	if err := tx.Model(&model.Fight{}).Where("run_id = ?", runID).Pluck("id", &fightIDs).Error; err != nil {
		return fmt.Errorf("failed to find fights of run %s: %w", runID, err)
	}

	if len(fightIDs) > 0 {
		for _, m := range []any{&model.FightMember{}, &model.FightAmount{}, &model.FightDeath{}} {
			if err := tx.Where("fight_id IN ?", fightIDs).Delete(m).Error; err != nil {
				return fmt.Errorf("failed to delete fight rows of run %s: %w", runID, err)
			}
		}
	}
	for _, m := range []any{&model.Fight{}, &model.Entity{}, &model.CastCount{}, &model.Diagnostic{}} {
		if err := tx.Where("run_id = ?", runID).Delete(m).Error; err != nil {
			return fmt.Errorf("failed to delete rows of run %s: %w", runID, err)
		}
	}
	if err := tx.Where("id = ?", runID).Delete(&model.Run{}).Error; err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}
