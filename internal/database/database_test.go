package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/combatlog/internal/config"
	"github.com/OCAP2/combatlog/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(zerolog.Nop())
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{
		Host: "db", Port: "5433", Username: "u", Password: "p", Database: "combatlog",
	})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=combatlog sslmode=disable", dsn)
}

func TestGetSqliteDB_MemoryAndSetup(t *testing.T) {
	m := newTestManager()
	db, err := m.GetSqliteDB(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, m.Setup(db))

	for _, tbl := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(tbl))
	}

	require.NoError(t, db.Create(&model.Run{ID: "r1"}).Error)
	var n int64
	require.NoError(t, db.Model(&model.Run{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestGetSqliteDB_File(t *testing.T) {
	m := newTestManager()
	path := filepath.Join(t.TempDir(), "combatlog.db")

	db, err := m.GetSqliteDB(path)
	require.NoError(t, err)
	require.NoError(t, m.Setup(db))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	m := newTestManager()
	db, err := m.GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, m.Setup(db))
	require.NoError(t, db.Create(&model.Run{ID: "dumped"}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))
	require.NoError(t, m.DumpMemoryDBToDisk(db, path))

	onDisk, err := m.GetSqliteDB(path)
	require.NoError(t, err)
	var run model.Run
	require.NoError(t, onDisk.First(&run, "id = ?", "dumped").Error)
	assert.Equal(t, "dumped", run.ID)

	assert.Error(t, m.DumpMemoryDBToDisk(db, ""))
}
