package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/internal/model"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DBConfig{
		Host: "db", Port: "5432", Username: "race", Password: "pw", Database: "racecore",
	})
	assert.Equal(t, "host=db port=5432 user=race password=pw dbname=racecore sslmode=disable", dsn)
}

func TestGetSqliteDB_InMemoryIsolated(t *testing.T) {
	a, err := GetSqliteDB("")
	require.NoError(t, err)
	b, err := GetSqliteDB("")
	require.NoError(t, err)

	require.NoError(t, Migrate(a))
	assert.True(t, a.Migrator().HasTable(&model.Race{}))
	assert.False(t, b.Migrator().HasTable(&model.Race{}))
}

func TestManager_SetupBeforeConnect(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.ErrorIs(t, m.Setup(), ErrNotConnected)
}

func TestManager_FallsBackToSqlite(t *testing.T) {
	m := NewManager(zerolog.Nop())
	// nothing listens on port 1
	err := m.Connect(config.DBConfig{Host: "127.0.0.1", Port: "1", Username: "x", Password: "x", Database: "x"})
	require.NoError(t, err)
	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)

	require.NoError(t, m.Setup())
	assert.True(t, m.DB.Migrator().HasTable(&model.Lap{}))
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Race{RaceKey: "k1", TrackName: "oval"}).Error)

	path := filepath.Join(t.TempDir(), "dumps", "race.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	disk, err := GetSqliteDB(path)
	require.NoError(t, err)
	var got model.Race
	require.NoError(t, got.FindByKey(disk, "k1"))
	assert.Equal(t, "oval", got.TrackName)

	assert.Error(t, DumpMemoryDBToDisk(db, ""))
}

func TestGetBackupDBPaths(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "b.db")
	newer := filepath.Join(dir, "a.db")
	require.NoError(t, os.WriteFile(older, nil, 0o644))
	require.NoError(t, os.WriteFile(newer, nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.db"), 0o755))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{older, newer}, paths)

	_, err = GetBackupDBPaths(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
