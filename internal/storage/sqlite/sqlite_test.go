package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/database"
	"github.com/ringline/racecore/internal/model"
	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/pkg/core"
)

var (
	_ storage.Backend      = (*Backend)(nil)
	_ storage.ProfileStore = (*Backend)(nil)
)

func TestEndRace_DumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racecore.db")
	b, err := New(Config{DumpPath: path, DumpInterval: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.StartRace(&core.Race{ID: "dumped", TrackName: "oval", StartTime: time.Now()}))
	require.NoError(t, b.RecordCheckpoint(&core.CheckpointEvent{Index: 3, Lap: 1}))
	require.NoError(t, b.EndRace(&core.RaceResult{Completed: true, TotalTime: 99}))

	_, err = os.Stat(path)
	require.NoError(t, err)

	disk, err := database.GetSqliteDB(path)
	require.NoError(t, err)
	var race model.Race
	require.NoError(t, race.FindByKey(disk, "dumped"))
	assert.True(t, race.Completed)

	var count int64
	disk.Model(&model.CheckpointPass{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.db")
	b, err := New(Config{DumpPath: path, DumpInterval: 20 * time.Millisecond}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNoDumpPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.StartRace(&core.Race{ID: "mem"}))
	require.NoError(t, b.EndRace(&core.RaceResult{}))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}
