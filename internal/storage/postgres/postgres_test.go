package postgres

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/pkg/core"
)

var _ storage.Backend = (*Backend)(nil)

func TestNew_FallsBackToLocal(t *testing.T) {
	b, err := New(Dependencies{
		DB:     config.DBConfig{Host: "127.0.0.1", Port: "1", Username: "x", Password: "x", Database: "x"},
		Gorm:   config.GormConfig{FlushInterval: time.Hour},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.True(t, b.Local())

	require.NoError(t, b.Init())
	require.NoError(t, b.StartRace(&core.Race{ID: "pg-fallback"}))
	require.NoError(t, b.RecordLap(&core.LapRecord{Lap: 1, LapTime: 40}))
	require.NoError(t, b.EndRace(&core.RaceResult{Completed: true}))

	rows, err := b.RaceRows(0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pg-fallback", rows[0].RaceKey)

	require.NoError(t, b.Close())
}
