package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/race"
	"github.com/ringline/racecore/internal/racectx"
	"github.com/ringline/racecore/pkg/core"
)

type fixedQueue int

func (q fixedQueue) QueueDepth() int { return int(q) }

func TestSample_RateAndStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	rc := racectx.NewContext()
	rc.SetRace(&core.Race{ID: "r1"})
	rc.Update(race.Playing, 2)

	s := NewService(Dependencies{
		RaceContext: rc,
		Queue:       fixedQueue(7),
		StatusFile:  path,
	})

	start := time.Unix(1700000000, 0)
	s.Sample(start)
	for i := 0; i < 120; i++ {
		s.Tick()
	}
	st := s.Sample(start.Add(2 * time.Second))

	assert.Equal(t, 60.0, st.TickRate)
	assert.Equal(t, "r1", st.RaceID)
	assert.Equal(t, "playing", st.RaceStatus)
	assert.Equal(t, 2, st.Lap)
	assert.Equal(t, 7, st.QueueDepth)
	assert.Equal(t, st, s.Last())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk Status
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, 60.0, onDisk.TickRate)
	assert.Equal(t, "playing", onDisk.RaceStatus)
}

func TestSample_NoRace(t *testing.T) {
	s := NewService(Dependencies{RaceContext: racectx.NewContext()})
	s.Tick()
	st := s.Sample(time.Now())

	assert.Equal(t, "none", st.RaceStatus)
	assert.Equal(t, 1.0, st.TickRate)
	assert.Zero(t, st.QueueDepth)
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{StatusFile: path, Interval: 10 * time.Millisecond})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}
