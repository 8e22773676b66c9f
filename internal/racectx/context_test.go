package racectx

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/race"
	"github.com/ringline/racecore/pkg/core"
)

func TestContext_Empty(t *testing.T) {
	c := NewContext()
	assert.Nil(t, c.GetRace())
	assert.Equal(t, "", c.RaceID())
	assert.Nil(t, c.LogAttrs())
}

func TestContext_SetRaceReturnsCopy(t *testing.T) {
	c := NewContext()
	c.SetRace(&core.Race{ID: "r1", TrackName: "oval"})

	got := c.GetRace()
	require.NotNil(t, got)
	got.TrackName = "changed"
	assert.Equal(t, "oval", c.GetRace().TrackName)
	assert.Equal(t, "r1", c.RaceID())

	status, lap := c.Status()
	assert.Equal(t, race.Idle, status)
	assert.Equal(t, 1, lap)
}

func TestContext_LogAttrs(t *testing.T) {
	c := NewContext()
	c.SetRace(&core.Race{ID: "r1"})
	c.Update(race.Playing, 2)

	attrs := c.LogAttrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, slog.String("race", "r1"), attrs[0])
	assert.Equal(t, "playing", attrs[1].Value.String())
	assert.Equal(t, int64(2), attrs[2].Value.Int64())

	c.Clear()
	assert.Nil(t, c.LogAttrs())
}

func TestContext_ThreadSafe(t *testing.T) {
	c := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.SetRace(&core.Race{ID: "r"})
			c.Update(race.Playing, i)
		}(i)
		go func() {
			defer wg.Done()
			_ = c.LogAttrs()
			_ = c.GetRace()
		}()
	}
	wg.Wait()
	assert.Equal(t, "r", c.RaceID())
}
