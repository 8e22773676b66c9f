package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/pkg/core"
)

func TestTraceCache_AppendAndTake(t *testing.T) {
	c := NewTraceCache()

	c.Append(1, core.Position3D{X: 95})
	c.Append(1, core.Position3D{X: 94, Z: 5})
	c.Append(2, core.Position3D{X: 90})

	assert.Equal(t, 2, c.Len(1))
	got := c.Take(1)
	require.Len(t, got, 2)
	assert.Equal(t, 94.0, got[1].X)
	assert.Equal(t, 0, c.Len(1))
	assert.Nil(t, c.Take(1))
	assert.Equal(t, 1, c.Len(2))
}

func TestTraceCache_MaxPoints(t *testing.T) {
	c := NewTraceCache()
	c.MaxPoints = 3
	for i := 0; i < 10; i++ {
		c.Append(1, core.Position3D{X: float64(i)})
	}

	got := c.Take(1)
	require.Len(t, got, 3)
	assert.Equal(t, 2.0, got[2].X)
}

func TestTraceCache_Reset(t *testing.T) {
	c := NewTraceCache()
	c.Append(1, core.Position3D{})
	c.Reset()
	assert.Equal(t, 0, c.Len(1))
}

func TestTraceCache_Concurrent(t *testing.T) {
	c := NewTraceCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Append(1, core.Position3D{X: float64(j)})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, c.Len(1))
}

func TestSafeCounter(t *testing.T) {
	var c SafeCounter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Value())
	assert.Equal(t, 50, c.Swap(0))
	assert.Equal(t, 0, c.Value())
}
