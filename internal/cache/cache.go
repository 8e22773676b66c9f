package cache

import (
	"sync"

	"github.com/ringline/racecore/pkg/core"
)

// DefaultMaxPoints bounds a single lap trace.
const DefaultMaxPoints = 20000

// TraceCache collects sampled positions per lap until the lap completes.
// Workers append from the telemetry handler and take the trace when the lap
// record is written.
type TraceCache struct {
	m         sync.Mutex
	MaxPoints int
	laps      map[int][]core.Position3D
}

func NewTraceCache() *TraceCache {
	return &TraceCache{
		MaxPoints: DefaultMaxPoints,
		laps:      make(map[int][]core.Position3D),
	}
}

// Reset drops every trace, used at race start.
func (c *TraceCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.laps = make(map[int][]core.Position3D)
}

// Append adds p to lap's trace. Points past MaxPoints are ignored.
func (c *TraceCache) Append(lap int, p core.Position3D) {
	c.m.Lock()
	defer c.m.Unlock()
	pts := c.laps[lap]
	if c.MaxPoints > 0 && len(pts) >= c.MaxPoints {
		return
	}
	c.laps[lap] = append(pts, p)
}

// Len is the number of points held for lap.
func (c *TraceCache) Len(lap int) int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.laps[lap])
}

// Take returns lap's trace and forgets it.
func (c *TraceCache) Take(lap int) []core.Position3D {
	c.m.Lock()
	defer c.m.Unlock()
	pts := c.laps[lap]
	delete(c.laps, lap)
	return pts
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

// Swap sets the counter to v and returns the previous value.
func (c *SafeCounter) Swap(v int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.v
	c.v = v
	return old
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
