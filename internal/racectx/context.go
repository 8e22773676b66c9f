// Package racectx holds the race currently being driven, shared between the
// session loop, the workers and the log context provider.
package racectx

import (
	"log/slog"
	"sync"

	"github.com/ringline/racecore/internal/race"
	"github.com/ringline/racecore/pkg/core"
)

// Context holds the current race and its status
type Context struct {
	mu     sync.RWMutex
	race   *core.Race
	status race.Status
	lap    int
}

// NewContext creates a Context with no race loaded
func NewContext() *Context {
	return &Context{}
}

// GetRace returns a copy of the current race, or nil when none is loaded
func (c *Context) GetRace() *core.Race {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.race == nil {
		return nil
	}
	r := *c.race
	return &r
}

// RaceID is the current race's ID, or "" between races
func (c *Context) RaceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.race == nil {
		return ""
	}
	return c.race.ID
}

// SetRace loads r as the current race
func (c *Context) SetRace(r *core.Race) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.race = r
	c.status = race.Idle
	c.lap = 1
}

// Clear forgets the current race
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.race = nil
	c.status = race.Idle
	c.lap = 0
}

// Update records the race status and lap after a tick
func (c *Context) Update(status race.Status, lap int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.lap = lap
}

// Status returns the last recorded status and lap
func (c *Context) Status() (race.Status, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.lap
}

// LogAttrs tags log records with the current race. It is a
// logging.ContextProvider.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.race == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("race", c.race.ID),
		slog.String("status", c.status.String()),
		slog.Int("lap", c.lap),
	}
}
