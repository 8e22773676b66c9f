// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/pkg/core"
)

// ErrNoRace is returned when events arrive outside a race.
var ErrNoRace = storage.ErrNoRace

// Backend keeps the current race in memory and exports it to JSON when it ends
type Backend struct {
	cfg  config.MemoryConfig
	race *core.Race

	states      []core.VehicleState
	gearShifts  []core.GearShiftEvent
	collisions  []core.CollisionEvent
	checkpoints []core.CheckpointEvent
	laps        []core.LapRecord

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRace begins recording a new race, dropping anything left from the last one
func (b *Backend) StartRace(race *core.Race) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := *race
	b.race = &r
	b.states = nil
	b.gearShifts = nil
	b.collisions = nil
	b.checkpoints = nil
	b.laps = nil
	b.lastExportPath = ""

	return nil
}

// EndRace exports the race with its result and stops recording
func (b *Backend) EndRace(result *core.RaceResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.race == nil {
		return ErrNoRace
	}
	err := b.exportJSON(result)
	b.race = nil
	return err
}

// RecordVehicleState stores a telemetry sample
func (b *Backend) RecordVehicleState(s *core.VehicleState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.race == nil {
		return ErrNoRace
	}
	b.states = append(b.states, *s)
	return nil
}

// RecordGearShift stores a gear change
func (b *Backend) RecordGearShift(e *core.GearShiftEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.race == nil {
		return ErrNoRace
	}
	b.gearShifts = append(b.gearShifts, *e)
	return nil
}

// RecordCollision stores a barrier hit
func (b *Backend) RecordCollision(e *core.CollisionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.race == nil {
		return ErrNoRace
	}
	b.collisions = append(b.collisions, *e)
	return nil
}

// RecordCheckpoint stores a checkpoint pass
func (b *Backend) RecordCheckpoint(e *core.CheckpointEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.race == nil {
		return ErrNoRace
	}
	b.checkpoints = append(b.checkpoints, *e)
	return nil
}

// RecordLap stores a completed lap
func (b *Backend) RecordLap(l *core.LapRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.race == nil {
		return ErrNoRace
	}
	lap := *l
	lap.Trace = append([]core.Position3D(nil), l.Trace...)
	b.laps = append(b.laps, lap)
	return nil
}

// ExportedFilePath returns the file written by the last EndRace
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
