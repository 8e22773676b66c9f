// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/ringline/racecore/pkg/core"
)

// ErrNoRace is returned when events arrive outside a race.
var ErrNoRace = errors.New("no race in progress")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Race management
	StartRace(race *core.Race) error
	EndRace(result *core.RaceResult) error

	// Telemetry
	RecordVehicleState(s *core.VehicleState) error

	// Race events
	RecordGearShift(e *core.GearShiftEvent) error
	RecordCollision(e *core.CollisionEvent) error
	RecordCheckpoint(e *core.CheckpointEvent) error
	RecordLap(l *core.LapRecord) error
}

// ProfileStore is an optional interface for backends that persist the
// player's statistics, records and achievements between races.
type ProfileStore interface {
	LoadProfile() (*core.Profile, error)
	SaveProfile(p *core.Profile) error
}

// Exportable is an optional interface for backends that write a file per race.
type Exportable interface {
	ExportedFilePath() string
}

// QueueReporter is implemented by backends that buffer writes.
type QueueReporter interface {
	QueueDepth() int
}
