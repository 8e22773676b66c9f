package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ringline/racecore/internal/api"
	"github.com/ringline/racecore/internal/cache"
	"github.com/ringline/racecore/internal/dispatcher"
	"github.com/ringline/racecore/internal/logging"
	"github.com/ringline/racecore/internal/racectx"
	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/pkg/core"
)

// Commands dispatched by the session loop.
const (
	CmdRaceStart    = ":RACE:START:"
	CmdRaceEnd      = ":RACE:END:"
	CmdVehicleState = ":VEHICLE:STATE:"
	CmdGearShift    = ":GEAR:SHIFT:"
	CmdCollision    = ":COLLISION:"
	CmdCheckpoint   = ":CHECKPOINT:"
	CmdLapCompleted = ":LAP:COMPLETED:"
	CmdRaceFinished = ":RACE:FINISHED:"
)

// TelemetryWriter receives sampled vehicle states, e.g. the influx manager.
type TelemetryWriter interface {
	WriteVehicleState(trackName string, s *core.VehicleState) error
}

// Uploader sends an exported race file to the leaderboard, e.g. *api.Client.
type Uploader interface {
	Upload(ctx context.Context, filePath string, meta api.UploadMetadata) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Traces      *cache.TraceCache
	LogManager  *logging.SlogManager
	RaceContext *racectx.Context
	// Telemetry is optional.
	Telemetry TelemetryWriter
	// Uploader is optional and only used with backends that export files.
	Uploader      Uploader
	UploadTag     string
	UploadTimeout time.Duration
	// Now stamps unlocked achievements; time.Now when nil.
	Now func() time.Time
}

// Manager turns dispatched race events into storage, trace, telemetry and
// profile updates.
type Manager struct {
	deps       Dependencies
	backend    storage.Backend
	dispatcher *dispatcher.Dispatcher
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Traces == nil {
		deps.Traces = cache.NewTraceCache()
	}
	if deps.RaceContext == nil {
		deps.RaceContext = racectx.NewContext()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.UploadTimeout <= 0 {
		deps.UploadTimeout = 30 * time.Second
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// QueueDepth is the number of events waiting in dispatcher buffers plus
// records waiting in the backend's write queues.
func (m *Manager) QueueDepth() int {
	n := 0
	if m.dispatcher != nil {
		n += m.dispatcher.QueueDepth()
	}
	if q, ok := m.backend.(storage.QueueReporter); ok {
		n += q.QueueDepth()
	}
	return n
}

func (m *Manager) writeLog(component, msg, level string) {
	if m.deps.LogManager != nil {
		m.deps.LogManager.WriteLog(component, msg, level)
	}
}

func payload[T any](e dispatcher.Event) (T, error) {
	v, ok := e.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: unexpected payload %T", e.Command, e.Payload)
	}
	return v, nil
}
