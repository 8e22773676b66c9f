// Package websocket streams race events to a live-timing server.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/pkg/core"
	"github.com/ringline/racecore/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend implements storage.Backend by sending one envelope per record.
// start_race and end_race block until the server acks them.
type Backend struct {
	conn   *connection
	cfg    Config
	racing atomic.Bool
}

// New creates a new WebSocket storage backend. A nil logger means slog.Default().
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("backend", "websocket")),
		cfg:  cfg,
	}
}

// Init connects to the server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope pushes a fire-and-forget frame for the current race.
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	if !b.racing.Load() {
		return storage.ErrNoRace
	}
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartRace announces the race and waits for the server ack.
func (b *Backend) StartRace(race *core.Race) error {
	data, err := marshalEnvelope(streaming.TypeStartRace, streaming.StartRacePayload{Race: race})
	if err != nil {
		return err
	}

	b.conn.mu.Lock()
	b.conn.startFrame = data
	b.conn.mu.Unlock()
	b.racing.Store(true)

	return b.conn.sendAndWait(data, streaming.TypeStartRace, ackTimeout)
}

// EndRace sends the result and waits for the server ack.
func (b *Backend) EndRace(result *core.RaceResult) error {
	if !b.racing.Swap(false) {
		return storage.ErrNoRace
	}
	data, err := marshalEnvelope(streaming.TypeEndRace, streaming.EndRacePayload{Result: result})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndRace, ackTimeout)

	b.conn.mu.Lock()
	b.conn.startFrame = nil
	b.conn.mu.Unlock()
	return err
}

func (b *Backend) RecordVehicleState(s *core.VehicleState) error {
	return b.sendEnvelope(streaming.TypeVehicleState, s)
}

func (b *Backend) RecordGearShift(e *core.GearShiftEvent) error {
	return b.sendEnvelope(streaming.TypeGearShift, e)
}

func (b *Backend) RecordCollision(e *core.CollisionEvent) error {
	return b.sendEnvelope(streaming.TypeCollision, e)
}

func (b *Backend) RecordCheckpoint(e *core.CheckpointEvent) error {
	return b.sendEnvelope(streaming.TypeCheckpoint, e)
}

func (b *Backend) RecordLap(l *core.LapRecord) error {
	return b.sendEnvelope(streaming.TypeLap, l)
}

// QueueDepth is the number of frames not yet written to the socket.
func (b *Backend) QueueDepth() int {
	return b.conn.pending()
}

// Dropped counts frames discarded because the send buffer was full.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}
