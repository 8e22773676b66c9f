package streaming

import (
	"encoding/json"

	"github.com/ringline/racecore/pkg/core"
)

// Message type constants of the live-timing protocol.
const (
	TypeStartRace    = "start_race"
	TypeEndRace      = "end_race"
	TypeVehicleState = "vehicle_state"
	TypeGearShift    = "gear_shift"
	TypeCollision    = "collision"
	TypeCheckpoint   = "checkpoint"
	TypeLap          = "lap"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartRacePayload announces a race.
type StartRacePayload struct {
	Race *core.Race `json:"race"`
}

// EndRacePayload carries the final result.
type EndRacePayload struct {
	Result *core.RaceResult `json:"result"`
}
