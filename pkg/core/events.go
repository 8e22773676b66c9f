// pkg/core/events.go
package core

import "time"

// VehicleState is one telemetry sample.
type VehicleState struct {
	RaceID     string     `json:"raceId"`
	Tick       uint64     `json:"tick"`
	Time       time.Time  `json:"time"`
	Lap        int        `json:"lap"`
	Position   Position3D `json:"position"`
	Yaw        float64    `json:"yaw"`
	SteerAngle float64    `json:"steerAngle"`
	Speed      float64    `json:"speed"`
	RPM        float64    `json:"rpm"`
	Gear       int        `json:"gear"`
	IsShifting bool       `json:"isShifting"`
	Clutch     float64    `json:"clutch"`
	OnTrack    bool       `json:"onTrack"`
}

// GearShiftEvent records the start of a gear change.
type GearShiftEvent struct {
	RaceID string    `json:"raceId"`
	Tick   uint64    `json:"tick"`
	Time   time.Time `json:"time"`
	From   int       `json:"from"`
	To     int       `json:"to"`
}

// CollisionEvent records a barrier hit.
type CollisionEvent struct {
	RaceID   string     `json:"raceId"`
	Tick     uint64     `json:"tick"`
	Time     time.Time  `json:"time"`
	Lap      int        `json:"lap"`
	Barrier  int        `json:"barrier"`
	Normal   Position3D `json:"normal"`
	Position Position3D `json:"position"`
	Speed    float64    `json:"speed"`
}

// CheckpointEvent records the first pass of a checkpoint in a lap.
type CheckpointEvent struct {
	RaceID  string    `json:"raceId"`
	Tick    uint64    `json:"tick"`
	Time    time.Time `json:"time"`
	Lap     int       `json:"lap"`
	Index   int       `json:"index"`
	LapTime float64   `json:"lapTime"`
}

// LapRecord is a completed lap with the path driven.
type LapRecord struct {
	RaceID      string       `json:"raceId"`
	Lap         int          `json:"lap"`
	Time        time.Time    `json:"time"`
	LapTime     float64      `json:"lapTime"`
	BestLapTime float64      `json:"bestLapTime"`
	Trace       []Position3D `json:"trace,omitempty"`
}
