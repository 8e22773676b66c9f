// pkg/core/race.go
package core

import "time"

// Position3D is a point in track space, metres. Y is up.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GeoAnchor pins the track origin to a map location.
type GeoAnchor struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Race describes one run around a track.
type Race struct {
	ID          string     `json:"id"`
	TrackName   string     `json:"trackName"`
	VehicleType string     `json:"vehicleType"`
	TotalLaps   int        `json:"totalLaps"`
	Automatic   bool       `json:"automatic"`
	StartTime   time.Time  `json:"startTime"`
	Anchor      *GeoAnchor `json:"anchor,omitempty"`
}

// RaceResult is written when a race ends, finished or abandoned.
type RaceResult struct {
	RaceID      string    `json:"raceId"`
	VehicleType string    `json:"vehicleType"`
	EndTime     time.Time `json:"endTime"`
	Completed   bool      `json:"completed"`
	TotalTime   float64   `json:"totalTime"`
	BestLapTime *float64  `json:"bestLapTime"`
	LapTimes    []float64 `json:"lapTimes"`
	CrashCount  int       `json:"crashCount"`
	MaxSpeed    float64   `json:"maxSpeed"`
	Distance    float64   `json:"distance"`
}
