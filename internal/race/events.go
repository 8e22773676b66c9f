package race

import "github.com/ringline/racecore/internal/vecmath"

// Event is anything a Step reports to the host.
type Event interface {
	EventName() string
}

// GearShiftStarted is emitted when a manual or automatic shift begins.
type GearShiftStarted struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// CollisionOccurred is emitted once per tick the car is inside a barrier's reach.
type CollisionOccurred struct {
	Normal  vecmath.Vec3 `json:"normal"`
	Barrier int          `json:"barrier"`
	Speed   float64      `json:"speed"` // km/h before the response
}

// CheckpointPassed is emitted the first time a checkpoint is reached in a lap.
type CheckpointPassed struct {
	Index int `json:"index"`
	Lap   int `json:"lap"`
}

// LapCompleted carries the finished lap's time and the best so far.
type LapCompleted struct {
	Lap         int     `json:"lap"`
	LapTime     float64 `json:"lapTime"`
	BestLapTime float64 `json:"bestLapTime"`
}

// RaceFinished is emitted after the final lap.
type RaceFinished struct {
	TotalTime   float64 `json:"totalTime"`
	BestLapTime float64 `json:"bestLapTime"`
	CrashCount  int     `json:"crashCount"`
}

func (GearShiftStarted) EventName() string  { return "gearShiftStarted" }
func (CollisionOccurred) EventName() string { return "collisionOccurred" }
func (CheckpointPassed) EventName() string  { return "checkpointPassed" }
func (LapCompleted) EventName() string      { return "lapCompleted" }
func (RaceFinished) EventName() string      { return "raceFinished" }
