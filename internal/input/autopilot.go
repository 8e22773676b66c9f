package input

import (
	"math"

	"github.com/ringline/racecore/internal/track"
	"github.com/ringline/racecore/internal/vehicle"
)

const (
	DefaultLookahead   = 0.3 // rad along the centerline
	DefaultTargetSpeed = 120 // km/h
	steerDeadband      = 0.02
)

// Autopilot chases a point ahead on the track centerline. It is the default
// driver when no replay is given.
type Autopilot struct {
	Vehicle     *vehicle.Vehicle
	Track       *track.Track
	Lookahead   float64
	TargetSpeed float64
}

// NewAutopilot drives v around t with the default lookahead and speed.
func NewAutopilot(v *vehicle.Vehicle, t *track.Track) *Autopilot {
	return &Autopilot{
		Vehicle:     v,
		Track:       t,
		Lookahead:   DefaultLookahead,
		TargetSpeed: DefaultTargetSpeed,
	}
}

func (a *Autopilot) Next() vehicle.Intent {
	diff := wrapAngle(a.desiredYaw() - a.Vehicle.Yaw())
	speed := a.Vehicle.Speed()
	return vehicle.Intent{
		Accelerate: speed < a.TargetSpeed,
		Brake:      speed > a.TargetSpeed*1.1,
		SteerLeft:  diff > steerDeadband,
		SteerRight: diff < -steerDeadband,
	}
}

// desiredYaw points the car at the centerline point Lookahead radians ahead
// of its own angular position.
func (a *Autopilot) desiredYaw() float64 {
	pos := a.Vehicle.Position()
	angle := math.Atan2(pos.Z(), pos.X()) + a.Lookahead
	r := a.Track.CenterRadius()
	dx := r*math.Cos(angle) - pos.X()
	dz := r*math.Sin(angle) - pos.Z()
	return math.Atan2(dx, dz)
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
