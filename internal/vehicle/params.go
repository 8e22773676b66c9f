package vehicle

import (
	"errors"
	"fmt"

	"github.com/ringline/racecore/internal/vecmath"
)

// ErrInvalidParams is returned when vehicle parameters cannot produce a stable simulation.
var ErrInvalidParams = errors.New("invalid vehicle parameters")

// Params tunes a vehicle. Forces are in newtons, speeds in km/h, angles in radians.
type Params struct {
	Mass             float64 `json:"mass" mapstructure:"mass"`
	EnginePower      float64 `json:"enginePower" mapstructure:"enginePower"`
	MaxSpeed         float64 `json:"maxSpeed" mapstructure:"maxSpeed"`
	BrakeForce       float64 `json:"brakeForce" mapstructure:"brakeForce"`
	MaxSteerAngle    float64 `json:"maxSteerAngle" mapstructure:"maxSteerAngle"`
	SteerSpeed       float64 `json:"steerSpeed" mapstructure:"steerSpeed"`
	SteerReturnSpeed float64 `json:"steerReturnSpeed" mapstructure:"steerReturnSpeed"`
	TurnConstant     float64 `json:"turnConstant" mapstructure:"turnConstant"`
	Damping          float64 `json:"damping" mapstructure:"damping"`
	MaxGear          int     `json:"maxGear" mapstructure:"maxGear"`
	IdleRPM          float64 `json:"idleRpm" mapstructure:"idleRpm"`
	MaxRPM           float64 `json:"maxRpm" mapstructure:"maxRpm"`
	ShiftDuration    float64 `json:"shiftDuration" mapstructure:"shiftDuration"`

	// ApplyReverseThrust lets the negative reverse-gear force push the car
	// backwards. Off by default to keep the classic handling where reverse only
	// spins the engine.
	ApplyReverseThrust bool `json:"applyReverseThrust" mapstructure:"applyReverseThrust"`
}

// DefaultParams returns the stock sports car tuning.
func DefaultParams() Params {
	return Params{
		Mass:             1000,
		EnginePower:      2000,
		MaxSpeed:         200,
		BrakeForce:       3000,
		MaxSteerAngle:    vecmath.DegToRad(30),
		SteerSpeed:       2.0,
		SteerReturnSpeed: 5.0,
		TurnConstant:     0.02,
		Damping:          0.98,
		MaxGear:          6,
		IdleRPM:          800,
		MaxRPM:           7500,
		ShiftDuration:    0.3,
	}
}

// Validate rejects parameter sets that would divide by zero or invert bounds.
func (p Params) Validate() error {
	switch {
	case !(p.Mass > 0):
		return fmt.Errorf("%w: mass must be > 0, got %v", ErrInvalidParams, p.Mass)
	case !(p.MaxSpeed > 0):
		return fmt.Errorf("%w: maxSpeed must be > 0, got %v", ErrInvalidParams, p.MaxSpeed)
	case p.MaxGear < 1:
		return fmt.Errorf("%w: maxGear must be >= 1, got %d", ErrInvalidParams, p.MaxGear)
	case p.IdleRPM < 0 || p.IdleRPM >= p.MaxRPM:
		return fmt.Errorf("%w: rpm range [%v, %v] is empty", ErrInvalidParams, p.IdleRPM, p.MaxRPM)
	case p.MaxSteerAngle < 0:
		return fmt.Errorf("%w: maxSteerAngle must be >= 0", ErrInvalidParams)
	case !(p.ShiftDuration > 0):
		return fmt.Errorf("%w: shiftDuration must be > 0", ErrInvalidParams)
	}
	return nil
}

// maxSpeedMps is the top speed in metres per second.
func (p Params) maxSpeedMps() float64 {
	return p.MaxSpeed / 3.6
}
