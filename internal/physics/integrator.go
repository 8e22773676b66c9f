// Package physics provides the linear body model and the explicit Euler
// integrator used for free bodies. Vehicles integrate their own pose and only
// borrow Body for force bookkeeping.
package physics

import (
	"errors"
	"fmt"

	"github.com/ringline/racecore/internal/vecmath"
)

// Integrator defaults.
const (
	Gravity        = -9.81
	AirResistance  = 0.98
	GroundFriction = 0.95
)

// ErrInvalidTimestep is returned for dt <= 0.
var ErrInvalidTimestep = errors.New("timestep must be greater than zero")

// Integrator applies gravity, air resistance and ground friction to a body.
// There is no sub-stepping, so callers clamp large dt values.
type Integrator struct {
	Gravity        float64
	AirResistance  float64
	GroundFriction float64
}

// NewIntegrator returns an integrator with the default constants.
func NewIntegrator() *Integrator {
	return &Integrator{
		Gravity:        Gravity,
		AirResistance:  AirResistance,
		GroundFriction: GroundFriction,
	}
}

// Integrate advances body and position by dt and resolves ground contact at y = 0.
// Acceleration accumulated through ApplyForce is consumed and cleared.
func (in *Integrator) Integrate(body *Body, position *vecmath.Vec3, dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidTimestep, dt)
	}

	// 0.- accumulated forces
	v := body.Velocity.Add(body.Acceleration.Mul(dt))
	body.ClearAcceleration()

	// 1.- gravity only while airborne
	if !body.OnGround {
		v[1] += in.Gravity * dt
	}

	// 2.- horizontal damping, ground friction on top when in contact
	k := in.AirResistance
	if body.OnGround {
		k *= in.GroundFriction
	}
	v[0] *= k
	v[2] *= k

	// 3.- position
	p := position.Add(v.Mul(dt))

	// 4.- ground contact
	if p[1] <= 0 {
		p[1] = 0
		v[1] = 0
		body.OnGround = true
	} else {
		body.OnGround = false
	}

	body.Velocity = v
	*position = p
	return nil
}
