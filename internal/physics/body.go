package physics

import (
	"errors"
	"fmt"

	"github.com/ringline/racecore/internal/vecmath"
)

// Default surface coefficients for a generic body.
const (
	DefaultFriction    = 0.8
	DefaultRestitution = 0.3
)

// ErrInvalidMass is returned when a body is created with a non-positive mass.
var ErrInvalidMass = errors.New("mass must be greater than zero")

// Body holds linear physics state for a dynamic entity. Position is owned by
// the entity, not the body.
type Body struct {
	Mass            float64
	Velocity        vecmath.Vec3
	Acceleration    vecmath.Vec3 // cleared every tick after integration
	AngularVelocity vecmath.Vec3 // only Y is used
	OnGround        bool
	Friction        float64
	Restitution     float64
}

// NewBody creates a body with the default surface coefficients.
func NewBody(mass float64) (*Body, error) {
	if !(mass > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidMass, mass)
	}
	return &Body{
		Mass:        mass,
		Friction:    DefaultFriction,
		Restitution: DefaultRestitution,
	}, nil
}

// ApplyForce accumulates F/m into the acceleration for this tick.
func (b *Body) ApplyForce(force vecmath.Vec3) {
	b.Acceleration = b.Acceleration.Add(force.Mul(1 / b.Mass))
}

// ApplyImpulse changes velocity immediately by J/m.
func (b *Body) ApplyImpulse(impulse vecmath.Vec3) {
	b.Velocity = b.Velocity.Add(impulse.Mul(1 / b.Mass))
}

// ClearAcceleration drops the forces accumulated this tick.
func (b *Body) ClearAcceleration() {
	b.Acceleration = vecmath.Vec3{}
}

// ScaleVelocity multiplies every velocity component by k.
func (b *Body) ScaleVelocity(k float64) {
	b.Velocity = b.Velocity.Mul(k)
}

// Reset zeroes all motion. Mass and surface coefficients are kept.
func (b *Body) Reset() {
	b.Velocity = vecmath.Vec3{}
	b.Acceleration = vecmath.Vec3{}
	b.AngularVelocity = vecmath.Vec3{}
}
