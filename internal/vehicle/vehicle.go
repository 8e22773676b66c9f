// Package vehicle simulates a single ground-locked car: steering, the
// drivetrain gear state machine, engine and brake forces, and pose updates.
package vehicle

import (
	"fmt"
	"math"

	"github.com/ringline/racecore/internal/physics"
	"github.com/ringline/racecore/internal/vecmath"
)

const (
	vehicleFriction    = 0.9
	vehicleRestitution = 0.1

	minSteerForTurn = 0.01
	minSpeedForTurn = 0.1 // m/s
	angularDecay    = 0.9

	mpsToKmh = 3.6
)

// State is the kinematic snapshot handed to renderers and recorders.
type State struct {
	Position    vecmath.Vec3 `json:"position"`
	Yaw         float64      `json:"yaw"`
	Velocity    vecmath.Vec3 `json:"velocity"`
	SteerAngle  float64      `json:"steerAngle"`
	Speed       float64      `json:"speed"` // km/h
	RPM         float64      `json:"rpm"`
	Gear        int          `json:"gear"`
	IsShifting  bool         `json:"isShifting"`
	IsAutomatic bool         `json:"isAutomatic"`
	Clutch      float64      `json:"clutch"`
}

// Vehicle owns its body, pose and drivetrain.
type Vehicle struct {
	params     Params
	body       *physics.Body
	drivetrain *Drivetrain

	position   vecmath.Vec3
	yaw        float64
	steerAngle float64
	speed      float64

	// shifts started since the last Update
	shifts []GearShift
}

// New creates a vehicle at rest at position facing yaw.
func New(p Params, position vecmath.Vec3, yaw float64) (*Vehicle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	body, err := physics.NewBody(p.Mass)
	if err != nil {
		return nil, fmt.Errorf("vehicle body: %w", err)
	}
	body.Friction = vehicleFriction
	body.Restitution = vehicleRestitution
	body.OnGround = true

	return &Vehicle{
		params:     p,
		body:       body,
		drivetrain: NewDrivetrain(p),
		position:   position,
		yaw:        yaw,
	}, nil
}

// Params returns the tuning the vehicle was built with.
func (v *Vehicle) Params() Params { return v.params }

// Drivetrain exposes the gear state machine for shift requests and reads.
func (v *Vehicle) Drivetrain() *Drivetrain { return v.drivetrain }

func (v *Vehicle) Position() vecmath.Vec3 { return v.position }
func (v *Vehicle) Yaw() float64           { return v.yaw }
func (v *Vehicle) Velocity() vecmath.Vec3 { return v.body.Velocity }
func (v *Vehicle) SteerAngle() float64    { return v.steerAngle }

// Speed is the ground speed in km/h as of the last Update.
func (v *Vehicle) Speed() float64 { return v.speed }

func (v *Vehicle) RPM() float64 { return v.drivetrain.RPM() }
func (v *Vehicle) Gear() int    { return v.drivetrain.Gear() }

// Forward is the unit heading vector.
func (v *Vehicle) Forward() vecmath.Vec3 {
	return vecmath.Forward(v.yaw)
}

// SetPose teleports the vehicle without touching its motion.
func (v *Vehicle) SetPose(position vecmath.Vec3, yaw float64) {
	v.position = position
	v.yaw = yaw
}

// ShiftUp requests an upshift in manual mode.
func (v *Vehicle) ShiftUp() bool {
	s, ok := v.drivetrain.ShiftUp()
	if ok {
		v.shifts = append(v.shifts, s)
	}
	return ok
}

// ShiftDown requests a downshift in manual mode.
func (v *Vehicle) ShiftDown() bool {
	s, ok := v.drivetrain.ShiftDown()
	if ok {
		v.shifts = append(v.shifts, s)
	}
	return ok
}

// ApplyImpulse changes velocity instantly, e.g. on a barrier hit.
func (v *Vehicle) ApplyImpulse(impulse vecmath.Vec3) {
	v.body.ApplyImpulse(impulse)
}

// ScaleVelocity multiplies the velocity by k.
func (v *Vehicle) ScaleVelocity(k float64) {
	v.body.ScaleVelocity(k)
}

// Reset puts the car back at rest at the given pose in first gear.
func (v *Vehicle) Reset(position vecmath.Vec3, yaw float64) {
	v.body.Reset()
	v.body.OnGround = true
	v.drivetrain.Reset()
	v.position = position
	v.yaw = yaw
	v.steerAngle = 0
	v.speed = 0
	v.shifts = nil
}

// Update advances the vehicle by dt and returns the gear shifts that started
// since the previous call.
func (v *Vehicle) Update(dt float64, in Intent) ([]GearShift, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: got %v", physics.ErrInvalidTimestep, dt)
	}
	p := v.params
	dtr := v.drivetrain

	if in.ToggleTransmission {
		dtr.ToggleTransmission()
	}
	if in.ShiftUp {
		v.ShiftUp()
	}
	if in.ShiftDown {
		v.ShiftDown()
	}

	// 1.- steering
	v.steerAngle = steer(v.steerAngle, in, p, dt)

	// 2.- gear state
	if s, ok := dtr.Update(dt, in, v.speed); ok {
		v.shifts = append(v.shifts, s)
	}

	// 3.- engine and brake forces
	currentSpeed := vecmath.LengthXZ(v.body.Velocity)
	force := dtr.EngineForce(in.Accelerate, currentSpeed, p)
	if force > 0 || (force < 0 && p.ApplyReverseThrust) {
		v.body.ApplyForce(v.Forward().Mul(force))
	}
	if in.Brake {
		dir := vecmath.Normalize(vecmath.Flat(v.body.Velocity))
		v.body.ApplyForce(dir.Mul(-p.BrakeForce))
	}

	// 4.- yaw rate
	if math.Abs(v.steerAngle) > minSteerForTurn && currentSpeed > minSpeedForTurn {
		v.body.AngularVelocity[1] = v.steerAngle * currentSpeed * p.TurnConstant
	} else {
		v.body.AngularVelocity = v.body.AngularVelocity.Mul(angularDecay)
	}

	// 5.- pose, ground locked
	v.body.Velocity = v.body.Velocity.Add(v.body.Acceleration.Mul(dt))
	v.position = v.position.Add(v.body.Velocity.Mul(dt))
	v.yaw += v.body.AngularVelocity.Y() * dt

	// 6.- rolling damping
	v.body.Velocity[0] *= p.Damping
	v.body.Velocity[2] *= p.Damping

	// 7.- forces are per tick
	v.body.ClearAcceleration()

	// 8.- derived speed
	v.speed = vecmath.LengthXZ(v.body.Velocity) * mpsToKmh

	// 9.- engine speed
	dtr.UpdateRPM(v.speed, in.Accelerate)

	shifts := v.shifts
	v.shifts = nil
	return shifts, nil
}

// State returns a copy of the current kinematic state.
func (v *Vehicle) State() State {
	return State{
		Position:    v.position,
		Yaw:         v.yaw,
		Velocity:    v.body.Velocity,
		SteerAngle:  v.steerAngle,
		Speed:       v.speed,
		RPM:         v.drivetrain.RPM(),
		Gear:        v.drivetrain.Gear(),
		IsShifting:  v.drivetrain.IsShifting(),
		IsAutomatic: v.drivetrain.IsAutomatic(),
		Clutch:      v.drivetrain.Clutch(),
	}
}
