package vehicle

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/physics"
	"github.com/ringline/racecore/internal/vecmath"
)

const tick = 1.0 / 60

func newTestVehicle(t *testing.T) *Vehicle {
	t.Helper()
	v, err := New(DefaultParams(), vecmath.Vec3{}, 0)
	require.NoError(t, err)
	return v
}

// settleShift ticks until any shift in progress has finished.
func settleShift(t *testing.T, v *Vehicle) {
	t.Helper()
	for i := 0; i < 100 && v.Drivetrain().IsShifting(); i++ {
		_, err := v.Update(tick, Intent{})
		require.NoError(t, err)
	}
	require.False(t, v.Drivetrain().IsShifting())
}

func TestNew_RejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.Mass = 0
	_, err := New(p, vecmath.Vec3{}, 0)
	require.ErrorIs(t, err, ErrInvalidParams)

	p = DefaultParams()
	p.IdleRPM = 9000
	_, err = New(p, vecmath.Vec3{}, 0)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestUpdate_RejectsBadTimestep(t *testing.T) {
	v := newTestVehicle(t)
	_, err := v.Update(0, Intent{})
	assert.ErrorIs(t, err, physics.ErrInvalidTimestep)
	_, err = v.Update(-tick, Intent{})
	assert.ErrorIs(t, err, physics.ErrInvalidTimestep)
}

func TestGearRatio_Fallback(t *testing.T) {
	assert.Equal(t, -2.5, GearRatio(-1))
	assert.Equal(t, 0.0, GearRatio(0))
	assert.Equal(t, 3.5, GearRatio(1))
	assert.Equal(t, 0.8, GearRatio(6))
	assert.Equal(t, 1.0, GearRatio(7))
	assert.Equal(t, 1.0, GearRatio(-2))
}

func TestUpdate_IdleVelocityDecays(t *testing.T) {
	v := newTestVehicle(t)
	v.ApplyImpulse(vecmath.Vec3{20000, 0, -15000})

	prev := vecmath.Length(v.Velocity())
	for i := 0; i < 300; i++ {
		_, err := v.Update(tick, Intent{})
		require.NoError(t, err)
		cur := vecmath.Length(v.Velocity())
		require.Less(t, cur, prev, "tick %d", i)
		prev = cur
	}
	assert.Less(t, prev, 0.1)
}

func TestScenario_AccelerateFromRest(t *testing.T) {
	v := newTestVehicle(t)
	require.True(t, v.Drivetrain().IsAutomatic())
	require.Equal(t, 1, v.Gear())

	for i := 0; i < 100; i++ {
		_, err := v.Update(tick, Intent{Accelerate: true})
		require.NoError(t, err)
	}

	assert.Greater(t, v.Speed(), 0.0)
	assert.Greater(t, v.RPM(), v.Params().IdleRPM)
	assert.Greater(t, v.Position().Z(), 0.0, "yaw 0 drives towards +Z")
}

func TestScenario_ManualShiftDuration(t *testing.T) {
	v := newTestVehicle(t)
	v.Drivetrain().SetAutomatic(false)

	require.True(t, v.ShiftUp())
	assert.True(t, v.Drivetrain().IsShifting())
	assert.Equal(t, 2, v.Gear())

	elapsed := 0.0
	for elapsed < 0.3 {
		require.True(t, v.Drivetrain().IsShifting(), "shift ended early at %v", elapsed)
		_, err := v.Update(tick, Intent{})
		require.NoError(t, err)
		elapsed += tick
	}

	assert.False(t, v.Drivetrain().IsShifting())
	assert.Equal(t, 2, v.Gear())
	assert.Equal(t, 1.0, v.Drivetrain().Clutch())
}

func TestShift_ClutchDipsDuringShift(t *testing.T) {
	v := newTestVehicle(t)
	v.Drivetrain().SetAutomatic(false)
	require.True(t, v.ShiftUp())

	_, err := v.Update(0.1, Intent{})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v.Drivetrain().Clutch(), 1e-9)

	_, err = v.Update(0.1, Intent{})
	require.NoError(t, err)
	assert.InDelta(t, 0.2, v.Drivetrain().Clutch(), 1e-9)
}

func TestShift_RequestsIgnoredWhileShifting(t *testing.T) {
	v := newTestVehicle(t)
	v.Drivetrain().SetAutomatic(false)

	require.True(t, v.ShiftUp())
	assert.False(t, v.ShiftUp())
	assert.False(t, v.ShiftDown())
	assert.Equal(t, 2, v.Gear())
}

func TestShift_AutomaticIgnoresManualRequests(t *testing.T) {
	v := newTestVehicle(t)
	assert.False(t, v.ShiftUp())
	assert.Equal(t, 1, v.Gear())
}

func TestShift_GearSequence(t *testing.T) {
	v := newTestVehicle(t)
	v.Drivetrain().SetAutomatic(false)

	for v.Gear() > -1 {
		require.True(t, v.ShiftDown())
		settleShift(t, v)
	}
	assert.False(t, v.ShiftDown(), "cannot go below reverse")

	visited := []int{v.Gear()}
	for i := 0; i < 500; i++ {
		v.ShiftUp()
		_, err := v.Update(tick, Intent{})
		require.NoError(t, err)
		g := v.Gear()
		require.GreaterOrEqual(t, g, -1)
		require.LessOrEqual(t, g, v.Params().MaxGear)
		if g != visited[len(visited)-1] {
			visited = append(visited, g)
		}
	}

	assert.Equal(t, []int{-1, 0, 1, 2, 3, 4, 5, 6}, visited)
}

func TestUpdate_ReportsShifts(t *testing.T) {
	v := newTestVehicle(t)
	v.Drivetrain().SetAutomatic(false)

	shifts, err := v.Update(tick, Intent{ShiftUp: true})
	require.NoError(t, err)
	assert.Equal(t, []GearShift{{From: 1, To: 2}}, shifts)

	shifts, err = v.Update(tick, Intent{})
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestUpdate_ToggleTransmission(t *testing.T) {
	v := newTestVehicle(t)
	_, err := v.Update(tick, Intent{ToggleTransmission: true})
	require.NoError(t, err)
	assert.False(t, v.Drivetrain().IsAutomatic())
	_, err = v.Update(tick, Intent{ToggleTransmission: true})
	require.NoError(t, err)
	assert.True(t, v.Drivetrain().IsAutomatic())
}

func TestRPM_StaysInBounds(t *testing.T) {
	v := newTestVehicle(t)
	p := v.Params()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 5000; i++ {
		in := Intent{
			Accelerate:         rng.Intn(3) > 0,
			Brake:              rng.Intn(5) == 0,
			SteerLeft:          rng.Intn(4) == 0,
			SteerRight:         rng.Intn(4) == 0,
			ShiftUp:            rng.Intn(30) == 0,
			ShiftDown:          rng.Intn(40) == 0,
			ToggleTransmission: rng.Intn(200) == 0,
			Clutch:             rng.Intn(10) == 0,
		}
		_, err := v.Update(tick, in)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v.RPM(), p.IdleRPM)
		require.LessOrEqual(t, v.RPM(), p.MaxRPM)
		require.GreaterOrEqual(t, v.Drivetrain().Clutch(), 0.0)
		require.LessOrEqual(t, v.Drivetrain().Clutch(), 1.0)
		require.LessOrEqual(t, math.Abs(v.SteerAngle()), p.MaxSteerAngle+1e-12)
	}
}

func TestRPM_NeutralIsIdle(t *testing.T) {
	v := newTestVehicle(t)
	v.Drivetrain().SetAutomatic(false)
	require.True(t, v.ShiftDown())
	settleShift(t, v)
	require.Equal(t, 0, v.Gear())

	for i := 0; i < 60; i++ {
		_, err := v.Update(tick, Intent{Accelerate: true})
		require.NoError(t, err)
	}
	assert.Equal(t, v.Params().IdleRPM, v.RPM())
	assert.Equal(t, 0.0, v.Speed())
}

func TestReverse_ThrustGating(t *testing.T) {
	build := func(applyReverse bool) *Vehicle {
		p := DefaultParams()
		p.ApplyReverseThrust = applyReverse
		v, err := New(p, vecmath.Vec3{}, 0)
		require.NoError(t, err)
		v.Drivetrain().SetAutomatic(false)
		for v.Gear() > -1 {
			require.True(t, v.ShiftDown())
			settleShift(t, v)
		}
		for i := 0; i < 60; i++ {
			_, err := v.Update(tick, Intent{Accelerate: true})
			require.NoError(t, err)
		}
		return v
	}

	classic := build(false)
	assert.Equal(t, 0.0, classic.Speed())

	corrected := build(true)
	assert.Greater(t, corrected.Speed(), 0.0)
	assert.Less(t, vecmath.Dot(corrected.Velocity(), corrected.Forward()), 0.0)
}

func TestSteering_ClampsAndReturns(t *testing.T) {
	v := newTestVehicle(t)
	maxSteer := v.Params().MaxSteerAngle

	for i := 0; i < 120; i++ {
		_, err := v.Update(tick, Intent{SteerLeft: true})
		require.NoError(t, err)
	}
	assert.InDelta(t, maxSteer, v.SteerAngle(), 1e-12)

	for i := 0; i < 120; i++ {
		_, err := v.Update(tick, Intent{})
		require.NoError(t, err)
	}
	assert.Equal(t, 0.0, v.SteerAngle())

	for i := 0; i < 120; i++ {
		_, err := v.Update(tick, Intent{SteerRight: true})
		require.NoError(t, err)
	}
	assert.InDelta(t, -maxSteer, v.SteerAngle(), 1e-12)
}

func TestSteering_TurnsWhileMoving(t *testing.T) {
	v := newTestVehicle(t)
	for i := 0; i < 120; i++ {
		_, err := v.Update(tick, Intent{Accelerate: true, SteerLeft: true})
		require.NoError(t, err)
	}
	assert.Greater(t, v.Yaw(), 0.0)
}

func TestBrake_SlowsFasterThanCoasting(t *testing.T) {
	coast := newTestVehicle(t)
	brake := newTestVehicle(t)
	coast.ApplyImpulse(vecmath.Vec3{0, 0, 20000})
	brake.ApplyImpulse(vecmath.Vec3{0, 0, 20000})

	for i := 0; i < 10; i++ {
		_, err := coast.Update(tick, Intent{})
		require.NoError(t, err)
		_, err = brake.Update(tick, Intent{Brake: true})
		require.NoError(t, err)
	}
	assert.Less(t, brake.Speed(), coast.Speed())
	assert.Greater(t, brake.Velocity().Z(), 0.0)
}

func TestClutch_ManualInput(t *testing.T) {
	v := newTestVehicle(t)
	v.Drivetrain().SetAutomatic(false)

	_, err := v.Update(0.1, Intent{Clutch: true})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, v.Drivetrain().Clutch(), 1e-9)

	_, err = v.Update(0.1, Intent{})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, v.Drivetrain().Clutch(), 1e-9)
}

func TestReset(t *testing.T) {
	v := newTestVehicle(t)
	for i := 0; i < 60; i++ {
		_, err := v.Update(tick, Intent{Accelerate: true, SteerLeft: true})
		require.NoError(t, err)
	}
	v.Reset(vecmath.Vec3{1, 0, 2}, 0.5)

	s := v.State()
	assert.Equal(t, vecmath.Vec3{1, 0, 2}, s.Position)
	assert.Equal(t, 0.5, s.Yaw)
	assert.Equal(t, vecmath.Vec3{}, s.Velocity)
	assert.Equal(t, 1, s.Gear)
	assert.Equal(t, v.Params().IdleRPM, s.RPM)
	assert.Equal(t, 0.0, s.Speed)
}

func TestReset_KeepsTransmissionMode(t *testing.T) {
	v := newTestVehicle(t)
	v.Drivetrain().SetAutomatic(false)
	_, err := v.Update(tick, Intent{ShiftUp: true})
	require.NoError(t, err)

	v.Reset(vecmath.Vec3{}, 0)

	assert.False(t, v.Drivetrain().IsAutomatic())
	assert.Equal(t, 1, v.Drivetrain().Gear())
	assert.Equal(t, 1.0, v.Drivetrain().Clutch())
}
