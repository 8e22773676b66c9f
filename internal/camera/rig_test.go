package camera

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ringline/racecore/internal/vecmath"
	"github.com/ringline/racecore/internal/vehicle"
)

func TestNextMode_Cycles(t *testing.T) {
	r := NewRig(Follow, nil)
	assert.Equal(t, Chase, r.NextMode())
	assert.Equal(t, Cockpit, r.NextMode())
	assert.Equal(t, Overhead, r.NextMode())
	assert.Equal(t, Follow, r.NextMode())
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, Chase, ParseMode("chase"))
	assert.Equal(t, Follow, ParseMode("nonsense"))
	assert.Equal(t, "overhead", Overhead.String())
}

func TestUpdate_FirstFrameSnapsBehindCar(t *testing.T) {
	r := NewRig(Follow, nil)
	tr := r.Update(1.0/60, vehicle.State{Position: vecmath.Vec3{0, 0, 50}})

	assert.Equal(t, vecmath.Vec3{0, 8, 35}, tr.Position)
	assert.Equal(t, vecmath.Vec3{0, 0, 50}, tr.LookAt)
}

func TestUpdate_EasesTowardsTarget(t *testing.T) {
	r := NewRig(Overhead, nil)
	r.Update(1.0/60, vehicle.State{})

	tr := r.Update(1.0/60, vehicle.State{Position: vecmath.Vec3{10, 0, 0}})
	assert.InDelta(t, 1.0, tr.Position.X(), 1e-9)
	assert.InDelta(t, 0.5, tr.LookAt.X(), 1e-9)
}

func TestUpdate_CockpitRidesWithCar(t *testing.T) {
	r := NewRig(Cockpit, nil)
	r.Update(1.0/60, vehicle.State{})
	tr := r.Update(1.0/60, vehicle.State{Position: vecmath.Vec3{5, 0, 5}})
	assert.Equal(t, vecmath.Vec3{5, 1.5, 6}, tr.Position)
}

func TestUpdate_Tilt(t *testing.T) {
	r := NewRig(Follow, nil)
	tr := r.Update(1.0/60, vehicle.State{Velocity: vecmath.Vec3{0, 0, 50}, SteerAngle: 0.5})
	assert.InDelta(t, 0.025, tr.Tilt, 1e-12)

	tr = r.Update(1.0/60, vehicle.State{Velocity: vecmath.Vec3{0, 0, 500}, SteerAngle: -0.5})
	assert.InDelta(t, -0.05, tr.Tilt, 1e-12)
}

func TestShake_Decays(t *testing.T) {
	r := NewRig(Overhead, rand.NewSource(3))
	s := vehicle.State{}
	r.Update(0.1, s)

	r.Shake(2, 0.3)
	assert.True(t, r.Shaking())

	tr := r.Update(0.1, s)
	assert.NotEqual(t, vecmath.Vec3{0, 50, 0}, tr.Position)

	r.Update(0.1, s)
	tr = r.Update(0.1, s)
	assert.False(t, r.Shaking())
	assert.Equal(t, vecmath.Vec3{0, 50, 0}, tr.Position)
}
