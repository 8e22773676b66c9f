// Package camera eases a render camera towards a pose derived from the
// vehicle state. It is cosmetic and never feeds back into the simulation.
package camera

import (
	"math"
	"math/rand"

	"github.com/ringline/racecore/internal/vecmath"
	"github.com/ringline/racecore/internal/vehicle"
)

// Mode selects how the camera frames the car.
type Mode int

const (
	Follow Mode = iota
	Chase
	Cockpit
	Overhead
)

var modeNames = [...]string{"follow", "chase", "cockpit", "overhead"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// ParseMode maps a config string to a Mode, defaulting to Follow.
func ParseMode(s string) Mode {
	for i, n := range modeNames {
		if n == s {
			return Mode(i)
		}
	}
	return Follow
}

type framing struct {
	distance   float64
	height     float64
	lookEasing float64
}

var framings = map[Mode]framing{
	Follow:   {distance: 15, height: 8, lookEasing: 0.05},
	Chase:    {distance: 20, height: 10, lookEasing: 0.03},
	Cockpit:  {lookEasing: 0.1},
	Overhead: {height: 50, lookEasing: 0.05},
}

const (
	positionEasing = 0.1
	tiltPerSpeed   = 0.001
	maxTilt        = 0.1
	cockpitLookout = 10
)

var cockpitOffset = vecmath.Vec3{0, 1.5, 1}

// Transform is what the renderer applies.
type Transform struct {
	Mode     Mode         `json:"mode"`
	Position vecmath.Vec3 `json:"position"`
	LookAt   vecmath.Vec3 `json:"lookAt"`
	Tilt     float64      `json:"tilt"`
}

// Rig tracks the smoothed camera pose and any active shake.
type Rig struct {
	mode     Mode
	position vecmath.Vec3
	lookAt   vecmath.Vec3
	tilt     float64
	primed   bool

	shakeIntensity float64
	shakeDuration  float64
	shakeLeft      float64
	shakeOffset    vecmath.Vec3
	rng            *rand.Rand
}

// NewRig creates a rig in mode. src drives shake jitter; nil uses a fixed seed.
func NewRig(mode Mode, src rand.Source) *Rig {
	if src == nil {
		src = rand.NewSource(1)
	}
	return &Rig{mode: mode, rng: rand.New(src)}
}

func (r *Rig) Mode() Mode { return r.mode }

// SetMode switches framing. The pose eases over from where it is.
func (r *Rig) SetMode(m Mode) { r.mode = m }

// NextMode cycles follow, chase, cockpit, overhead.
func (r *Rig) NextMode() Mode {
	r.mode = (r.mode + 1) % Mode(len(modeNames))
	return r.mode
}

// Shake starts a jitter of the given strength that fades out over duration seconds.
func (r *Rig) Shake(intensity, duration float64) {
	if duration <= 0 {
		return
	}
	r.shakeIntensity = intensity
	r.shakeDuration = duration
	r.shakeLeft = duration
}

// Shaking reports whether a shake is still running.
func (r *Rig) Shaking() bool { return r.shakeLeft > 0 }

// Snap jumps straight to the desired pose for s.
func (r *Rig) Snap(s vehicle.State) {
	r.position, r.lookAt = r.desired(s)
	r.primed = true
}

// Update eases the camera towards the pose for s.
func (r *Rig) Update(dt float64, s vehicle.State) Transform {
	if !r.primed {
		r.Snap(s)
	}
	pos, look := r.desired(s)
	f := framings[r.mode]

	if r.mode == Cockpit {
		r.position = pos
	} else {
		r.position = vecmath.LerpVec(r.position, pos, positionEasing)
	}
	r.lookAt = vecmath.LerpVec(r.lookAt, look, f.lookEasing)
	r.tilt = vecmath.Clamp(vecmath.Length(s.Velocity)*tiltPerSpeed, 0, maxTilt) * s.SteerAngle

	r.shakeOffset = vecmath.Vec3{}
	if r.shakeLeft > 0 {
		r.shakeLeft = math.Max(0, r.shakeLeft-dt)
		k := r.shakeIntensity * r.shakeLeft / r.shakeDuration
		r.shakeOffset = vecmath.Vec3{
			(r.rng.Float64() - 0.5) * k,
			(r.rng.Float64() - 0.5) * k,
			(r.rng.Float64() - 0.5) * k,
		}
	}

	return r.Transform()
}

// Transform returns the current pose including shake.
func (r *Rig) Transform() Transform {
	return Transform{
		Mode:     r.mode,
		Position: r.position.Add(r.shakeOffset),
		LookAt:   r.lookAt,
		Tilt:     r.tilt,
	}
}

func (r *Rig) desired(s vehicle.State) (position, lookAt vecmath.Vec3) {
	fwd := vecmath.Forward(s.Yaw)
	f := framings[r.mode]
	switch r.mode {
	case Cockpit:
		eye := s.Position.Add(vecmath.RotateY(cockpitOffset, s.Yaw))
		return eye, eye.Add(fwd.Mul(cockpitLookout))
	case Overhead:
		return s.Position.Add(vecmath.Vec3{0, f.height, 0}), s.Position
	default:
		behind := s.Position.Sub(fwd.Mul(f.distance))
		return behind.Add(vecmath.Vec3{0, f.height, 0}), s.Position
	}
}
