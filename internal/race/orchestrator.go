// Package race runs one race: it steps the vehicle, resolves barrier hits and
// off-track penalties, tracks checkpoint progress and keeps the lap clock.
//
// The orchestrator is a pure tick function. The host owns the loop and the
// wall clock and calls Step with the elapsed time.
package race

import (
	"errors"
	"fmt"

	"github.com/ringline/racecore/internal/camera"
	"github.com/ringline/racecore/internal/physics"
	"github.com/ringline/racecore/internal/track"
	"github.com/ringline/racecore/internal/vecmath"
	"github.com/ringline/racecore/internal/vehicle"
)

// ErrInvalidTimestep is the vehicle's timestep error, re-exported for hosts.
var ErrInvalidTimestep = physics.ErrInvalidTimestep

const (
	DefaultTotalLaps = 3

	collisionImpulse = 500 // N·s
	collisionDamping = 0.7
	offTrackDamping  = 0.95
	shakeIntensity   = 2
	shakeDuration    = 0.3 // s
)

// State is the race clock and scoreboard.
type State struct {
	Status      Status    `json:"status"`
	CurrentLap  int       `json:"currentLap"`
	TotalLaps   int       `json:"totalLaps"`
	LapTime     float64   `json:"lapTime"`
	BestLapTime *float64  `json:"bestLapTime"`
	TotalTime   float64   `json:"totalTime"`
	CrashCount  int       `json:"crashCount"`
	LapTimes    []float64 `json:"lapTimes"`
	MaxSpeed    float64   `json:"maxSpeed"` // km/h
	Distance    float64   `json:"distance"` // m
	OnTrack     bool      `json:"onTrack"`
}

func (s State) clone() State {
	c := s
	if s.BestLapTime != nil {
		b := *s.BestLapTime
		c.BestLapTime = &b
	}
	c.LapTimes = append([]float64(nil), s.LapTimes...)
	return c
}

// Snapshot is a self-contained copy of everything a renderer or recorder needs.
type Snapshot struct {
	Race    State             `json:"race"`
	Vehicle vehicle.State     `json:"vehicle"`
	Camera  *camera.Transform `json:"camera,omitempty"`
	Passed  []bool            `json:"passed"`
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithTotalLaps sets the race length. Values below 1 are ignored.
func WithTotalLaps(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.totalLaps = n
		}
	}
}

// WithCamera attaches a rig that follows the car and shakes on impact.
func WithCamera(rig *camera.Rig) Option {
	return func(o *Orchestrator) {
		o.camera = rig
	}
}

// Orchestrator owns the vehicle, the track and the race state.
type Orchestrator struct {
	vehicle   *vehicle.Vehicle
	track     *track.Track
	camera    *camera.Rig
	totalLaps int
	state     State
}

// New places v on t's start line and returns an idle race.
func New(v *vehicle.Vehicle, t *track.Track, opts ...Option) (*Orchestrator, error) {
	if v == nil || t == nil {
		return nil, errors.New("race needs a vehicle and a track")
	}
	o := &Orchestrator{
		vehicle:   v,
		track:     t,
		totalLaps: DefaultTotalLaps,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.reset()
	return o, nil
}

func (o *Orchestrator) Vehicle() *vehicle.Vehicle { return o.vehicle }
func (o *Orchestrator) Track() *track.Track       { return o.track }
func (o *Orchestrator) Camera() *camera.Rig       { return o.camera }
func (o *Orchestrator) Status() Status            { return o.state.Status }

// Start begins the race from idle.
func (o *Orchestrator) Start() error { return o.apply(ActionStart) }

// Pause freezes the clock and the car.
func (o *Orchestrator) Pause() error { return o.apply(ActionPause) }

// Resume continues a paused race.
func (o *Orchestrator) Resume() error { return o.apply(ActionResume) }

// Finish ends a running race early.
func (o *Orchestrator) Finish() error { return o.apply(ActionFinish) }

// Reset returns to idle with the car on the start line and all progress cleared.
func (o *Orchestrator) Reset() {
	_ = o.apply(ActionReset)
}

func (o *Orchestrator) apply(a Action) error {
	to, err := Next(o.state.Status, a)
	if err != nil {
		return err
	}
	if a == ActionReset {
		o.reset()
		return nil
	}
	o.state.Status = to
	return nil
}

func (o *Orchestrator) reset() {
	o.vehicle.Reset(o.track.StartPosition(), o.track.StartRotation())
	o.track.ResetCheckpoints()
	o.state = State{
		Status:     Idle,
		CurrentLap: 1,
		TotalLaps:  o.totalLaps,
		OnTrack:    o.track.IsOnTrack(o.vehicle.Position()),
	}
	if o.camera != nil {
		o.camera.Snap(o.vehicle.State())
	}
}

// Step advances the race by dt seconds. It does nothing unless the race is playing.
func (o *Orchestrator) Step(dt float64, in vehicle.Intent) ([]Event, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTimestep, dt)
	}
	if o.state.Status != Playing {
		return nil, nil
	}

	var events []Event
	before := o.vehicle.Position()

	shifts, err := o.vehicle.Update(dt, in)
	if err != nil {
		return nil, err
	}
	for _, s := range shifts {
		events = append(events, GearShiftStarted{From: s.From, To: s.To})
	}

	pos := o.vehicle.Position()
	o.state.Distance += vecmath.DistanceXZ(before, pos)
	if sp := o.vehicle.Speed(); sp > o.state.MaxSpeed {
		o.state.MaxSpeed = sp
	}

	if c := o.track.CheckBarrierCollision(pos, o.track.CarRadius()); c.Hit {
		events = append(events, o.collide(c))
	}

	o.state.OnTrack = o.track.IsOnTrack(pos)
	if !o.state.OnTrack {
		o.vehicle.ScaleVelocity(offTrackDamping)
	}

	o.state.LapTime += dt
	o.state.TotalTime += dt

	progress := o.track.CheckCheckpoints(pos)
	for _, idx := range progress.Passed {
		events = append(events, CheckpointPassed{Index: idx, Lap: o.state.CurrentLap})
	}
	if progress.LapComplete {
		events = append(events, o.completeLap()...)
	}

	if o.camera != nil {
		o.camera.Update(dt, o.vehicle.State())
	}
	return events, nil
}

func (o *Orchestrator) collide(c track.Collision) Event {
	ev := CollisionOccurred{Normal: c.Normal, Barrier: c.Barrier, Speed: o.vehicle.Speed()}
	o.vehicle.ApplyImpulse(c.Normal.Mul(collisionImpulse))
	o.vehicle.ScaleVelocity(collisionDamping)
	if o.camera != nil {
		o.camera.Shake(shakeIntensity, shakeDuration)
	}
	o.state.CrashCount++
	return ev
}

func (o *Orchestrator) completeLap() []Event {
	lap := o.state.LapTime
	if o.state.BestLapTime == nil || lap < *o.state.BestLapTime {
		best := lap
		o.state.BestLapTime = &best
	}
	o.state.LapTimes = append(o.state.LapTimes, lap)

	events := []Event{LapCompleted{
		Lap:         o.state.CurrentLap,
		LapTime:     lap,
		BestLapTime: *o.state.BestLapTime,
	}}

	o.state.CurrentLap++
	o.state.LapTime = 0

	if o.state.CurrentLap > o.state.TotalLaps {
		o.state.Status = Finished
		events = append(events, RaceFinished{
			TotalTime:   o.state.TotalTime,
			BestLapTime: *o.state.BestLapTime,
			CrashCount:  o.state.CrashCount,
		})
	}
	return events
}

// State returns a copy of the race state.
func (o *Orchestrator) State() State { return o.state.clone() }

// Snapshot returns deep copies of the race, vehicle and camera state.
func (o *Orchestrator) Snapshot() Snapshot {
	cps := o.track.Checkpoints()
	passed := make([]bool, len(cps))
	for i, cp := range cps {
		passed[i] = cp.Passed
	}
	s := Snapshot{
		Race:    o.state.clone(),
		Vehicle: o.vehicle.State(),
		Passed:  passed,
	}
	if o.camera != nil {
		tr := o.camera.Transform()
		s.Camera = &tr
	}
	return s
}
