// Package session hosts a race: it owns the wall clock, feeds input to the
// orchestrator and turns each tick's events into dispatched commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/ringline/racecore/internal/dispatcher"
	"github.com/ringline/racecore/internal/input"
	"github.com/ringline/racecore/internal/logging"
	"github.com/ringline/racecore/internal/race"
	"github.com/ringline/racecore/internal/racectx"
	"github.com/ringline/racecore/internal/worker"
	"github.com/ringline/racecore/pkg/core"
)

const instrumentationName = "github.com/ringline/racecore/internal/session"

const (
	DefaultTickRate    = 60
	DefaultMaxStep     = 0.1 // s
	DefaultSampleEvery = 6
)

var (
	// ErrNotStarted is returned by Tick and End before Start.
	ErrNotStarted = errors.New("race not started")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("race already started")
)

// EventDispatcher is satisfied by *dispatcher.Dispatcher.
type EventDispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// TickCounter is satisfied by the monitor service.
type TickCounter interface {
	Tick()
}

// Dependencies holds everything a session drives or reports to.
type Dependencies struct {
	Orchestrator *race.Orchestrator
	Input        input.Source
	Dispatcher   EventDispatcher
	RaceContext  *racectx.Context
	LogManager   *logging.SlogManager
	// Monitor is optional.
	Monitor TickCounter
	// Meter defaults to the global OTel meter.
	Meter metric.Meter

	VehicleType string
	Automatic   bool
	Anchor      *core.GeoAnchor

	TickRate    int
	MaxStep     float64
	SampleEvery int

	Now   func() time.Time
	NewID func() string
}

// Result is what a finished or abandoned race produced.
type Result struct {
	Race     core.Race
	Result   core.RaceResult
	Unlocked []core.Achievement
}

// Session runs one race at a time.
type Session struct {
	deps Dependencies

	ticks        metric.Int64Counter
	tickDuration metric.Float64Histogram

	race   *core.Race
	tick   uint64
	ended  bool
	result *Result
}

// New validates deps and fills defaults.
func New(deps Dependencies) (*Session, error) {
	if deps.Orchestrator == nil || deps.Input == nil || deps.Dispatcher == nil {
		return nil, errors.New("session needs an orchestrator, an input source and a dispatcher")
	}
	if deps.RaceContext == nil {
		deps.RaceContext = racectx.NewContext()
	}
	if deps.TickRate <= 0 {
		deps.TickRate = DefaultTickRate
	}
	if !(deps.MaxStep > 0) {
		deps.MaxStep = DefaultMaxStep
	}
	if deps.SampleEvery <= 0 {
		deps.SampleEvery = DefaultSampleEvery
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return ksuid.New().String() }
	}
	if deps.Meter == nil {
		deps.Meter = otel.Meter(instrumentationName)
	}

	s := &Session{deps: deps}
	var err error
	s.ticks, err = deps.Meter.Int64Counter(
		"race.ticks",
		metric.WithDescription("Simulation steps taken"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}
	s.tickDuration, err = deps.Meter.Float64Histogram(
		"race.tick.duration",
		metric.WithDescription("Wall time spent in one simulation step"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}
	return s, nil
}

// Race returns the race being run, or nil before Start.
func (s *Session) Race() *core.Race {
	if s.race == nil {
		return nil
	}
	r := *s.race
	return &r
}

// Ticks is the number of steps taken in the current race.
func (s *Session) Ticks() uint64 { return s.tick }

// Start resets the orchestrator, starts the race and announces it.
func (s *Session) Start() (*core.Race, error) {
	if s.race != nil && !s.ended {
		return nil, ErrAlreadyStarted
	}
	o := s.deps.Orchestrator
	o.Reset()
	if err := o.Start(); err != nil {
		return nil, err
	}

	st := o.State()
	s.race = &core.Race{
		ID:          s.deps.NewID(),
		TrackName:   o.Track().Name(),
		VehicleType: s.deps.VehicleType,
		TotalLaps:   st.TotalLaps,
		Automatic:   s.deps.Automatic,
		StartTime:   s.deps.Now(),
		Anchor:      s.deps.Anchor,
	}
	s.tick = 0
	s.ended = false
	s.result = nil

	announced := *s.race
	s.dispatch(worker.CmdRaceStart, &announced)
	s.deps.RaceContext.Update(st.Status, st.CurrentLap)
	s.log(fmt.Sprintf("Race %s started", s.race.ID), "INFO")
	return s.Race(), nil
}

// Tick advances the race by dt seconds, clamped to MaxStep, and dispatches
// what happened. It reports whether the race has ended.
func (s *Session) Tick(dt float64) (bool, error) {
	if s.race == nil {
		return false, ErrNotStarted
	}
	if s.ended {
		return true, nil
	}
	if dt > s.deps.MaxStep {
		dt = s.deps.MaxStep
	}

	start := time.Now()
	in := s.deps.Input.Next()
	events, err := s.deps.Orchestrator.Step(dt, in)
	if err != nil {
		return false, err
	}
	s.tick++

	ctx := context.Background()
	s.ticks.Add(ctx, 1)
	s.tickDuration.Record(ctx, time.Since(start).Seconds())
	if s.deps.Monitor != nil {
		s.deps.Monitor.Tick()
	}

	st := s.deps.Orchestrator.State()
	for _, ev := range events {
		s.dispatchEvent(ev, st)
	}
	if s.tick%uint64(s.deps.SampleEvery) == 0 {
		sample := s.vehicleState(st)
		s.dispatch(worker.CmdVehicleState, sample)
	}
	s.deps.RaceContext.Update(st.Status, st.CurrentLap)

	if st.Status == race.Finished {
		if _, err := s.End(); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

// End closes the race, finished or not, and reports the result.
func (s *Session) End() (*Result, error) {
	if s.race == nil {
		return nil, ErrNotStarted
	}
	if s.ended {
		return s.result, nil
	}
	st := s.deps.Orchestrator.State()
	res := core.RaceResult{
		RaceID:      s.race.ID,
		VehicleType: s.race.VehicleType,
		EndTime:     s.simTime(st),
		Completed:   st.Status == race.Finished,
		TotalTime:   st.TotalTime,
		BestLapTime: st.BestLapTime,
		LapTimes:    st.LapTimes,
		CrashCount:  st.CrashCount,
		MaxSpeed:    st.MaxSpeed,
		Distance:    st.Distance,
	}
	out := &Result{Race: *s.race, Result: res}
	s.ended = true
	s.result = out

	if unlocked, ok := s.dispatch(worker.CmdRaceEnd, res).([]core.Achievement); ok {
		out.Unlocked = unlocked
	}
	s.log(fmt.Sprintf("Race %s ended after %d ticks, completed %v", s.race.ID, s.tick, res.Completed), "INFO")
	return out, nil
}

// Run drives the race from the wall clock until it finishes or ctx is done.
// A cancelled race is ended as abandoned.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if _, err := s.Start(); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(time.Second / time.Duration(s.deps.TickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return s.End()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if !(dt > 0) {
				continue
			}
			done, err := s.Tick(dt)
			if err != nil {
				return nil, err
			}
			if done {
				return s.End()
			}
		}
	}
}

// RunFixed steps the race ticks times with a constant dt, without the wall
// clock. Used for replays and tests.
func (s *Session) RunFixed(ticks int, dt float64) (*Result, error) {
	if _, err := s.Start(); err != nil {
		return nil, err
	}
	for i := 0; i < ticks; i++ {
		done, err := s.Tick(dt)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return s.End()
}

func (s *Session) dispatch(cmd string, payload any) any {
	var raceID string
	if s.race != nil {
		raceID = s.race.ID
	}
	res, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{
		Command:   cmd,
		RaceID:    raceID,
		Tick:      s.tick,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		s.log(fmt.Sprintf("%s failed: %v", cmd, err), "ERROR")
	}
	return res
}

func (s *Session) log(msg, level string) {
	if s.deps.LogManager != nil {
		s.deps.LogManager.WriteLog("session", msg, level)
	}
}
