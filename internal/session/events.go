package session

import (
	"time"

	"github.com/ringline/racecore/internal/race"
	"github.com/ringline/racecore/internal/vecmath"
	"github.com/ringline/racecore/internal/worker"
	"github.com/ringline/racecore/pkg/core"
)

func position(v vecmath.Vec3) core.Position3D {
	return core.Position3D{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// simTime is the race clock as a timestamp, so fixed-step runs produce
// reproducible records.
func (s *Session) simTime(st race.State) time.Time {
	return s.race.StartTime.Add(time.Duration(st.TotalTime * float64(time.Second)))
}

func (s *Session) vehicleState(st race.State) core.VehicleState {
	vs := s.deps.Orchestrator.Vehicle().State()
	return core.VehicleState{
		RaceID:     s.race.ID,
		Tick:       s.tick,
		Time:       s.simTime(st),
		Lap:        st.CurrentLap,
		Position:   position(vs.Position),
		Yaw:        vs.Yaw,
		SteerAngle: vs.SteerAngle,
		Speed:      vs.Speed,
		RPM:        vs.RPM,
		Gear:       vs.Gear,
		IsShifting: vs.IsShifting,
		Clutch:     vs.Clutch,
		OnTrack:    st.OnTrack,
	}
}

// dispatchEvent converts an orchestrator event into its record and sends it.
// st is the race state after the step that produced ev.
func (s *Session) dispatchEvent(ev race.Event, st race.State) {
	at := s.simTime(st)
	switch e := ev.(type) {
	case race.GearShiftStarted:
		s.dispatch(worker.CmdGearShift, core.GearShiftEvent{
			RaceID: s.race.ID,
			Tick:   s.tick,
			Time:   at,
			From:   e.From,
			To:     e.To,
		})
	case race.CollisionOccurred:
		s.dispatch(worker.CmdCollision, core.CollisionEvent{
			RaceID:   s.race.ID,
			Tick:     s.tick,
			Time:     at,
			Lap:      st.CurrentLap,
			Barrier:  e.Barrier,
			Normal:   position(e.Normal),
			Position: position(s.deps.Orchestrator.Vehicle().Position()),
			Speed:    e.Speed,
		})
	case race.CheckpointPassed:
		// the lap clock has already reset if this pass closed the lap
		lapTime := st.LapTime
		if e.Lap != st.CurrentLap && e.Lap >= 1 && e.Lap <= len(st.LapTimes) {
			lapTime = st.LapTimes[e.Lap-1]
		}
		s.dispatch(worker.CmdCheckpoint, core.CheckpointEvent{
			RaceID:  s.race.ID,
			Tick:    s.tick,
			Time:    at,
			Lap:     e.Lap,
			Index:   e.Index,
			LapTime: lapTime,
		})
	case race.LapCompleted:
		s.dispatch(worker.CmdLapCompleted, core.LapRecord{
			RaceID:      s.race.ID,
			Lap:         e.Lap,
			Time:        at,
			LapTime:     e.LapTime,
			BestLapTime: e.BestLapTime,
		})
	case race.RaceFinished:
		s.dispatch(worker.CmdRaceFinished, e)
	}
}
