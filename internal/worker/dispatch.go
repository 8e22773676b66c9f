package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ringline/racecore/internal/api"
	"github.com/ringline/racecore/internal/dispatcher"
	"github.com/ringline/racecore/internal/race"
	"github.com/ringline/racecore/internal/stats"
	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/internal/util"
	"github.com/ringline/racecore/pkg/core"
)

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.dispatcher = d

	// Race boundaries - sync, ordered after everything buffered before them
	d.Register(CmdRaceStart, m.handleRaceStart, dispatcher.Logged())
	d.Register(CmdRaceEnd, m.handleRaceEnd, dispatcher.Logged())

	// High-volume telemetry - buffered
	d.Register(CmdVehicleState, m.handleVehicleState, dispatcher.Buffered(10000), dispatcher.Logged())

	// Race events - buffered, never dropped
	d.Register(CmdGearShift, m.handleGearShift, dispatcher.Buffered(1000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(CmdCollision, m.handleCollision, dispatcher.Buffered(1000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(CmdCheckpoint, m.handleCheckpoint, dispatcher.Buffered(1000), dispatcher.Blocking(), dispatcher.Logged())

	// Laps need every sample of the lap in the trace cache first
	d.Register(CmdLapCompleted, m.handleLapCompleted, dispatcher.Logged())
	d.Register(CmdRaceFinished, m.handleRaceFinished, dispatcher.Logged())
}

func (m *Manager) drain() {
	if m.dispatcher != nil {
		m.dispatcher.Drain()
	}
}

func (m *Manager) handleRaceStart(e dispatcher.Event) (any, error) {
	r, err := payload[*core.Race](e)
	if err != nil {
		return nil, err
	}
	m.drain()

	m.deps.Traces.Reset()
	m.deps.RaceContext.SetRace(r)
	if err := m.backend.StartRace(r); err != nil {
		return nil, fmt.Errorf("failed to start race %s: %w", r.ID, err)
	}
	m.writeLog("worker:raceStart",
		fmt.Sprintf("Race %s started on %s, %d laps", r.ID, r.TrackName, r.TotalLaps), "INFO")
	return r.ID, nil
}

func (m *Manager) handleVehicleState(e dispatcher.Event) (any, error) {
	s, err := payload[core.VehicleState](e)
	if err != nil {
		return nil, err
	}

	m.deps.Traces.Append(s.Lap, s.Position)

	var errs []error
	if m.deps.Telemetry != nil {
		trackName := ""
		if r := m.deps.RaceContext.GetRace(); r != nil {
			trackName = r.TrackName
		}
		if err := m.deps.Telemetry.WriteVehicleState(trackName, &s); err != nil {
			errs = append(errs, fmt.Errorf("failed to write telemetry: %w", err))
		}
	}
	if err := m.backend.RecordVehicleState(&s); err != nil {
		errs = append(errs, fmt.Errorf("failed to log vehicle state: %w", err))
	}
	return nil, errors.Join(errs...)
}

func (m *Manager) handleGearShift(e dispatcher.Event) (any, error) {
	ev, err := payload[core.GearShiftEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.backend.RecordGearShift(&ev); err != nil {
		return nil, fmt.Errorf("failed to log gear shift: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleCollision(e dispatcher.Event) (any, error) {
	ev, err := payload[core.CollisionEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.backend.RecordCollision(&ev); err != nil {
		return nil, fmt.Errorf("failed to log collision: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleCheckpoint(e dispatcher.Event) (any, error) {
	ev, err := payload[core.CheckpointEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.backend.RecordCheckpoint(&ev); err != nil {
		return nil, fmt.Errorf("failed to log checkpoint: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleLapCompleted(e dispatcher.Event) (any, error) {
	l, err := payload[core.LapRecord](e)
	if err != nil {
		return nil, err
	}
	m.drain()

	if len(l.Trace) == 0 {
		l.Trace = m.deps.Traces.Take(l.Lap)
	}
	if err := m.backend.RecordLap(&l); err != nil {
		return nil, fmt.Errorf("failed to log lap %d: %w", l.Lap, err)
	}
	m.writeLog("worker:lapCompleted",
		fmt.Sprintf("Lap %d: %s (best %s, %d trace points)",
			l.Lap, util.FormatLapTime(l.LapTime), util.FormatLapTime(l.BestLapTime), len(l.Trace)), "INFO")
	return len(l.Trace), nil
}

func (m *Manager) handleRaceFinished(e dispatcher.Event) (any, error) {
	f, err := payload[race.RaceFinished](e)
	if err != nil {
		return nil, err
	}
	m.writeLog("worker:raceFinished",
		fmt.Sprintf("Race %s finished in %s, best lap %s, %d crashes",
			e.RaceID, util.FormatLapTime(f.TotalTime), util.FormatLapTime(f.BestLapTime), f.CrashCount), "INFO")
	return nil, nil
}

// handleRaceEnd closes the race in storage and folds the result into the
// profile. The result is the list of newly unlocked achievements.
func (m *Manager) handleRaceEnd(e dispatcher.Event) (any, error) {
	res, err := payload[core.RaceResult](e)
	if err != nil {
		return nil, err
	}
	m.drain()
	defer m.deps.RaceContext.Clear()

	var errs []error
	if err := m.backend.EndRace(&res); err != nil {
		errs = append(errs, fmt.Errorf("failed to end race %s: %w", res.RaceID, err))
	}
	if ex, ok := m.backend.(storage.Exportable); ok && ex.ExportedFilePath() != "" {
		m.writeLog("worker:raceEnd", "Race exported to "+ex.ExportedFilePath(), "INFO")
		if err := m.upload(ex.ExportedFilePath(), res); err != nil {
			errs = append(errs, err)
		}
	}

	unlocked, err := m.updateProfile(res)
	if err != nil {
		errs = append(errs, err)
	}
	return unlocked, errors.Join(errs...)
}

func (m *Manager) upload(path string, res core.RaceResult) error {
	if m.deps.Uploader == nil {
		return nil
	}
	var r core.Race
	if cur := m.deps.RaceContext.GetRace(); cur != nil {
		r = *cur
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.deps.UploadTimeout)
	defer cancel()
	if err := m.deps.Uploader.Upload(ctx, path, api.MetadataFor(r, res, m.deps.UploadTag)); err != nil {
		return fmt.Errorf("failed to upload race %s: %w", res.RaceID, err)
	}
	m.writeLog("worker:raceEnd", "Race uploaded to leaderboard", "INFO")
	return nil
}

func (m *Manager) updateProfile(res core.RaceResult) ([]core.Achievement, error) {
	ps, ok := m.backend.(storage.ProfileStore)
	if !ok {
		return nil, nil
	}
	p, err := ps.LoadProfile()
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	unlocked := stats.RecordRace(p, res, m.deps.Now())
	if err := ps.SaveProfile(p); err != nil {
		return unlocked, fmt.Errorf("failed to save profile: %w", err)
	}
	for _, a := range unlocked {
		if info, ok := stats.Lookup(a.ID); ok {
			m.writeLog("worker:raceEnd", "Achievement unlocked: "+info.Name, "INFO")
		}
	}
	return unlocked, nil
}
