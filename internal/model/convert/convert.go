package convert

import (
	"encoding/json"
	"fmt"

	"github.com/ringline/racecore/internal/geo"
	"github.com/ringline/racecore/internal/model"
	"github.com/ringline/racecore/pkg/core"
)

func jsonToFloats(data []byte) []float64 {
	var out []float64
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	return out
}

// RaceToCore splits a race row back into its header and result.
func RaceToCore(m model.Race) (core.Race, core.RaceResult) {
	r := core.Race{
		ID:          m.RaceKey,
		TrackName:   m.TrackName,
		VehicleType: m.VehicleType,
		TotalLaps:   int(m.TotalLaps),
		Automatic:   m.Automatic,
		StartTime:   m.StartTime,
	}
	if c, ok := m.Anchor.Coordinates(); ok {
		r.Anchor = &core.GeoAnchor{Longitude: c.X, Latitude: c.Y}
	}

	res := core.RaceResult{
		RaceID:      m.RaceKey,
		VehicleType: m.VehicleType,
		Completed:   m.Completed,
		TotalTime:   m.TotalTime,
		LapTimes:    jsonToFloats(m.LapTimes),
		CrashCount:  int(m.CrashCount),
		MaxSpeed:    float64(m.MaxSpeed),
		Distance:    m.Distance,
	}
	if m.EndTime.Valid {
		res.EndTime = m.EndTime.Time
	}
	if m.BestLapTime.Valid {
		best := m.BestLapTime.Float64
		res.BestLapTime = &best
	}
	return r, res
}

// VehicleStateToCore converts a stored sample. raceKey is the ksuid of the
// owning race.
func VehicleStateToCore(raceKey string, s model.VehicleState) core.VehicleState {
	pos, _ := geo.PositionFromPoint(s.Position)
	pos.Y = float64(s.Elevation)
	return core.VehicleState{
		RaceID:     raceKey,
		Tick:       s.Tick,
		Time:       s.Time,
		Lap:        int(s.Lap),
		Position:   pos,
		Yaw:        float64(s.Yaw),
		SteerAngle: float64(s.SteerAngle),
		Speed:      float64(s.Speed),
		RPM:        float64(s.RPM),
		Gear:       int(s.Gear),
		IsShifting: s.IsShifting,
		Clutch:     float64(s.Clutch),
		OnTrack:    s.OnTrack,
	}
}

// LapToCore converts a stored lap including its trace.
func LapToCore(raceKey string, l model.Lap) core.LapRecord {
	rec := core.LapRecord{
		RaceID:      raceKey,
		Lap:         int(l.Number),
		Time:        l.Time,
		LapTime:     l.LapTime,
		BestLapTime: l.BestLapTime,
	}
	if !l.Trace.IsEmpty() {
		rec.Trace = geo.TracePositions(l.Trace)
	}
	return rec
}

// RecordToProfile decodes a stored profile, filling any missing maps.
func RecordToProfile(r model.ProfileRecord) (*core.Profile, error) {
	p := core.NewProfile()
	if len(r.Data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(r.Data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %q: %w", r.Name, err)
	}
	if p.Records.BestTimes == nil {
		p.Records.BestTimes = map[string]float64{}
	}
	if p.Records.BestLaps == nil {
		p.Records.BestLaps = map[string]float64{}
	}
	return p, nil
}
