// Package convert maps between the shared race records and the gorm models.
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/ringline/racecore/internal/geo"
	"github.com/ringline/racecore/internal/model"
	"github.com/ringline/racecore/pkg/core"
)

// floatsToJSON stores lap times as a JSON array.
func floatsToJSON(values []float64) datatypes.JSON {
	if len(values) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(values)
	return datatypes.JSON(data)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// CoreToRace converts a race header. RaceKey carries the ksuid.
func CoreToRace(r core.Race) model.Race {
	m := model.Race{
		RaceKey:     r.ID,
		TrackName:   r.TrackName,
		VehicleType: r.VehicleType,
		TotalLaps:   uint8(r.TotalLaps),
		Automatic:   r.Automatic,
		StartTime:   r.StartTime,
		LapTimes:    datatypes.JSON("[]"),
	}
	if r.Anchor != nil {
		m.Anchor = geom.NewPoint(geom.Coordinates{XY: geom.XY{X: r.Anchor.Longitude, Y: r.Anchor.Latitude}})
	}
	return m
}

// ApplyResult copies the outcome of a race onto its row.
func ApplyResult(m *model.Race, res core.RaceResult) {
	m.EndTime = sql.NullTime{Time: res.EndTime, Valid: !res.EndTime.IsZero()}
	m.Completed = res.Completed
	m.TotalTime = res.TotalTime
	m.BestLapTime = nullFloat(res.BestLapTime)
	m.LapTimes = floatsToJSON(res.LapTimes)
	m.CrashCount = uint16(res.CrashCount)
	m.MaxSpeed = float32(res.MaxSpeed)
	m.Distance = res.Distance
	if res.VehicleType != "" {
		m.VehicleType = res.VehicleType
	}
}

// CoreToVehicleState converts a telemetry sample. RaceID is stamped by the writer.
func CoreToVehicleState(s core.VehicleState) model.VehicleState {
	return model.VehicleState{
		Time:       s.Time,
		Tick:       s.Tick,
		Lap:        uint8(s.Lap),
		Position:   geo.PointFromPosition(s.Position),
		Elevation:  float32(s.Position.Y),
		Yaw:        float32(s.Yaw),
		SteerAngle: float32(s.SteerAngle),
		Speed:      float32(s.Speed),
		RPM:        float32(s.RPM),
		Gear:       int8(s.Gear),
		IsShifting: s.IsShifting,
		Clutch:     float32(s.Clutch),
		OnTrack:    s.OnTrack,
	}
}

func CoreToGearShift(e core.GearShiftEvent) model.GearShift {
	return model.GearShift{
		Time: e.Time,
		Tick: e.Tick,
		From: int8(e.From),
		To:   int8(e.To),
	}
}

func CoreToCollision(e core.CollisionEvent) model.Collision {
	return model.Collision{
		Time:     e.Time,
		Tick:     e.Tick,
		Lap:      uint8(e.Lap),
		Barrier:  uint16(e.Barrier),
		NormalX:  float32(e.Normal.X),
		NormalZ:  float32(e.Normal.Z),
		Position: geo.PointFromPosition(e.Position),
		Speed:    float32(e.Speed),
	}
}

func CoreToCheckpointPass(e core.CheckpointEvent) model.CheckpointPass {
	return model.CheckpointPass{
		Time:       e.Time,
		Tick:       e.Tick,
		Lap:        uint8(e.Lap),
		Checkpoint: uint8(e.Index),
		LapTime:    e.LapTime,
	}
}

// CoreToLap converts a lap record. Traces shorter than two points are
// stored empty.
func CoreToLap(l core.LapRecord) model.Lap {
	m := model.Lap{
		Time:        l.Time,
		Number:      uint8(l.Lap),
		LapTime:     l.LapTime,
		BestLapTime: l.BestLapTime,
	}
	if ls, err := geo.Trace(l.Trace); err == nil {
		m.Trace = ls
		m.TraceLength = ls.Length()
	}
	return m
}

// ProfileToRecord serializes a profile into a named row.
func ProfileToRecord(name string, p *core.Profile) (model.ProfileRecord, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return model.ProfileRecord{}, fmt.Errorf("failed to marshal profile: %w", err)
	}
	return model.ProfileRecord{Name: name, Data: datatypes.JSON(data)}, nil
}
