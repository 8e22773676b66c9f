package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels lists every table in the schema, parents first.
var DatabaseModels = []any{
	&Race{},
	&VehicleState{},
	&GearShift{},
	&Collision{},
	&CheckpointPass{},
	&Lap{},
	&ProfileRecord{},
}

////////////////////////
// RACES
////////////////////////

// Race is one run around a track. RaceKey is the ksuid the session assigned.
type Race struct {
	gorm.Model
	RaceKey     string          `json:"raceKey" gorm:"size:27;uniqueIndex:idx_race_key"`
	TrackName   string          `json:"trackName" gorm:"size:64"`
	VehicleType string          `json:"vehicleType" gorm:"size:32;index:idx_race_vehicle_type"`
	TotalLaps   uint8           `json:"totalLaps"`
	Automatic   bool            `json:"automatic" gorm:"default:true"`
	StartTime   time.Time       `json:"startTime" gorm:"index:idx_race_start"`
	EndTime     sql.NullTime    `json:"endTime"`
	Completed   bool            `json:"completed" gorm:"default:false"`
	TotalTime   float64         `json:"totalTime"`
	BestLapTime sql.NullFloat64 `json:"bestLapTime"`
	LapTimes    datatypes.JSON  `json:"lapTimes" gorm:"default:'[]'"`
	CrashCount  uint16          `json:"crashCount"`
	MaxSpeed    float32         `json:"maxSpeed"`
	Distance    float64         `json:"distance"`
	Anchor      geom.Point      `json:"anchor"` // lon/lat of the track origin, empty when unanchored
}

func (*Race) TableName() string {
	return "races"
}

// FindByKey loads the race row for a ksuid.
func (r *Race) FindByKey(db *gorm.DB, key string) error {
	return db.Where("race_key = ?", key).First(r).Error
}

////////////////////////
// TELEMETRY
////////////////////////

// VehicleState is a sampled kinematic snapshot.
type VehicleState struct {
	ID         uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time       time.Time  `json:"time"`
	RaceID     uint       `json:"raceId" gorm:"index:idx_vehiclestate_race_id"`
	Race       Race       `json:"-" gorm:"foreignkey:RaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tick       uint64     `json:"tick" gorm:"index:idx_vehiclestate_tick"`
	Lap        uint8      `json:"lap"`
	Position   geom.Point `json:"position"` // track X/Z
	Elevation  float32    `json:"elevation"`
	Yaw        float32    `json:"yaw"`
	SteerAngle float32    `json:"steerAngle"`
	Speed      float32    `json:"speed"` // km/h
	RPM        float32    `json:"rpm"`
	Gear       int8       `json:"gear"`
	IsShifting bool       `json:"isShifting"`
	Clutch     float32    `json:"clutch"`
	OnTrack    bool       `json:"onTrack" gorm:"default:true"`
}

func (*VehicleState) TableName() string {
	return "vehicle_states"
}

////////////////////////
// EVENTS
////////////////////////

// GearShift is the start of a gear change.
type GearShift struct {
	ID     uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time   time.Time `json:"time"`
	RaceID uint      `json:"raceId" gorm:"index:idx_gearshift_race_id"`
	Race   Race      `json:"-" gorm:"foreignkey:RaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tick   uint64    `json:"tick"`
	From   int8      `json:"from"`
	To     int8      `json:"to"`
}

func (*GearShift) TableName() string {
	return "gear_shifts"
}

// Collision is a barrier hit.
type Collision struct {
	ID       uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time     time.Time  `json:"time"`
	RaceID   uint       `json:"raceId" gorm:"index:idx_collision_race_id"`
	Race     Race       `json:"-" gorm:"foreignkey:RaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tick     uint64     `json:"tick"`
	Lap      uint8      `json:"lap"`
	Barrier  uint16     `json:"barrier"`
	NormalX  float32    `json:"normalX"`
	NormalZ  float32    `json:"normalZ"`
	Position geom.Point `json:"position"`
	Speed    float32    `json:"speed"`
}

func (*Collision) TableName() string {
	return "collisions"
}

// CheckpointPass is the first pass of a checkpoint within a lap.
type CheckpointPass struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time       time.Time `json:"time"`
	RaceID     uint      `json:"raceId" gorm:"index:idx_checkpointpass_race_id"`
	Race       Race      `json:"-" gorm:"foreignkey:RaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tick       uint64    `json:"tick"`
	Lap        uint8     `json:"lap"`
	Checkpoint uint8     `json:"checkpoint"`
	LapTime    float64   `json:"lapTime"`
}

func (*CheckpointPass) TableName() string {
	return "checkpoint_passes"
}

// Lap is a completed lap and the path driven.
type Lap struct {
	ID          uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time       `json:"time"`
	RaceID      uint            `json:"raceId" gorm:"index:idx_lap_race_id"`
	Race        Race            `json:"-" gorm:"foreignkey:RaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Number      uint8           `json:"number"`
	LapTime     float64         `json:"lapTime"`
	BestLapTime float64         `json:"bestLapTime"`
	Trace       geom.LineString `json:"trace"`
	TraceLength float64         `json:"traceLength"`
}

func (*Lap) TableName() string {
	return "laps"
}

////////////////////////
// PROFILE
////////////////////////

// ProfileRecord stores a serialized player profile under a name.
type ProfileRecord struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Name      string         `json:"name" gorm:"size:64;uniqueIndex:idx_profile_name"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Data      datatypes.JSON `json:"data"`
}

func (*ProfileRecord) TableName() string {
	return "profiles"
}
