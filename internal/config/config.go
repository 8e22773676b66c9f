package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/ringline/racecore/internal/track"
	"github.com/ringline/racecore/internal/vehicle"
	"github.com/ringline/racecore/pkg/core"
)

// FileName is the config file looked up in the config directory.
const FileName = "racecore.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
	ProfilePath    string `json:"profilePath" mapstructure:"profilePath"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// GormConfig tunes the batch writer shared by the sqlite and postgres backends
type GormConfig struct {
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
	BatchSize     int           `json:"batchSize" mapstructure:"batchSize"`
}

// WebSocketConfig points the live-timing backend at its server
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig holds storage backend selection and settings
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Gorm      GormConfig      `json:"gorm" mapstructure:"gorm"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// DBConfig is the postgres connection
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds InfluxDB telemetry settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// RaceConfig holds race and host loop settings
type RaceConfig struct {
	TotalLaps   int     `json:"totalLaps" mapstructure:"totalLaps"`
	TickRate    int     `json:"tickRate" mapstructure:"tickRate"`
	MaxStep     float64 `json:"maxStep" mapstructure:"maxStep"`
	VehicleType string  `json:"vehicleType" mapstructure:"vehicleType"`
	Automatic   bool    `json:"automatic" mapstructure:"automatic"`
	CameraMode  string  `json:"cameraMode" mapstructure:"cameraMode"`
}

// LeaderboardConfig points exported races at a results server
type LeaderboardConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
	Tag     string `json:"tag" mapstructure:"tag"`
}

// TelemetryConfig controls vehicle state sampling
type TelemetryConfig struct {
	SampleEvery int    `json:"sampleEvery" mapstructure:"sampleEvery"`
	StatusFile  string `json:"statusFile" mapstructure:"statusFile"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./racelogs")

	vp := vehicle.DefaultParams()
	viper.SetDefault("vehicle.mass", vp.Mass)
	viper.SetDefault("vehicle.enginePower", vp.EnginePower)
	viper.SetDefault("vehicle.maxSpeed", vp.MaxSpeed)
	viper.SetDefault("vehicle.brakeForce", vp.BrakeForce)
	viper.SetDefault("vehicle.maxSteerAngle", vp.MaxSteerAngle)
	viper.SetDefault("vehicle.steerSpeed", vp.SteerSpeed)
	viper.SetDefault("vehicle.steerReturnSpeed", vp.SteerReturnSpeed)
	viper.SetDefault("vehicle.turnConstant", vp.TurnConstant)
	viper.SetDefault("vehicle.damping", vp.Damping)
	viper.SetDefault("vehicle.maxGear", vp.MaxGear)
	viper.SetDefault("vehicle.idleRpm", vp.IdleRPM)
	viper.SetDefault("vehicle.maxRpm", vp.MaxRPM)
	viper.SetDefault("vehicle.shiftDuration", vp.ShiftDuration)
	viper.SetDefault("vehicle.applyReverseThrust", vp.ApplyReverseThrust)

	tl := track.DefaultLayout()
	viper.SetDefault("track.name", tl.Name)
	viper.SetDefault("track.centerRadius", tl.CenterRadius)
	viper.SetDefault("track.width", tl.Width)
	viper.SetDefault("track.checkpointCount", tl.CheckpointCount)
	viper.SetDefault("track.checkpointRange", tl.CheckpointRange)
	viper.SetDefault("track.barriersPerRing", tl.BarriersPerRing)
	viper.SetDefault("track.barrierOffset", tl.BarrierOffset)
	viper.SetDefault("track.carRadius", tl.CarRadius)
	viper.SetDefault("track.startOffset", tl.StartOffset)
	viper.SetDefault("track.anchor.enabled", false)
	viper.SetDefault("track.anchor.longitude", 0.0)
	viper.SetDefault("track.anchor.latitude", 0.0)

	viper.SetDefault("race.totalLaps", 3)
	viper.SetDefault("race.tickRate", 60)
	viper.SetDefault("race.maxStep", 0.1)
	viper.SetDefault("race.vehicleType", "sports")
	viper.SetDefault("race.automatic", true)
	viper.SetDefault("race.cameraMode", "follow")

	viper.SetDefault("telemetry.sampleEvery", 6)
	viper.SetDefault("telemetry.statusFile", "status.json")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "racecore")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "racecore")
	viper.SetDefault("influx.bucket", "race_telemetry")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./races")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.memory.profilePath", "./races/profile.json")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./races/racecore.db")
	viper.SetDefault("storage.gorm.flushInterval", "1s")
	viper.SetDefault("storage.gorm.batchSize", 500)
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/live")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("leaderboard.enabled", false)
	viper.SetDefault("leaderboard.url", "http://localhost:5000")
	viper.SetDefault("leaderboard.secret", "")
	viper.SetDefault("leaderboard.tag", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "racecore")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetVehicleParams returns the vehicle tuning. It is not validated here.
func GetVehicleParams() vehicle.Params {
	return vehicle.Params{
		Mass:               viper.GetFloat64("vehicle.mass"),
		EnginePower:        viper.GetFloat64("vehicle.enginePower"),
		MaxSpeed:           viper.GetFloat64("vehicle.maxSpeed"),
		BrakeForce:         viper.GetFloat64("vehicle.brakeForce"),
		MaxSteerAngle:      viper.GetFloat64("vehicle.maxSteerAngle"),
		SteerSpeed:         viper.GetFloat64("vehicle.steerSpeed"),
		SteerReturnSpeed:   viper.GetFloat64("vehicle.steerReturnSpeed"),
		TurnConstant:       viper.GetFloat64("vehicle.turnConstant"),
		Damping:            viper.GetFloat64("vehicle.damping"),
		MaxGear:            viper.GetInt("vehicle.maxGear"),
		IdleRPM:            viper.GetFloat64("vehicle.idleRpm"),
		MaxRPM:             viper.GetFloat64("vehicle.maxRpm"),
		ShiftDuration:      viper.GetFloat64("vehicle.shiftDuration"),
		ApplyReverseThrust: viper.GetBool("vehicle.applyReverseThrust"),
	}
}

// GetTrackLayout returns the track geometry.
func GetTrackLayout() track.Layout {
	return track.Layout{
		Name:            viper.GetString("track.name"),
		CenterRadius:    viper.GetFloat64("track.centerRadius"),
		Width:           viper.GetFloat64("track.width"),
		CheckpointCount: viper.GetInt("track.checkpointCount"),
		CheckpointRange: viper.GetFloat64("track.checkpointRange"),
		BarriersPerRing: viper.GetInt("track.barriersPerRing"),
		BarrierOffset:   viper.GetFloat64("track.barrierOffset"),
		CarRadius:       viper.GetFloat64("track.carRadius"),
		StartOffset:     viper.GetFloat64("track.startOffset"),
	}
}

// GetTrackAnchor returns the map location of the track origin, or nil when
// anchoring is disabled.
func GetTrackAnchor() *core.GeoAnchor {
	if !viper.GetBool("track.anchor.enabled") {
		return nil
	}
	return &core.GeoAnchor{
		Longitude: viper.GetFloat64("track.anchor.longitude"),
		Latitude:  viper.GetFloat64("track.anchor.latitude"),
	}
}

// GetRaceConfig returns race and loop settings.
func GetRaceConfig() RaceConfig {
	return RaceConfig{
		TotalLaps:   viper.GetInt("race.totalLaps"),
		TickRate:    viper.GetInt("race.tickRate"),
		MaxStep:     viper.GetFloat64("race.maxStep"),
		VehicleType: viper.GetString("race.vehicleType"),
		Automatic:   viper.GetBool("race.automatic"),
		CameraMode:  viper.GetString("race.cameraMode"),
	}
}

// GetTelemetryConfig returns sampling settings.
func GetTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		SampleEvery: viper.GetInt("telemetry.sampleEvery"),
		StatusFile:  viper.GetString("telemetry.statusFile"),
	}
}

// GetStorageConfig returns the storage configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
			ProfilePath:    viper.GetString("storage.memory.profilePath"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		Gorm: GormConfig{
			FlushInterval: viper.GetDuration("storage.gorm.flushInterval"),
			BatchSize:     viper.GetInt("storage.gorm.batchSize"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetDBConfig returns the postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the telemetry database settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetLeaderboardConfig returns the results upload settings.
func GetLeaderboardConfig() LeaderboardConfig {
	return LeaderboardConfig{
		Enabled: viper.GetBool("leaderboard.enabled"),
		URL:     viper.GetString("leaderboard.url"),
		Secret:  viper.GetString("leaderboard.secret"),
		Tag:     viper.GetString("leaderboard.tag"),
	}
}
