package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/ringline/racecore/internal/api"
	"github.com/ringline/racecore/internal/camera"
	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/internal/dispatcher"
	"github.com/ringline/racecore/internal/influx"
	"github.com/ringline/racecore/internal/input"
	"github.com/ringline/racecore/internal/logging"
	"github.com/ringline/racecore/internal/monitor"
	intOtel "github.com/ringline/racecore/internal/otel"
	"github.com/ringline/racecore/internal/race"
	"github.com/ringline/racecore/internal/racectx"
	"github.com/ringline/racecore/internal/session"
	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/internal/track"
	"github.com/ringline/racecore/internal/vehicle"
	"github.com/ringline/racecore/internal/worker"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"

	AppName = "racecore"
)

type options struct {
	configDir string
	replay    string
	record    string
	laps      int
	fixed     int
	history   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configDir, "config", ".", "directory containing "+config.FileName)
	flag.StringVar(&opts.replay, "replay", "", "drive from a recorded input file instead of the autopilot")
	flag.StringVar(&opts.record, "record", "", "write the driven input to this file")
	flag.IntVar(&opts.laps, "laps", 0, "override the configured lap count")
	flag.IntVar(&opts.fixed, "fixed", 0, "run this many fixed-length ticks instead of the wall clock")
	flag.BoolVar(&opts.history, "history", false, "print the player profile after the race")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "racecore:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	sessionStart := time.Now()

	logManager := logging.NewSlogManager()
	logManager.Setup(logging.Options{Level: viper.GetString("logLevel")})
	logger := logManager.Logger()

	if err := config.Load(opts.configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config")
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logFilePath := logging.LogFilePath(logsDir, AppName, sessionStart)
	if _, err := os.Stat(logFilePath); err == nil {
		_ = os.Rename(logFilePath, logFilePath+".old")
	}
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	otelCfg := config.GetOTelConfig()
	otelProvider, err := intOtel.New(otelCfg, logFile)
	if err != nil {
		logger.Error("Failed to initialize OTel provider", "error", err)
		otelProvider, _ = intOtel.New(config.OTelConfig{}, nil)
	} else if otelProvider.Enabled() {
		logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(ctx); err != nil {
			logger.Error("OTel shutdown failed", "error", err)
		}
	}()

	var gelfWriter logging.MessageWriter
	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGelfWriter(viper.GetString("graylog.address"), AppName)
		if err != nil {
			logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			gelfWriter = w
		}
	}

	raceCtx := racectx.NewContext()
	logManager.Setup(logging.Options{
		File:        logFile,
		Level:       viper.GetString("logLevel"),
		Provider:    otelProvider.LoggerProvider(),
		Gelf:        gelfWriter,
		Context:     raceCtx.LogAttrs,
		ServiceName: otelCfg.ServiceName,
	})
	logger = logManager.Logger()
	logger.Info("Starting up", "version", Version, "buildDate", BuildDate, "log", logFilePath)

	zl := logging.NewZerolog(logFile, viper.GetString("logLevel"))

	backend, err := createStorageBackend(config.GetStorageConfig(), logManager, zl)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	var telemetry worker.TelemetryWriter
	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		backup := filepath.Join(logsDir, fmt.Sprintf("%s_%s.lp.gz", AppName, sessionStart.Format("20060102_150405")))
		im := influx.NewManager(influxCfg, zl, backup)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := im.Connect(ctx)
		cancel()
		if err != nil {
			logger.Error("InfluxDB unavailable, telemetry disabled", "error", err)
		} else {
			telemetry = im
			defer im.Close()
			if im.IsValid {
				logger.Info("InfluxDB connected", "url", im.ServerURL(), "bucket", im.Bucket())
			} else {
				logger.Warn("InfluxDB unreachable, writing line protocol backup", "path", backup)
			}
		}
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(zl))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	defer d.Close()

	workerDeps := worker.Dependencies{
		LogManager:  logManager,
		RaceContext: raceCtx,
		Telemetry:   telemetry,
	}
	if lb := config.GetLeaderboardConfig(); lb.Enabled {
		client := api.New(lb.URL, lb.Secret)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Healthcheck(ctx); err != nil {
			logger.Warn("Leaderboard unreachable, uploads may fail", "url", lb.URL, "error", err)
		}
		cancel()
		workerDeps.Uploader = client
		workerDeps.UploadTag = lb.Tag
	}
	workers := worker.NewManager(workerDeps, backend)
	workers.RegisterHandlers(d)

	telemetryCfg := config.GetTelemetryConfig()
	mon := monitor.NewService(monitor.Dependencies{
		LogManager:  logManager,
		RaceContext: raceCtx,
		Queue:       workers,
		StatusFile:  telemetryCfg.StatusFile,
	})
	if err := mon.Start(); err != nil {
		logger.Warn("Monitor not started", "error", err)
	}
	defer mon.Stop()

	src, closeInput, err := inputSource(opts, logManager.Logger())
	if err != nil {
		return err
	}
	defer closeInput()

	sess, err := newSession(opts, src, d, raceCtx, logManager, mon, otelProvider)
	if err != nil {
		return err
	}

	var res *session.Result
	if opts.fixed > 0 {
		tickRate := config.GetRaceConfig().TickRate
		if tickRate <= 0 {
			tickRate = session.DefaultTickRate
		}
		res, err = sess.RunFixed(opts.fixed, 1/float64(tickRate))
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		res, err = sess.Run(ctx)
		stop()
	}
	if err != nil {
		return fmt.Errorf("running race: %w", err)
	}

	printResults(os.Stdout, res)

	if opts.history {
		ps, ok := backend.(storage.ProfileStore)
		if !ok {
			logger.Warn("Storage backend keeps no profile", "type", config.GetStorageConfig().Type)
		} else if p, err := ps.LoadProfile(); err != nil {
			logger.Error("Failed to load profile", "error", err)
		} else {
			printHistory(os.Stdout, p)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := logManager.Flush(ctx); err != nil {
		logger.Error("Failed to flush logs", "error", err)
	}
	return nil
}

// newSession builds the track, the car and its driver from config.
func newSession(opts options, src func(*vehicle.Vehicle, *track.Track) input.Source, d *dispatcher.Dispatcher, raceCtx *racectx.Context, logManager *logging.SlogManager, mon *monitor.Service, otelProvider *intOtel.Provider) (*session.Session, error) {
	t, err := track.New(config.GetTrackLayout())
	if err != nil {
		return nil, fmt.Errorf("building track: %w", err)
	}

	v, err := vehicle.New(config.GetVehicleParams(), t.StartPosition(), t.StartRotation())
	if err != nil {
		return nil, fmt.Errorf("building vehicle: %w", err)
	}

	raceCfg := config.GetRaceConfig()
	v.Drivetrain().SetAutomatic(raceCfg.Automatic)

	laps := raceCfg.TotalLaps
	if opts.laps > 0 {
		laps = opts.laps
	}
	rig := camera.NewRig(camera.ParseMode(raceCfg.CameraMode), rand.NewSource(time.Now().UnixNano()))
	orch, err := race.New(v, t, race.WithTotalLaps(laps), race.WithCamera(rig))
	if err != nil {
		return nil, fmt.Errorf("building race: %w", err)
	}

	return session.New(session.Dependencies{
		Orchestrator: orch,
		Input:        src(v, t),
		Dispatcher:   d,
		RaceContext:  raceCtx,
		LogManager:   logManager,
		Monitor:      mon,
		Meter:        otelProvider.Meter("github.com/ringline/racecore/internal/session"),
		VehicleType:  raceCfg.VehicleType,
		Automatic:    raceCfg.Automatic,
		Anchor:       config.GetTrackAnchor(),
		TickRate:     raceCfg.TickRate,
		MaxStep:      raceCfg.MaxStep,
		SampleEvery:  config.GetTelemetryConfig().SampleEvery,
	})
}

// inputSource opens the replay and recording files up front. The returned
// constructor binds the autopilot to the car once it exists.
func inputSource(opts options, logger *slog.Logger) (func(*vehicle.Vehicle, *track.Track) input.Source, func() error, error) {
	var replay *input.ReplaySource
	if opts.replay != "" {
		var err error
		replay, err = input.LoadReplay(opts.replay)
		if err != nil {
			return nil, nil, fmt.Errorf("loading replay: %w", err)
		}
		logger.Info("Driving from replay", "path", opts.replay, "frames", replay.Len())
	}

	var rec *os.File
	closer := func() error { return nil }
	if opts.record != "" {
		var err error
		rec, err = os.Create(opts.record)
		if err != nil {
			return nil, nil, fmt.Errorf("creating input recording: %w", err)
		}
		closer = rec.Close
	}

	return func(v *vehicle.Vehicle, t *track.Track) input.Source {
		var src input.Source = input.NewAutopilot(v, t)
		if replay != nil {
			src = replay
		}
		if rec != nil {
			src = &recordingSource{src: src, rec: input.NewRecorder(rec), logger: logger}
		}
		return input.NewDebounced(src)
	}, closer, nil
}

// recordingSource tees held-state frames into a replay file.
type recordingSource struct {
	src    input.Source
	rec    *input.Recorder
	logger *slog.Logger
	failed bool
}

func (r *recordingSource) Next() vehicle.Intent {
	in := r.src.Next()
	if r.failed {
		return in
	}
	if err := r.rec.Record(in); err != nil {
		r.failed = true
		r.logger.Error("Input recording stopped", "error", err)
	}
	return in
}

var _ input.Source = (*recordingSource)(nil)
