// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the only SQLite-specific concerns are creating
// the in-memory DB and the dumps.
package sqlitestorage

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/internal/database"
	"github.com/ringline/racecore/internal/logging"
	gormstorage "github.com/ringline/racecore/internal/storage/gorm"
	"github.com/ringline/racecore/pkg/core"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // target of VACUUM INTO
	Gorm         config.GormConfig
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	db, err := database.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:            db,
		LogManager:    logManager,
		FlushInterval: cfg.Gorm.FlushInterval,
		BatchSize:     cfg.Gorm.BatchSize,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.done = make(chan struct{})
		go b.dumpLoop()
	}
	return nil
}

// EndRace records the result and snapshots the database so a finished
// race is on disk without waiting for the next tick of the dump loop.
func (b *Backend) EndRace(result *core.RaceResult) error {
	if err := b.Backend.EndRace(result); err != nil {
		return err
	}
	return b.Dump()
}

// Close stops the dump goroutine, flushes, and writes a last dump.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
		return nil
	default:
	}
	close(b.stopChan)
	if b.done != nil {
		<-b.done
	}

	if err := b.Backend.Close(); err != nil {
		return err
	}
	return b.Dump()
}

// Dump writes the database to DumpPath. No-op without a path.
func (b *Backend) Dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		b.writeLog(fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
		return err
	}
	b.writeLog(fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
	return nil
}

func (b *Backend) writeLog(msg, level string) {
	if b.log != nil {
		b.log.WriteLog("sqlite:dumpLoop", msg, level)
	}
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Dump()
		}
	}
}
