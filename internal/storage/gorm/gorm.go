// Package gormstorage implements storage.Backend over any gorm database with
// internal queues and a background writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ringline/racecore/internal/database"
	"github.com/ringline/racecore/internal/logging"
	"github.com/ringline/racecore/internal/model"
	"github.com/ringline/racecore/internal/model/convert"
	"github.com/ringline/racecore/internal/queue"
	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/pkg/core"
)

const (
	defaultFlushInterval = time.Second
	defaultBatchSize     = 500
	defaultProfileName   = "default"
)

// ErrNoDatabase is returned by Init when no connection was injected.
var ErrNoDatabase = errors.New("no database connection")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	FlushInterval time.Duration
	BatchSize     int
	// ProfileName keys the profile row, "default" when empty.
	ProfileName string
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	VehicleStates    *queue.Queue[model.VehicleState]
	GearShifts       *queue.Queue[model.GearShift]
	Collisions       *queue.Queue[model.Collision]
	CheckpointPasses *queue.Queue[model.CheckpointPass]
	Laps             *queue.Queue[model.Lap]
}

func newQueues() *queues {
	return &queues{
		VehicleStates:    queue.New[model.VehicleState](),
		GearShifts:       queue.New[model.GearShift](),
		Collisions:       queue.New[model.Collision](),
		CheckpointPasses: queue.New[model.CheckpointPass](),
		Laps:             queue.New[model.Lap](),
	}
}

func (q *queues) depth() int {
	return q.VehicleStates.Len() + q.GearShifts.Len() + q.Collisions.Len() +
		q.CheckpointPasses.Len() + q.Laps.Len()
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	// row ID of the race being recorded, 0 between races
	raceID atomic.Uint64

	writeMu   sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	if deps.ProfileName == "" {
		deps.ProfileName = defaultProfileName
	}
	return &Backend{deps: deps, queues: newQueues()}
}

// DB exposes the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

func (b *Backend) log(level, msg string) {
	if b.deps.LogManager != nil {
		b.deps.LogManager.WriteLog(":DB:WRITER:", msg, level)
	}
}

// Init migrates the schema and starts the writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writerLoop()
	return nil
}

// Close stops the writer after a final flush.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopChan == nil {
			return
		}
		close(b.stopChan)
		<-b.done
		err = b.Flush()
	})
	return err
}

// StartRace inserts the race row synchronously so later writes can reference it.
func (b *Backend) StartRace(race *core.Race) error {
	row := convert.CoreToRace(*race)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert race: %w", err)
	}
	b.raceID.Store(uint64(row.ID))
	return nil
}

// EndRace flushes pending events and writes the result onto the race row.
func (b *Backend) EndRace(result *core.RaceResult) error {
	id := uint(b.raceID.Load())
	if id == 0 {
		return storage.ErrNoRace
	}
	if err := b.Flush(); err != nil {
		return err
	}

	var row model.Race
	if err := b.deps.DB.First(&row, id).Error; err != nil {
		return fmt.Errorf("failed to load race %d: %w", id, err)
	}
	convert.ApplyResult(&row, *result)
	if err := b.deps.DB.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to update race %d: %w", id, err)
	}
	b.raceID.Store(0)
	return nil
}

// currentRace returns the race row ID events are stamped with.
func (b *Backend) currentRace() (uint, error) {
	id := uint(b.raceID.Load())
	if id == 0 {
		return 0, storage.ErrNoRace
	}
	return id, nil
}

// RecordVehicleState converts and queues a telemetry sample.
func (b *Backend) RecordVehicleState(s *core.VehicleState) error {
	id, err := b.currentRace()
	if err != nil {
		return err
	}
	row := convert.CoreToVehicleState(*s)
	row.RaceID = id
	b.queues.VehicleStates.Push(row)
	return nil
}

// RecordGearShift converts and queues a gear change.
func (b *Backend) RecordGearShift(e *core.GearShiftEvent) error {
	id, err := b.currentRace()
	if err != nil {
		return err
	}
	row := convert.CoreToGearShift(*e)
	row.RaceID = id
	b.queues.GearShifts.Push(row)
	return nil
}

// RecordCollision converts and queues a barrier hit.
func (b *Backend) RecordCollision(e *core.CollisionEvent) error {
	id, err := b.currentRace()
	if err != nil {
		return err
	}
	row := convert.CoreToCollision(*e)
	row.RaceID = id
	b.queues.Collisions.Push(row)
	return nil
}

// RecordCheckpoint converts and queues a checkpoint pass.
func (b *Backend) RecordCheckpoint(e *core.CheckpointEvent) error {
	id, err := b.currentRace()
	if err != nil {
		return err
	}
	row := convert.CoreToCheckpointPass(*e)
	row.RaceID = id
	b.queues.CheckpointPasses.Push(row)
	return nil
}

// RecordLap converts and queues a completed lap.
func (b *Backend) RecordLap(l *core.LapRecord) error {
	id, err := b.currentRace()
	if err != nil {
		return err
	}
	row := convert.CoreToLap(*l)
	row.RaceID = id
	b.queues.Laps.Push(row)
	return nil
}

// QueueDepth is the number of rows waiting for the writer.
func (b *Backend) QueueDepth() int {
	return b.queues.depth()
}

// LoadProfile reads the profile row, or an empty profile if none was saved.
func (b *Backend) LoadProfile() (*core.Profile, error) {
	var rec model.ProfileRecord
	err := b.deps.DB.Where("name = ?", b.deps.ProfileName).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.NewProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return convert.RecordToProfile(rec)
}

// SaveProfile upserts the profile row.
func (b *Backend) SaveProfile(p *core.Profile) error {
	rec, err := convert.ProfileToRecord(b.deps.ProfileName, p)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	err = b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// RaceRows returns the stored races, newest first.
func (b *Backend) RaceRows(limit int) ([]model.Race, error) {
	var rows []model.Race
	q := b.deps.DB.Order("start_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	return rows, nil
}

// writeQueue drains q in batches, one transaction per batch. A failed batch
// goes back to the head of the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, batch int, log func(string, string)) error {
	for !q.Empty() {
		items := q.PopN(batch)
		if len(items) == 0 {
			return nil
		}

		tx := db.Begin()
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			tx.Rollback()
			q.Requeue(items)
			log("ERROR", fmt.Sprintf("Error creating %s: %v", name, err))
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		if err := tx.Commit().Error; err != nil {
			q.Requeue(items)
			return fmt.Errorf("failed to commit %s: %w", name, err)
		}
	}
	return nil
}

// Flush writes everything queued so far.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	db := b.deps.DB
	n := b.deps.BatchSize
	start := time.Now()

	errs := []error{
		writeQueue(db, b.queues.VehicleStates, "vehicle states", n, b.log),
		writeQueue(db, b.queues.GearShifts, "gear shifts", n, b.log),
		writeQueue(db, b.queues.Collisions, "collisions", n, b.log),
		writeQueue(db, b.queues.CheckpointPasses, "checkpoint passes", n, b.log),
		writeQueue(db, b.queues.Laps, "laps", n, b.log),
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if d := time.Since(start); d > 500*time.Millisecond {
		b.log("WARN", fmt.Sprintf("Slow flush took %s", d))
	}
	return nil
}

func (b *Backend) writerLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			// errors were logged and the rows requeued; retry next tick
			_ = b.Flush()
		}
	}
}
