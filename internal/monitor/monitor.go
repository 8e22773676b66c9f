// Package monitor counts simulation ticks and publishes a status file once
// per interval.
package monitor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/ringline/racecore/internal/cache"
	"github.com/ringline/racecore/internal/logging"
	"github.com/ringline/racecore/internal/racectx"
	"github.com/ringline/racecore/internal/storage"
)

// DefaultInterval is how often the tick rate is sampled.
const DefaultInterval = time.Second

// Status is the content of the status file.
type Status struct {
	Time       time.Time `json:"time"`
	TickRate   float64   `json:"tickRate"`
	RaceID     string    `json:"raceId,omitempty"`
	RaceStatus string    `json:"raceStatus"`
	Lap        int       `json:"lap"`
	QueueDepth int       `json:"queueDepth"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager  *logging.SlogManager
	RaceContext *racectx.Context
	// Queue is optional; backends without write buffers report zero.
	Queue      storage.QueueReporter
	StatusFile string
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps  Dependencies
	ticks cache.SafeCounter

	mu         sync.RWMutex
	isRunning  bool
	stopChan   chan struct{}
	done       chan struct{}
	lastSample time.Time
	last       Status
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// Tick counts one simulation step. Called from the session loop.
func (s *Service) Tick() {
	s.ticks.Inc()
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Last returns the most recent sample.
func (s *Service) Last() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Sample turns the ticks counted since the previous sample into a rate,
// logs it and rewrites the status file.
func (s *Service) Sample(now time.Time) Status {
	s.mu.Lock()
	prev := s.lastSample
	s.lastSample = now
	s.mu.Unlock()

	ticks := s.ticks.Swap(0)
	elapsed := s.deps.Interval.Seconds()
	if !prev.IsZero() {
		elapsed = now.Sub(prev).Seconds()
	}
	rate := 0.0
	if elapsed > 0 {
		rate = math.Round(float64(ticks)/elapsed*10) / 10
	}

	st := Status{Time: now, TickRate: rate, RaceStatus: "none"}
	if s.deps.RaceContext != nil {
		if id := s.deps.RaceContext.RaceID(); id != "" {
			status, lap := s.deps.RaceContext.Status()
			st.RaceID = id
			st.RaceStatus = status.String()
			st.Lap = lap
		}
	}
	if s.deps.Queue != nil {
		st.QueueDepth = s.deps.Queue.QueueDepth()
	}

	s.mu.Lock()
	s.last = st
	s.mu.Unlock()

	if s.deps.LogManager != nil {
		s.deps.LogManager.WriteLog("monitor",
			fmt.Sprintf("%.1f ticks/s, status %s, queue %d", st.TickRate, st.RaceStatus, st.QueueDepth), "DEBUG")
	}
	if err := s.writeStatus(st); err != nil && s.deps.LogManager != nil {
		s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Error writing status file: %v", err), "ERROR")
	}
	return st
}

func (s *Service) writeStatus(st Status) error {
	if s.deps.StatusFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.deps.StatusFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.deps.StatusFile)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.lastSample = time.Now()
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				s.Sample(now)
			}
		}
	}()
	return nil
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
