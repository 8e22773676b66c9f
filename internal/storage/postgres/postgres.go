// Package postgres connects the gorm backend to PostgreSQL, falling back to
// an in-memory SQLite database when the server is unreachable.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/internal/database"
	"github.com/ringline/racecore/internal/logging"
	gormstorage "github.com/ringline/racecore/internal/storage/gorm"
)

// Dependencies holds what the postgres backend needs to connect.
type Dependencies struct {
	DB         config.DBConfig
	Gorm       config.GormConfig
	LogManager *logging.SlogManager
	Logger     zerolog.Logger
}

// Backend is the gorm backend bound to the connection the manager opened.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
}

// New connects and wraps the gorm backend. Schema migration happens in Init.
func New(deps Dependencies) (*Backend, error) {
	m := database.NewManager(deps.Logger)
	if err := m.Connect(deps.DB); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            m.DB,
			LogManager:    deps.LogManager,
			FlushInterval: deps.Gorm.FlushInterval,
			BatchSize:     deps.Gorm.BatchSize,
		}),
		manager: m,
	}, nil
}

// Local reports whether the backend fell back to SQLite.
func (b *Backend) Local() bool {
	return b.manager.ShouldSaveLocal
}

// Close flushes the writer and releases the connection pool.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.manager.SqlDB != nil {
		return b.manager.SqlDB.Close()
	}
	return nil
}
