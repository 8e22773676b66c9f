package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/internal/logging"
	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/internal/storage/memory"
	pgstorage "github.com/ringline/racecore/internal/storage/postgres"
	sqlitestorage "github.com/ringline/racecore/internal/storage/sqlite"
	wsstorage "github.com/ringline/racecore/internal/storage/websocket"
)

func createStorageBackend(storageCfg config.StorageConfig, logManager *logging.SlogManager, zl zerolog.Logger) (storage.Backend, error) {
	logger := logManager.Logger()

	switch storageCfg.Type {
	case "postgres":
		backend, err := pgstorage.New(pgstorage.Dependencies{
			DB:         config.GetDBConfig(),
			Gorm:       storageCfg.Gorm,
			LogManager: logManager,
			Logger:     zl,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres backend: %w", err)
		}
		if backend.Local() {
			logger.Warn("Postgres unreachable, recording to in-memory SQLite")
		} else {
			logger.Info("Postgres storage backend initialized")
		}
		return backend, nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.DumpPath,
			Gorm:         storageCfg.Gorm,
		}, logManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "dumpPath", storageCfg.SQLite.DumpPath)
		return backend, nil

	case "websocket":
		wsURL := httpToWS(storageCfg.WebSocket.URL)
		logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: storageCfg.WebSocket.Secret,
		}, logger), nil

	case "memory", "":
		logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
