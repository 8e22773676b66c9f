package session

import (
	"path/filepath"

	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/internal/storage/memory"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newMemoryBackend(dir string) *memory.Backend {
	return memory.New(config.MemoryConfig{
		OutputDir:   filepath.Join(dir, "races"),
		ProfilePath: filepath.Join(dir, "profile.json"),
	})
}
