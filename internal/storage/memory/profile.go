// internal/storage/memory/profile.go
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ringline/racecore/pkg/core"
)

// LoadProfile reads the profile file. A missing file yields an empty profile.
func (b *Backend) LoadProfile() (*core.Profile, error) {
	p := core.NewProfile()
	if b.cfg.ProfilePath == "" {
		return p, nil
	}

	data, err := os.ReadFile(b.cfg.ProfilePath)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if p.Records.BestTimes == nil {
		p.Records.BestTimes = map[string]float64{}
	}
	if p.Records.BestLaps == nil {
		p.Records.BestLaps = map[string]float64{}
	}
	return p, nil
}

// SaveProfile writes the profile file atomically. It is a no-op without a path.
func (b *Backend) SaveProfile(p *core.Profile) error {
	if b.cfg.ProfilePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(b.cfg.ProfilePath), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	tmp := b.cfg.ProfilePath + ".tmp"
	if err := writeJSON(tmp, p); err != nil {
		return err
	}
	if err := os.Rename(tmp, b.cfg.ProfilePath); err != nil {
		return fmt.Errorf("failed to replace profile: %w", err)
	}
	return nil
}
