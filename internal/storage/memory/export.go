// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ringline/racecore/internal/geo"
	"github.com/ringline/racecore/pkg/core"
)

// RaceExport is the root JSON structure of an exported race
type RaceExport struct {
	Race        core.Race              `json:"race"`
	Result      *core.RaceResult       `json:"result"`
	Laps        []core.LapRecord       `json:"laps"`
	Checkpoints []core.CheckpointEvent `json:"checkpoints"`
	Collisions  []core.CollisionEvent  `json:"collisions"`
	GearShifts  []core.GearShiftEvent  `json:"gearShifts"`
	States      []core.VehicleState    `json:"states"`
	Map         *MapOverlay            `json:"map,omitempty"`
}

// MapOverlay holds the lap traces in EPSG:4326 for anchored tracks.
type MapOverlay struct {
	Anchor core.GeoAnchor `json:"anchor"`
	Laps   []MapLap       `json:"laps"`
}

// MapLap is one lap trace as WKT.
type MapLap struct {
	Lap      int     `json:"lap"`
	Distance float64 `json:"distance"`
	WKT      string  `json:"wkt"`
}

// exportJSON writes the race to a JSON file, gzipped when configured
func (b *Backend) exportJSON(result *core.RaceResult) error {
	export := b.buildExport(result)

	name := sanitize(b.race.TrackName) + "_" + sanitize(b.race.VehicleType)
	timestamp := b.race.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport(result *core.RaceResult) RaceExport {
	return RaceExport{
		Race:        *b.race,
		Result:      result,
		Laps:        nonNil(b.laps),
		Checkpoints: nonNil(b.checkpoints),
		Collisions:  nonNil(b.collisions),
		GearShifts:  nonNil(b.gearShifts),
		States:      nonNil(b.states),
		Map:         b.buildOverlay(),
	}
}

func (b *Backend) buildOverlay() *MapOverlay {
	if b.race.Anchor == nil {
		return nil
	}
	an, err := geo.NewAnchor(*b.race.Anchor)
	if err != nil {
		return nil
	}
	overlay := &MapOverlay{Anchor: *b.race.Anchor, Laps: []MapLap{}}
	for _, l := range b.laps {
		ls, err := an.GeoTrace(l.Trace)
		if err != nil {
			continue
		}
		overlay.Laps = append(overlay.Laps, MapLap{
			Lap:      l.Lap,
			Distance: geo.TraceLength(l.Trace),
			WKT:      ls.AsText(),
		})
	}
	return overlay
}

// nonNil keeps empty collections as [] rather than null in the export
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func sanitize(s string) string {
	if s == "" {
		return "race"
	}
	return strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(s)
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
