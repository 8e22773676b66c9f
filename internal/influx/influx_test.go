package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/config"
	"github.com/ringline/racecore/pkg/core"
)

func unreachable() config.InfluxConfig {
	return config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "racecore",
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.Equal(t, "race_telemetry", m.Bucket())
	assert.Error(t, m.WriteVehicleState("oval", &core.VehicleState{}))
	assert.NoError(t, m.Close())
}

func TestConnect_FallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.lp.gz")
	m := NewManager(unreachable(), zerolog.Nop(), path)
	assert.Equal(t, "http://127.0.0.1:1", m.ServerURL())

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)

	sample := &core.VehicleState{
		RaceID:   "r1",
		Time:     time.Unix(1700000000, 0),
		Lap:      2,
		Position: core.Position3D{X: 95.5, Z: -3},
		Speed:    120.5,
		RPM:      5400,
		Gear:     4,
		OnTrack:  true,
	}
	require.NoError(t, m.WriteVehicleState("oval", sample))
	require.NoError(t, m.WriteVehicleState("oval", sample))
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 2)
	line := lines[0]
	assert.True(t, strings.HasPrefix(line, "vehicle_state,gear=4,race=r1,track=oval "), line)
	assert.Contains(t, line, "speed=120.5")
	assert.Contains(t, line, "lap=2i")
	assert.Contains(t, line, "on_track=true")
	assert.True(t, strings.HasSuffix(line, " 1700000000000000000"), line)
}

func TestConnect_NoBackupPath(t *testing.T) {
	m := NewManager(unreachable(), zerolog.Nop(), "")
	assert.Error(t, m.Connect(context.Background()))
}

func TestVehicleStatePoint_DefaultsTime(t *testing.T) {
	p := VehicleStatePoint("oval", &core.VehicleState{Gear: -1})
	assert.Equal(t, MeasurementVehicleState, p.Name())
	assert.WithinDuration(t, time.Now(), p.Time(), time.Second)

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "-1", tags["gear"])
}
