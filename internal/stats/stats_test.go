package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/pkg/core"
)

func ptr(v float64) *float64 { return &v }

func ids(as []core.Achievement) []string {
	var out []string
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}

func finished(total, best float64, crashes int, maxSpeed float64) core.RaceResult {
	return core.RaceResult{
		VehicleType: "sports",
		Completed:   true,
		TotalTime:   total,
		BestLapTime: ptr(best),
		LapTimes:    []float64{best, total - best},
		CrashCount:  crashes,
		MaxSpeed:    maxSpeed,
		Distance:    1200,
	}
}

func TestRecordRace_FirstRace(t *testing.T) {
	p := core.NewProfile()
	now := time.Unix(1700000000, 0)

	got := RecordRace(p, finished(95, 45, 2, 180), now)

	assert.Equal(t, []string{FirstRace}, ids(got))
	assert.Equal(t, now, got[0].UnlockedAt)
	assert.Equal(t, 1, p.Statistics.RacesCompleted)
	assert.Equal(t, 2, p.Statistics.CrashCount)
	assert.Equal(t, 95.0, p.Statistics.TotalPlayTime)
	assert.Equal(t, 1200.0, p.Statistics.TotalDistance)
	require.NotNil(t, p.Statistics.BestLapTime)
	assert.Equal(t, 45.0, *p.Statistics.BestLapTime)
	assert.Equal(t, 95.0, *p.Statistics.BestTotalTime)
	assert.Equal(t, 95.0, p.Records.BestTimes["sports"])
	assert.Equal(t, 45.0, p.Records.BestLaps["sports"])
	require.Len(t, p.Records.RecentRaces, 1)
}

func TestRecordRace_AllAtOnce(t *testing.T) {
	p := core.NewProfile()
	got := RecordRace(p, finished(80, 28, 0, 310), time.Now())
	assert.Equal(t, []string{FirstRace, SpeedDemon, PerfectRace, LapMaster}, ids(got))

	again := RecordRace(p, finished(80, 28, 0, 310), time.Now())
	assert.Empty(t, again)
	assert.Len(t, p.Achievements, 4)
}

func TestRecordRace_Boundaries(t *testing.T) {
	p := core.NewProfile()
	RecordRace(p, finished(100, 40, 1, 100), time.Now())

	got := RecordRace(p, finished(100, 30, 1, 300), time.Now())
	assert.Equal(t, []string{SpeedDemon, LapMaster}, ids(got))

	got = RecordRace(p, finished(100, 40, 1, 299.9), time.Now())
	assert.Empty(t, got)
}

func TestRecordRace_Veteran(t *testing.T) {
	p := core.NewProfile()
	p.Statistics.RacesCompleted = 48
	assert.Empty(t, RecordRace(p, finished(100, 40, 1, 100), time.Now()))
	assert.Equal(t, []string{Veteran}, ids(RecordRace(p, finished(100, 40, 1, 100), time.Now())))
}

func TestRecordRace_KeepsBests(t *testing.T) {
	p := core.NewProfile()
	RecordRace(p, finished(90, 40, 1, 100), time.Now())
	RecordRace(p, finished(95, 35, 1, 100), time.Now())

	assert.Equal(t, 90.0, p.Records.BestTimes["sports"])
	assert.Equal(t, 35.0, p.Records.BestLaps["sports"])
	assert.Equal(t, 90.0, *p.Statistics.BestTotalTime)
	assert.Equal(t, 35.0, *p.Statistics.BestLapTime)
	assert.Equal(t, 95.0, p.Records.RecentRaces[0].TotalTime)
}

func TestRecordRace_RecentCapped(t *testing.T) {
	p := core.NewProfile()
	for i := 0; i < 15; i++ {
		RecordRace(p, finished(float64(100+i), 40, 1, 100), time.Now())
	}
	require.Len(t, p.Records.RecentRaces, MaxRecentRaces)
	assert.Equal(t, 114.0, p.Records.RecentRaces[0].TotalTime)
	assert.Equal(t, 105.0, p.Records.RecentRaces[9].TotalTime)
}

func TestRecordRace_Abandoned(t *testing.T) {
	p := &core.Profile{}
	res := core.RaceResult{VehicleType: "sports", TotalTime: 20, Distance: 300, CrashCount: 3}

	assert.Nil(t, RecordRace(p, res, time.Now()))
	assert.Equal(t, 0, p.Statistics.RacesCompleted)
	assert.Equal(t, 3, p.Statistics.CrashCount)
	assert.Equal(t, 20.0, p.Statistics.TotalPlayTime)
	assert.Empty(t, p.Records.RecentRaces)
	assert.NotNil(t, p.Records.BestTimes)
}

func TestRecordRace_NoBestLap(t *testing.T) {
	p := core.NewProfile()
	res := finished(100, 0, 1, 100)
	res.BestLapTime = nil

	got := RecordRace(p, res, time.Now())
	assert.Equal(t, []string{FirstRace}, ids(got))
	assert.Nil(t, p.Statistics.BestLapTime)
	_, ok := p.Records.BestLaps["sports"]
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(LapMaster)
	require.True(t, ok)
	assert.Equal(t, "Lap Master", info.Name)

	_, ok = Lookup("allVehicles")
	assert.False(t, ok)
}
