// Package stats folds finished races into the player profile and unlocks
// achievements.
package stats

import (
	"time"

	"github.com/ringline/racecore/pkg/core"
)

// Achievement IDs.
const (
	FirstRace   = "firstRace"
	SpeedDemon  = "speedDemon"
	PerfectRace = "perfectRace"
	Veteran     = "veteran"
	LapMaster   = "lapMaster"
)

const (
	MaxRecentRaces = 10

	speedDemonKmh    = 300
	veteranRaces     = 50
	lapMasterSeconds = 30
)

// Info describes an achievement for display.
type Info struct {
	ID          string
	Name        string
	Description string
}

// Catalog lists every achievement in unlock-check order.
var Catalog = []Info{
	{FirstRace, "First Race", "Finish your first race"},
	{SpeedDemon, "Speed Demon", "Reach 300 km/h"},
	{PerfectRace, "Perfect Race", "Finish a race without crashing"},
	{Veteran, "Veteran", "Finish 50 races"},
	{LapMaster, "Lap Master", "Set a lap of 30 seconds or less"},
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Info, bool) {
	for _, a := range Catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Info{}, false
}

// RecordRace adds res to p and returns the achievements it newly unlocked.
// Abandoned races count toward play time, distance and crashes only.
func RecordRace(p *core.Profile, res core.RaceResult, now time.Time) []core.Achievement {
	ensureMaps(p)

	st := &p.Statistics
	st.TotalPlayTime += res.TotalTime
	st.TotalDistance += res.Distance
	st.CrashCount += res.CrashCount

	if !res.Completed {
		return nil
	}

	st.RacesCompleted++
	st.BestTotalTime = minPtr(st.BestTotalTime, res.TotalTime)

	if best, ok := p.Records.BestTimes[res.VehicleType]; !ok || res.TotalTime < best {
		p.Records.BestTimes[res.VehicleType] = res.TotalTime
	}
	if res.BestLapTime != nil {
		lap := *res.BestLapTime
		st.BestLapTime = minPtr(st.BestLapTime, lap)
		if best, ok := p.Records.BestLaps[res.VehicleType]; !ok || lap < best {
			p.Records.BestLaps[res.VehicleType] = lap
		}
	}

	recent := core.RecentRace{
		Time:        res.EndTime,
		VehicleType: res.VehicleType,
		TotalTime:   res.TotalTime,
		BestLapTime: res.BestLapTime,
		LapTimes:    append([]float64(nil), res.LapTimes...),
		MaxSpeed:    res.MaxSpeed,
		Crashes:     res.CrashCount,
	}
	p.Records.RecentRaces = append([]core.RecentRace{recent}, p.Records.RecentRaces...)
	if len(p.Records.RecentRaces) > MaxRecentRaces {
		p.Records.RecentRaces = p.Records.RecentRaces[:MaxRecentRaces]
	}

	var unlocked []core.Achievement
	for _, id := range earned(st.RacesCompleted, res) {
		if p.HasAchievement(id) {
			continue
		}
		a := core.Achievement{ID: id, UnlockedAt: now}
		p.Achievements = append(p.Achievements, a)
		unlocked = append(unlocked, a)
	}
	return unlocked
}

func earned(racesCompleted int, res core.RaceResult) []string {
	var ids []string
	if racesCompleted == 1 {
		ids = append(ids, FirstRace)
	}
	if res.MaxSpeed >= speedDemonKmh {
		ids = append(ids, SpeedDemon)
	}
	if res.CrashCount == 0 {
		ids = append(ids, PerfectRace)
	}
	if racesCompleted >= veteranRaces {
		ids = append(ids, Veteran)
	}
	if res.BestLapTime != nil && *res.BestLapTime <= lapMasterSeconds {
		ids = append(ids, LapMaster)
	}
	return ids
}

func minPtr(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func ensureMaps(p *core.Profile) {
	if p.Records.BestTimes == nil {
		p.Records.BestTimes = map[string]float64{}
	}
	if p.Records.BestLaps == nil {
		p.Records.BestLaps = map[string]float64{}
	}
}
