// pkg/core/profile.go
package core

import "time"

// Statistics accumulate over every completed race.
type Statistics struct {
	TotalPlayTime  float64  `json:"totalPlayTime"`
	RacesCompleted int      `json:"racesCompleted"`
	TotalDistance  float64  `json:"totalDistance"`
	CrashCount     int      `json:"crashCount"`
	BestLapTime    *float64 `json:"bestLapTime"`
	BestTotalTime  *float64 `json:"bestTotalTime"`
}

// RecentRace is a summary kept in the profile's history.
type RecentRace struct {
	Time        time.Time `json:"time"`
	VehicleType string    `json:"vehicleType"`
	TotalTime   float64   `json:"totalTime"`
	BestLapTime *float64  `json:"bestLapTime"`
	LapTimes    []float64 `json:"lapTimes"`
	MaxSpeed    float64   `json:"maxSpeed"`
	Crashes     int       `json:"crashes"`
}

// Records are the per vehicle type bests and the latest races.
type Records struct {
	BestTimes   map[string]float64 `json:"bestTimes"`
	BestLaps    map[string]float64 `json:"bestLaps"`
	RecentRaces []RecentRace       `json:"recentRaces"`
}

// Achievement is an unlocked badge.
type Achievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// Profile is everything persisted about a player between races.
type Profile struct {
	Statistics   Statistics    `json:"statistics"`
	Records      Records       `json:"records"`
	Achievements []Achievement `json:"achievements"`
}

// NewProfile returns an empty profile with its maps allocated.
func NewProfile() *Profile {
	return &Profile{
		Records: Records{
			BestTimes: map[string]float64{},
			BestLaps:  map[string]float64{},
		},
	}
}

// HasAchievement reports whether id is unlocked.
func (p *Profile) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}
