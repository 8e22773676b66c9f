package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ringline/racecore/internal/session"
	"github.com/ringline/racecore/internal/stats"
	"github.com/ringline/racecore/internal/util"
	"github.com/ringline/racecore/pkg/core"
)

// printResults renders the lap table, the race summary and any achievements
// the race unlocked.
func printResults(w io.Writer, res *session.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("%s / %s", res.Race.TrackName, res.Race.VehicleType))

	t.AppendHeader(table.Row{"Lap", "Time", "Delta"})
	best := res.Result.BestLapTime
	for i, lap := range res.Result.LapTimes {
		delta := ""
		if best != nil {
			delta = util.FormatDelta(lap - *best)
		}
		t.AppendRow(table.Row{i + 1, util.FormatLapTime(lap), delta})
	}

	status := "finished"
	if !res.Result.Completed {
		status = "abandoned"
	}
	t.AppendFooter(table.Row{"Total", util.FormatLapTime(res.Result.TotalTime), status})
	t.Render()

	fmt.Fprintf(w, "Best lap %s, top speed %.1f km/h, %d crashes, %.0f m\n",
		util.FormatOptionalLapTime(best), res.Result.MaxSpeed, res.Result.CrashCount, res.Result.Distance)

	for _, a := range res.Unlocked {
		if info, ok := stats.Lookup(a.ID); ok {
			fmt.Fprintf(w, "Achievement unlocked: %s (%s)\n", info.Name, info.Description)
		}
	}
}

// printHistory renders the profile's records and recent races.
func printHistory(w io.Writer, p *core.Profile) {
	st := p.Statistics
	fmt.Fprintf(w, "%d races completed, %.0f s played, %.0f m driven, %d crashes\n",
		st.RacesCompleted, st.TotalPlayTime, st.TotalDistance, st.CrashCount)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Recent races")
	t.AppendHeader(table.Row{"Date", "Vehicle", "Total", "Best lap", "Top speed", "Crashes"})
	for _, r := range p.Records.RecentRaces {
		t.AppendRow(table.Row{
			r.Time.Format("2006-01-02 15:04"),
			r.VehicleType,
			util.FormatLapTime(r.TotalTime),
			util.FormatOptionalLapTime(r.BestLapTime),
			fmt.Sprintf("%.1f", r.MaxSpeed),
			r.Crashes,
		})
	}
	t.Render()

	if len(p.Achievements) == 0 {
		return
	}
	a := table.NewWriter()
	a.SetOutputMirror(w)
	a.SetStyle(table.StyleRounded)
	a.AppendHeader(table.Row{"Achievement", "Unlocked"})
	for _, got := range p.Achievements {
		name := got.ID
		if info, ok := stats.Lookup(got.ID); ok {
			name = info.Name
		}
		a.AppendRow(table.Row{name, got.UnlockedAt.Format("2006-01-02")})
	}
	a.Render()
}
