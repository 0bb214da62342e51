package models

import (
	"strconv"

	"mammosim/pkg/projector"
)

// Scenario names one acquisition variant used in comparison figures and
// region statistics reports
type Scenario struct {
	// Name labels the scenario in figure legends and report rows
	Name string

	// Params is the full acquisition parameter set for this scenario
	Params projector.Params
}

// StatsRow is one line of the region statistics report
type StatsRow struct {
	// Scenario is the name of the acquisition variant the row describes
	Scenario string

	// LesionMean and LesionStd summarize the lesion region intensities
	LesionMean float64
	LesionStd  float64

	// BackgroundMean and BackgroundStd summarize the reference region
	BackgroundMean float64
	BackgroundStd  float64

	// Contrast is the relative lesion-versus-background contrast
	Contrast float64
}

// StatsHeader returns the column names of a region statistics report
func StatsHeader() []string {
	return []string{"scenario", "lesion_mean", "lesion_std", "background_mean", "background_std", "contrast"}
}

// Record formats the row for CSV output
func (r StatsRow) Record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
	return []string{r.Scenario, f(r.LesionMean), f(r.LesionStd), f(r.BackgroundMean), f(r.BackgroundStd), f(r.Contrast)}
}
