package reporter

import (
	"sort"

	"github.com/hdrlab/headstone/internal/models"
	"github.com/hdrlab/headstone/internal/stability"
)

// WriteClassifications writes the classification results as JSON and CSV.
func (r *Reporter) WriteClassifications(results []models.ClassificationResult) error {
	if err := r.writeJSON("classifications.json", results); err != nil {
		return err
	}
	return r.writeClassificationCSV("classifications.csv", results)
}

// timelineReport is the JSON shape of the stability report: one timeline per
// target plus the change totals per study day.
type timelineReport struct {
	Timelines []models.TimelineResult `json:"timelines"`
	Daily     []stability.DailyCounts `json:"daily_changes"`
}

// WriteTimelines writes the per-target stability timelines and the aggregate
// daily change counts as JSON and CSV.
func (r *Reporter) WriteTimelines(results map[int]models.TimelineResult, daily []stability.DailyCounts) error {
	ranks := make([]int, 0, len(results))
	for rank := range results {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)

	ordered := make([]models.TimelineResult, 0, len(results))
	for _, rank := range ranks {
		ordered = append(ordered, results[rank])
	}

	if err := r.writeJSON("timelines.json", timelineReport{Timelines: ordered, Daily: daily}); err != nil {
		return err
	}
	if err := r.writeTimelineCSV("timelines.csv", ordered); err != nil {
		return err
	}
	return r.writeDailyCSV("daily_changes.csv", daily)
}

// WriteConsistency writes the per-target consistency verdicts as JSON and CSV.
func (r *Reporter) WriteConsistency(results []models.ConsistencyResult) error {
	if err := r.writeJSON("consistency.json", results); err != nil {
		return err
	}
	return r.writeConsistencyCSV("consistency.csv", results)
}
