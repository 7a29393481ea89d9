package reporter

import (
	"fmt"
	"os"

	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
	"github.com/hdrlab/headstone/internal/stability"
)

const dayFormat = "2006-01-02"

func (r *Reporter) writeClassificationCSV(name string, results []models.ClassificationResult) error {
	file, err := os.Create(r.path(name))
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	file.WriteString("Rank,Domain,Day,Origin")
	for _, column := range tagColumns {
		file.WriteString("," + column)
	}
	file.WriteString("\n")

	for _, result := range results {
		tags := result.Classification.Tags()
		file.WriteString(fmt.Sprintf("%d,%s,%s,%s",
			result.TargetRank,
			csvField(result.Domain),
			result.Day.Format(dayFormat),
			csvField(result.Origin),
		))
		for _, column := range tagColumns {
			file.WriteString("," + csvField(tags[column]))
		}
		file.WriteString("\n")
	}
	return nil
}

func (r *Reporter) writeTimelineCSV(name string, results []models.TimelineResult) error {
	file, err := os.Create(r.path(name))
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	file.WriteString("Rank,Domain,Day,Status,Drift\n")
	for _, result := range results {
		for i, day := range result.Days {
			file.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s\n",
				result.TargetRank,
				csvField(result.Domain),
				day.Format(dayFormat),
				result.Statuses[i],
				result.Drifts[day.Format(dayFormat)],
			))
		}
	}
	return nil
}

func (r *Reporter) writeDailyCSV(name string, daily []stability.DailyCounts) error {
	file, err := os.Create(r.path(name))
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	file.WriteString("Day,Added,Modified,Removed\n")
	for i, counts := range daily {
		file.WriteString(fmt.Sprintf("%d,%d,%d,%d\n", i, counts.Added, counts.Modified, counts.Removed))
	}
	return nil
}

func (r *Reporter) writeConsistencyCSV(name string, results []models.ConsistencyResult) error {
	file, err := os.Create(r.path(name))
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	file.WriteString("Rank,Domain,Mechanism,Deployed,Consistent\n")
	for _, result := range results {
		for _, mechanism := range headers.Mechanisms {
			file.WriteString(fmt.Sprintf("%d,%s,%s,%t,%t\n",
				result.TargetRank,
				csvField(result.Domain),
				mechanism,
				result.Deployed[mechanism],
				result.Consistent[mechanism],
			))
		}
	}
	return nil
}
