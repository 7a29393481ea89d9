package stability

// DailyCounts aggregates additions, updates, and deletions across many
// resources on one day.
type DailyCounts struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// DailyTotals counts Added/Modified/Removed statuses per day index across a
// set of timelines. Timelines shorter than the longest simply stop
// contributing.
func DailyTotals(timelines [][]Status) []DailyCounts {
	days := 0
	for _, timeline := range timelines {
		if len(timeline) > days {
			days = len(timeline)
		}
	}

	totals := make([]DailyCounts, days)
	for _, timeline := range timelines {
		for day, status := range timeline {
			switch status {
			case Added:
				totals[day].Added++
			case Modified:
				totals[day].Modified++
			case Removed:
				totals[day].Removed++
			}
		}
	}
	return totals
}
