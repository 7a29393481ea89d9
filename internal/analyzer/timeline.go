package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
	"github.com/hdrlab/headstone/internal/stability"
)

// ContentID derives a stable identity for one observation's security posture
// from its canonical header forms. Two observations with identical canonical
// forms for every mechanism get the same identity.
func ContentID(h headers.Headers) string {
	normalized := headers.NormalizeAll(h)
	var parts []string
	for _, mechanism := range headers.Mechanisms {
		parts = append(parts, mechanism+"="+normalized.Get(mechanism))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:8])
}

// Timeline folds one target's day-ordered archive observations into a
// stability timeline. Memento drift is measured against each day's requested
// capture time, so a snapshot replayed from far outside the requested window
// counts as no data for that day.
func (a *Analyzer) Timeline(observations []models.ArchiveObservation) models.TimelineResult {
	result, _ := a.timeline(observations)
	return result
}

func (a *Analyzer) timeline(observations []models.ArchiveObservation) (models.TimelineResult, []stability.Status) {
	result := models.TimelineResult{}
	if len(observations) == 0 {
		return result, nil
	}
	result.TargetRank = observations[0].TargetRank
	result.Domain = observations[0].Domain

	tracker := stability.NewTrackerWithTolerance(a.config.Nominal, a.config.Tolerance)
	statuses := make([]stability.Status, len(observations))
	for i, obs := range observations {
		statuses[i] = tracker.Observe(a.stabilityObservation(obs))
		result.Days = append(result.Days, obs.Day)
		result.Statuses = append(result.Statuses, statuses[i].String())
	}

	if drifts := tracker.Drifts(); len(drifts) > 0 {
		result.Drifts = make(map[string]string, len(drifts))
		for _, drift := range drifts {
			result.Drifts[drift.Day.Format("2006-01-02")] = drift.Offset.String()
		}
	}
	return result, statuses
}

// Timelines computes one timeline per target and the daily change totals
// across all of them. Targets are keyed by rank in the returned map.
func (a *Analyzer) Timelines(byTarget map[int][]models.ArchiveObservation) (map[int]models.TimelineResult, []stability.DailyCounts) {
	results := make(map[int]models.TimelineResult, len(byTarget))
	var timelines [][]stability.Status
	for rank, observations := range byTarget {
		result, statuses := a.timeline(observations)
		results[rank] = result
		timelines = append(timelines, statuses)
	}
	return results, stability.DailyTotals(timelines)
}

// stabilityObservation maps one archive crawl row onto a state machine event.
// A replayed snapshot is a hit, an explicit 404 is a miss, and anything else
// (fetch failure, server error, snapshot without a capture timestamp) is no
// data.
func (a *Analyzer) stabilityObservation(obs models.ArchiveObservation) stability.Observation {
	out := stability.Observation{Day: obs.Day, StatusCode: obs.StatusCode}

	switch {
	case obs.StatusCode == 404:
		out.Event = stability.EventMiss404
	case obs.StatusCode == 200 && !obs.MementoAt.IsZero():
		out.Event = stability.EventHit
		out.ContentID = ContentID(obs.Headers)
		out.CapturedAt = a.config.Nominal.Add(a.captureDrift(obs))
	default:
		out.Event = stability.EventNoData
	}
	return out
}

// captureDrift is the offset between the snapshot's actual capture time and
// the capture time requested for that day.
func (a *Analyzer) captureDrift(obs models.ArchiveObservation) time.Duration {
	requested := obs.Day.Truncate(24 * time.Hour).Add(a.config.Nominal.Sub(a.config.Nominal.Truncate(24 * time.Hour)))
	return obs.MementoAt.Sub(requested)
}
