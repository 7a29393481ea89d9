package analyzer

import (
	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
	"github.com/hdrlab/headstone/internal/stability"
)

// Consistency folds one target's day-ordered live observations into a
// per-mechanism verdict: did the canonical header value ever change across
// the days we could observe. Failed crawls inherit the previous day's
// verdict.
func (a *Analyzer) Consistency(observations []models.LiveObservation) models.ConsistencyResult {
	result := models.ConsistencyResult{
		Deployed:   make(map[string]bool, len(headers.Mechanisms)),
		Consistent: make(map[string]bool, len(headers.Mechanisms)),
	}
	if len(observations) == 0 {
		for _, mechanism := range headers.Mechanisms {
			result.Consistent[mechanism] = true
		}
		return result
	}
	result.TargetRank = observations[0].TargetRank
	result.Domain = observations[0].Domain

	folds := make(map[string]*stability.Consistency, len(headers.Mechanisms))
	for _, mechanism := range headers.Mechanisms {
		folds[mechanism] = stability.NewConsistency()
	}

	for _, obs := range observations {
		if obs.Error != "" || obs.StatusCode == 0 {
			for _, fold := range folds {
				fold.ObserveGap()
			}
			continue
		}
		normalized := headers.NormalizeAll(obs.Headers)
		for _, mechanism := range headers.Mechanisms {
			value := normalized.Get(mechanism)
			folds[mechanism].ObserveValue(value, value != headers.Missing)
		}
	}

	for _, mechanism := range headers.Mechanisms {
		result.Deployed[mechanism] = folds[mechanism].Deployed()
		result.Consistent[mechanism] = folds[mechanism].Consistent()
	}
	return result
}
