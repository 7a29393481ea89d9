// Package analyzer turns stored crawl observations into classification,
// stability, and consistency results.
package analyzer

import (
	"time"

	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
)

// Analyzer derives analysis results from stored observations.
type Analyzer struct {
	config *models.Config
}

// New creates a new Analyzer instance
func New(config *models.Config) *Analyzer {
	return &Analyzer{config: config}
}

// ClassifyLive classifies one live observation's headers against the origin
// the crawl actually landed on.
func (a *Analyzer) ClassifyLive(obs models.LiveObservation) models.ClassificationResult {
	return classify(obs.TargetRank, obs.Domain, obs.Day, finalURL(obs.EndURL, obs.StartURL), obs.Headers)
}

// ClassifyArchive classifies one archive observation's headers. The origin is
// taken from the replayed snapshot URL.
func (a *Analyzer) ClassifyArchive(obs models.ArchiveObservation) models.ClassificationResult {
	return classify(obs.TargetRank, obs.Domain, obs.Day, finalURL(obs.EndURL, obs.StartURL), obs.Headers)
}

func classify(rank int, domain string, day time.Time, rawURL string, h headers.Headers) models.ClassificationResult {
	result := models.ClassificationResult{
		TargetRank: rank,
		Domain:     domain,
		Day:        day,
		Normalized: headers.NormalizeAll(h).Map(),
	}

	var origin *headers.Origin
	if parsed, err := headers.ParseOrigin(rawURL); err == nil && parsed.Host != "" {
		origin = &parsed
		result.Origin = parsed.String()
	}
	result.Classification = headers.ClassifyAll(h, origin)
	return result
}

func finalURL(endURL, startURL string) string {
	if endURL != "" {
		return endURL
	}
	return startURL
}
