package scanner

import (
	"net/http"
	"strings"
	"time"

	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
)

// archiveTimestampFormat is the 14 digit capture timestamp embedded in
// Wayback-style snapshot URLs.
const archiveTimestampFormat = "20060102150405"

// BuildSnapshotURL expands an archive endpoint template for one target URL at
// one point in time. The endpoint carries {timestamp} and {url} placeholders.
func BuildSnapshotURL(endpoint, url string, at time.Time) string {
	snapshot := strings.ReplaceAll(endpoint, "{timestamp}", at.UTC().Format(archiveTimestampFormat))
	return strings.ReplaceAll(snapshot, "{url}", url)
}

// ParseMementoDatetime reads the Memento-Datetime header that archives attach
// to replayed snapshots. The boolean reports whether a parseable timestamp
// was present.
func ParseMementoDatetime(h http.Header) (time.Time, bool) {
	value := h.Get("Memento-Datetime")
	if value == "" {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC1123, value)
	if err != nil {
		return time.Time{}, false
	}
	return at.UTC(), true
}

// FetchSnapshot queries the archive for target's snapshot nearest to the
// nominal time on day. Fetch failures are reported as an observation with a
// zero status code so a day is never silently dropped.
func (s *Scanner) FetchSnapshot(target models.Target, day time.Time) models.ArchiveObservation {
	nominal := day.Truncate(24 * time.Hour).Add(nominalOffset(s.config.Nominal))
	snapshotURL := BuildSnapshotURL(s.config.ArchiveEndpoint, target.URL, nominal)

	obs := models.ArchiveObservation{
		TargetRank: target.Rank,
		Domain:     target.Domain,
		Day:        day.Truncate(24 * time.Hour),
		StartURL:   snapshotURL,
	}

	resp, err := FetchHeaders(s.client, snapshotURL, s.config)
	if err != nil {
		obs.Headers = headers.NewHeaders()
		return obs
	}

	obs.EndURL = resp.FinalURL
	obs.StatusCode = resp.StatusCode
	obs.Headers = resp.Headers
	if at, ok := ParseMementoDatetime(resp.HTTP); ok {
		obs.MementoAt = at
	}
	return obs
}

// nominalOffset extracts the time-of-day component of the configured nominal
// capture time.
func nominalOffset(nominal time.Time) time.Duration {
	return nominal.Sub(nominal.Truncate(24 * time.Hour))
}
