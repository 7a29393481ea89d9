package models

import (
	"time"

	"github.com/hdrlab/headstone/internal/headers"
)

// LiveObservation is one day's crawl result for one target's live site.
type LiveObservation struct {
	TargetRank int             `json:"target_rank"`
	Domain     string          `json:"domain"`
	Day        time.Time       `json:"day"`
	StartURL   string          `json:"start_url"`
	EndURL     string          `json:"end_url,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Headers    headers.Headers `json:"headers"`
	FetchedAt  time.Time       `json:"fetched_at"`
	Error      string          `json:"error,omitempty"`
}

// ArchiveObservation is one day's snapshot query result for one target. A
// zero MementoAt means the archive returned no capture timestamp; a 404
// status records the resource as explicitly gone.
type ArchiveObservation struct {
	TargetRank int             `json:"target_rank"`
	Domain     string          `json:"domain"`
	Day        time.Time       `json:"day"`
	StartURL   string          `json:"start_url"`
	EndURL     string          `json:"end_url,omitempty"`
	MementoAt  time.Time       `json:"memento_at,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Headers    headers.Headers `json:"headers"`
}

// ClassificationResult pairs one observation's canonical header forms with
// its security classification.
type ClassificationResult struct {
	TargetRank     int                    `json:"target_rank"`
	Domain         string                 `json:"domain"`
	Day            time.Time              `json:"day"`
	Origin         string                 `json:"origin,omitempty"`
	Normalized     map[string]string      `json:"normalized"`
	Classification headers.Classification `json:"classification"`
}

// ConsistencyResult reports, per mechanism, whether a target's canonical
// header value ever changed across its live observations.
type ConsistencyResult struct {
	TargetRank int             `json:"target_rank"`
	Domain     string          `json:"domain"`
	Deployed   map[string]bool `json:"deployed"`
	Consistent map[string]bool `json:"consistent"`
}

// TimelineResult is one target's stability status per observed day.
type TimelineResult struct {
	TargetRank int               `json:"target_rank"`
	Domain     string            `json:"domain"`
	Days       []time.Time       `json:"days"`
	Statuses   []string          `json:"statuses"`
	Drifts     map[string]string `json:"drifts,omitempty"`
}
