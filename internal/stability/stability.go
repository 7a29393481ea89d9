// Package stability computes the lifecycle of archived resources from daily
// snapshot observations. For one resource, observations folded in increasing
// day order yield a timeline of stability statuses; distinct resources are
// independent and can be processed in parallel.
package stability

import "time"

// Status describes the state of an archived resource on one day.
type Status int

const (
	Missing Status = iota
	Added
	Modified
	Removed
	Unmodified
)

func (s Status) String() string {
	switch s {
	case Added:
		return "ADDED"
	case Modified:
		return "MODIFIED"
	case Removed:
		return "REMOVED"
	case Unmodified:
		return "UNMODIFIED"
	default:
		return "MISSING"
	}
}

// MarshalText encodes the status as its tag string.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event describes what one day's archive query returned.
type Event int

const (
	// EventNoData: the archive returned nothing usable for the day.
	EventNoData Event = iota
	// EventHit: the archive returned a snapshot.
	EventHit
	// EventMiss404: the archive explicitly reported the resource as gone.
	EventMiss404
)

// Observation is one day's result for one resource. For hits, ContentID
// identifies the captured content and CapturedAt is the snapshot's actual
// capture timestamp.
type Observation struct {
	Day        time.Time
	Event      Event
	ContentID  string
	CapturedAt time.Time
	StatusCode int
}

// Drift is the offset between a snapshot's capture time and the nominal
// requested time, recorded when the resource transitions to Removed.
type Drift struct {
	Day    time.Time
	Offset time.Duration
}

// DefaultTolerance is the capture jitter accepted around the nominal
// timestamp before a hit is treated as no data.
const DefaultTolerance = 24 * time.Hour

// Tracker folds one resource's observations into a status timeline. Each
// transition depends on the previous status and the previous hit's content
// identity, so observations must arrive in strictly increasing day order.
// The zero-day status is Missing.
type Tracker struct {
	nominal   time.Time
	tolerance time.Duration

	status      Status
	lastContent string
	lastCapture time.Time
	hasContent  bool
	drifts      []Drift
}

// NewTracker returns a tracker for a resource whose snapshots were requested
// at the given nominal timestamp, using DefaultTolerance.
func NewTracker(nominal time.Time) *Tracker {
	return NewTrackerWithTolerance(nominal, DefaultTolerance)
}

// NewTrackerWithTolerance returns a tracker with an explicit capture
// tolerance.
func NewTrackerWithTolerance(nominal time.Time, tolerance time.Duration) *Tracker {
	return &Tracker{nominal: nominal, tolerance: tolerance, status: Missing}
}

// Status returns the current status.
func (t *Tracker) Status() Status { return t.status }

// Drifts returns the capture drifts recorded at Removed transitions.
func (t *Tracker) Drifts() []Drift { return t.drifts }

// Observe advances the tracker by one day and returns the new status.
func (t *Tracker) Observe(obs Observation) Status {
	switch obs.Event {
	case EventMiss404:
		previous := t.status
		switch t.status {
		case Added, Modified, Unmodified:
			t.status = Removed
		default:
			t.status = Missing
		}
		if t.status == Removed && previous != Removed && t.hasContent {
			t.drifts = append(t.drifts, Drift{Day: obs.Day, Offset: t.lastCapture.Sub(t.nominal)})
		}

	case EventHit:
		if outsideTolerance(obs.CapturedAt, t.nominal, t.tolerance) {
			// Archive capture jitter must not look like the resource vanished
			// and reappeared, so an out-of-window hit counts as no data.
			t.status = t.noData()
			break
		}
		switch t.status {
		case Missing, Removed:
			t.status = Added
		default:
			if t.hasContent && obs.ContentID == t.lastContent {
				t.status = Unmodified
			} else {
				t.status = Modified
			}
		}
		t.lastContent = obs.ContentID
		t.lastCapture = obs.CapturedAt
		t.hasContent = true

	default:
		t.status = t.noData()
	}

	return t.status
}

func (t *Tracker) noData() Status {
	switch t.status {
	case Added, Modified:
		return Unmodified
	case Removed:
		return Missing
	default:
		return t.status
	}
}

func outsideTolerance(captured, nominal time.Time, tolerance time.Duration) bool {
	delta := captured.Sub(nominal)
	if delta < 0 {
		delta = -delta
	}
	return delta > tolerance
}

// ComputeTimeline folds a day-ordered observation sequence for one resource
// into the matching status sequence. The caller guarantees increasing day
// order.
func ComputeTimeline(nominal time.Time, observations []Observation) []Status {
	tracker := NewTracker(nominal)
	timeline := make([]Status, len(observations))
	for i, obs := range observations {
		timeline[i] = tracker.Observe(obs)
	}
	return timeline
}
