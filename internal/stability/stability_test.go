package stability

import (
	"testing"
	"time"
)

var nominal = time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return nominal.AddDate(0, 0, offset)
}

func hit(offset int, content string) Observation {
	return Observation{
		Day:        day(offset),
		Event:      EventHit,
		ContentID:  content,
		CapturedAt: nominal.Add(2 * time.Hour),
		StatusCode: 200,
	}
}

func noData(offset int) Observation {
	return Observation{Day: day(offset), Event: EventNoData}
}

func miss(offset int) Observation {
	return Observation{Day: day(offset), Event: EventMiss404, StatusCode: 404}
}

func TestComputeTimelineLifecycle(t *testing.T) {
	observations := []Observation{
		hit(0, "A"),
		noData(1),
		hit(2, "A"),
		hit(3, "B"),
		miss(4),
	}

	want := []Status{Added, Unmodified, Unmodified, Modified, Removed}
	got := ComputeTimeline(nominal, observations)

	if len(got) != len(want) {
		t.Fatalf("Expected %d statuses, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Day %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNeverObservedStaysMissing(t *testing.T) {
	tracker := NewTracker(nominal)
	for i := 0; i < 10; i++ {
		if got := tracker.Observe(noData(i)); got != Missing {
			t.Fatalf("Day %d: expected MISSING, got %v", i, got)
		}
	}
}

func TestMissBeforeAdditionStaysMissing(t *testing.T) {
	tracker := NewTracker(nominal)
	if got := tracker.Observe(miss(0)); got != Missing {
		t.Errorf("Expected MISSING after 404 without prior content, got %v", got)
	}
}

func TestHitOutsideToleranceBehavesLikeNoData(t *testing.T) {
	farHit := Observation{
		Day:        day(1),
		Event:      EventHit,
		ContentID:  "X",
		CapturedAt: nominal.AddDate(0, 0, -30),
		StatusCode: 200,
	}

	tracker := NewTracker(nominal)
	if got := tracker.Observe(farHit); got != Missing {
		t.Errorf("Expected MISSING for out-of-window hit, got %v", got)
	}

	tracker = NewTracker(nominal)
	tracker.Observe(hit(0, "A"))
	if got := tracker.Observe(farHit); got != Unmodified {
		t.Errorf("Expected UNMODIFIED for out-of-window hit after ADDED, got %v", got)
	}

	// The out-of-window hit must not update the remembered content either.
	if got := tracker.Observe(hit(2, "A")); got != Unmodified {
		t.Errorf("Expected UNMODIFIED for unchanged content, got %v", got)
	}
}

func TestRemovedResourceCanReappear(t *testing.T) {
	tracker := NewTracker(nominal)
	tracker.Observe(hit(0, "A"))
	tracker.Observe(miss(1))

	if got := tracker.Observe(hit(2, "A")); got != Added {
		t.Errorf("Expected ADDED after reappearance, got %v", got)
	}
}

func TestRemovedDecaysToMissing(t *testing.T) {
	tracker := NewTracker(nominal)
	tracker.Observe(hit(0, "A"))
	tracker.Observe(miss(1))

	if got := tracker.Observe(noData(2)); got != Missing {
		t.Errorf("Expected MISSING after REMOVED with no data, got %v", got)
	}
	if got := tracker.Observe(miss(3)); got != Missing {
		t.Errorf("Expected MISSING after repeated 404, got %v", got)
	}
}

func TestModifiedOnlyComparesLastHit(t *testing.T) {
	tracker := NewTracker(nominal)
	tracker.Observe(hit(0, "A"))
	tracker.Observe(hit(1, "B"))

	// "A" was seen before, but only the last hit's content counts.
	if got := tracker.Observe(hit(2, "A")); got != Modified {
		t.Errorf("Expected MODIFIED when content differs from last hit, got %v", got)
	}
}

func TestDriftRecordedAtRemoval(t *testing.T) {
	tracker := NewTracker(nominal)
	tracker.Observe(Observation{
		Day:        day(0),
		Event:      EventHit,
		ContentID:  "A",
		CapturedAt: nominal.Add(6 * time.Hour),
		StatusCode: 200,
	})
	tracker.Observe(miss(1))

	drifts := tracker.Drifts()
	if len(drifts) != 1 {
		t.Fatalf("Expected 1 drift record, got %d", len(drifts))
	}
	if drifts[0].Offset != 6*time.Hour {
		t.Errorf("Expected 6h drift, got %v", drifts[0].Offset)
	}
	if !drifts[0].Day.Equal(day(1)) {
		t.Errorf("Expected drift recorded on removal day, got %v", drifts[0].Day)
	}
}

func TestStatusMarshalText(t *testing.T) {
	data, err := Modified.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(data) != "MODIFIED" {
		t.Errorf("Expected MODIFIED, got %q", data)
	}
}

func TestDailyTotals(t *testing.T) {
	timelines := [][]Status{
		{Added, Unmodified, Modified, Removed},
		{Added, Modified, Unmodified},
		{Missing, Added, Removed, Missing},
	}

	totals := DailyTotals(timelines)
	if len(totals) != 4 {
		t.Fatalf("Expected 4 days, got %d", len(totals))
	}
	if totals[0].Added != 2 {
		t.Errorf("Day 0: expected 2 additions, got %d", totals[0].Added)
	}
	if totals[1].Modified != 1 || totals[1].Added != 1 {
		t.Errorf("Day 1: unexpected counts %+v", totals[1])
	}
	if totals[2].Removed != 1 || totals[2].Modified != 1 {
		t.Errorf("Day 2: unexpected counts %+v", totals[2])
	}
	if totals[3].Removed != 1 {
		t.Errorf("Day 3: expected 1 removal, got %d", totals[3].Removed)
	}
}
