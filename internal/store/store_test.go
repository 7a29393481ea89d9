package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLiveObservationRoundtrip(t *testing.T) {
	s := openTestStore(t)

	day := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	obs := models.LiveObservation{
		TargetRank: 42,
		Domain:     "example.com",
		Day:        day,
		StartURL:   "http://www.example.com/",
		EndURL:     "https://www.example.com/",
		StatusCode: 200,
		Headers:    headers.FromMap(map[string]string{"Strict-Transport-Security": "max-age=31536000"}),
		FetchedAt:  time.Date(2023, 5, 1, 12, 30, 0, 0, time.UTC),
	}
	if err := s.InsertLive(obs); err != nil {
		t.Fatalf("InsertLive failed: %v", err)
	}

	got, err := s.LiveObservations(42)
	if err != nil {
		t.Fatalf("LiveObservations failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 observation, got %d", len(got))
	}
	if !got[0].Day.Equal(day) {
		t.Errorf("Expected day %v, got %v", day, got[0].Day)
	}
	if got[0].Headers.Get("strict-transport-security") != "max-age=31536000" {
		t.Errorf("Headers not preserved: %v", got[0].Headers.Map())
	}
	if got[0].StatusCode != 200 || got[0].EndURL != "https://www.example.com/" {
		t.Errorf("Unexpected observation %+v", got[0])
	}
}

func TestLiveObservationReplacedPerDay(t *testing.T) {
	s := openTestStore(t)

	day := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, status := range []int{500, 200} {
		obs := models.LiveObservation{
			TargetRank: 1,
			Domain:     "example.com",
			Day:        day,
			StartURL:   "http://www.example.com/",
			StatusCode: status,
			Headers:    headers.NewHeaders(),
			FetchedAt:  day,
		}
		if err := s.InsertLive(obs); err != nil {
			t.Fatalf("InsertLive failed: %v", err)
		}
	}

	got, err := s.LiveObservations(1)
	if err != nil {
		t.Fatalf("LiveObservations failed: %v", err)
	}
	if len(got) != 1 || got[0].StatusCode != 200 {
		t.Errorf("Expected the retry to replace the failed crawl, got %+v", got)
	}
}

func TestArchiveObservationsOrderedByDay(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{2, 0, 1} {
		obs := models.ArchiveObservation{
			TargetRank: 7,
			Domain:     "example.org",
			Day:        base.AddDate(0, 0, offset),
			StartURL:   "https://web.archive.org/web/20230501120000/http://www.example.org/",
			EndURL:     "snapshot-" + string(rune('A'+offset)),
			MementoAt:  base.Add(time.Duration(offset) * time.Hour),
			StatusCode: 200,
			Headers:    headers.NewHeaders(),
		}
		if err := s.InsertArchive(obs); err != nil {
			t.Fatalf("InsertArchive failed: %v", err)
		}
	}

	got, err := s.ArchiveObservations(7)
	if err != nil {
		t.Fatalf("ArchiveObservations failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 observations, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Day.Before(got[i].Day) {
			t.Errorf("Observations not ordered by day: %v before %v", got[i-1].Day, got[i].Day)
		}
	}
}

func TestArchiveObservationWithoutMemento(t *testing.T) {
	s := openTestStore(t)

	obs := models.ArchiveObservation{
		TargetRank: 3,
		Domain:     "example.net",
		Day:        time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC),
		StartURL:   "https://web.archive.org/web/20230501120000/http://www.example.net/",
		StatusCode: 404,
		Headers:    headers.NewHeaders(),
	}
	if err := s.InsertArchive(obs); err != nil {
		t.Fatalf("InsertArchive failed: %v", err)
	}

	got, err := s.ArchiveObservations(3)
	if err != nil {
		t.Fatalf("ArchiveObservations failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 observation, got %d", len(got))
	}
	if !got[0].MementoAt.IsZero() {
		t.Errorf("Expected zero memento time, got %v", got[0].MementoAt)
	}
	if got[0].StatusCode != 404 {
		t.Errorf("Expected 404 status, got %d", got[0].StatusCode)
	}
}

func TestTargetListing(t *testing.T) {
	s := openTestStore(t)

	day := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, rank := range []int{5, 2, 9} {
		obs := models.ArchiveObservation{
			TargetRank: rank,
			Domain:     "example.com",
			Day:        day,
			StartURL:   "u",
			Headers:    headers.NewHeaders(),
		}
		if err := s.InsertArchive(obs); err != nil {
			t.Fatalf("InsertArchive failed: %v", err)
		}
	}

	ranks, err := s.ArchiveTargets()
	if err != nil {
		t.Fatalf("ArchiveTargets failed: %v", err)
	}
	if len(ranks) != 3 || ranks[0] != 2 || ranks[2] != 9 {
		t.Errorf("Expected sorted ranks [2 5 9], got %v", ranks)
	}

	live, err := s.LiveTargets()
	if err != nil {
		t.Fatalf("LiveTargets failed: %v", err)
	}
	if len(live) != 0 {
		t.Errorf("Expected no live targets, got %v", live)
	}
}
