package scanner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hdrlab/headstone/internal/models"
)

func testConfig() *models.Config {
	config := models.DefaultConfig()
	config.RetryCount = 0
	config.Quiet = true
	config.SkipDNS = true
	return config
}

func TestBuildSnapshotURL(t *testing.T) {
	at := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	got := BuildSnapshotURL("https://web.archive.org/web/{timestamp}/{url}", "http://www.example.com/", at)
	want := "https://web.archive.org/web/20230501120000/http://www.example.com/"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestParseMementoDatetime(t *testing.T) {
	h := http.Header{}
	h.Set("Memento-Datetime", "Mon, 01 May 2023 11 Bad Value")
	if _, ok := ParseMementoDatetime(h); ok {
		t.Error("Expected unparseable memento timestamp to be rejected")
	}

	h.Set("Memento-Datetime", "Mon, 01 May 2023 11:58:03 GMT")
	at, ok := ParseMementoDatetime(h)
	if !ok {
		t.Fatal("Expected memento timestamp to parse")
	}
	want := time.Date(2023, 5, 1, 11, 58, 3, 0, time.UTC)
	if !at.Equal(want) {
		t.Errorf("Expected %v, got %v", want, at)
	}

	if _, ok := ParseMementoDatetime(http.Header{}); ok {
		t.Error("Expected missing header to report no timestamp")
	}
}

func TestFetchHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	config := testConfig()
	resp, err := FetchHeaders(NewClient(config), server.URL, config)
	if err != nil {
		t.Fatalf("FetchHeaders failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if resp.Headers.Get("Strict-Transport-Security") != "max-age=31536000" {
		t.Errorf("Expected HSTS header, got %v", resp.Headers.Map())
	}
}

func TestFetchSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/web/20230501120000/http://www.example.com/" {
			w.Header().Set("Memento-Datetime", "Mon, 01 May 2023 11:58:03 GMT")
			w.Header().Set("X-Frame-Options", "DENY")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	config := testConfig()
	config.ArchiveEndpoint = server.URL + "/web/{timestamp}/{url}"
	config.Nominal = time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	s, err := New(config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	target := models.Target{Rank: 1, Domain: "example.com", URL: "http://www.example.com/"}
	day := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	obs := s.FetchSnapshot(target, day)
	if obs.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 snapshot, got %d", obs.StatusCode)
	}
	if obs.Headers.Get("X-Frame-Options") != "DENY" {
		t.Errorf("Expected archived XFO header, got %v", obs.Headers.Map())
	}
	want := time.Date(2023, 5, 1, 11, 58, 3, 0, time.UTC)
	if !obs.MementoAt.Equal(want) {
		t.Errorf("Expected memento time %v, got %v", want, obs.MementoAt)
	}

	// A missing snapshot comes back as a 404 observation, not an error.
	missingDay := time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC)
	obs = s.FetchSnapshot(target, missingDay)
	if obs.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for missing snapshot, got %d", obs.StatusCode)
	}
	if !obs.MementoAt.IsZero() {
		t.Errorf("Expected no memento time for missing snapshot, got %v", obs.MementoAt)
	}
}

func TestCrawlArchiveCollectsAllDays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := testConfig()
	config.NoProgress = true
	config.ArchiveEndpoint = server.URL + "/web/{timestamp}/{url}"
	config.Workers = 2

	s, err := New(config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	targets := []models.Target{
		{Rank: 1, Domain: "example.com", URL: "http://www.example.com/"},
		{Rank: 2, Domain: "example.org", URL: "http://www.example.org/"},
	}
	days := []time.Time{
		time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 5, 3, 0, 0, 0, 0, time.UTC),
	}

	observations, err := s.CrawlArchive(context.Background(), targets, days)
	if err != nil {
		t.Fatalf("CrawlArchive failed: %v", err)
	}
	if len(observations) != 6 {
		t.Errorf("Expected 6 observations, got %d", len(observations))
	}
}
