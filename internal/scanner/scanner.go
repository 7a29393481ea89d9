// Package scanner fetches response headers from live sites and from web
// archive snapshots.
package scanner

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/schollz/progressbar/v3"

	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
)

// Scanner performs header collection for a set of targets.
type Scanner struct {
	config *models.Config
	client *http.Client
}

// New creates a new Scanner instance
func New(config *models.Config) (*Scanner, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Scanner{config: config, client: NewClient(config)}, nil
}

// FetchLive collects one target's live response headers for day. When a
// browser context is supplied the browser-delivered headers replace the plain
// HTTP ones, since those are the headers the browser actually enforces.
func (s *Scanner) FetchLive(ctx context.Context, target models.Target, day time.Time, browserCtx context.Context) models.LiveObservation {
	obs := models.LiveObservation{
		TargetRank: target.Rank,
		Domain:     target.Domain,
		Day:        day.Truncate(24 * time.Hour),
		StartURL:   target.URL,
		Headers:    headers.NewHeaders(),
		FetchedAt:  time.Now().UTC(),
	}

	select {
	case <-ctx.Done():
		obs.Error = ctx.Err().Error()
		return obs
	default:
	}

	if !s.config.SkipDNS {
		if _, err := ResolveDomain(target.Domain); err != nil {
			obs.Error = fmt.Sprintf("domain not resolvable: %v", err)
			return obs
		}
	}

	resp, err := FetchHeaders(s.client, target.URL, s.config)
	if err != nil {
		obs.Error = err.Error()
		return obs
	}

	obs.EndURL = resp.FinalURL
	obs.StatusCode = resp.StatusCode
	obs.Headers = resp.Headers

	if s.config.UseBrowser && browserCtx != nil {
		browserHeaders, err := BrowserFetchHeaders(ctx, browserCtx, resp.FinalURL, s.config)
		if err == nil {
			obs.Headers = browserHeaders
		}
	}

	return obs
}

// CrawlLive fetches live headers for all targets concurrently.
func (s *Scanner) CrawlLive(ctx context.Context, targets []models.Target) ([]models.LiveObservation, error) {
	day := time.Now().UTC()

	var allocCtx context.Context
	if s.config.UseBrowser {
		var allocCancel context.CancelFunc
		allocCtx, allocCancel = SetupBrowserContext(s.config)
		defer allocCancel()
	}

	workCh := make(chan models.Target, len(targets))
	resultCh := make(chan models.LiveObservation, len(targets))
	bar := s.newProgressBar(len(targets), "[cyan]Crawling live sites[reset]")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var browserCtx context.Context
			if allocCtx != nil {
				var cancel context.CancelFunc
				browserCtx, cancel = chromedp.NewContext(allocCtx)
				defer cancel()
			}

			for {
				select {
				case target, ok := <-workCh:
					if !ok {
						return
					}
					resultCh <- s.FetchLive(ctx, target, day, browserCtx)
					if bar != nil {
						bar.Add(1)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		for _, target := range targets {
			select {
			case workCh <- target:
			case <-ctx.Done():
			}
		}
		close(workCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
		if bar != nil {
			bar.Finish()
		}
	}()

	var observations []models.LiveObservation
	for obs := range resultCh {
		observations = append(observations, obs)
	}
	return observations, nil
}

// CrawlArchive queries the archive for every target on every requested day.
func (s *Scanner) CrawlArchive(ctx context.Context, targets []models.Target, days []time.Time) ([]models.ArchiveObservation, error) {
	type job struct {
		target models.Target
		day    time.Time
	}

	total := len(targets) * len(days)
	workCh := make(chan job, total)
	resultCh := make(chan models.ArchiveObservation, total)
	bar := s.newProgressBar(total, "[cyan]Querying archive[reset]")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case j, ok := <-workCh:
					if !ok {
						return
					}
					resultCh <- s.FetchSnapshot(j.target, j.day)
					if bar != nil {
						bar.Add(1)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		for _, target := range targets {
			for _, day := range days {
				select {
				case workCh <- job{target: target, day: day}:
				case <-ctx.Done():
				}
			}
		}
		close(workCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
		if bar != nil {
			bar.Finish()
		}
	}()

	var observations []models.ArchiveObservation
	for obs := range resultCh {
		observations = append(observations, obs)
	}
	return observations, nil
}

func (s *Scanner) newProgressBar(total int, description string) *progressbar.ProgressBar {
	if s.config.Quiet || s.config.NoProgress {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
