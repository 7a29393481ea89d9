package scanner

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
)

// SetupBrowserContext creates a browser context with secure defaults
func SetupBrowserContext(config *models.Config) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("ignore-certificate-errors", !config.VerifyTLS),
		chromedp.UserAgent(config.UserAgent),
		chromedp.DisableGPU,
		chromedp.WindowSize(1280, 800),
	)
	return chromedp.NewExecAllocator(context.Background(), opts...)
}

// BrowserFetchHeaders navigates to url in a headless browser and returns the
// response headers of the main document. Redirect hops overwrite earlier
// captures, so the returned headers belong to the final document response.
func BrowserFetchHeaders(ctx context.Context, browserCtx context.Context, url string, config *models.Config) (headers.Headers, error) {
	fetchCtx, cancel := context.WithTimeout(browserCtx, config.BrowserTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		return headers.Headers{}, ctx.Err()
	default:
	}

	var mu sync.Mutex
	captured := headers.NewHeaders()
	seen := false

	chromedp.ListenTarget(fetchCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		captured = headers.NewHeaders()
		for name, value := range resp.Response.Headers {
			if s, ok := value.(string); ok {
				captured.Set(name, s)
			}
		}
		seen = true
	})

	err := chromedp.Run(fetchCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return headers.Headers{}, fmt.Errorf("browser navigation failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !seen {
		return headers.Headers{}, fmt.Errorf("no document response captured for %s", url)
	}
	return captured, nil
}
