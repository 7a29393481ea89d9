package scanner

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
)

// NewClient builds the HTTP client used for all crawls.
func NewClient(config *models.Config) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !config.VerifyTLS,
		},
		DisableKeepAlives: false,
		MaxIdleConns:      100,
		IdleConnTimeout:   90 * time.Second,
	}

	return &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= config.MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// FetchResponse is the header-level outcome of one GET request.
type FetchResponse struct {
	FinalURL   string
	StatusCode int
	Headers    headers.Headers
	HTTP       http.Header
}

// FetchHeaders fetches url with retries and returns the response headers of
// the final hop. The body is drained and discarded.
func FetchHeaders(client *http.Client, url string, config *models.Config) (*FetchResponse, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("User-Agent", config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	var lastErr error
	for attempt := 0; attempt <= config.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()

		return &FetchResponse{
			FinalURL:   resp.Request.URL.String(),
			StatusCode: resp.StatusCode,
			Headers:    headers.FromHTTP(resp.Header),
			HTTP:       resp.Header,
		}, nil
	}

	return nil, fmt.Errorf("all request attempts failed: %w", lastErr)
}
