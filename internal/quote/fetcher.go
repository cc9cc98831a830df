package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent mimics a desktop browser; screener.in serves a captcha
// page to clients without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves the rendered HTML of a page. The plain HTTP fetcher
// is the default; a headless-browser fetcher exists for deployments where
// direct requests get blocked.
type Fetcher interface {
	Page(ctx context.Context, url string) (string, error)
}

// StatusError reports a non-200 page fetch with the upstream status code
// attached, so callers can tell a missing company apart from an outage.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("quote fetch: %s returned status %d", e.URL, e.Code)
}

// HTTPFetcher fetches pages with a plain HTTP GET.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher returns a fetcher with sane timeout and User-Agent.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: DefaultUserAgent,
	}
}

func (f *HTTPFetcher) Page(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("quote fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("quote fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{URL: url, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("quote fetch: read body: %w", err)
	}
	return string(body), nil
}
