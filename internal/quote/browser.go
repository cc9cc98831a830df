package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages through a headless Chromium reached over
// CDP. Useful when screener.in rejects plain HTTP clients; the page is
// fetched by a real browser engine, cookies and all.
type BrowserFetcher struct {
	cdpURL    string
	userAgent string
	timeout   time.Duration
}

// NewBrowserFetcher targets the browser's CDP HTTP endpoint, e.g.
// "http://127.0.0.1:9220".
func NewBrowserFetcher(cdpURL, userAgent string, timeout time.Duration) *BrowserFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &BrowserFetcher{cdpURL: cdpURL, userAgent: userAgent, timeout: timeout}
}

func (f *BrowserFetcher) Page(ctx context.Context, url string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, f.cdpURL)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	headers := network.Headers{"User-Agent": f.userAgent}

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch %s: %w", url, err)
	}
	return html, nil
}
