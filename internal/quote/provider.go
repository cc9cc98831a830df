// Package quote fetches market data for Indian equities by scraping the
// screener.in website and its JSON endpoints.
package quote

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNotFound marks a ticker the provider has no data for.
var ErrNotFound = errors.New("quote: symbol not found")

// Quote is a point-in-time snapshot for one ticker.
type Quote struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Currency         string  `json:"currency"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"change_percent"`
	MarketCap        float64 `json:"market_cap,omitempty"`
	PERatio          float64 `json:"pe_ratio,omitempty"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low,omitempty"`
}

// HistoryPoint is one daily closing price.
type HistoryPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// NewsItem is one company announcement or document link.
type NewsItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Publisher   string `json:"publisher"`
	PublishedAt string `json:"published_at,omitempty"`
}

// SearchResult is one hit from the ticker search endpoint.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// Provider is the market-data contract the dashboard consumes. Single-item
// lookups return ErrNotFound for unknown tickers; list lookups return
// empty slices on failure rather than erroring.
type Provider interface {
	GetQuote(ctx context.Context, ticker string) (Quote, error)
	GetHistory(ctx context.Context, ticker, period string) ([]HistoryPoint, error)
	GetNews(ctx context.Context, ticker string) ([]NewsItem, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// BatchResult is one entry of a batch fetch. A failed symbol carries
// zeroed price fields; FetchBatch never drops a requested symbol.
type BatchResult struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
}

// FetchBatch requests quotes for all symbols concurrently and waits for
// every fetch to settle. Individual failures degrade to zeroed entries so
// one bad symbol cannot abort the batch.
func FetchBatch(ctx context.Context, p Provider, symbols []string) []BatchResult {
	results := make([]BatchResult, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			results[i] = BatchResult{Symbol: sym}
			q, err := p.GetQuote(ctx, sym)
			if err != nil {
				slog.Debug("batch quote fetch failed", "symbol", sym, "error", err)
				return
			}
			results[i].Price = q.Price
			results[i].High = q.FiftyTwoWeekHigh
			results[i].Low = q.FiftyTwoWeekLow
		}(i, sym)
	}
	wg.Wait()
	return results
}
