package portfolio

import (
	"context"
	"fmt"
)

// Error codes used for stable API mapping.
const (
	CodeValidation    = "VALIDATION"
	CodeNotFound      = "NOT_FOUND"
	CodeLastPortfolio = "LAST_PORTFOLIO"
	CodeRefreshBusy   = "REFRESH_BUSY"
	CodeProvider      = "PROVIDER_UNAVAILABLE"
	CodeStorage       = "STORAGE"
)

// CodedError is a typed error used for stable API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

func newError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// Position is one recorded purchase lot inside a portfolio. Symbol, buy
// price, quantity and the creation timestamp are fixed at creation; only
// the quote fields change afterwards, and only through a price refresh.
type Position struct {
	ID       string  `json:"id"`
	Symbol   string  `json:"symbol"`
	BuyPrice float64 `json:"buyPrice"`
	Quantity float64 `json:"quantity"`
	// AddedAt is Unix milliseconds, matching the legacy browser payload
	// the migration reader still has to understand.
	AddedAt int64 `json:"addedAt"`
	// CurrentPrice starts at BuyPrice and holds the most recent non-zero
	// quote afterwards. High/Low stay absent until the first successful
	// refresh delivers them.
	CurrentPrice float64 `json:"currentPrice,omitempty"`
	High         float64 `json:"high,omitempty"`
	Low          float64 `json:"low,omitempty"`
}

// Portfolio is a named, ordered collection of positions. Insertion order
// is display order. Duplicate symbols are allowed as separate lots.
type Portfolio struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []Position `json:"items"`
}

func clonePortfolio(p Portfolio) Portfolio {
	out := p
	out.Items = make([]Position, len(p.Items))
	copy(out.Items, p.Items)
	return out
}

func clonePortfolios(ps []Portfolio) []Portfolio {
	out := make([]Portfolio, len(ps))
	for i, p := range ps {
		out[i] = clonePortfolio(p)
	}
	return out
}

// BatchQuote is one entry of a batch price fetch. Zeroed fields mean the
// fetch for that symbol failed; the merge keeps the previous values.
type BatchQuote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
}

// QuoteSource delivers current quotes for a set of distinct symbols. All
// symbols are fetched, individual failures yield zeroed entries rather
// than aborting the batch.
type QuoteSource interface {
	BatchQuotes(ctx context.Context, symbols []string) []BatchQuote
}
