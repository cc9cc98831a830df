// Package fx converts between currencies using the exchangerate-api.com
// public endpoint.
package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the production rates endpoint.
const DefaultBaseURL = "https://api.exchangerate-api.com/v4"

// ErrUnknownCurrency marks a currency code the rates table does not list.
var ErrUnknownCurrency = errors.New("fx: unknown currency")

// Conversion is the result of one currency conversion.
type Conversion struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
	Result float64 `json:"result"`
}

type cachedRates struct {
	rates   map[string]float64
	fetched time.Time
}

// Client fetches rate tables per base currency and caches them for a TTL.
type Client struct {
	baseURL string
	cli     *http.Client
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cachedRates
}

// NewClient builds a Client against baseURL (empty for production).
func NewClient(baseURL string, timeout, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cli:     &http.Client{Timeout: timeout},
		ttl:     ttl,
		cache:   make(map[string]cachedRates),
	}
}

func (c *Client) rates(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, ErrUnknownCurrency
	}

	c.mu.RLock()
	if cached, ok := c.cache[base]; ok && time.Since(cached.fetched) < c.ttl {
		c.mu.RUnlock()
		return cached.rates, nil
	}
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest/"+url.PathEscape(base), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fx: fetch rates for %s: %w", base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUnknownCurrency
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fx: rates endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fx: decode rates: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("fx: empty rates table for %s", base)
	}

	c.mu.Lock()
	c.cache[base] = cachedRates{rates: payload.Rates, fetched: time.Now()}
	c.mu.Unlock()
	return payload.Rates, nil
}

// Currencies lists the currency codes the provider quotes, sorted.
func (c *Client) Currencies(ctx context.Context) ([]string, error) {
	rates, err := c.rates(ctx, "USD")
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// Convert turns amount units of from into to at the latest rate.
func (c *Client) Convert(ctx context.Context, from, to string, amount float64) (Conversion, error) {
	rates, err := c.rates(ctx, from)
	if err != nil {
		return Conversion{}, err
	}
	to = strings.ToUpper(strings.TrimSpace(to))
	rate, ok := rates[to]
	if !ok {
		return Conversion{}, ErrUnknownCurrency
	}
	return Conversion{
		From:   strings.ToUpper(strings.TrimSpace(from)),
		To:     to,
		Amount: amount,
		Rate:   rate,
		Result: amount * rate,
	}, nil
}
