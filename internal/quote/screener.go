package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the production screener.in endpoint.
const DefaultBaseURL = "https://www.screener.in"

var warehouseRe = regexp.MustCompile(`data-warehouse-id="(\d+)"`)

// Screener scrapes screener.in company pages and calls its JSON APIs.
// HTML pages go through the configured Fetcher; JSON endpoints are always
// plain HTTP.
type Screener struct {
	baseURL   string
	fetch     Fetcher
	client    *http.Client
	userAgent string
}

// NewScreener builds a provider against baseURL (empty for production).
func NewScreener(baseURL string, fetch Fetcher, timeout time.Duration) *Screener {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Screener{
		baseURL:   strings.TrimRight(baseURL, "/"),
		fetch:     fetch,
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}
}

// formatTicker normalizes a user-supplied ticker to the symbol screener
// uses: exchange suffixes stripped, upper-cased.
func formatTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	t = strings.TrimSuffix(t, ".NS")
	t = strings.TrimSuffix(t, ".BO")
	return t
}

func (s *Screener) companyURL(symbol string) string {
	return s.baseURL + "/company/" + url.PathEscape(symbol) + "/"
}

// GetQuote scrapes the company page's "Top Ratios" block. Change and
// change-percent are not published there and stay zero.
func (s *Screener) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	symbol := formatTicker(ticker)
	if symbol == "" {
		return Quote{}, ErrNotFound
	}

	html, err := s.fetch.Page(ctx, s.companyURL(symbol))
	if err != nil {
		// A 404 on the company page means the symbol does not exist,
		// which is terminal, not a provider outage.
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Quote{}, fmt.Errorf("screener: parse company page: %w", err)
	}

	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		return Quote{}, ErrNotFound
	}

	q := Quote{Symbol: symbol, Name: name, Currency: "INR"}
	doc.Find(".company-ratios ul li").Each(func(_ int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.Find(".name").Text())
		raw := cleanNumber(sel.Find(".value").Text())
		switch label {
		case "Current Price":
			q.Price = parseNumber(raw)
		case "Market Cap":
			// Screener lists market cap in crores.
			q.MarketCap = parseNumber(raw) * 1e7
		case "Stock P/E":
			q.PERatio = parseNumber(raw)
		case "High / Low":
			parts := strings.Split(raw, "/")
			if len(parts) == 2 {
				q.FiftyTwoWeekHigh = parseNumber(parts[0])
				q.FiftyTwoWeekLow = parseNumber(parts[1])
			}
		}
	})
	return q, nil
}

// GetHistory resolves the page's warehouse id and pulls the Price series
// from the chart API. Failures degrade to an empty series.
func (s *Screener) GetHistory(ctx context.Context, ticker, period string) ([]HistoryPoint, error) {
	symbol := formatTicker(ticker)
	if symbol == "" {
		return []HistoryPoint{}, nil
	}

	html, err := s.fetch.Page(ctx, s.companyURL(symbol))
	if err != nil {
		slog.Debug("history page fetch failed", "symbol", symbol, "error", err)
		return []HistoryPoint{}, nil
	}
	m := warehouseRe.FindStringSubmatch(html)
	if m == nil {
		return []HistoryPoint{}, nil
	}

	days := 30
	switch period {
	case "1y":
		days = 365
	case "1mo", "":
		days = 30
	default:
		days = 7
	}

	chartURL := fmt.Sprintf("%s/api/company/%s/chart/?q=Price-DMA50-DMA200-Volume&days=%d", s.baseURL, m[1], days)
	var payload any
	if err := s.getJSON(ctx, chartURL, &payload); err != nil {
		slog.Debug("chart api fetch failed", "symbol", symbol, "error", err)
		return []HistoryPoint{}, nil
	}

	datasets, err := jsonpath.Get("$.datasets", payload)
	if err != nil {
		return []HistoryPoint{}, nil
	}
	list, ok := datasets.([]any)
	if !ok {
		return []HistoryPoint{}, nil
	}

	for _, entry := range list {
		ds, ok := entry.(map[string]any)
		if !ok || ds["metric"] != "Price" {
			continue
		}
		values, ok := ds["values"].([]any)
		if !ok {
			continue
		}
		points := make([]HistoryPoint, 0, len(values))
		for _, v := range values {
			pair, ok := v.([]any)
			if !ok || len(pair) < 2 {
				continue
			}
			date, _ := pair[0].(string)
			points = append(points, HistoryPoint{Date: date, Price: toFloat(pair[1])})
		}
		return points, nil
	}
	return []HistoryPoint{}, nil
}

// GetNews scrapes the documents/announcements link list, capped at five
// entries like the dashboard shows.
func (s *Screener) GetNews(ctx context.Context, ticker string) ([]NewsItem, error) {
	symbol := formatTicker(ticker)
	if symbol == "" {
		return []NewsItem{}, nil
	}

	html, err := s.fetch.Page(ctx, s.companyURL(symbol))
	if err != nil {
		slog.Debug("news page fetch failed", "symbol", symbol, "error", err)
		return []NewsItem{}, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return []NewsItem{}, nil
	}

	news := []NewsItem{}
	doc.Find("#documents ul.list-links li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		if !strings.HasPrefix(href, "http") {
			href = s.baseURL + href
		}
		news = append(news, NewsItem{
			Title:       title,
			Link:        href,
			Publisher:   "Screener",
			PublishedAt: strings.TrimSpace(sel.Find("span.ink-600").Text()),
		})
		return len(news) < 5
	})
	return news, nil
}

// Search queries the company search API.
func (s *Screener) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}

	searchURL := s.baseURL + "/api/company/search/?q=" + url.QueryEscape(query)
	var hits []struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := s.getJSON(ctx, searchURL, &hits); err != nil {
		slog.Debug("search api fetch failed", "query", query, "error", err)
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		// URL has the shape /company/RELIANCE/.
		parts := strings.Split(strings.Trim(h.URL, "/"), "/")
		if len(parts) < 2 {
			continue
		}
		results = append(results, SearchResult{Symbol: parts[1], Name: h.Name, Exchange: "NSE/BSE"})
	}
	return results, nil
}

func (s *Screener) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("screener: %s returned status %d", rawURL, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// cleanNumber strips the rupee sign, thousands separators and whitespace.
func cleanNumber(s string) string {
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// parseNumber reads the leading numeric prefix, so "1700000 Cr." parses
// the way the site's own scripts treat it.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return parseNumber(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
