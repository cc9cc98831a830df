package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartinvest/smartinvest/internal/dashboard"
	"github.com/smartinvest/smartinvest/internal/fx"
	"github.com/smartinvest/smartinvest/internal/portfolio"
	"github.com/smartinvest/smartinvest/internal/quote"
)

type stubService struct {
	refreshErr error
}

func (s *stubService) ListPortfolios(ctx context.Context) ([]dashboard.PortfolioSummary, error) {
	return []dashboard.PortfolioSummary{{ID: "p1", Name: "My First Portfolio", Active: true}}, nil
}
func (s *stubService) CreatePortfolio(ctx context.Context, name string) (dashboard.PortfolioDetail, error) {
	if strings.TrimSpace(name) == "" {
		return dashboard.PortfolioDetail{}, &portfolio.CodedError{Code: portfolio.CodeValidation, Message: "portfolio name must not be empty"}
	}
	return dashboard.PortfolioDetail{ID: "p2", Name: name, Active: true}, nil
}
func (s *stubService) GetPortfolio(ctx context.Context, id string) (dashboard.PortfolioDetail, error) {
	if id != "p1" {
		return dashboard.PortfolioDetail{}, &portfolio.CodedError{Code: portfolio.CodeNotFound, Message: "portfolio not found"}
	}
	return dashboard.PortfolioDetail{ID: "p1", Name: "My First Portfolio", Active: true, Items: []dashboard.PositionView{}}, nil
}
func (s *stubService) GetActivePortfolio(ctx context.Context) (dashboard.PortfolioDetail, error) {
	return s.GetPortfolio(ctx, "p1")
}
func (s *stubService) SwitchPortfolio(ctx context.Context, id string) (dashboard.PortfolioDetail, error) {
	return s.GetPortfolio(ctx, id)
}
func (s *stubService) DeletePortfolio(ctx context.Context, id string) error {
	if id == "p1" {
		return &portfolio.CodedError{Code: portfolio.CodeLastPortfolio, Message: "cannot delete the last portfolio"}
	}
	return nil
}
func (s *stubService) AddPosition(ctx context.Context, portfolioID, symbol string, buyPrice, quantity float64) (dashboard.PositionView, error) {
	return dashboard.PositionView{ID: "pos1", Symbol: strings.ToUpper(symbol), BuyPrice: buyPrice, Quantity: quantity, CurrentPrice: buyPrice}, nil
}
func (s *stubService) RemovePosition(ctx context.Context, portfolioID, positionID string) error {
	return nil
}
func (s *stubService) RefreshPortfolio(ctx context.Context, id string) (dashboard.PortfolioDetail, error) {
	if s.refreshErr != nil {
		return dashboard.PortfolioDetail{}, s.refreshErr
	}
	return s.GetPortfolio(ctx, id)
}
func (s *stubService) GetStockQuote(ctx context.Context, ticker string) (quote.Quote, error) {
	if ticker == "GHOST" {
		return quote.Quote{}, &portfolio.CodedError{Code: portfolio.CodeNotFound, Message: "could not retrieve data for GHOST"}
	}
	return quote.Quote{Symbol: ticker, Name: "Infosys Ltd", Price: 1500}, nil
}
func (s *stubService) GetStockHistory(ctx context.Context, ticker, period string) ([]quote.HistoryPoint, error) {
	return []quote.HistoryPoint{{Date: "2024-01-02", Price: 1490}}, nil
}
func (s *stubService) GetStockNews(ctx context.Context, ticker string) ([]quote.NewsItem, error) {
	return []quote.NewsItem{}, nil
}
func (s *stubService) SearchStocks(ctx context.Context, query string) ([]quote.SearchResult, error) {
	return []quote.SearchResult{{Symbol: "INFY", Name: "Infosys Ltd"}}, nil
}
func (s *stubService) ListCurrencies(ctx context.Context) ([]string, error) {
	return []string{"EUR", "INR", "USD"}, nil
}
func (s *stubService) ConvertCurrency(ctx context.Context, from, to string, amount float64) (fx.Conversion, error) {
	return fx.Conversion{From: from, To: to, Amount: amount, Rate: 83.2, Result: amount * 83.2}, nil
}

func doRequest(t *testing.T, h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body = %s, want ok status", w.Body.String())
	}
}

func TestGetActivePortfolio(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/portfolios/active", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var detail dashboard.PortfolioDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if detail.ID != "p1" || !detail.Active {
		t.Fatalf("detail = %+v, want active p1", detail)
	}
}

func TestCreatePortfolioValidation(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodPost, "/api/v1/portfolios", `{"name":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDeleteLastPortfolioConflict(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodDelete, "/api/v1/portfolio/p1", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestGetPortfolioNotFound(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/portfolio/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRefreshBusyConflict(t *testing.T) {
	svc := &stubService{refreshErr: &portfolio.CodedError{Code: portfolio.CodeRefreshBusy, Message: "refresh already running"}}
	h := NewServer(svc)
	w := doRequest(t, h, http.MethodPost, "/api/v1/portfolio/p1/refresh", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestAddPosition(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodPost, "/api/v1/portfolio/p1/positions", `{"symbol":"infy","buy_price":1000,"quantity":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var pos dashboard.PositionView
	if err := json.Unmarshal(w.Body.Bytes(), &pos); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if pos.Symbol != "INFY" || pos.CurrentPrice != 1000 {
		t.Fatalf("position = %+v, want normalized INFY at buy price", pos)
	}
}

func TestStockQuoteNotFound(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/stock/GHOST", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSearch(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/search?q=infosys", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "INFY") {
		t.Fatalf("body = %s, want INFY result", w.Body.String())
	}
}

func TestConvertQueryParams(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/convert?from=USD&to=INR&amount=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var body struct {
		Rate   float64 `json:"rate"`
		Result float64 `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Rate != 83.2 || body.Result != 832 {
		t.Fatalf("conversion = %+v, want rate 83.2 result 832", body)
	}
}

func TestDocsDarkMode(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/docs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Fatalf("docs missing dark theme marker")
	}
}
