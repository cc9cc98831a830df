// Package dashboard wires the portfolio state manager, the market-data
// provider and the currency converter behind the API surface.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/smartinvest/smartinvest/internal/fx"
	"github.com/smartinvest/smartinvest/internal/portfolio"
	"github.com/smartinvest/smartinvest/internal/quote"
)

// refreshTimeout bounds the background refreshes the service spawns after
// an add or a portfolio switch.
const refreshTimeout = 30 * time.Second

// Service implements the api.Service contract.
type Service struct {
	manager  *portfolio.Manager
	provider quote.Provider
	fx       *fx.Client

	// refreshOnSwitch makes a portfolio refresh automatically right after
	// it becomes active.
	refreshOnSwitch bool
}

func NewService(manager *portfolio.Manager, provider quote.Provider, fxClient *fx.Client, refreshOnSwitch bool) *Service {
	return &Service{
		manager:         manager,
		provider:        provider,
		fx:              fxClient,
		refreshOnSwitch: refreshOnSwitch,
	}
}

// BatchSource adapts a quote.Provider to the state manager's QuoteSource.
type BatchSource struct {
	Provider quote.Provider
}

func (b BatchSource) BatchQuotes(ctx context.Context, symbols []string) []portfolio.BatchQuote {
	fetched := quote.FetchBatch(ctx, b.Provider, symbols)
	out := make([]portfolio.BatchQuote, len(fetched))
	for i, q := range fetched {
		out[i] = portfolio.BatchQuote{Symbol: q.Symbol, Price: q.Price, High: q.High, Low: q.Low}
	}
	return out
}

// refreshAsync runs a price refresh in the background. Overlap with an
// in-flight refresh is expected and only logged.
func (s *Service) refreshAsync(portfolioID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := s.manager.RefreshPrices(ctx, portfolioID); err != nil {
			var coded *portfolio.CodedError
			if errors.As(err, &coded) && coded.Code == portfolio.CodeRefreshBusy {
				slog.Debug("background refresh skipped, one already in flight", "portfolio_id", portfolioID)
				return
			}
			slog.Warn("background refresh failed", "portfolio_id", portfolioID, "error", err)
		}
	}()
}

// --- Portfolio operations ---

func (s *Service) ListPortfolios(ctx context.Context) ([]PortfolioSummary, error) {
	ps := s.manager.Portfolios()
	activeID := s.manager.ActiveID()
	out := make([]PortfolioSummary, len(ps))
	for i, p := range ps {
		out[i] = s.summarize(p, activeID)
	}
	return out, nil
}

func (s *Service) CreatePortfolio(ctx context.Context, name string) (PortfolioDetail, error) {
	p, err := s.manager.Create(name)
	if err != nil {
		return PortfolioDetail{}, err
	}
	return s.detail(p), nil
}

func (s *Service) GetPortfolio(ctx context.Context, id string) (PortfolioDetail, error) {
	p, err := s.manager.Get(id)
	if err != nil {
		return PortfolioDetail{}, err
	}
	return s.detail(p), nil
}

func (s *Service) GetActivePortfolio(ctx context.Context) (PortfolioDetail, error) {
	p, err := s.manager.Active()
	if err != nil {
		return PortfolioDetail{}, err
	}
	return s.detail(p), nil
}

func (s *Service) SwitchPortfolio(ctx context.Context, id string) (PortfolioDetail, error) {
	p, err := s.manager.SwitchActive(id)
	if err != nil {
		return PortfolioDetail{}, err
	}
	if s.refreshOnSwitch && len(p.Items) > 0 {
		s.refreshAsync(p.ID)
	}
	return s.detail(p), nil
}

func (s *Service) DeletePortfolio(ctx context.Context, id string) error {
	return s.manager.Delete(id)
}

func (s *Service) AddPosition(ctx context.Context, portfolioID, symbol string, buyPrice, quantity float64) (PositionView, error) {
	pos, err := s.manager.AddPosition(portfolioID, symbol, buyPrice, quantity)
	if err != nil {
		return PositionView{}, err
	}
	// Pull live prices for the whole portfolio so sibling lots of the
	// same symbol update together with the new entry.
	s.refreshAsync(portfolioID)
	return positionView(pos), nil
}

func (s *Service) RemovePosition(ctx context.Context, portfolioID, positionID string) error {
	return s.manager.RemovePosition(portfolioID, positionID)
}

func (s *Service) RefreshPortfolio(ctx context.Context, id string) (PortfolioDetail, error) {
	p, err := s.manager.RefreshPrices(ctx, id)
	if err != nil {
		return PortfolioDetail{}, err
	}
	return s.detail(p), nil
}

// --- Market operations ---

func (s *Service) GetStockQuote(ctx context.Context, ticker string) (quote.Quote, error) {
	q, err := s.provider.GetQuote(ctx, ticker)
	if errors.Is(err, quote.ErrNotFound) {
		return quote.Quote{}, &portfolio.CodedError{Code: portfolio.CodeNotFound, Message: "could not retrieve data for " + ticker}
	}
	if err != nil {
		return quote.Quote{}, &portfolio.CodedError{Code: portfolio.CodeProvider, Message: "quote provider unavailable", Cause: err}
	}
	return q, nil
}

func (s *Service) GetStockHistory(ctx context.Context, ticker, period string) ([]quote.HistoryPoint, error) {
	points, err := s.provider.GetHistory(ctx, ticker, period)
	if err != nil {
		slog.Debug("history lookup failed", "ticker", ticker, "error", err)
		return []quote.HistoryPoint{}, nil
	}
	return points, nil
}

func (s *Service) GetStockNews(ctx context.Context, ticker string) ([]quote.NewsItem, error) {
	news, err := s.provider.GetNews(ctx, ticker)
	if err != nil {
		slog.Debug("news lookup failed", "ticker", ticker, "error", err)
		return []quote.NewsItem{}, nil
	}
	return news, nil
}

func (s *Service) SearchStocks(ctx context.Context, query string) ([]quote.SearchResult, error) {
	hits, err := s.provider.Search(ctx, query)
	if err != nil {
		slog.Debug("search failed", "query", query, "error", err)
		return []quote.SearchResult{}, nil
	}
	return hits, nil
}

// --- Currency operations ---

func (s *Service) ListCurrencies(ctx context.Context) ([]string, error) {
	codes, err := s.fx.Currencies(ctx)
	if err != nil {
		return nil, &portfolio.CodedError{Code: portfolio.CodeProvider, Message: "exchange-rate provider unavailable", Cause: err}
	}
	return codes, nil
}

func (s *Service) ConvertCurrency(ctx context.Context, from, to string, amount float64) (fx.Conversion, error) {
	conv, err := s.fx.Convert(ctx, from, to, amount)
	if errors.Is(err, fx.ErrUnknownCurrency) {
		return fx.Conversion{}, &portfolio.CodedError{Code: portfolio.CodeValidation, Message: "unknown currency code"}
	}
	if err != nil {
		return fx.Conversion{}, &portfolio.CodedError{Code: portfolio.CodeProvider, Message: "exchange-rate provider unavailable", Cause: err}
	}
	return conv, nil
}
