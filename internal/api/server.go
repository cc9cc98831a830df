package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/smartinvest/smartinvest/internal/dashboard"
	"github.com/smartinvest/smartinvest/internal/fx"
	"github.com/smartinvest/smartinvest/internal/portfolio"
	"github.com/smartinvest/smartinvest/internal/quote"
)

// Service is everything the HTTP layer needs from the dashboard.
type Service interface {
	ListPortfolios(ctx context.Context) ([]dashboard.PortfolioSummary, error)
	CreatePortfolio(ctx context.Context, name string) (dashboard.PortfolioDetail, error)
	GetPortfolio(ctx context.Context, id string) (dashboard.PortfolioDetail, error)
	GetActivePortfolio(ctx context.Context) (dashboard.PortfolioDetail, error)
	SwitchPortfolio(ctx context.Context, id string) (dashboard.PortfolioDetail, error)
	DeletePortfolio(ctx context.Context, id string) error
	AddPosition(ctx context.Context, portfolioID, symbol string, buyPrice, quantity float64) (dashboard.PositionView, error)
	RemovePosition(ctx context.Context, portfolioID, positionID string) error
	RefreshPortfolio(ctx context.Context, id string) (dashboard.PortfolioDetail, error)
	GetStockQuote(ctx context.Context, ticker string) (quote.Quote, error)
	GetStockHistory(ctx context.Context, ticker, period string) ([]quote.HistoryPoint, error)
	GetStockNews(ctx context.Context, ticker string) ([]quote.NewsItem, error)
	SearchStocks(ctx context.Context, query string) ([]quote.SearchResult, error)
	ListCurrencies(ctx context.Context) ([]string, error)
	ConvertCurrency(ctx context.Context, from, to string, amount float64) (fx.Conversion, error)
}

// NewServer builds the chi/huma handler for the dashboard API.
func NewServer(svc Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Smart Invest Dashboard API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerPortfolioHandlers(api, svc)
	registerMarketHandlers(api, svc)
	registerCurrencyHandlers(api, svc)
	registerHealthHandler(api)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *portfolio.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case portfolio.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case portfolio.CodeNotFound:
			return huma.Error404NotFound(coded.Message)
		case portfolio.CodeLastPortfolio, portfolio.CodeRefreshBusy:
			return huma.Error409Conflict(coded.Message)
		case portfolio.CodeProvider:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

func registerHealthHandler(api huma.API) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/api/v1/health", Summary: "Service health check", Tags: []string{"System"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}
