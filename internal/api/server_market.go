package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smartinvest/smartinvest/internal/quote"
)

func registerMarketHandlers(api huma.API, svc Service) {
	type searchOutput struct {
		Body struct {
			Results []quote.SearchResult `json:"results"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "search-stocks", Method: http.MethodGet, Path: "/api/v1/search", Summary: "Search for companies by name or symbol", Tags: []string{"Market"}},
		func(ctx context.Context, input *struct {
			Query string `query:"q" required:"true"`
		}) (*searchOutput, error) {
			results, err := svc.SearchStocks(ctx, input.Query)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &searchOutput{}
			out.Body.Results = results
			return out, nil
		})

	type tickerInput struct {
		Ticker string `path:"ticker"`
	}

	type quoteOutput struct {
		Body quote.Quote
	}
	huma.Register(api, huma.Operation{OperationID: "get-stock", Method: http.MethodGet, Path: "/api/v1/stock/{ticker}", Summary: "Get the current quote for a ticker", Tags: []string{"Market"}},
		func(ctx context.Context, input *tickerInput) (*quoteOutput, error) {
			q, err := svc.GetStockQuote(ctx, input.Ticker)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &quoteOutput{}
			out.Body = q
			return out, nil
		})

	type historyOutput struct {
		Body struct {
			Points []quote.HistoryPoint `json:"points"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-stock-history", Method: http.MethodGet, Path: "/api/v1/stock/{ticker}/history", Summary: "Get the price history for a ticker", Description: "Supported periods are 1mo and 1y; anything else returns roughly a week of data.", Tags: []string{"Market"}},
		func(ctx context.Context, input *struct {
			Ticker string `path:"ticker"`
			Period string `query:"period" default:"1mo"`
		}) (*historyOutput, error) {
			points, err := svc.GetStockHistory(ctx, input.Ticker, input.Period)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &historyOutput{}
			out.Body.Points = points
			return out, nil
		})

	type newsOutput struct {
		Body struct {
			Items []quote.NewsItem `json:"items"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-stock-news", Method: http.MethodGet, Path: "/api/v1/stock/{ticker}/news", Summary: "Get recent announcements for a ticker", Tags: []string{"Market"}},
		func(ctx context.Context, input *tickerInput) (*newsOutput, error) {
			items, err := svc.GetStockNews(ctx, input.Ticker)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &newsOutput{}
			out.Body.Items = items
			return out, nil
		})
}

func registerCurrencyHandlers(api huma.API, svc Service) {
	type currenciesOutput struct {
		Body struct {
			Currencies []string `json:"currencies"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-currencies", Method: http.MethodGet, Path: "/api/v1/currencies", Summary: "List supported currency codes", Tags: []string{"Currency"}},
		func(ctx context.Context, input *struct{}) (*currenciesOutput, error) {
			codes, err := svc.ListCurrencies(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &currenciesOutput{}
			out.Body.Currencies = codes
			return out, nil
		})

	type convertOutput struct {
		Body struct {
			From   string  `json:"from"`
			To     string  `json:"to"`
			Amount float64 `json:"amount"`
			Rate   float64 `json:"rate"`
			Result float64 `json:"result"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "convert-currency", Method: http.MethodGet, Path: "/api/v1/convert", Summary: "Convert an amount between currencies", Tags: []string{"Currency"}},
		func(ctx context.Context, input *struct {
			From   string  `query:"from" required:"true"`
			To     string  `query:"to" required:"true"`
			Amount float64 `query:"amount" required:"true"`
		}) (*convertOutput, error) {
			conv, err := svc.ConvertCurrency(ctx, input.From, input.To, input.Amount)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &convertOutput{}
			out.Body.From = conv.From
			out.Body.To = conv.To
			out.Body.Amount = conv.Amount
			out.Body.Rate = conv.Rate
			out.Body.Result = conv.Result
			return out, nil
		})
}
