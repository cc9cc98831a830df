package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smartinvest/smartinvest/internal/dashboard"
)

func registerPortfolioHandlers(api huma.API, svc Service) {
	type portfolioDetailOutput struct {
		Body dashboard.PortfolioDetail
	}

	type listPortfoliosOutput struct {
		Body struct {
			Portfolios []dashboard.PortfolioSummary `json:"portfolios"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-portfolios", Method: http.MethodGet, Path: "/api/v1/portfolios", Summary: "List all portfolios with totals", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *struct{}) (*listPortfoliosOutput, error) {
			ps, err := svc.ListPortfolios(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listPortfoliosOutput{}
			out.Body.Portfolios = ps
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "create-portfolio", Method: http.MethodPost, Path: "/api/v1/portfolios", Summary: "Create a new portfolio and make it active", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Name string `json:"name" required:"true"`
			}
		}) (*portfolioDetailOutput, error) {
			detail, err := svc.CreatePortfolio(ctx, input.Body.Name)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &portfolioDetailOutput{}
			out.Body = detail
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-active-portfolio", Method: http.MethodGet, Path: "/api/v1/portfolios/active", Summary: "Get the active portfolio with positions", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *struct{}) (*portfolioDetailOutput, error) {
			detail, err := svc.GetActivePortfolio(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &portfolioDetailOutput{}
			out.Body = detail
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "switch-portfolio", Method: http.MethodPut, Path: "/api/v1/portfolios/active", Summary: "Switch the active portfolio", Description: "Switching also starts a background price refresh when enabled in the configuration.", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *struct {
			Body struct {
				ID string `json:"id" required:"true"`
			}
		}) (*portfolioDetailOutput, error) {
			detail, err := svc.SwitchPortfolio(ctx, input.Body.ID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &portfolioDetailOutput{}
			out.Body = detail
			return out, nil
		})

	type portfolioIDInput struct {
		PortfolioID string `path:"portfolio_id"`
	}

	huma.Register(api, huma.Operation{OperationID: "get-portfolio", Method: http.MethodGet, Path: "/api/v1/portfolio/{portfolio_id}", Summary: "Get one portfolio with positions", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *portfolioIDInput) (*portfolioDetailOutput, error) {
			detail, err := svc.GetPortfolio(ctx, input.PortfolioID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &portfolioDetailOutput{}
			out.Body = detail
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-portfolio", Method: http.MethodDelete, Path: "/api/v1/portfolio/{portfolio_id}", Summary: "Delete a portfolio", Description: "The last remaining portfolio cannot be deleted.", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *portfolioIDInput) (*struct{}, error) {
			if err := svc.DeletePortfolio(ctx, input.PortfolioID); err != nil {
				return nil, mapErr(err)
			}
			return &struct{}{}, nil
		})

	type positionOutput struct {
		Body dashboard.PositionView
	}
	huma.Register(api, huma.Operation{OperationID: "add-position", Method: http.MethodPost, Path: "/api/v1/portfolio/{portfolio_id}/positions", Summary: "Add a position to a portfolio", Description: "Adding a position starts a background price refresh for the whole portfolio.", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *struct {
			PortfolioID string `path:"portfolio_id"`
			Body        struct {
				Symbol   string  `json:"symbol" required:"true"`
				BuyPrice float64 `json:"buy_price" required:"true"`
				Quantity float64 `json:"quantity" required:"true"`
			}
		}) (*positionOutput, error) {
			pos, err := svc.AddPosition(ctx, input.PortfolioID, input.Body.Symbol, input.Body.BuyPrice, input.Body.Quantity)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &positionOutput{}
			out.Body = pos
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "remove-position", Method: http.MethodDelete, Path: "/api/v1/portfolio/{portfolio_id}/position/{position_id}", Summary: "Remove a position", Description: "Removal is idempotent; unknown ids are a no-op.", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *struct {
			PortfolioID string `path:"portfolio_id"`
			PositionID  string `path:"position_id"`
		}) (*struct{}, error) {
			if err := svc.RemovePosition(ctx, input.PortfolioID, input.PositionID); err != nil {
				return nil, mapErr(err)
			}
			return &struct{}{}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "refresh-portfolio", Method: http.MethodPost, Path: "/api/v1/portfolio/{portfolio_id}/refresh", Summary: "Fetch current prices for all positions", Description: "Per-symbol provider failures keep the previous price rather than failing the request.", Tags: []string{"Portfolios"}},
		func(ctx context.Context, input *portfolioIDInput) (*portfolioDetailOutput, error) {
			detail, err := svc.RefreshPortfolio(ctx, input.PortfolioID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &portfolioDetailOutput{}
			out.Body = detail
			return out, nil
		})
}
