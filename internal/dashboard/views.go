package dashboard

import (
	"github.com/smartinvest/smartinvest/internal/portfolio"
)

// PositionView is one lot with its derived metrics attached. The metrics
// are recomputed from the stored fields on every request, never persisted.
type PositionView struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	BuyPrice     float64 `json:"buy_price"`
	Quantity     float64 `json:"quantity"`
	AddedAt      int64   `json:"added_at"`
	CurrentPrice float64 `json:"current_price"`
	High         float64 `json:"high,omitempty"`
	Low          float64 `json:"low,omitempty"`
	PL           float64 `json:"pl"`
	PLPercent    float64 `json:"pl_percent"`
}

// PortfolioSummary is the list-view shape: totals without positions.
type PortfolioSummary struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Active            bool    `json:"active"`
	Refreshing        bool    `json:"refreshing"`
	Positions         int     `json:"positions"`
	TotalInvested     float64 `json:"total_invested"`
	TotalValue        float64 `json:"total_value"`
	TotalPL           float64 `json:"total_pl"`
	TotalPLDisplay    string  `json:"total_pl_display"`
	TotalValueDisplay string  `json:"total_value_display"`
}

// PortfolioDetail is the full shape with positions.
type PortfolioDetail struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Active         bool           `json:"active"`
	Refreshing     bool           `json:"refreshing"`
	Items          []PositionView `json:"items"`
	TotalInvested  float64        `json:"total_invested"`
	TotalValue     float64        `json:"total_value"`
	TotalPL        float64        `json:"total_pl"`
	TotalPLDisplay string         `json:"total_pl_display"`
}

func positionView(p portfolio.Position) PositionView {
	pl, _ := portfolio.PL(p).Float64()
	plPct, _ := portfolio.PLPercent(p).Round(2).Float64()
	return PositionView{
		ID:           p.ID,
		Symbol:       p.Symbol,
		BuyPrice:     p.BuyPrice,
		Quantity:     p.Quantity,
		AddedAt:      p.AddedAt,
		CurrentPrice: p.EffectivePrice(),
		High:         p.High,
		Low:          p.Low,
		PL:           pl,
		PLPercent:    plPct,
	}
}

func (s *Service) summarize(p portfolio.Portfolio, activeID string) PortfolioSummary {
	sum := portfolio.Summarize(p.Items)
	invested, _ := sum.Invested.Float64()
	value, _ := sum.Value.Float64()
	pl, _ := sum.PL.Float64()
	return PortfolioSummary{
		ID:                p.ID,
		Name:              p.Name,
		Active:            p.ID == activeID,
		Refreshing:        s.manager.Refreshing(p.ID),
		Positions:         len(p.Items),
		TotalInvested:     invested,
		TotalValue:        value,
		TotalPL:           pl,
		TotalPLDisplay:    portfolio.FormatINR(sum.PL),
		TotalValueDisplay: portfolio.FormatINR(sum.Value),
	}
}

func (s *Service) detail(p portfolio.Portfolio) PortfolioDetail {
	sum := portfolio.Summarize(p.Items)
	invested, _ := sum.Invested.Float64()
	value, _ := sum.Value.Float64()
	pl, _ := sum.PL.Float64()

	items := make([]PositionView, len(p.Items))
	for i, it := range p.Items {
		items[i] = positionView(it)
	}
	return PortfolioDetail{
		ID:             p.ID,
		Name:           p.Name,
		Active:         p.ID == s.manager.ActiveID(),
		Refreshing:     s.manager.Refreshing(p.ID),
		Items:          items,
		TotalInvested:  invested,
		TotalValue:     value,
		TotalPL:        pl,
		TotalPLDisplay: portfolio.FormatINR(sum.PL),
	}
}
