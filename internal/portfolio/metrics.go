package portfolio

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Derived metrics are pure functions over the position list. Nothing here
// is cached or persisted; callers recompute on every state change.

// EffectivePrice is the price a position is valued at: the latest known
// quote, or the cost basis when no quote has ever been retrieved.
func (p Position) EffectivePrice() float64 {
	if p.CurrentPrice != 0 {
		return p.CurrentPrice
	}
	return p.BuyPrice
}

// PL returns the absolute profit/loss of one lot.
func PL(p Position) decimal.Decimal {
	cur := decimal.NewFromFloat(p.EffectivePrice())
	buy := decimal.NewFromFloat(p.BuyPrice)
	qty := decimal.NewFromFloat(p.Quantity)
	return cur.Sub(buy).Mul(qty)
}

// PLPercent returns the percentage return of one lot. A zero buy price
// cannot pass validation; returning zero here keeps Div from panicking
// when stored data was edited by hand.
func PLPercent(p Position) decimal.Decimal {
	buy := decimal.NewFromFloat(p.BuyPrice)
	if buy.IsZero() {
		return decimal.Zero
	}
	cur := decimal.NewFromFloat(p.EffectivePrice())
	return cur.Sub(buy).Div(buy).Mul(decimal.NewFromInt(100))
}

// Summary aggregates a position list.
type Summary struct {
	Invested decimal.Decimal
	Value    decimal.Decimal
	PL       decimal.Decimal
}

// Summarize computes portfolio totals: invested = Σ buy×qty, value =
// Σ effective×qty, P/L = value − invested.
func Summarize(items []Position) Summary {
	invested := decimal.Zero
	value := decimal.Zero
	for _, p := range items {
		qty := decimal.NewFromFloat(p.Quantity)
		invested = invested.Add(decimal.NewFromFloat(p.BuyPrice).Mul(qty))
		value = value.Add(decimal.NewFromFloat(p.EffectivePrice()).Mul(qty))
	}
	return Summary{Invested: invested, Value: value, PL: value.Sub(invested)}
}

// FormatINR renders an amount as a display string in rupees.
func FormatINR(d decimal.Decimal) string {
	minor := d.Shift(2).Round(0).IntPart()
	return money.New(minor, money.INR).Display()
}
