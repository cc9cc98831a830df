package portfolio

import (
	"testing"
)

func TestPositionPL(t *testing.T) {
	p := Position{Symbol: "INFY", BuyPrice: 100, Quantity: 10, CurrentPrice: 120}
	if got := PL(p); got.String() != "200" {
		t.Fatalf("PL() = %s; want 200", got)
	}
	if got := PLPercent(p); got.String() != "20" {
		t.Fatalf("PLPercent() = %s; want 20", got)
	}
}

func TestPositionPLFallsBackToBuyPrice(t *testing.T) {
	// No quote yet: P/L is zero, not negative-everything.
	p := Position{Symbol: "TCS", BuyPrice: 3500, Quantity: 2}
	if got := PL(p); !got.IsZero() {
		t.Fatalf("PL() = %s; want 0 before first quote", got)
	}
}

func TestPLPercentZeroBuyPriceIsGuarded(t *testing.T) {
	p := Position{Symbol: "X", BuyPrice: 0, Quantity: 1, CurrentPrice: 10}
	if got := PLPercent(p); !got.IsZero() {
		t.Fatalf("PLPercent() = %s; want 0 on zero buy price", got)
	}
}

func TestSummarize(t *testing.T) {
	items := []Position{
		{BuyPrice: 100, Quantity: 10, CurrentPrice: 120},
		{BuyPrice: 50, Quantity: 4, CurrentPrice: 40},
	}
	s := Summarize(items)
	if s.Invested.String() != "1200" {
		t.Fatalf("Invested = %s; want 1200", s.Invested)
	}
	if s.Value.String() != "1360" {
		t.Fatalf("Value = %s; want 1360", s.Value)
	}
	if s.PL.String() != "160" {
		t.Fatalf("PL = %s; want 160", s.PL)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if !s.Invested.IsZero() || !s.Value.IsZero() || !s.PL.IsZero() {
		t.Fatalf("Summarize(nil) = %+v; want all zero", s)
	}
}

func TestFormatINR(t *testing.T) {
	p := Position{BuyPrice: 100, Quantity: 10, CurrentPrice: 120}
	got := FormatINR(PL(p))
	if got == "" {
		t.Fatal("FormatINR() returned empty string")
	}
	// go-money owns the exact glyph/grouping; we only pin the digits.
	if !containsDigits(got, "200") {
		t.Fatalf("FormatINR() = %q; want it to contain 200", got)
	}
}

func containsDigits(s, digits string) bool {
	kept := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			kept = append(kept, r)
		}
	}
	return string(kept) == digits+"00" || string(kept) == digits
}
