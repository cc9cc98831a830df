package fx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, ttl time.Duration) (*Client, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/latest/USD", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"USD":1,"INR":83.2,"EUR":0.92}}`))
	})
	mux.HandleFunc("/latest/XXX", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, ttl), &hits
}

func TestConvert(t *testing.T) {
	c, _ := newTestClient(t, time.Minute)

	conv, err := c.Convert(context.Background(), "usd", "inr", 10)
	if err != nil {
		t.Fatalf("Convert() failed: %v", err)
	}
	if conv.From != "USD" || conv.To != "INR" {
		t.Fatalf("codes = %s/%s; want USD/INR", conv.From, conv.To)
	}
	if conv.Rate != 83.2 || conv.Result != 832 {
		t.Fatalf("rate/result = %v/%v; want 83.2/832", conv.Rate, conv.Result)
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	c, _ := newTestClient(t, time.Minute)

	if _, err := c.Convert(context.Background(), "USD", "ZZZ", 1); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("Convert(unknown target) = %v; want ErrUnknownCurrency", err)
	}
	if _, err := c.Convert(context.Background(), "XXX", "USD", 1); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("Convert(unknown base) = %v; want ErrUnknownCurrency", err)
	}
}

func TestCurrenciesSortedAndCached(t *testing.T) {
	c, hits := newTestClient(t, time.Minute)

	codes, err := c.Currencies(context.Background())
	if err != nil {
		t.Fatalf("Currencies() failed: %v", err)
	}
	want := []string{"EUR", "INR", "USD"}
	if len(codes) != len(want) {
		t.Fatalf("len(codes) = %d; want %d", len(codes), len(want))
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v; want sorted %v", codes, want)
		}
	}

	if _, err := c.Currencies(context.Background()); err != nil {
		t.Fatalf("second Currencies() failed: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hits = %d; want 1 (second call served from cache)", got)
	}
}
