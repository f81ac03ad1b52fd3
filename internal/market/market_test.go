package market

import (
	"context"
	"errors"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
)

func TestYahooSymbol(t *testing.T) {
	cases := map[string]string{
		"eurusd":  "EURUSD=X",
		"BTC/USD": "BTC-USD",
		"AAPL":    "AAPL",
		"US500":   "US500",
	}
	for in, want := range cases {
		if got := YahooSymbol(in); got != want {
			t.Errorf("YahooSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestYahooCachesPrices(t *testing.T) {
	calls := 0
	now := time.Now()
	y := NewYahoo(time.Minute)
	y.now = func() time.Time { return now }
	y.get = func(symbol string) (*finance.Quote, error) {
		calls++
		if symbol != "EURUSD=X" {
			t.Fatalf("unexpected ticker %s", symbol)
		}
		return &finance.Quote{RegularMarketPrice: 1.0842}, nil
	}

	for i := 0; i < 3; i++ {
		p, err := y.Price(context.Background(), "EURUSD")
		if err != nil || p != 1.0842 {
			t.Fatalf("price = %v, %v", p, err)
		}
	}
	if calls != 1 {
		t.Fatalf("got %d quote calls, want 1", calls)
	}

	now = now.Add(2 * time.Minute)
	y.Price(context.Background(), "EURUSD")
	if calls != 2 {
		t.Fatalf("expired entry should be refetched")
	}
}

func TestYahooErrors(t *testing.T) {
	y := NewYahoo(0)
	y.get = func(string) (*finance.Quote, error) { return nil, nil }
	if _, err := y.Price(context.Background(), "ZZZ"); err == nil {
		t.Fatalf("expected error for missing quote")
	}

	y.get = func(string) (*finance.Quote, error) { return nil, errors.New("rate limited") }
	if _, err := y.Price(context.Background(), "ZZZ"); err == nil {
		t.Fatalf("expected error from quote source")
	}
}

func TestStatic(t *testing.T) {
	p, err := Static(1.0).Price(context.Background(), "anything")
	if err != nil || p != 1.0 {
		t.Fatalf("static price = %v, %v", p, err)
	}
}
