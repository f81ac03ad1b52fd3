package market

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"

	"trading-bots/internal/interfaces"
)

// Static quotes the same price for every symbol.
type Static float64

var _ interfaces.PriceProvider = Static(0)

func (s Static) Price(ctx context.Context, symbol string) (float64, error) {
	return float64(s), nil
}

type quoteFunc func(symbol string) (*finance.Quote, error)

type cached struct {
	price float64
	at    time.Time
}

// Yahoo reads regular market prices from Yahoo Finance, caching each symbol for ttl.
type Yahoo struct {
	get   quoteFunc
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	cache map[string]cached
}

var _ interfaces.PriceProvider = (*Yahoo)(nil)

func NewYahoo(ttl time.Duration) *Yahoo {
	return &Yahoo{get: quote.Get, ttl: ttl, now: time.Now, cache: map[string]cached{}}
}

func (y *Yahoo) Price(ctx context.Context, symbol string) (float64, error) {
	ticker := YahooSymbol(symbol)

	y.mu.Lock()
	if c, ok := y.cache[ticker]; ok && y.now().Sub(c.at) < y.ttl {
		y.mu.Unlock()
		return c.price, nil
	}
	y.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	q, err := y.get(ticker)
	if err != nil {
		return 0, fmt.Errorf("failed to get quote for %s: %w", ticker, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("no market price for %s", ticker)
	}

	y.mu.Lock()
	y.cache[ticker] = cached{price: q.RegularMarketPrice, at: y.now()}
	y.mu.Unlock()
	return q.RegularMarketPrice, nil
}

// YahooSymbol maps a bot trading pair to a Yahoo ticker: six-letter currency pairs get
// the =X suffix and slash-separated pairs become dash-separated.
func YahooSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(s, "/") {
		return strings.ReplaceAll(s, "/", "-")
	}
	if len(s) == 6 && isLetters(s) {
		return s + "=X"
	}
	return s
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
