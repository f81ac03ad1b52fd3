package chart

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/types"
)

// Mock returns a placeholder image URL after an optional delay.
type Mock struct {
	BaseURL string
	Delay   time.Duration
	now     func() time.Time
}

var _ interfaces.ChartProvider = (*Mock)(nil)

func NewMock(baseURL string, delay time.Duration) *Mock {
	return &Mock{BaseURL: strings.TrimRight(baseURL, "/"), Delay: delay, now: time.Now}
}

func (m *Mock) GenerateChart(ctx context.Context, symbol, timeframe string) (types.Chart, error) {
	if symbol == "" {
		return types.Chart{}, fmt.Errorf("symbol is required")
	}
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return types.Chart{}, ctx.Err()
		case <-t.C:
		}
	}
	return types.Chart{
		URL: fmt.Sprintf("%s/%s-%s-%d.png", m.BaseURL, symbol, timeframe, m.now().UnixMilli()),
	}, nil
}

// Template fills {symbol} and {timeframe} placeholders of a URL template, for example
// a hosted charting service that renders on request.
type Template struct {
	template string
}

var _ interfaces.ChartProvider = (*Template)(nil)

func NewTemplate(template string) *Template {
	return &Template{template: template}
}

func (t *Template) GenerateChart(ctx context.Context, symbol, timeframe string) (types.Chart, error) {
	if symbol == "" {
		return types.Chart{}, fmt.Errorf("symbol is required")
	}
	r := strings.NewReplacer(
		"{symbol}", url.PathEscape(symbol),
		"{timeframe}", url.PathEscape(timeframe),
	)
	u := r.Replace(t.template)
	if _, err := url.Parse(u); err != nil {
		return types.Chart{}, fmt.Errorf("invalid chart url %q: %w", u, err)
	}
	return types.Chart{URL: u}, nil
}
