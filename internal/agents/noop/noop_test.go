package noop

import (
	"context"
	"testing"

	"trading-bots/internal/types"
)

func TestDecisionAlwaysHolds(t *testing.T) {
	d, err := Decision{}.Analyze(context.Background(), types.DecisionInput{Symbol: "EURUSD", MarketPrice: 1.1})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if d.Decision != types.DecisionHold || d.Decision.Actionable() {
		t.Fatalf("expected HOLD, got %+v", d)
	}
}
