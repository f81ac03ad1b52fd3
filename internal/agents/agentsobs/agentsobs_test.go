package agentsobs

import (
	"context"
	"errors"
	"testing"

	"trading-bots/internal/agents/noop"
	"trading-bots/internal/interfaces"
	"trading-bots/internal/types"
)

type failing struct{}

func (failing) Analyze(ctx context.Context, in types.RiskInput) (types.RiskAssessment, error) {
	return types.RiskAssessment{}, errors.New("boom")
}

func TestWrapPassesThrough(t *testing.T) {
	var dm interfaces.DecisionMaker = Wrap[types.DecisionInput, types.TradingDecision]("decision", noop.Decision{})
	d, err := dm.Analyze(context.Background(), types.DecisionInput{})
	if err != nil || d.Decision != types.DecisionHold {
		t.Fatalf("unexpected result %+v, %v", d, err)
	}

	rm := Wrap[types.RiskInput, types.RiskAssessment]("risk", failing{})
	if _, err := rm.Analyze(context.Background(), types.RiskInput{}); err == nil || err.Error() != "boom" {
		t.Fatalf("expected inner error, got %v", err)
	}
}
