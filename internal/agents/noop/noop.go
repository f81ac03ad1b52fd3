// Package noop provides agents that never call a model. Every decision is HOLD.
package noop

import (
	"context"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/types"
)

type Technical struct{}

var _ interfaces.TechnicalAnalyst = Technical{}

func (Technical) Analyze(ctx context.Context, in types.TechnicalInput) (types.TechnicalAnalysis, error) {
	return types.TechnicalAnalysis{Summary: "noop_technical_analysis", Trend: "NEUTRAL"}, nil
}

type Risk struct{}

var _ interfaces.RiskManager = Risk{}

func (Risk) Analyze(ctx context.Context, in types.RiskInput) (types.RiskAssessment, error) {
	return types.RiskAssessment{Summary: "noop_risk_assessment"}, nil
}

type Decision struct{}

var _ interfaces.DecisionMaker = Decision{}

func (Decision) Analyze(ctx context.Context, in types.DecisionInput) (types.TradingDecision, error) {
	return types.TradingDecision{Decision: types.DecisionHold, Reasoning: "noop_decider_fallback"}, nil
}
