package interfaces

import (
	"context"

	"trading-bots/internal/types"
)

// Agent is one step of the analysis chain.
type Agent[In, Out any] interface {
	Analyze(ctx context.Context, in In) (Out, error)
}

type (
	TechnicalAnalyst = Agent[types.TechnicalInput, types.TechnicalAnalysis]
	RiskManager      = Agent[types.RiskInput, types.RiskAssessment]
	DecisionMaker    = Agent[types.DecisionInput, types.TradingDecision]
)

type ChartProvider interface {
	GenerateChart(ctx context.Context, symbol, timeframe string) (types.Chart, error)
}

type PriceProvider interface {
	Price(ctx context.Context, symbol string) (float64, error)
}
