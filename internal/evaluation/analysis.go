package evaluation

import (
	"context"
	"fmt"

	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

// analyze runs technical, risk and decision agents in order, feeding each the previous output.
func (s *Service) analyze(ctx context.Context, bot *models.Bot, chartURL string, portfolio *types.PortfolioContext) (*types.AnalysisResult, error) {
	symbol := bot.TradingPairSymbol
	logger.Info(ctx, "Performing AI analysis", "bot_id", bot.ID, "symbol", symbol)

	price, err := s.prices.Price(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("market price: %w", err)
	}

	technical, err := s.technical.Analyze(ctx, types.TechnicalInput{
		Symbol:      symbol,
		Timeframe:   bot.Timeframe,
		ChartURL:    chartURL,
		MarketPrice: price,
	})
	if err != nil {
		return nil, fmt.Errorf("technical analysis: %w", err)
	}

	risk, err := s.risk.Analyze(ctx, types.RiskInput{
		Symbol:      symbol,
		Portfolio:   portfolio,
		MarketPrice: price,
		Technical:   technical,
	})
	if err != nil {
		return nil, fmt.Errorf("risk assessment: %w", err)
	}

	decision, err := s.decision.Analyze(ctx, types.DecisionInput{
		Symbol:      symbol,
		Technical:   technical,
		Risk:        risk,
		Portfolio:   portfolio,
		MarketPrice: price,
	})
	if err != nil {
		return nil, fmt.Errorf("trading decision: %w", err)
	}
	decision.Decision = types.ParseDecision(string(decision.Decision))

	return &types.AnalysisResult{
		Symbol:      symbol,
		Timeframe:   bot.Timeframe,
		Decision:    decision.Decision,
		Confidence:  decision.Confidence,
		Reasoning:   decision.Reasoning,
		MarketPrice: price,

		Technical: technical,
		Risk:      risk,
		Final:     decision,

		RecommendedPositionSize: risk.RecommendedPositionSize,
		StopLoss:                risk.StopLoss,
		TakeProfit:              risk.TakeProfit,
		RiskScore:               risk.RiskScore,
	}, nil
}
