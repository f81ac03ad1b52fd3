package evaluation

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

const unknownSymbol = "UNKNOWN"

// record persists the evaluation row for analysis.
func (s *Service) record(ctx context.Context, bot *models.Bot, chartURL string, analysis *types.AnalysisResult, portfolio *types.PortfolioContext) (*models.Evaluation, error) {
	aiResponse, err := json.Marshal(analysis)
	if err != nil {
		return nil, err
	}
	portfolioData, err := json.Marshal(portfolio)
	if err != nil {
		return nil, err
	}

	symbol := analysis.Symbol
	if symbol == "" {
		symbol = unknownSymbol
	}
	timeframe := analysis.Timeframe
	if timeframe == "" {
		timeframe = s.defaultTimeframe
	}

	evaluation := &models.Evaluation{
		BotID:         bot.ID,
		UserID:        bot.UserID,
		Symbol:        symbol,
		Timeframe:     timeframe,
		ChartURL:      chartURL,
		Decision:      string(analysis.Decision),
		Confidence:    analysis.Confidence,
		Reasoning:     analysis.Reasoning,
		ChartAnalysis: analysis.Technical.Summary,
		RiskScore:     analysis.RiskScore,
		PositionSize:  analysis.RecommendedPositionSize,
		StopLoss:      analysis.StopLoss,
		TakeProfit:    analysis.TakeProfit,
		MarketPrice:   positive(analysis.MarketPrice),
		AIResponse:    datatypes.JSON(aiResponse),
		PortfolioData: datatypes.JSON(portfolioData),
		StartDate:     s.now(),
		Success:       true,
	}
	if err := s.store.CreateEvaluation(ctx, evaluation); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Created evaluation record", "bot_id", bot.ID, "evaluation_id", evaluation.ID)
	return evaluation, nil
}

// positive returns a pointer to v, or nil when v is not a usable price.
func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
