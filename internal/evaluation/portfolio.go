package evaluation

import (
	"context"
	"time"

	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

// collectPortfolio gathers the advisory account snapshot. Any read error yields an empty context.
func (s *Service) collectPortfolio(ctx context.Context, bot *models.Bot) *types.PortfolioContext {
	pc, err := s.readPortfolio(ctx, bot.UserID, bot.ID)
	if err != nil {
		logger.Warn(ctx, "Failed to collect portfolio context", "bot_id", bot.ID, "error", err)
		return &types.PortfolioContext{}
	}
	return pc
}

func (s *Service) readPortfolio(ctx context.Context, userID, botID string) (*types.PortfolioContext, error) {
	portfolio, err := s.store.FindPortfolioByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	positions, err := s.store.ListPositionsByBot(ctx, botID)
	if err != nil {
		return nil, err
	}
	trades, err := s.store.ListRecentTradesByUser(ctx, userID, s.recentTrades)
	if err != nil {
		return nil, err
	}
	metrics, err := s.store.BotMetrics(ctx, botID)
	if err != nil {
		return nil, err
	}

	return &types.PortfolioContext{
		Portfolio:     portfolio,
		OpenPositions: positions,
		RecentTrades:  trades,
		BotMetrics:    metrics,
		Timestamp:     s.now().UTC().Format(time.RFC3339Nano),
	}, nil
}
