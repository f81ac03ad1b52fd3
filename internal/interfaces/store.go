package interfaces

import (
	"context"
	"time"

	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

// Store is the persistence surface used by the evaluator and the scheduler.
type Store interface {
	// FindBotByID loads the bot with its owner, strategy and broker credential.
	FindBotByID(ctx context.Context, id string) (*models.Bot, error)
	ListActiveBots(ctx context.Context) ([]models.Bot, error)
	BotMetrics(ctx context.Context, botID string) (*types.BotMetrics, error)

	// FindPortfolioByUser returns nil, nil when the user has no portfolio.
	FindPortfolioByUser(ctx context.Context, userID string) (*models.Portfolio, error)
	ListPositionsByBot(ctx context.Context, botID string) ([]models.Position, error)
	ListRecentTradesByUser(ctx context.Context, userID string, limit int) ([]models.Trade, error)

	CreateEvaluation(ctx context.Context, e *models.Evaluation) error
	// RecordTrade inserts the trade, increments the bot's trade counter and stamps its last evaluation time.
	RecordTrade(ctx context.Context, trade *models.Trade, evaluatedAt time.Time) error
	ListEvaluationsByBot(ctx context.Context, botID string, limit int) ([]models.Evaluation, error)
}
