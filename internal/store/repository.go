package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

// Repository implements interfaces.Store on gorm.
type Repository struct {
	db *gorm.DB
}

var _ interfaces.Store = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}

func (r *Repository) FindBotByID(ctx context.Context, id string) (*models.Bot, error) {
	var bot models.Bot
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Strategy").
		Preload("BrokerCredential").
		First(&bot, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &bot, nil
}

func (r *Repository) ListActiveBots(ctx context.Context) ([]models.Bot, error) {
	var bots []models.Bot
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc").
		Find(&bots).Error
	return bots, err
}

func (r *Repository) BotMetrics(ctx context.Context, botID string) (*types.BotMetrics, error) {
	var bot models.Bot
	err := r.db.WithContext(ctx).
		Select("id", "total_trades", "winning_trades", "total_profit", "max_drawdown").
		First(&bot, "id = ?", botID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &types.BotMetrics{
		TotalTrades:   bot.TotalTrades,
		WinningTrades: bot.WinningTrades,
		TotalProfit:   bot.TotalProfit,
		MaxDrawdown:   bot.MaxDrawdown,
	}, nil
}

func (r *Repository) FindPortfolioByUser(ctx context.Context, userID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		First(&portfolio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &portfolio, nil
}

func (r *Repository) ListPositionsByBot(ctx context.Context, botID string) ([]models.Position, error) {
	var positions []models.Position
	err := r.db.WithContext(ctx).Where("bot_id = ?", botID).Find(&positions).Error
	return positions, err
}

func (r *Repository) ListRecentTradesByUser(ctx context.Context, userID string, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

func (r *Repository) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *Repository) RecordTrade(ctx context.Context, trade *models.Trade, evaluatedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(trade).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Bot{}).
			Where("id = ?", trade.BotID).
			Updates(map[string]any{
				"total_trades":       gorm.Expr("total_trades + ?", 1),
				"last_evaluation_at": evaluatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update counters for bot %s: %w", trade.BotID, models.ErrNotFound)
		}
		return nil
	})
}

func (r *Repository) ListEvaluationsByBot(ctx context.Context, botID string, limit int) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Trades", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "evaluation_id", "symbol", "side", "size", "status", "profit_loss")
		}).
		Where("bot_id = ?", botID).
		Order("created_at desc").
		Limit(limit).
		Find(&evaluations).Error
	return evaluations, err
}
