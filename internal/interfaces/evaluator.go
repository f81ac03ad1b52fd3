package interfaces

import (
	"context"
	"time"

	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

// BotEvaluator runs the decision pipeline for a bot.
type BotEvaluator interface {
	Evaluate(ctx context.Context, botID string) *types.EvaluationOutcome
	ListEvaluations(ctx context.Context, botID string, limit int) []models.Evaluation
	// CreateEvaluation is kept for older callers; it runs Evaluate for botID.
	CreateEvaluation(ctx context.Context, botID, userID string) *types.EvaluationOutcome
}

// EvaluationLocker serialises evaluations per key. ok is false when the key is already held.
type EvaluationLocker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

// MetricsRecorder receives one sample per finished evaluation.
type MetricsRecorder interface {
	RecordEvaluation(ctx context.Context, outcome *types.EvaluationOutcome, took time.Duration)
	Close()
}

// Journal keeps an append-only audit trail of decisions and trades.
type Journal interface {
	RecordDecision(botID string, analysis *types.AnalysisResult, evaluationID string)
	RecordTrade(botID string, trade *models.Trade)
	Close() error
}
