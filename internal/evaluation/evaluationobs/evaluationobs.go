package evaluationobs

import (
	"context"
	"time"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/trace"
	"trading-bots/internal/types"
)

type observableEvaluator struct {
	evaluator interfaces.BotEvaluator
	metrics   interfaces.MetricsRecorder
}

var _ interfaces.BotEvaluator = (*observableEvaluator)(nil)

// Wrap adds tracing, logging and, when metrics is not nil, one metrics sample per evaluation.
func Wrap(ev interfaces.BotEvaluator, metrics interfaces.MetricsRecorder) interfaces.BotEvaluator {
	return &observableEvaluator{
		evaluator: ev,
		metrics:   metrics,
	}
}

func (oe *observableEvaluator) Evaluate(ctx context.Context, botID string) *types.EvaluationOutcome {
	ctx, span := trace.StartSpan(ctx, "evaluation.Evaluate")
	defer span.End()

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Starting evaluation cycle", "bot_id", botID)

	out := oe.evaluator.Evaluate(ctx, botID)
	took := time.Since(start)

	if oe.metrics != nil {
		oe.metrics.RecordEvaluation(ctx, out, took)
	}

	if !out.Success {
		// The service already logged the cause at error level.
		logger.InfoSkip(ctx, 1, "Evaluation cycle failed",
			"bot_id", botID,
			"error", out.Error,
			"duration_ms", took.Milliseconds(),
		)
		return out
	}

	fields := []any{
		"bot_id", botID,
		"trade_executed", out.TradeExecuted,
		"duration_ms", took.Milliseconds(),
	}
	if out.Data != nil && out.Data.Analysis != nil {
		fields = append(fields,
			"decision", out.Data.Analysis.Decision,
			"confidence", out.Data.Analysis.Confidence,
			"evaluation_id", out.EvaluationID,
		)
	}
	logger.InfoSkip(ctx, 1, "Evaluation cycle completed", fields...)
	return out
}

func (oe *observableEvaluator) ListEvaluations(ctx context.Context, botID string, limit int) []models.Evaluation {
	ctx, span := trace.StartSpan(ctx, "evaluation.ListEvaluations")
	defer span.End()

	list := oe.evaluator.ListEvaluations(ctx, botID, limit)
	logger.DebugSkip(ctx, 1, "Evaluations listed", "bot_id", botID, "limit", limit, "count", len(list))
	return list
}

func (oe *observableEvaluator) CreateEvaluation(ctx context.Context, botID, userID string) *types.EvaluationOutcome {
	ctx, span := trace.StartSpan(ctx, "evaluation.CreateEvaluation")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Legacy evaluation requested", "bot_id", botID, "user_id", userID)
	return oe.Evaluate(ctx, botID)
}
