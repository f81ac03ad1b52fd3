package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

const (
	defaultRecentTrades = 10
	defaultTimeframe    = "M1"
	defaultListLimit    = 10
	inactiveMessage     = "Bot is not active"
)

// Deps are the collaborators of a Service. Locker and Journal may be nil.
type Deps struct {
	Store     interfaces.Store
	Charts    interfaces.ChartProvider
	Prices    interfaces.PriceProvider
	Technical interfaces.TechnicalAnalyst
	Risk      interfaces.RiskManager
	Decision  interfaces.DecisionMaker
	Brokers   interfaces.BrokerFactory
	Locker    interfaces.EvaluationLocker
	Journal   interfaces.Journal

	RecentTradesLimit int
	DefaultTimeframe  string
}

// Service runs the bot evaluation pipeline. It keeps no state between calls.
type Service struct {
	store     interfaces.Store
	charts    interfaces.ChartProvider
	prices    interfaces.PriceProvider
	technical interfaces.TechnicalAnalyst
	risk      interfaces.RiskManager
	decision  interfaces.DecisionMaker
	brokers   interfaces.BrokerFactory
	locker    interfaces.EvaluationLocker
	journal   interfaces.Journal

	recentTrades     int
	defaultTimeframe string
	now              func() time.Time
}

func newService(d Deps) *Service {
	s := &Service{
		store:            d.Store,
		charts:           d.Charts,
		prices:           d.Prices,
		technical:        d.Technical,
		risk:             d.Risk,
		decision:         d.Decision,
		brokers:          d.Brokers,
		locker:           d.Locker,
		journal:          d.Journal,
		recentTrades:     d.RecentTradesLimit,
		defaultTimeframe: d.DefaultTimeframe,
		now:              time.Now,
	}
	if s.recentTrades <= 0 {
		s.recentTrades = defaultRecentTrades
	}
	if s.defaultTimeframe == "" {
		s.defaultTimeframe = defaultTimeframe
	}
	return s
}

// Evaluate runs one decision cycle for botID. Failures are reported in the outcome.
func (s *Service) Evaluate(ctx context.Context, botID string) *types.EvaluationOutcome {
	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, lockKey(botID))
		if err != nil {
			return s.fail(ctx, botID, fmt.Errorf("acquire evaluation lock: %w", err))
		}
		if !ok {
			return s.fail(ctx, botID, fmt.Errorf("%w for bot %s", ErrEvaluationInProgress, botID))
		}
		defer unlock()
	}

	out, err := s.evaluate(ctx, botID)
	if err != nil {
		return s.fail(ctx, botID, err)
	}
	return out
}

func lockKey(botID string) string {
	return "bot-evaluation:" + botID
}

func (s *Service) evaluate(ctx context.Context, botID string) (*types.EvaluationOutcome, error) {
	logger.Info(ctx, "Starting bot evaluation", "bot_id", botID)

	bot, err := s.store.FindBotByID(ctx, botID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBotNotFound, botID)
	}
	if err != nil {
		return nil, fmt.Errorf("load bot %s: %w", botID, err)
	}

	if !bot.IsActive {
		logger.Info(ctx, "Bot is not active, skipping evaluation", "bot_id", botID)
		return &types.EvaluationOutcome{
			BotID:   botID,
			Success: true,
			Data:    &types.EvaluationData{Message: inactiveMessage},
		}, nil
	}

	logger.Info(ctx, "Evaluating bot", "bot_id", botID, "name", bot.Name, "symbol", bot.TradingPairSymbol, "timeframe", bot.Timeframe)

	op := logger.StartOperation(ctx, "evaluation.chart", "bot_id", botID, "symbol", bot.TradingPairSymbol)
	chart, err := s.charts.GenerateChart(op.GetContext(), bot.TradingPairSymbol, bot.Timeframe)
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("%w: %w", ErrChartGeneration, err)
	}
	op.End("chart_url", chart.URL)

	op = logger.StartOperation(ctx, "evaluation.portfolio", "bot_id", botID)
	portfolio := s.collectPortfolio(op.GetContext(), bot)
	op.End("open_positions", len(portfolio.OpenPositions))

	op = logger.StartOperation(ctx, "evaluation.analysis", "bot_id", botID)
	analysis, err := s.analyze(op.GetContext(), bot, chart.URL, portfolio)
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	op.End("decision", string(analysis.Decision), "confidence", analysis.Confidence)

	op = logger.StartOperation(ctx, "evaluation.record", "bot_id", botID)
	evaluation, err := s.record(op.GetContext(), bot, chart.URL, analysis, portfolio)
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	op.End("evaluation_id", evaluation.ID)

	logger.Decision(ctx, bot.ID, analysis.Symbol, string(analysis.Decision), analysis.Confidence, analysis.Reasoning, "evaluation_id", evaluation.ID)
	if s.journal != nil {
		s.journal.RecordDecision(bot.ID, analysis, evaluation.ID)
	}

	var tradeResult *types.TradeExecutionResult
	if bot.IsAITradingActive && analysis.Decision.Actionable() {
		op = logger.StartOperation(ctx, "evaluation.trade", "bot_id", botID, "decision", string(analysis.Decision))
		tradeResult = s.executeTrade(op.GetContext(), bot, analysis, evaluation.ID)
		op.End("success", tradeResult.Success)
	}
	tradeExecuted := tradeResult != nil && tradeResult.Success

	logger.Info(ctx, "Bot evaluation completed",
		"bot_id", botID,
		"decision", analysis.Decision,
		"trade_executed", tradeExecuted,
		"evaluation_id", evaluation.ID,
	)

	return &types.EvaluationOutcome{
		BotID:   botID,
		Success: true,
		Data: &types.EvaluationData{
			Evaluation:  evaluation,
			Analysis:    analysis,
			TradeResult: tradeResult,
			ChartURL:    chart.URL,
		},
		TradeExecuted: tradeExecuted,
		EvaluationID:  evaluation.ID,
	}, nil
}

func (s *Service) fail(ctx context.Context, botID string, err error) *types.EvaluationOutcome {
	logger.ErrorWithErr(ctx, "Bot evaluation failed", err, "bot_id", botID)
	return &types.EvaluationOutcome{
		BotID:   botID,
		Success: false,
		Error:   errorMessage(err),
	}
}

// ListEvaluations returns the newest evaluations of botID with their trade summaries.
// Read errors yield an empty list.
func (s *Service) ListEvaluations(ctx context.Context, botID string, limit int) []models.Evaluation {
	if limit <= 0 {
		limit = defaultListLimit
	}
	evaluations, err := s.store.ListEvaluationsByBot(ctx, botID, limit)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to get bot evaluations", err, "bot_id", botID)
		return []models.Evaluation{}
	}
	return evaluations
}

func (s *Service) CreateEvaluation(ctx context.Context, botID, userID string) *types.EvaluationOutcome {
	logger.Info(ctx, "Creating evaluation", "bot_id", botID, "user_id", userID)
	return s.Evaluate(ctx, botID)
}
