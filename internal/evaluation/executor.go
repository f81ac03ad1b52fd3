package evaluation

import (
	"context"
	"fmt"

	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

const unknownReason = "Unknown reason"

// executeTrade places the order recommended by analysis. Every failure is reported in the result.
func (s *Service) executeTrade(ctx context.Context, bot *models.Bot, analysis *types.AnalysisResult, evaluationID string) (result *types.TradeExecutionResult) {
	logger.Info(ctx, "Executing trade from analysis", "bot_id", bot.ID, "decision", analysis.Decision)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("trade execution panicked: %v", r)
			logger.ErrorWithErr(ctx, "Trade execution failed", err, "bot_id", bot.ID)
			result = &types.TradeExecutionResult{Success: false, Error: errorMessage(err)}
		}
	}()

	trade, details, err := s.placeTrade(ctx, bot, analysis, evaluationID)
	if err != nil {
		logger.ErrorWithErr(ctx, "Trade execution failed", err, "bot_id", bot.ID)
		logger.Risk(ctx, bot.TradingPairSymbol, "TRADE_NOT_EXECUTED", "bot_id", bot.ID, "reason", err.Error())
		return &types.TradeExecutionResult{Success: false, Error: errorMessage(err)}
	}

	logger.Trade(ctx, bot.ID, trade.Symbol, trade.Side, trade.Size, trade.BrokerOrderID, "trade_id", trade.ID, "evaluation_id", evaluationID)
	if s.journal != nil {
		s.journal.RecordTrade(bot.ID, trade)
	}
	return &types.TradeExecutionResult{
		Success:          true,
		TradeID:          trade.ID,
		ExecutionDetails: details,
	}
}

func (s *Service) placeTrade(ctx context.Context, bot *models.Bot, analysis *types.AnalysisResult, evaluationID string) (*models.Trade, *types.ExecutionDetails, error) {
	cred := bot.BrokerCredential
	if !cred.HasPayload() {
		return nil, nil, ErrMissingCredentials
	}
	payload, err := cred.Payload()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMissingCredentials, err)
	}

	broker, err := s.brokers.ForCredential(cred)
	if err != nil {
		return nil, nil, err
	}

	session, err := broker.Authenticate(ctx, types.BrokerCredentials{
		APIKey:      payload.APIKey,
		Identifier:  payload.Identifier,
		Password:    payload.Password,
		APISecret:   payload.APISecret,
		AccessToken: payload.AccessToken,
		IsDemo:      cred.IsDemo,
		InstanceID:  "bot-" + bot.ID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	instrument, ok, err := session.ResolveInstrument(ctx, bot.TradingPairSymbol)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrUnknownInstrument, bot.TradingPairSymbol, err)
	}
	if !ok || instrument == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, bot.TradingPairSymbol)
	}

	direction := analysis.Decision.Direction()
	size := analysis.PositionSize(bot.MaxPositionSize)
	if size <= 0 {
		return nil, nil, fmt.Errorf("invalid position size %v for bot %s", size, bot.ID)
	}

	res, err := session.SubmitOrder(ctx, types.OrderRequest{
		Instrument: instrument,
		Symbol:     bot.TradingPairSymbol,
		Direction:  direction,
		Size:       size,
		StopLoss:   analysis.StopLoss,
		TakeProfit: analysis.TakeProfit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("submit order: %w", err)
	}
	if res.Status != types.OrderAccepted {
		reason := res.Reason
		if reason == "" {
			reason = unknownReason
		}
		return nil, nil, fmt.Errorf("%w: %s", ErrOrderRejected, reason)
	}

	entry := res.Level
	if entry == nil {
		entry = positive(analysis.MarketPrice)
	}
	now := s.now()
	trade := &models.Trade{
		UserID:        bot.UserID,
		BotID:         bot.ID,
		Symbol:        bot.TradingPairSymbol,
		Side:          direction,
		Type:          models.TradeTypeMarket,
		Size:          size,
		EntryPrice:    entry,
		StopLoss:      analysis.StopLoss,
		TakeProfit:    analysis.TakeProfit,
		Status:        models.TradeStatusFilled,
		BrokerOrderID: res.DealReference,
		BrokerTradeID: res.DealID,
		Reason:        analysis.Reasoning,
		Confidence:    analysis.Confidence,
		EvaluationID:  &evaluationID,
		OpenedAt:      &now,
	}
	if err := s.store.RecordTrade(ctx, trade, now); err != nil {
		return nil, nil, fmt.Errorf("record trade: %w", err)
	}

	return trade, &types.ExecutionDetails{
		DealReference: res.DealReference,
		DealID:        res.DealID,
		Direction:     direction,
		Size:          size,
		EntryPrice:    entry,
	}, nil
}
