package brokerobs

import (
	"context"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/trace"
	"trading-bots/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware. Sessions it opens are wrapped too.
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{
		broker: broker,
	}
}

func (ob *observableBroker) Name() string { return ob.broker.Name() }

// Authenticate opens a session with observability. Credentials are never logged.
func (ob *observableBroker) Authenticate(ctx context.Context, creds types.BrokerCredentials) (interfaces.BrokerSession, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Authenticate")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Authenticating with broker", "broker", ob.broker.Name(), "instance_id", creds.InstanceID, "demo", creds.IsDemo)

	s, err := ob.broker.Authenticate(ctx, creds)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Broker authentication failed", err, "broker", ob.broker.Name(), "instance_id", creds.InstanceID)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Broker session opened", "broker", ob.broker.Name(), "instance_id", creds.InstanceID)
	return &observableSession{broker: ob.broker.Name(), session: s}, nil
}

type observableSession struct {
	broker  string
	session interfaces.BrokerSession
}

var _ interfaces.BrokerSession = (*observableSession)(nil)

// ResolveInstrument maps a symbol with observability
func (s *observableSession) ResolveInstrument(ctx context.Context, symbol string) (string, bool, error) {
	ctx, span := trace.StartSpan(ctx, "broker.ResolveInstrument")
	defer span.End()

	instrument, ok, err := s.session.ResolveInstrument(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to resolve instrument", err, "broker", s.broker, "symbol", symbol)
		return "", false, err
	}

	logger.DebugSkip(ctx, 1, "Instrument resolved", "broker", s.broker, "symbol", symbol, "instrument", instrument, "found", ok)
	return instrument, ok, nil
}

// SubmitOrder places an order with observability
func (s *observableSession) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "broker.SubmitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"broker", s.broker,
		"symbol", req.Symbol,
		"instrument", req.Instrument,
		"direction", req.Direction,
		"size", req.Size,
	)

	res, err := s.session.SubmitOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"broker", s.broker,
			"symbol", req.Symbol,
			"direction", req.Direction,
			"size", req.Size,
		)
		return types.OrderResult{}, err
	}

	if res.Status != types.OrderAccepted {
		logger.WarnSkip(ctx, 1, "Order rejected by broker",
			"broker", s.broker,
			"symbol", req.Symbol,
			"deal_reference", res.DealReference,
			"reason", res.Reason,
		)
		return res, nil
	}

	logger.InfoSkip(ctx, 1, "Order submitted",
		"broker", s.broker,
		"symbol", req.Symbol,
		"deal_reference", res.DealReference,
		"status", res.Status,
	)
	return res, nil
}
