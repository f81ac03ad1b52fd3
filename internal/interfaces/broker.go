package interfaces

import (
	"context"

	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

// Broker opens authenticated sessions against one brokerage.
type Broker interface {
	Name() string
	Authenticate(ctx context.Context, creds types.BrokerCredentials) (BrokerSession, error)
}

// BrokerSession is an authenticated broker connection. It is used for a single trade.
type BrokerSession interface {
	// ResolveInstrument maps a trading symbol to the broker's instrument id. ok is false when nothing matches.
	ResolveInstrument(ctx context.Context, symbol string) (instrument string, ok bool, err error)
	SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)
}

// BrokerFactory picks the Broker for a stored credential.
type BrokerFactory interface {
	ForCredential(cred *models.BrokerCredential) (Broker, error)
}
