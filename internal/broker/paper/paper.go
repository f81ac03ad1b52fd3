// Package paper simulates fills for dry runs.
package paper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

type Broker struct {
	now func() time.Time
}

var _ interfaces.Broker = (*Broker)(nil)

func New() *Broker { return &Broker{now: time.Now} }

func (b *Broker) Name() string { return models.BrokerPaper }

func (b *Broker) Authenticate(ctx context.Context, creds types.BrokerCredentials) (interfaces.BrokerSession, error) {
	return b, nil
}

func (b *Broker) ResolveInstrument(ctx context.Context, symbol string) (string, bool, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return s, s != "", nil
}

// SubmitOrder accepts every order. The fill level is left empty so the caller uses the market price.
func (b *Broker) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return types.OrderResult{}, err
	}
	ref := fmt.Sprintf("SIM-%d", b.now().UnixNano())
	return types.OrderResult{
		Status:        types.OrderAccepted,
		DealReference: ref,
		DealID:        ref,
	}, nil
}
