package paper

import (
	"context"
	"testing"
	"time"

	"trading-bots/internal/types"
)

func TestSubmitOrderSimulatesFill(t *testing.T) {
	b := New()
	b.now = func() time.Time { return time.Unix(0, 42) }

	s, err := b.Authenticate(context.Background(), types.BrokerCredentials{})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	inst, ok, _ := s.ResolveInstrument(context.Background(), " eurusd ")
	if !ok || inst != "EURUSD" {
		t.Fatalf("unexpected instrument %q", inst)
	}
	res, err := s.SubmitOrder(context.Background(), types.OrderRequest{Instrument: inst, Direction: "BUY", Size: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != types.OrderAccepted || res.DealReference != "SIM-42" || res.Level != nil {
		t.Fatalf("unexpected result %+v", res)
	}
}
