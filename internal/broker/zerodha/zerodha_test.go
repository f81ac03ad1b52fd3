package zerodha

import (
	"context"
	"errors"
	"testing"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trading-bots/internal/types"
)

type fakeKite struct {
	accessToken     string
	instrumentCalls int
	history         [][]kiteconnect.Order
	historyCalls    int
	placed          kiteconnect.OrderParams
	sessionErr      error
}

func (f *fakeKite) SetAccessToken(token string) { f.accessToken = token }

func (f *fakeKite) GenerateSession(requestToken, apiSecret string) (kiteconnect.UserSession, error) {
	if f.sessionErr != nil {
		return kiteconnect.UserSession{}, f.sessionErr
	}
	var us kiteconnect.UserSession
	us.AccessToken = "generated-" + requestToken
	return us, nil
}

func (f *fakeKite) GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error) {
	f.instrumentCalls++
	return kiteconnect.Instruments{
		{InstrumentToken: 738561, Tradingsymbol: "RELIANCE", Exchange: exchange},
		{InstrumentToken: 2953217, Tradingsymbol: "TCS", Exchange: exchange},
	}, nil
}

func (f *fakeKite) PlaceOrder(variety string, p kiteconnect.OrderParams) (kiteconnect.OrderResponse, error) {
	f.placed = p
	return kiteconnect.OrderResponse{OrderID: "240101000000001"}, nil
}

func (f *fakeKite) GetOrderHistory(orderID string) ([]kiteconnect.Order, error) {
	i := f.historyCalls
	f.historyCalls++
	if i >= len(f.history) {
		i = len(f.history) - 1
	}
	return f.history[i], nil
}

func newTestBroker(kc *fakeKite) *Zerodha {
	z := NewZerodha(Params{PollInterval: time.Millisecond})
	z.newClient = func(string) kiteAPI { return kc }
	return z
}

func TestSubmitOrderComplete(t *testing.T) {
	kc := &fakeKite{history: [][]kiteconnect.Order{
		{{Status: "OPEN"}},
		{{Status: "OPEN"}, {Status: "COMPLETE", ExchangeOrderID: "ex-1", AveragePrice: 2450.5}},
	}}
	z := newTestBroker(kc)
	ctx := context.Background()

	s, err := z.Authenticate(ctx, types.BrokerCredentials{APIKey: "k", AccessToken: "tok"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if kc.accessToken != "tok" {
		t.Fatalf("access token not set")
	}

	sym, ok, err := s.ResolveInstrument(ctx, "reliance")
	if err != nil || !ok || sym != "RELIANCE" {
		t.Fatalf("resolve: %q %v %v", sym, ok, err)
	}
	if _, ok, _ := s.ResolveInstrument(ctx, "EURUSD"); ok {
		t.Fatalf("unexpected match for EURUSD")
	}
	if kc.instrumentCalls != 1 {
		t.Fatalf("instruments should load once, got %d", kc.instrumentCalls)
	}

	res, err := s.SubmitOrder(ctx, types.OrderRequest{Instrument: sym, Direction: "SELL", Size: 2.4})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != types.OrderAccepted || res.DealReference != "240101000000001" || res.DealID != "ex-1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Level == nil || *res.Level != 2450.5 {
		t.Fatalf("expected average price as level")
	}
	if kc.placed.Quantity != 2 || kc.placed.TransactionType != kiteconnect.TransactionTypeSell || kc.placed.Product != kiteconnect.ProductMIS {
		t.Fatalf("unexpected order params %+v", kc.placed)
	}
}

func TestSubmitOrderRejected(t *testing.T) {
	kc := &fakeKite{history: [][]kiteconnect.Order{{{Status: "REJECTED", StatusMessage: "insufficient margin"}}}}
	s, _ := newTestBroker(kc).Authenticate(context.Background(), types.BrokerCredentials{APIKey: "k", AccessToken: "tok"})

	res, err := s.SubmitOrder(context.Background(), types.OrderRequest{Instrument: "TCS", Direction: "BUY", Size: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != types.OrderRejected || res.Reason != "insufficient margin" {
		t.Fatalf("unexpected result %+v", res)
	}

	res, _ = s.SubmitOrder(context.Background(), types.OrderRequest{Instrument: "TCS", Direction: "BUY", Size: 0.2})
	if res.Status != types.OrderRejected {
		t.Fatalf("fractional size should be rejected, got %+v", res)
	}
}

func TestSubmitOrderUnconfirmed(t *testing.T) {
	cases := map[string][][]kiteconnect.Order{
		"empty history":  {{}},
		"unknown status": {{{Status: "VALIDATION PENDING"}}},
	}
	for name, history := range cases {
		t.Run(name, func(t *testing.T) {
			kc := &fakeKite{history: history}
			s, _ := newTestBroker(kc).Authenticate(context.Background(), types.BrokerCredentials{APIKey: "k", AccessToken: "tok"})

			res, err := s.SubmitOrder(context.Background(), types.OrderRequest{Instrument: "TCS", Direction: "BUY", Size: 1})
			if err == nil {
				t.Fatalf("expected error, got %+v", res)
			}
			if res.Status == types.OrderAccepted {
				t.Fatalf("order must not be reported as accepted")
			}
		})
	}
}

func TestSubmitOrderStillOpen(t *testing.T) {
	kc := &fakeKite{history: [][]kiteconnect.Order{{{Status: "TRIGGER PENDING", ExchangeOrderID: "ex-2"}}}}
	s, _ := newTestBroker(kc).Authenticate(context.Background(), types.BrokerCredentials{APIKey: "k", AccessToken: "tok"})

	res, err := s.SubmitOrder(context.Background(), types.OrderRequest{Instrument: "TCS", Direction: "BUY", Size: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != types.OrderAccepted || res.Level != nil {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAuthenticateWithRequestToken(t *testing.T) {
	kc := &fakeKite{}
	z := newTestBroker(kc)
	if _, err := z.Authenticate(context.Background(), types.BrokerCredentials{APIKey: "k", APISecret: "s", Identifier: "req"}); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if kc.accessToken != "generated-req" {
		t.Fatalf("expected generated token, got %q", kc.accessToken)
	}

	kc.sessionErr = errors.New("token expired")
	if _, err := z.Authenticate(context.Background(), types.BrokerCredentials{APIKey: "k", APISecret: "s", Identifier: "req"}); err == nil {
		t.Fatalf("expected session error")
	}
	if _, err := z.Authenticate(context.Background(), types.BrokerCredentials{APIKey: "k"}); err == nil {
		t.Fatalf("expected missing token error")
	}
}
