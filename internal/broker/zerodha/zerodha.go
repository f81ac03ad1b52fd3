// Package zerodha places orders through Kite Connect.
package zerodha

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

// kiteAPI is the subset of *kiteconnect.Client used here.
type kiteAPI interface {
	SetAccessToken(accessToken string)
	GenerateSession(requestToken string, apiSecret string) (kiteconnect.UserSession, error)
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	PlaceOrder(variety string, orderParams kiteconnect.OrderParams) (kiteconnect.OrderResponse, error)
	GetOrderHistory(orderID string) ([]kiteconnect.Order, error)
}

type Params struct {
	Exchange     string
	Product      string
	// OrderPolls bounds the order history reads made after placing an order.
	OrderPolls   int
	PollInterval time.Duration
}

type Zerodha struct {
	p         Params
	newClient func(apiKey string) kiteAPI

	mu      sync.Mutex
	mappers map[string]*instrumentMapper
}

var _ interfaces.Broker = (*Zerodha)(nil)

func NewZerodha(p Params) *Zerodha {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	if p.Product == "" {
		p.Product = kiteconnect.ProductMIS
	}
	if p.OrderPolls <= 0 {
		p.OrderPolls = 3
	}
	if p.PollInterval <= 0 {
		p.PollInterval = time.Second
	}
	return &Zerodha{
		p:         p,
		newClient: func(apiKey string) kiteAPI { return kiteconnect.New(apiKey) },
		mappers:   make(map[string]*instrumentMapper),
	}
}

func (z *Zerodha) Name() string { return models.BrokerZerodha }

// Authenticate uses the stored access token, or exchanges Identifier as a request token when only the api secret is stored.
func (z *Zerodha) Authenticate(ctx context.Context, creds types.BrokerCredentials) (interfaces.BrokerSession, error) {
	if creds.APIKey == "" {
		return nil, errors.New("zerodha: api key is required")
	}
	kc := z.newClient(creds.APIKey)

	switch {
	case creds.AccessToken != "":
		kc.SetAccessToken(creds.AccessToken)
	case creds.APISecret != "" && creds.Identifier != "":
		us, err := kc.GenerateSession(creds.Identifier, creds.APISecret)
		if err != nil {
			return nil, fmt.Errorf("zerodha: generate session: %w", err)
		}
		kc.SetAccessToken(us.AccessToken)
	default:
		return nil, errors.New("zerodha: access token or api secret with request token is required")
	}

	logger.Debug(ctx, "Kite session ready", "instance_id", creds.InstanceID, "exchange", z.p.Exchange)
	return &session{z: z, kc: kc}, nil
}

// mapper loads the exchange instrument list once per process.
func (z *Zerodha) mapper(kc kiteAPI) (*instrumentMapper, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if m, ok := z.mappers[z.p.Exchange]; ok {
		return m, nil
	}
	instruments, err := kc.GetInstrumentsByExchange(z.p.Exchange)
	if err != nil {
		return nil, fmt.Errorf("zerodha: load instruments: %w", err)
	}
	m := newInstrumentMapper()
	for _, inst := range instruments {
		m.addMapping(inst.Tradingsymbol, uint32(inst.InstrumentToken))
	}
	z.mappers[z.p.Exchange] = m
	return m, nil
}

type session struct {
	z  *Zerodha
	kc kiteAPI
}

func (s *session) ResolveInstrument(ctx context.Context, symbol string) (string, bool, error) {
	m, err := s.z.mapper(s.kc)
	if err != nil {
		return "", false, err
	}
	token, ok := m.getToken(symbol)
	if !ok {
		return "", false, nil
	}
	return m.getSymbol(token), true, nil
}

// SubmitOrder places a market order for a whole number of shares and reads its latest status.
func (s *session) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	qty := int(math.Round(req.Size))
	if qty < 1 {
		return types.OrderResult{Status: types.OrderRejected, Reason: fmt.Sprintf("quantity %v rounds below one share", req.Size)}, nil
	}

	side := kiteconnect.TransactionTypeBuy
	if strings.EqualFold(req.Direction, "SELL") {
		side = kiteconnect.TransactionTypeSell
	}

	resp, err := s.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        s.z.p.Exchange,
		Tradingsymbol:   req.Instrument,
		Validity:        kiteconnect.ValidityDay,
		Product:         s.z.p.Product,
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: side,
		Quantity:        qty,
		Tag:             "trading-bots",
	})
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("zerodha: place order: %w", err)
	}

	order, err := s.latest(ctx, resp.OrderID)
	if err != nil {
		return types.OrderResult{}, err
	}
	return toResult(resp.OrderID, order)
}

func (s *session) latest(ctx context.Context, orderID string) (kiteconnect.Order, error) {
	var last kiteconnect.Order
	for attempt := 1; attempt <= s.z.p.OrderPolls; attempt++ {
		history, err := s.kc.GetOrderHistory(orderID)
		if err != nil {
			return last, fmt.Errorf("zerodha: order history: %w", err)
		}
		if len(history) > 0 {
			last = history[len(history)-1]
			if terminal(last.Status) {
				return last, nil
			}
		}
		if attempt == s.z.p.OrderPolls {
			break
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(s.z.p.PollInterval):
		}
	}
	if last.Status == "" {
		return last, fmt.Errorf("zerodha: order %s has no history after %d polls", orderID, s.z.p.OrderPolls)
	}
	return last, nil
}

func terminal(status string) bool {
	switch strings.ToUpper(status) {
	case "COMPLETE", "REJECTED", "CANCELLED":
		return true
	}
	return false
}

// toResult maps the last known order state. Orders still working on the
// exchange (OPEN, TRIGGER PENDING) count as accepted.
func toResult(orderID string, o kiteconnect.Order) (types.OrderResult, error) {
	res := types.OrderResult{DealReference: orderID, DealID: o.ExchangeOrderID}
	switch strings.ToUpper(o.Status) {
	case "REJECTED", "CANCELLED":
		res.Status = types.OrderRejected
		res.Reason = o.StatusMessage
	case "COMPLETE", "OPEN", "TRIGGER PENDING":
		res.Status = types.OrderAccepted
		if o.AveragePrice > 0 {
			level := o.AveragePrice
			res.Level = &level
		}
	default:
		return types.OrderResult{}, fmt.Errorf("zerodha: order %s in unexpected status %q", orderID, o.Status)
	}
	return res, nil
}
