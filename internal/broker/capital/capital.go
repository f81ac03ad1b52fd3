// Package capital talks to the Capital.com REST API.
package capital

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

const (
	headerAPIKey        = "X-CAP-API-KEY"
	headerCST           = "CST"
	headerSecurityToken = "X-SECURITY-TOKEN"
)

type Config struct {
	LiveURL           string
	DemoURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	// ConfirmAttempts bounds the polls of /confirms while a deal is still pending.
	ConfirmAttempts   int
	ConfirmInterval   time.Duration
}

type Broker struct {
	cfg     Config
	limiter *rate.Limiter
}

var _ interfaces.Broker = (*Broker)(nil)

// New returns a Capital.com broker. One limiter is shared by every session it opens.
func New(cfg Config) *Broker {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConfirmAttempts <= 0 {
		cfg.ConfirmAttempts = 3
	}
	if cfg.ConfirmInterval <= 0 {
		cfg.ConfirmInterval = 500 * time.Millisecond
	}
	return &Broker{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

func (b *Broker) Name() string { return models.BrokerCapital }

type sessionRequest struct {
	Identifier        string `json:"identifier"`
	Password          string `json:"password"`
	EncryptedPassword bool   `json:"encryptedPassword"`
}

type apiError struct {
	ErrorCode string `json:"errorCode"`
}

// Authenticate opens a session on the demo or live host depending on creds.IsDemo.
func (b *Broker) Authenticate(ctx context.Context, creds types.BrokerCredentials) (interfaces.BrokerSession, error) {
	if creds.APIKey == "" || creds.Identifier == "" || creds.Password == "" {
		return nil, errors.New("capital: api key, identifier and password are required")
	}

	baseURL := b.cfg.LiveURL
	if creds.IsDemo {
		baseURL = b.cfg.DemoURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(b.cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader(headerAPIKey, creds.APIKey)

	s := &session{client: client, limiter: b.limiter, cfg: b.cfg, instanceID: creds.InstanceID}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	var apiErr apiError
	resp, err := client.R().
		SetContext(ctx).
		SetBody(sessionRequest{Identifier: creds.Identifier, Password: creds.Password}).
		SetError(&apiErr).
		Post("/api/v1/session")
	if err != nil {
		return nil, fmt.Errorf("capital: create session: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("capital: create session: status %d %s", resp.StatusCode(), apiErr.ErrorCode)
	}

	cst := resp.Header().Get(headerCST)
	token := resp.Header().Get(headerSecurityToken)
	if cst == "" || token == "" {
		return nil, errors.New("capital: session tokens missing from response")
	}
	client.SetHeader(headerCST, cst)
	client.SetHeader(headerSecurityToken, token)

	logger.Debug(ctx, "Capital.com session opened", "instance_id", creds.InstanceID, "demo", creds.IsDemo)
	return s, nil
}

type session struct {
	client     *resty.Client
	limiter    *rate.Limiter
	cfg        Config
	instanceID string
}

func (s *session) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("capital: rate limit: %w", err)
	}
	return nil
}

type market struct {
	Epic           string `json:"epic"`
	Symbol         string `json:"symbol"`
	InstrumentName string `json:"instrumentName"`
}

type marketsResponse struct {
	Markets []market `json:"markets"`
}

// ResolveInstrument searches markets for symbol and prefers an exact epic match over the first hit.
func (s *session) ResolveInstrument(ctx context.Context, symbol string) (string, bool, error) {
	if err := s.wait(ctx); err != nil {
		return "", false, err
	}

	var out marketsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("searchTerm", symbol).
		SetResult(&out).
		Get("/api/v1/markets")
	if err != nil {
		return "", false, fmt.Errorf("capital: search markets: %w", err)
	}
	if resp.IsError() {
		return "", false, fmt.Errorf("capital: search markets: status %d", resp.StatusCode())
	}

	return pickEpic(symbol, out.Markets)
}

func pickEpic(symbol string, markets []market) (string, bool, error) {
	want := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	for _, m := range markets {
		if strings.EqualFold(m.Epic, want) || strings.EqualFold(m.Symbol, symbol) {
			return m.Epic, true, nil
		}
	}
	for _, m := range markets {
		if m.Epic != "" {
			return m.Epic, true, nil
		}
	}
	return "", false, nil
}

type positionRequest struct {
	Epic           string   `json:"epic"`
	Direction      string   `json:"direction"`
	Size           float64  `json:"size"`
	GuaranteedStop bool     `json:"guaranteedStop"`
	StopLevel      *float64 `json:"stopLevel,omitempty"`
	ProfitLevel    *float64 `json:"profitLevel,omitempty"`
}

type positionResponse struct {
	DealReference string `json:"dealReference"`
}

type confirmResponse struct {
	DealReference string   `json:"dealReference"`
	DealID        string   `json:"dealId"`
	DealStatus    string   `json:"dealStatus"`
	Status        string   `json:"status"`
	Reason        string   `json:"reason"`
	Level         *float64 `json:"level"`
}

// SubmitOrder opens a market position and reads back its confirmation.
func (s *session) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if err := s.wait(ctx); err != nil {
		return types.OrderResult{}, err
	}

	var created positionResponse
	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(positionRequest{
			Epic:        req.Instrument,
			Direction:   req.Direction,
			Size:        req.Size,
			StopLevel:   req.StopLoss,
			ProfitLevel: req.TakeProfit,
		}).
		SetResult(&created).
		SetError(&apiErr).
		Post("/api/v1/positions")
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("capital: create position: %w", err)
	}
	if resp.IsError() {
		// The API refused the order outright; report it as a rejection with its error code.
		reason := apiErr.ErrorCode
		return types.OrderResult{Status: types.OrderRejected, Reason: reason}, nil
	}
	if created.DealReference == "" {
		return types.OrderResult{}, errors.New("capital: create position: empty deal reference")
	}

	conf, err := s.confirm(ctx, created.DealReference)
	if err != nil {
		return types.OrderResult{}, err
	}

	status := types.OrderRejected
	if strings.EqualFold(conf.DealStatus, types.OrderAccepted) {
		status = types.OrderAccepted
	}
	return types.OrderResult{
		Status:        status,
		DealReference: created.DealReference,
		DealID:        conf.DealID,
		Reason:        conf.Reason,
		Level:         conf.Level,
	}, nil
}

func (s *session) confirm(ctx context.Context, dealReference string) (confirmResponse, error) {
	path := "/api/v1/confirms/" + url.PathEscape(dealReference)

	var last confirmResponse
	for attempt := 1; attempt <= s.cfg.ConfirmAttempts; attempt++ {
		if err := s.wait(ctx); err != nil {
			return last, err
		}

		var out confirmResponse
		resp, err := s.client.R().SetContext(ctx).SetResult(&out).Get(path)
		if err != nil {
			return last, fmt.Errorf("capital: confirm deal: %w", err)
		}
		if resp.IsError() && resp.StatusCode() != 404 {
			return last, fmt.Errorf("capital: confirm deal: status %d", resp.StatusCode())
		}
		if !resp.IsError() && out.DealStatus != "" {
			return out, nil
		}
		last = out

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(s.cfg.ConfirmInterval):
		}
	}
	return last, fmt.Errorf("capital: deal %s not confirmed after %d attempts", dealReference, s.cfg.ConfirmAttempts)
}
