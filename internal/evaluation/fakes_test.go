package evaluation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/models"
	"trading-bots/internal/store"
	"trading-bots/internal/store/storetest"
	"trading-bots/internal/types"
)

type agentFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

func (f agentFunc[In, Out]) Analyze(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

type fakeChart struct {
	err   error
	calls int
}

func (c *fakeChart) GenerateChart(ctx context.Context, symbol, timeframe string) (types.Chart, error) {
	c.calls++
	if c.err != nil {
		return types.Chart{}, c.err
	}
	return types.Chart{URL: "https://charts.test/" + symbol + "-" + timeframe + ".png"}, nil
}

type fixedPrice float64

func (p fixedPrice) Price(ctx context.Context, symbol string) (float64, error) {
	return float64(p), nil
}

type fakeBroker struct {
	authErr    error
	instrument string
	resolveErr error
	result     types.OrderResult
	submitErr  error
	panicOn    bool

	creds    types.BrokerCredentials
	requests []types.OrderRequest
}

func (b *fakeBroker) Name() string { return "fake" }

func (b *fakeBroker) Authenticate(ctx context.Context, creds types.BrokerCredentials) (interfaces.BrokerSession, error) {
	b.creds = creds
	if b.authErr != nil {
		return nil, b.authErr
	}
	return b, nil
}

func (b *fakeBroker) ResolveInstrument(ctx context.Context, symbol string) (string, bool, error) {
	if b.resolveErr != nil {
		return "", false, b.resolveErr
	}
	return b.instrument, b.instrument != "", nil
}

func (b *fakeBroker) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if b.panicOn {
		panic("broker exploded")
	}
	b.requests = append(b.requests, req)
	return b.result, b.submitErr
}

func (b *fakeBroker) ForCredential(cred *models.BrokerCredential) (interfaces.Broker, error) {
	return b, nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, true, nil
}

type fakeJournal struct {
	decisions, trades int
}

func (j *fakeJournal) RecordDecision(botID string, analysis *types.AnalysisResult, evaluationID string) {
	j.decisions++
}
func (j *fakeJournal) RecordTrade(botID string, trade *models.Trade) { j.trades++ }
func (j *fakeJournal) Close() error { return nil }

// failingStore overrides selected repository calls with errors.
type failingStore struct {
	*store.Repository
	portfolioErr  error
	evaluationErr error
	listErr       error
}

func (f *failingStore) FindPortfolioByUser(ctx context.Context, userID string) (*models.Portfolio, error) {
	if f.portfolioErr != nil {
		return nil, f.portfolioErr
	}
	return f.Repository.FindPortfolioByUser(ctx, userID)
}

func (f *failingStore) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	if f.evaluationErr != nil {
		return f.evaluationErr
	}
	return f.Repository.CreateEvaluation(ctx, e)
}

func (f *failingStore) ListEvaluationsByBot(ctx context.Context, botID string, limit int) ([]models.Evaluation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Repository.ListEvaluationsByBot(ctx, botID, limit)
}

var errBoom = errors.New("boom")

// env wires a Service against an in-memory database and fakes.
type env struct {
	t       *testing.T
	db      *gorm.DB
	store   *failingStore
	chart   *fakeChart
	broker  *fakeBroker
	locker  interfaces.EvaluationLocker
	journal *fakeJournal

	technical types.TechnicalAnalysis
	risk      types.RiskAssessment
	decision  types.TradingDecision
	agentErr  error

	agentCalls int
	riskInput  types.RiskInput
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := storetest.Open(t)
	one, stop, take, score := 1.0, 1.10, 1.20, 0.3
	return &env{
		t:       t,
		db:      db,
		store:   &failingStore{Repository: store.NewRepository(db)},
		chart:   &fakeChart{},
		journal: &fakeJournal{},
		broker: &fakeBroker{
			instrument: "CS.D.EURUSD.CFD.IP",
			result:     types.OrderResult{Status: types.OrderAccepted, DealReference: "R1", DealID: "T1"},
		},
		technical: types.TechnicalAnalysis{Summary: "uptrend above resistance", Trend: "BULLISH", Confidence: 0.7},
		risk:      types.RiskAssessment{RiskScore: &score, RecommendedPositionSize: &one, StopLoss: &stop, TakeProfit: &take},
		decision:  types.TradingDecision{Decision: types.DecisionBuy, Confidence: 0.8, Reasoning: "momentum"},
	}
}

func (e *env) service() *Service {
	return newService(Deps{
		Store:  e.store,
		Charts: e.chart,
		Prices: fixedPrice(1.0),
		Technical: agentFunc[types.TechnicalInput, types.TechnicalAnalysis](func(ctx context.Context, in types.TechnicalInput) (types.TechnicalAnalysis, error) {
			e.agentCalls++
			if e.agentErr != nil {
				return types.TechnicalAnalysis{}, e.agentErr
			}
			return e.technical, nil
		}),
		Risk: agentFunc[types.RiskInput, types.RiskAssessment](func(ctx context.Context, in types.RiskInput) (types.RiskAssessment, error) {
			e.agentCalls++
			e.riskInput = in
			return e.risk, nil
		}),
		Decision: agentFunc[types.DecisionInput, types.TradingDecision](func(ctx context.Context, in types.DecisionInput) (types.TradingDecision, error) {
			e.agentCalls++
			return e.decision, nil
		}),
		Brokers: e.broker,
		Locker:  e.locker,
		Journal: e.journal,
	})
}

func (e *env) count(model any) int64 {
	e.t.Helper()
	var n int64
	if err := e.db.Model(model).Count(&n).Error; err != nil {
		e.t.Fatalf("count %T: %v", model, err)
	}
	return n
}
