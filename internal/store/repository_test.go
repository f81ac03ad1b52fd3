package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"trading-bots/internal/models"
	"trading-bots/internal/store"
	"trading-bots/internal/store/storetest"
)

func TestFindBotByIDPreloadsRelations(t *testing.T) {
	db := storetest.Open(t)
	f := storetest.SeedBot(t, db, storetest.BotOptions{})
	repo := store.NewRepository(db)

	bot, err := repo.FindBotByID(context.Background(), f.Bot.ID)
	if err != nil {
		t.Fatalf("find bot: %v", err)
	}
	if bot.User == nil || bot.User.ID != f.User.ID {
		t.Fatalf("user not preloaded: %+v", bot.User)
	}
	if bot.BrokerCredential == nil || !bot.BrokerCredential.HasPayload() {
		t.Fatalf("credential not preloaded: %+v", bot.BrokerCredential)
	}
	p, err := bot.BrokerCredential.Payload()
	if err != nil || p.APIKey != "key" {
		t.Fatalf("payload = %+v, %v", p, err)
	}
}

func TestFindBotByIDNotFound(t *testing.T) {
	repo := store.NewRepository(storetest.Open(t))
	_, err := repo.FindBotByID(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindPortfolioByUserMissingIsNil(t *testing.T) {
	db := storetest.Open(t)
	f := storetest.SeedBot(t, db, storetest.BotOptions{})
	repo := store.NewRepository(db)

	p, err := repo.FindPortfolioByUser(context.Background(), f.User.ID)
	if err != nil || p != nil {
		t.Fatalf("expected nil portfolio, got %+v, %v", p, err)
	}
}

func TestListRecentTradesByUserNewestFirst(t *testing.T) {
	db := storetest.Open(t)
	f := storetest.SeedBot(t, db, storetest.BotOptions{})
	repo := store.NewRepository(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		tr := &models.Trade{UserID: f.User.ID, BotID: f.Bot.ID, Symbol: "EURUSD", Side: "BUY", Size: float64(i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := db.Create(tr).Error; err != nil {
			t.Fatalf("create trade: %v", err)
		}
	}

	trades, err := repo.ListRecentTradesByUser(context.Background(), f.User.ID, 10)
	if err != nil {
		t.Fatalf("list trades: %v", err)
	}
	if len(trades) != 10 {
		t.Fatalf("got %d trades, want 10", len(trades))
	}
	if trades[0].Size != 11 || trades[9].Size != 2 {
		t.Fatalf("wrong order: first=%v last=%v", trades[0].Size, trades[9].Size)
	}
}

func TestRecordTradeUpdatesCounters(t *testing.T) {
	db := storetest.Open(t)
	f := storetest.SeedBot(t, db, storetest.BotOptions{})
	repo := store.NewRepository(db)
	ctx := context.Background()

	eval := &models.Evaluation{BotID: f.Bot.ID, UserID: f.User.ID, Decision: "BUY", StartDate: time.Now(), Success: true}
	if err := repo.CreateEvaluation(ctx, eval); err != nil {
		t.Fatalf("create evaluation: %v", err)
	}
	at := time.Now()
	trade := &models.Trade{UserID: f.User.ID, BotID: f.Bot.ID, Symbol: "EURUSD", Side: "BUY", Size: 1, Status: models.TradeStatusFilled, EvaluationID: &eval.ID}
	if err := repo.RecordTrade(ctx, trade, at); err != nil {
		t.Fatalf("record trade: %v", err)
	}

	metrics, err := repo.BotMetrics(ctx, f.Bot.ID)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", metrics.TotalTrades)
	}
	bot, _ := repo.FindBotByID(ctx, f.Bot.ID)
	if bot.LastEvaluationAt == nil {
		t.Fatalf("last evaluation time not set")
	}

	evals, err := repo.ListEvaluationsByBot(ctx, f.Bot.ID, 10)
	if err != nil {
		t.Fatalf("list evaluations: %v", err)
	}
	if len(evals) != 1 || len(evals[0].Trades) != 1 || evals[0].Trades[0].ID != trade.ID {
		t.Fatalf("unexpected evaluations: %+v", evals)
	}
}

func TestRecordTradeRollsBackWithoutBot(t *testing.T) {
	db := storetest.Open(t)
	f := storetest.SeedBot(t, db, storetest.BotOptions{})
	repo := store.NewRepository(db)

	trade := &models.Trade{UserID: f.User.ID, BotID: "ghost", Symbol: "EURUSD", Side: "SELL", Size: 1}
	err := repo.RecordTrade(context.Background(), trade, time.Now())
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var count int64
	db.Model(&models.Trade{}).Count(&count)
	if count != 0 {
		t.Fatalf("trade should be rolled back, found %d", count)
	}
}

func TestBotMetricsDecimals(t *testing.T) {
	db := storetest.Open(t)
	f := storetest.SeedBot(t, db, storetest.BotOptions{})
	db.Model(&models.Bot{}).Where("id = ?", f.Bot.ID).Updates(map[string]any{
		"winning_trades": 3,
		"total_profit":   decimal.RequireFromString("12.5"),
	})

	m, err := store.NewRepository(db).BotMetrics(context.Background(), f.Bot.ID)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.WinningTrades != 3 || !m.TotalProfit.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestListActiveBots(t *testing.T) {
	db := storetest.Open(t)
	storetest.SeedBot(t, db, storetest.BotOptions{})
	storetest.SeedBot(t, db, storetest.BotOptions{Inactive: true})

	bots, err := store.NewRepository(db).ListActiveBots(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bots) != 1 {
		t.Fatalf("got %d active bots, want 1", len(bots))
	}
}
