// Package storetest provides an in-memory database and fixtures for tests.
package storetest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"trading-bots/internal/models"
	"trading-bots/internal/store"
)

// Open returns a migrated in-memory sqlite database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := store.Defaults()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	db, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Fixture is a user with one bot and, optionally, a broker credential.
type Fixture struct {
	User       *models.User
	Bot        *models.Bot
	Credential *models.BrokerCredential
}

// BotOptions tweaks SeedBot.
type BotOptions struct {
	Inactive        bool
	AITrading       bool
	NoCredential    bool
	EmptyCredential bool
	Broker          string
	Symbol          string
	Timeframe       string
	MaxPositionSize float64
}

// SeedBot inserts a user, a broker credential and a bot.
func SeedBot(t testing.TB, db *gorm.DB, opts BotOptions) *Fixture {
	t.Helper()
	user := &models.User{Email: uuid.NewString() + "@example.com", Name: "Trader"}
	mustCreate(t, db, user)

	f := &Fixture{User: user}
	if !opts.NoCredential {
		payload := datatypes.JSON(`{"apiKey":"key","identifier":"id","password":"pw"}`)
		if opts.EmptyCredential {
			payload = nil
		}
		broker := opts.Broker
		if broker == "" {
			broker = models.BrokerCapital
		}
		f.Credential = &models.BrokerCredential{UserID: user.ID, Broker: broker, Name: "main", Credentials: payload, IsDemo: true}
		mustCreate(t, db, f.Credential)
	}

	symbol, timeframe := opts.Symbol, opts.Timeframe
	if symbol == "" {
		symbol = "EURUSD"
	}
	if timeframe == "" {
		timeframe = "H1"
	}
	size := opts.MaxPositionSize
	if size == 0 {
		size = 1
	}
	bot := &models.Bot{
		UserID:            user.ID,
		Name:              "bot",
		TradingPairSymbol: symbol,
		Timeframe:         timeframe,
		IsActive:          !opts.Inactive,
		IsAITradingActive: opts.AITrading,
		MaxPositionSize:   size,
		TotalProfit:       decimal.Zero,
		MaxDrawdown:       decimal.Zero,
	}
	if f.Credential != nil {
		bot.BrokerCredentialID = &f.Credential.ID
	}
	mustCreate(t, db, bot)
	f.Bot = bot
	return f
}

func mustCreate(t testing.TB, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}
