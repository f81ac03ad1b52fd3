package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"trading-bots/internal/agents"
	"trading-bots/internal/agents/agentsobs"
	"trading-bots/internal/agents/noop"
	"trading-bots/internal/broker"
	"trading-bots/internal/broker/brokerobs"
	"trading-bots/internal/broker/capital"
	"trading-bots/internal/broker/paper"
	"trading-bots/internal/broker/zerodha"
	"trading-bots/internal/chart"
	"trading-bots/internal/evaluation"
	"trading-bots/internal/evaluation/evaluationobs"
	"trading-bots/internal/interfaces"
	"trading-bots/internal/journal"
	"trading-bots/internal/lock"
	"trading-bots/internal/logger"
	"trading-bots/internal/market"
	"trading-bots/internal/metrics"
	"trading-bots/internal/store"
	"trading-bots/internal/types"
)

const defaultConfigPath = "config.yaml"

// app holds everything a command needs. close releases it in reverse order.
type app struct {
	cfg       *store.Config
	db        *gorm.DB
	repo      *store.Repository
	redis     *redis.Client
	evaluator interfaces.BotEvaluator
	metrics   interfaces.MetricsRecorder
	journal   interfaces.Journal
}

// initializeSystem loads .env and sets up the logger and tracer. Logs go to stderr so command output stays parseable.
func initializeSystem() error {
	_ = godotenv.Load()

	logCfg := logger.LoadConfigFromEnv()
	logCfg.Output = os.Stderr
	if err := logger.InitWithConfig(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig reads path. Without --config a missing config.yaml falls back to defaults.
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			logger.Warn(ctx, "No config file found, using defaults", "path", path)
			return store.Defaults(), nil
		}
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *store.Config) (*gorm.DB, error) {
	db, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Database connected", "driver", cfg.Database.Driver)
	return db, nil
}

// buildApp wires the evaluator and its collaborators from cfg.
func buildApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := loadConfig(ctx, cfgPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if a.db, err = openStore(ctx, cfg); err != nil {
		return nil, err
	}
	if err := store.Migrate(a.db); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.repo = store.NewRepository(a.db)

	locker, err := a.initializeLocker(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	technical, risk, decision, err := initializeAgents(ctx, cfg)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	a.metrics = initializeMetrics(ctx, cfg)
	a.journal = initializeJournal(ctx, cfg)

	ev := evaluation.New(evaluation.Deps{
		Store:             a.repo,
		Charts:            initializeCharts(cfg),
		Prices:            initializePrices(cfg),
		Technical:         technical,
		Risk:              risk,
		Decision:          decision,
		Brokers:           initializeBrokers(ctx, cfg),
		Locker:            locker,
		Journal:           a.journal,
		RecentTradesLimit: cfg.Evaluation.RecentTradesLimit,
		DefaultTimeframe:  cfg.Evaluation.DefaultTimeframe,
	})
	a.evaluator = evaluationobs.Wrap(ev, a.metrics)

	return a, nil
}

func (a *app) initializeLocker(ctx context.Context) (interfaces.EvaluationLocker, error) {
	switch a.cfg.Evaluation.Lock {
	case "redis":
		client, err := store.ConnectRedis(ctx, a.cfg.RedisURL())
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		logger.Info(ctx, "Using Redis evaluation lock")
		return lock.NewRedis(client, time.Duration(a.cfg.Evaluation.LockTTLSeconds)*time.Second), nil
	case "memory":
		return lock.NewMemory(), nil
	default:
		logger.Warn(ctx, "Evaluation lock disabled - concurrent evaluations of one bot are possible")
		return lock.Nop{}, nil
	}
}

// jwtSecret reads the API signing secret. LIVE mode refuses to serve without one.
func jwtSecret(ctx context.Context, cfg *store.Config) ([]byte, error) {
	secret := os.Getenv(cfg.Auth.JWTSecretEnv)
	if secret != "" {
		return []byte(secret), nil
	}
	if cfg.Mode == "LIVE" {
		return nil, fmt.Errorf("%s must be set to serve the API in LIVE mode", cfg.Auth.JWTSecretEnv)
	}
	logger.Warn(ctx, "API authentication disabled - no JWT secret configured", "env", cfg.Auth.JWTSecretEnv)
	return nil, nil
}

func initializeCharts(cfg *store.Config) interfaces.ChartProvider {
	if cfg.Chart.Provider == "template" {
		return chart.NewTemplate(cfg.Chart.Template)
	}
	return chart.NewMock(cfg.Chart.BaseURL, time.Duration(cfg.Chart.DelayMs)*time.Millisecond)
}

func initializePrices(cfg *store.Config) interfaces.PriceProvider {
	if cfg.Evaluation.MarketPriceSource == "yahoo" {
		return market.NewYahoo(30 * time.Second)
	}
	return market.Static(cfg.Evaluation.StaticMarketPrice)
}

// initializeAgents builds the three analysis agents with observability
func initializeAgents(ctx context.Context, cfg *store.Config) (interfaces.TechnicalAnalyst, interfaces.RiskManager, interfaces.DecisionMaker, error) {
	var (
		technical interfaces.TechnicalAnalyst
		risk      interfaces.RiskManager
		decision  interfaces.DecisionMaker
	)

	switch cfg.LLM.Provider {
	case "OPENAI", "DEEPSEEK":
		keyEnv := cfg.LLM.APIKeyEnv
		if keyEnv == "" {
			keyEnv = cfg.LLM.Provider + "_API_KEY"
		}
		model, err := agents.NewChatModel(ctx, agents.ModelConfig{
			Provider:  cfg.LLM.Provider,
			Model:     cfg.LLM.Model,
			BaseURL:   cfg.LLM.BaseURL,
			APIKey:    os.Getenv(keyEnv),
			MaxTokens: cfg.LLM.MaxTokens,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create chat model: %w", err)
		}
		technical = agents.NewTechnicalAnalyst(model, cfg.LLM.Prompts.Technical)
		risk = agents.NewRiskManager(model, cfg.LLM.Prompts.Risk)
		decision = agents.NewDecisionMaker(model, cfg.LLM.Prompts.Decision)
		logger.Info(ctx, "AI agents ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	default:
		technical, risk, decision = noop.Technical{}, noop.Risk{}, noop.Decision{}
		logger.Warn(ctx, "No LLM provider configured - using noop agents (always HOLD)")
	}

	return agentsobs.Wrap[types.TechnicalInput, types.TechnicalAnalysis]("technical", technical),
		agentsobs.Wrap[types.RiskInput, types.RiskAssessment]("risk", risk),
		agentsobs.Wrap[types.DecisionInput, types.TradingDecision]("decision", decision),
		nil
}

// initializeBrokers registers every broker with observability
func initializeBrokers(ctx context.Context, cfg *store.Config) interfaces.BrokerFactory {
	if cfg.Mode == broker.ModeDryRun {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}

	c := cfg.Brokers.Capital
	z := cfg.Brokers.Zerodha
	return broker.NewRegistry(cfg.Mode,
		brokerobs.Wrap(capital.New(capital.Config{
			LiveURL:           c.LiveURL,
			DemoURL:           c.DemoURL,
			RequestsPerSecond: c.RequestsPerSecond,
			Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		})),
		brokerobs.Wrap(zerodha.NewZerodha(zerodha.Params{Exchange: z.Exchange, Product: z.Product})),
		brokerobs.Wrap(paper.New()),
	)
}

func initializeMetrics(ctx context.Context, cfg *store.Config) interfaces.MetricsRecorder {
	if cfg.Metrics.InfluxURL == "" {
		return metrics.Nop{}
	}
	m, err := metrics.NewInflux(ctx, metrics.Config{
		URL:    cfg.Metrics.InfluxURL,
		Token:  os.Getenv(cfg.Metrics.TokenEnv),
		Org:    cfg.Metrics.Org,
		Bucket: cfg.Metrics.Bucket,
	})
	if err != nil {
		logger.Warn(ctx, "InfluxDB unavailable, metrics disabled", "error", err)
		return metrics.Nop{}
	}
	return m
}

func initializeJournal(ctx context.Context, cfg *store.Config) interfaces.Journal {
	if cfg.Journal.Dir == "" {
		return journal.Nop{}
	}
	j, err := journal.Open(cfg.Journal.Dir)
	if err != nil {
		logger.Warn(ctx, "Failed to open trade journal, journaling disabled", "dir", cfg.Journal.Dir, "error", err)
		return journal.Nop{}
	}
	return j
}

func (a *app) close(ctx context.Context) {
	if a.metrics != nil {
		a.metrics.Close()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warn(ctx, "Failed to close journal", "error", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
