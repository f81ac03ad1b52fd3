package store

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode string `yaml:"mode"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		DSNEnv string `yaml:"dsn_env"`
	} `yaml:"database"`

	Redis struct {
		URL    string `yaml:"url"`
		URLEnv string `yaml:"url_env"`
	} `yaml:"redis"`

	Evaluation struct {
		Lock              string  `yaml:"lock"`
		LockTTLSeconds    int     `yaml:"lock_ttl_seconds"`
		RecentTradesLimit int     `yaml:"recent_trades_limit"`
		DefaultTimeframe  string  `yaml:"default_timeframe"`
		MarketPriceSource string  `yaml:"market_price_source"`
		StaticMarketPrice float64 `yaml:"static_market_price"`
	} `yaml:"evaluation"`

	Chart struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		Template string `yaml:"template"`
		DelayMs  int    `yaml:"delay_ms"`
	} `yaml:"chart"`

	LLM struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		BaseURL   string `yaml:"base_url"`
		APIKeyEnv string `yaml:"api_key_env"`
		MaxTokens int    `yaml:"max_tokens"`
		Prompts   struct {
			Technical string `yaml:"technical"`
			Risk      string `yaml:"risk"`
			Decision  string `yaml:"decision"`
		} `yaml:"prompts"`
	} `yaml:"llm"`

	Brokers struct {
		Capital struct {
			LiveURL           string  `yaml:"live_url"`
			DemoURL           string  `yaml:"demo_url"`
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			TimeoutSeconds    int     `yaml:"timeout_seconds"`
		} `yaml:"capital"`
		Zerodha struct {
			Exchange string `yaml:"exchange"`
			Product  string `yaml:"product"`
		} `yaml:"zerodha"`
	} `yaml:"brokers"`

	Scheduler struct {
		PollSeconds int `yaml:"poll_seconds"`
		Concurrency int `yaml:"concurrency"`
	} `yaml:"scheduler"`

	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Auth struct {
		JWTSecretEnv string `yaml:"jwt_secret_env"`
	} `yaml:"auth"`

	Metrics struct {
		InfluxURL string `yaml:"influx_url"`
		Org       string `yaml:"org"`
		Bucket    string `yaml:"bucket"`
		TokenEnv  string `yaml:"token_env"`
	} `yaml:"metrics"`

	Journal struct {
		Dir string `yaml:"dir"`
	} `yaml:"journal"`
}

// DatabaseDSN returns the configured DSN, preferring the environment variable when set.
func (c *Config) DatabaseDSN() string {
	return envOr(c.Database.DSNEnv, c.Database.DSN)
}

// RedisURL returns the configured Redis URL, preferring the environment variable when set.
func (c *Config) RedisURL() string {
	return envOr(c.Redis.URLEnv, c.Redis.URL)
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got '%s'", c.Database.Driver)
	}
	switch c.Evaluation.Lock {
	case "none", "memory":
	case "redis":
		if c.RedisURL() == "" {
			return fmt.Errorf("evaluation.lock 'redis' requires redis.url")
		}
	default:
		return fmt.Errorf("evaluation.lock must be 'none', 'memory' or 'redis', got '%s'", c.Evaluation.Lock)
	}
	if c.Evaluation.MarketPriceSource != "static" && c.Evaluation.MarketPriceSource != "yahoo" {
		return fmt.Errorf("evaluation.market_price_source must be 'static' or 'yahoo', got '%s'", c.Evaluation.MarketPriceSource)
	}
	if c.Chart.Provider != "mock" && c.Chart.Provider != "template" {
		return fmt.Errorf("chart.provider must be 'mock' or 'template', got '%s'", c.Chart.Provider)
	}
	if c.Chart.Provider == "template" && !strings.Contains(c.Chart.Template, "{symbol}") {
		return fmt.Errorf("chart.template must contain {symbol}")
	}
	switch c.LLM.Provider {
	case "OPENAI", "DEEPSEEK", "NOOP":
	default:
		return fmt.Errorf("llm.provider must be 'OPENAI', 'DEEPSEEK' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	if c.Scheduler.Concurrency <= 0 {
		return fmt.Errorf("scheduler.concurrency must be positive, got %d", c.Scheduler.Concurrency)
	}
	return nil
}

// Defaults returns a configuration usable for local runs without a file.
func Defaults() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "trading-bots.db"
	}
	if c.Evaluation.Lock == "" {
		c.Evaluation.Lock = "memory"
	}
	if c.Evaluation.LockTTLSeconds == 0 {
		c.Evaluation.LockTTLSeconds = 300
	}
	if c.Evaluation.RecentTradesLimit == 0 {
		c.Evaluation.RecentTradesLimit = 10
	}
	if c.Evaluation.DefaultTimeframe == "" {
		c.Evaluation.DefaultTimeframe = "M1"
	}
	if c.Evaluation.MarketPriceSource == "" {
		c.Evaluation.MarketPriceSource = "static"
	}
	if c.Evaluation.StaticMarketPrice == 0 {
		c.Evaluation.StaticMarketPrice = 1.0
	}
	if c.Chart.Provider == "" {
		c.Chart.Provider = "mock"
	}
	if c.Chart.BaseURL == "" {
		c.Chart.BaseURL = "https://mock-charts.example.com"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NOOP"
	}
	c.LLM.Provider = strings.ToUpper(c.LLM.Provider)
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Brokers.Capital.LiveURL == "" {
		c.Brokers.Capital.LiveURL = "https://api-capital.backend-capital.com"
	}
	if c.Brokers.Capital.DemoURL == "" {
		c.Brokers.Capital.DemoURL = "https://demo-api-capital.backend-capital.com"
	}
	if c.Brokers.Capital.RequestsPerSecond == 0 {
		c.Brokers.Capital.RequestsPerSecond = 10
	}
	if c.Brokers.Capital.TimeoutSeconds == 0 {
		c.Brokers.Capital.TimeoutSeconds = 30
	}
	if c.Brokers.Zerodha.Exchange == "" {
		c.Brokers.Zerodha.Exchange = "NSE"
	}
	if c.Brokers.Zerodha.Product == "" {
		c.Brokers.Zerodha.Product = "MIS"
	}
	if c.Scheduler.PollSeconds == 0 {
		c.Scheduler.PollSeconds = 60
	}
	if c.Scheduler.Concurrency == 0 {
		c.Scheduler.Concurrency = 4
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Auth.JWTSecretEnv == "" {
		c.Auth.JWTSecretEnv = "JWT_SECRET"
	}
	if c.Metrics.TokenEnv == "" {
		c.Metrics.TokenEnv = "INFLUXDB_TOKEN"
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

func envOr(key, fallback string) string {
	if key == "" {
		return fallback
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
