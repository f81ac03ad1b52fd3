package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel is the part of an eino chat model the agents use.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type ModelConfig struct {
	Provider  string // OPENAI or DEEPSEEK
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
}

// NewChatModel builds the eino chat model for cfg.Provider.
func NewChatModel(ctx context.Context, cfg ModelConfig) (ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key missing", strings.ToLower(cfg.Provider))
	}
	switch strings.ToUpper(cfg.Provider) {
	case "OPENAI":
		modelName := cfg.Model
		if modelName == "" {
			modelName = "gpt-4o-mini"
		}
		maxTokens := cfg.MaxTokens
		m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     modelName,
			MaxTokens: &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("openai chat model: %w", err)
		}
		return m, nil
	case "DEEPSEEK":
		modelName := cfg.Model
		if modelName == "" {
			modelName = "deepseek-chat"
		}
		m, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     modelName,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("deepseek chat model: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
