package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"trading-bots/internal/types"
)

type fakeModel struct {
	reply string
	err   error
	got   []*schema.Message
}

func (f *fakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func TestDecisionMakerNormalisesReply(t *testing.T) {
	m := &fakeModel{reply: "Sure! {\"decision\": \"sell\", \"confidence\": 1.7, \"reasoning\": \"overbought\"} hope that helps"}
	d, err := NewDecisionMaker(m, "").Analyze(context.Background(), types.DecisionInput{Symbol: "EURUSD"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if d.Decision != types.DecisionSell || d.Confidence != 0 || d.Reasoning != "overbought" {
		t.Fatalf("unexpected decision %+v", d)
	}
	if len(m.got) != 2 || m.got[0].Role != schema.System || !strings.Contains(m.got[1].Content, `"symbol":"EURUSD"`) {
		t.Fatalf("unexpected prompt %+v", m.got)
	}
}

func TestDecisionMakerUnknownActionHolds(t *testing.T) {
	m := &fakeModel{reply: `{"action":"YOLO","confidence":0.9,"reason":"x"}`}
	d, _ := NewDecisionMaker(m, "").Analyze(context.Background(), types.DecisionInput{})
	if d.Decision != types.DecisionHold || d.Confidence != 0.9 || d.Reasoning != "x" {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestDecisionMakerGarbageHolds(t *testing.T) {
	m := &fakeModel{reply: "I cannot decide"}
	d, err := NewDecisionMaker(m, "").Analyze(context.Background(), types.DecisionInput{})
	if err != nil || d.Decision != types.DecisionHold {
		t.Fatalf("expected HOLD, got %+v, %v", d, err)
	}
}

func TestTechnicalAnalystFallsBackToRawSummary(t *testing.T) {
	m := &fakeModel{reply: "Price is ranging between 1.08 and 1.09."}
	ta, err := NewTechnicalAnalyst(m, "custom").Analyze(context.Background(), types.TechnicalInput{Symbol: "EURUSD"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if ta.Summary != "Price is ranging between 1.08 and 1.09." || ta.Trend != "NEUTRAL" {
		t.Fatalf("unexpected analysis %+v", ta)
	}
	if m.got[0].Content != "custom" {
		t.Fatalf("custom system prompt not used")
	}
}

func TestRiskManagerParsesAndValidates(t *testing.T) {
	m := &fakeModel{reply: `{"riskScore": 0.4, "recommendedPositionSize": -2, "stopLoss": 1.05, "summary": "moderate"}`}
	ra, err := NewRiskManager(m, "").Analyze(context.Background(), types.RiskInput{Symbol: "EURUSD"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if ra.RecommendedPositionSize != nil {
		t.Fatalf("negative size should be dropped")
	}
	if ra.RiskScore == nil || *ra.RiskScore != 0.4 || ra.StopLoss == nil || *ra.StopLoss != 1.05 {
		t.Fatalf("unexpected assessment %+v", ra)
	}

	m.reply = "no idea"
	if _, err := NewRiskManager(m, "").Analyze(context.Background(), types.RiskInput{}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestModelErrorPropagates(t *testing.T) {
	m := &fakeModel{err: errors.New("rate limited")}
	_, err := NewTechnicalAnalyst(m, "").Analyze(context.Background(), types.TechnicalInput{})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestNewChatModelValidation(t *testing.T) {
	if _, err := NewChatModel(context.Background(), ModelConfig{Provider: "OPENAI"}); err == nil {
		t.Fatalf("expected missing key error")
	}
	m, err := NewChatModel(context.Background(), ModelConfig{Provider: "CLAUDE", APIKey: "k"})
	if err == nil {
		t.Fatalf("expected unsupported provider error")
	}
	if m != nil {
		t.Fatalf("failed construction must return a nil interface, got %T", m)
	}
}

func TestNewChatModelProviders(t *testing.T) {
	for _, provider := range []string{"openai", "DEEPSEEK"} {
		m, err := NewChatModel(context.Background(), ModelConfig{Provider: provider, APIKey: "k", MaxTokens: 256})
		if err != nil {
			t.Fatalf("%s: %v", provider, err)
		}
		if m == nil {
			t.Fatalf("%s: nil model", provider)
		}
	}
}
