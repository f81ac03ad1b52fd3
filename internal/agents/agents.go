package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/types"
)

const (
	DefaultTechnicalPrompt = `You are a technical analyst. You receive a trading symbol, timeframe, chart image URL and the current market price as JSON.
Respond ONLY with compact JSON: {"summary": string, "trend": "BULLISH"|"BEARISH"|"NEUTRAL", "signals": [string], "support": number|null, "resistance": number|null, "confidence": number between 0 and 1}.`

	DefaultRiskPrompt = `You are a risk manager. You receive a symbol, the account portfolio context, the market price and a technical analysis as JSON.
Respond ONLY with compact JSON: {"riskScore": number between 0 and 1, "recommendedPositionSize": number, "stopLoss": number|null, "takeProfit": number|null, "summary": string}.`

	DefaultDecisionPrompt = `You are a disciplined trader. You receive a symbol, technical analysis, risk assessment, portfolio context and market price as JSON.
Respond ONLY with compact JSON: {"decision": "BUY"|"SELL"|"HOLD", "confidence": number between 0 and 1, "reasoning": string}.`
)

var errNoJSON = errors.New("reply contains no JSON object")

// promptAgent sends its input as JSON to a chat model and parses the JSON reply.
type promptAgent[In, Out any] struct {
	name   string
	model  ChatModel
	system string
	parse  func(ctx context.Context, reply string) (Out, error)
}

func (a *promptAgent[In, Out]) Analyze(ctx context.Context, in In) (Out, error) {
	var zero Out

	state, err := json.Marshal(in)
	if err != nil {
		return zero, fmt.Errorf("%s: encode input: %w", a.name, err)
	}

	msgs := []*schema.Message{
		schema.SystemMessage(a.system),
		schema.UserMessage("State:" + string(state) + "\n\nRespond ONLY with compact JSON matching the schema."),
	}
	reply, err := a.model.Generate(ctx, msgs)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", a.name, err)
	}
	if reply == nil {
		return zero, fmt.Errorf("%s: empty reply", a.name)
	}
	logger.Debug(ctx, "Agent reply received", "agent", a.name, "response_length", len(reply.Content))

	return a.parse(ctx, reply.Content)
}

// NewTechnicalAnalyst returns an agent producing a chart read. Replies that are not JSON become the summary.
func NewTechnicalAnalyst(model ChatModel, system string) interfaces.TechnicalAnalyst {
	if system == "" {
		system = DefaultTechnicalPrompt
	}
	return &promptAgent[types.TechnicalInput, types.TechnicalAnalysis]{
		name:   "technical-analyst",
		model:  model,
		system: system,
		parse:  parseTechnical,
	}
}

// NewRiskManager returns an agent sizing the position. Replies that are not JSON are an error.
func NewRiskManager(model ChatModel, system string) interfaces.RiskManager {
	if system == "" {
		system = DefaultRiskPrompt
	}
	return &promptAgent[types.RiskInput, types.RiskAssessment]{
		name:   "risk-manager",
		model:  model,
		system: system,
		parse:  parseRisk,
	}
}

// NewDecisionMaker returns an agent choosing the action. Replies that are not JSON become HOLD.
func NewDecisionMaker(model ChatModel, system string) interfaces.DecisionMaker {
	if system == "" {
		system = DefaultDecisionPrompt
	}
	return &promptAgent[types.DecisionInput, types.TradingDecision]{
		name:   "decision-maker",
		model:  model,
		system: system,
		parse:  parseDecision,
	}
}

// extractJSON returns the text between the first '{' and the last '}'.
func extractJSON(text string) (string, bool) {
	t := strings.TrimSpace(text)
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return t[start : end+1], true
}

func decode(text string, v any) error {
	sub, ok := extractJSON(text)
	if !ok {
		return errNoJSON
	}
	return json.Unmarshal([]byte(sub), v)
}

func parseTechnical(ctx context.Context, reply string) (types.TechnicalAnalysis, error) {
	var ta types.TechnicalAnalysis
	if err := decode(reply, &ta); err != nil {
		logger.Warn(ctx, "Unable to parse technical analysis, using raw reply", "error", err)
		return types.TechnicalAnalysis{Summary: strings.TrimSpace(reply), Trend: "NEUTRAL"}, nil
	}
	ta.Trend = strings.ToUpper(strings.TrimSpace(ta.Trend))
	if ta.Trend == "" {
		ta.Trend = "NEUTRAL"
	}
	ta.Confidence = clampConfidence(ta.Confidence)
	return ta, nil
}

func parseRisk(ctx context.Context, reply string) (types.RiskAssessment, error) {
	var ra types.RiskAssessment
	if err := decode(reply, &ra); err != nil {
		return types.RiskAssessment{}, fmt.Errorf("risk-manager: parse reply: %w", err)
	}
	if ra.RecommendedPositionSize != nil && *ra.RecommendedPositionSize <= 0 {
		ra.RecommendedPositionSize = nil
	}
	if ra.RiskScore != nil && (*ra.RiskScore < 0 || *ra.RiskScore > 1) {
		ra.RiskScore = nil
	}
	return ra, nil
}

func parseDecision(ctx context.Context, reply string) (types.TradingDecision, error) {
	var raw struct {
		Decision   string  `json:"decision"`
		Action     string  `json:"action"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
		Reason     string  `json:"reason"`
	}
	if err := decode(reply, &raw); err != nil {
		logger.Warn(ctx, "Unable to parse decision, defaulting to HOLD", "error", err)
		return types.TradingDecision{Decision: types.DecisionHold, Reasoning: "unable_to_parse_model_output"}, nil
	}
	d := raw.Decision
	if d == "" {
		d = raw.Action
	}
	reasoning := raw.Reasoning
	if reasoning == "" {
		reasoning = raw.Reason
	}
	return types.TradingDecision{
		Decision:   types.ParseDecision(d),
		Confidence: clampConfidence(raw.Confidence),
		Reasoning:  reasoning,
	}, nil
}

// clampConfidence zeroes values outside [0,1].
func clampConfidence(c float64) float64 {
	if c < 0 || c > 1 {
		return 0
	}
	return c
}
