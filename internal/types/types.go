package types

import (
	"strings"

	"github.com/shopspring/decimal"

	"trading-bots/internal/models"
)

// Decision is the action an analysis recommends.
type Decision string

const (
	DecisionBuy          Decision = "BUY"
	DecisionSell         Decision = "SELL"
	DecisionHold         Decision = "HOLD"
	DecisionExecuteTrade Decision = "EXECUTE_TRADE"
)

// Actionable reports whether the decision may lead to an order.
func (d Decision) Actionable() bool {
	switch d {
	case DecisionBuy, DecisionSell, DecisionExecuteTrade:
		return true
	}
	return false
}

// Direction is the order side for an actionable decision. EXECUTE_TRADE is treated as BUY.
func (d Decision) Direction() string {
	if d == DecisionSell {
		return "SELL"
	}
	return "BUY"
}

// ParseDecision upper-cases s and maps anything unknown to HOLD.
func ParseDecision(s string) Decision {
	switch d := Decision(strings.ToUpper(strings.TrimSpace(s))); d {
	case DecisionBuy, DecisionSell, DecisionHold, DecisionExecuteTrade:
		return d
	}
	return DecisionHold
}

type Chart struct {
	URL string `json:"url"`
}

type TechnicalInput struct {
	Symbol      string  `json:"symbol"`
	Timeframe   string  `json:"timeframe"`
	ChartURL    string  `json:"chartUrl"`
	MarketPrice float64 `json:"marketPrice"`
}

type TechnicalAnalysis struct {
	Summary    string   `json:"summary"`
	Trend      string   `json:"trend"`
	Signals    []string `json:"signals,omitempty"`
	Support    *float64 `json:"support,omitempty"`
	Resistance *float64 `json:"resistance,omitempty"`
	Confidence float64  `json:"confidence"`
}

type RiskInput struct {
	Symbol      string            `json:"symbol"`
	Portfolio   *PortfolioContext `json:"portfolio"`
	MarketPrice float64           `json:"marketPrice"`
	Technical   TechnicalAnalysis `json:"technical"`
}

type RiskAssessment struct {
	RiskScore               *float64 `json:"riskScore,omitempty"`
	RecommendedPositionSize *float64 `json:"recommendedPositionSize,omitempty"`
	StopLoss                *float64 `json:"stopLoss,omitempty"`
	TakeProfit              *float64 `json:"takeProfit,omitempty"`
	Summary                 string   `json:"summary"`
}

type DecisionInput struct {
	Symbol      string            `json:"symbol"`
	Technical   TechnicalAnalysis `json:"technical"`
	Risk        RiskAssessment    `json:"risk"`
	Portfolio   *PortfolioContext `json:"portfolio"`
	MarketPrice float64           `json:"marketPrice"`
}

type TradingDecision struct {
	Decision   Decision `json:"decision"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// AnalysisResult is the combined output of the three agents.
type AnalysisResult struct {
	Symbol      string   `json:"symbol"`
	Timeframe   string   `json:"timeframe"`
	Decision    Decision `json:"decision"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	MarketPrice float64  `json:"marketPrice"`

	Technical TechnicalAnalysis `json:"technicalAnalysis"`
	Risk      RiskAssessment    `json:"riskAssessment"`
	Final     TradingDecision   `json:"tradingDecision"`

	RecommendedPositionSize *float64 `json:"recommendedPositionSize,omitempty"`
	StopLoss                *float64 `json:"stopLoss,omitempty"`
	TakeProfit              *float64 `json:"takeProfit,omitempty"`
	RiskScore               *float64 `json:"riskScore,omitempty"`
}

// PositionSize returns the recommended size, or fallback when none is positive.
func (a *AnalysisResult) PositionSize(fallback float64) float64 {
	if a.RecommendedPositionSize != nil && *a.RecommendedPositionSize > 0 {
		return *a.RecommendedPositionSize
	}
	return fallback
}

type BotMetrics struct {
	TotalTrades   int             `json:"totalTrades"`
	WinningTrades int             `json:"winningTrades"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	MaxDrawdown   decimal.Decimal `json:"maxDrawdown"`
}

// PortfolioContext is the account snapshot handed to the agents. Empty fields mean the data could not be read.
type PortfolioContext struct {
	Portfolio     *models.Portfolio `json:"portfolio,omitempty"`
	OpenPositions []models.Position `json:"openPositions,omitempty"`
	RecentTrades  []models.Trade    `json:"recentTrades,omitempty"`
	BotMetrics    *BotMetrics       `json:"botMetrics,omitempty"`
	Timestamp     string            `json:"timestamp,omitempty"`
}

type BrokerCredentials struct {
	APIKey      string
	Identifier  string
	Password    string
	APISecret   string
	AccessToken string
	IsDemo      bool
	InstanceID  string
}

const (
	OrderAccepted = "ACCEPTED"
	OrderRejected = "REJECTED"
)

type OrderRequest struct {
	Instrument string
	Symbol     string
	Direction  string
	Size       float64
	StopLoss   *float64
	TakeProfit *float64
}

type OrderResult struct {
	Status        string
	DealReference string
	DealID        string
	Reason        string
	Level         *float64
}

type ExecutionDetails struct {
	DealReference string   `json:"dealReference"`
	DealID        string   `json:"dealId"`
	Direction     string   `json:"direction"`
	Size          float64  `json:"size"`
	EntryPrice    *float64 `json:"entryPrice,omitempty"`
}

type TradeExecutionResult struct {
	Success          bool              `json:"success"`
	TradeID          string            `json:"tradeId,omitempty"`
	Error            string            `json:"error,omitempty"`
	ExecutionDetails *ExecutionDetails `json:"executionDetails,omitempty"`
}

type EvaluationData struct {
	Message     string                `json:"message,omitempty"`
	Evaluation  *models.Evaluation    `json:"evaluation,omitempty"`
	Analysis    *AnalysisResult       `json:"analysis,omitempty"`
	TradeResult *TradeExecutionResult `json:"tradeResult,omitempty"`
	ChartURL    string                `json:"chartUrl,omitempty"`
}

// EvaluationOutcome is what callers of Evaluate receive. It never carries a Go error.
type EvaluationOutcome struct {
	BotID         string          `json:"botId"`
	Success       bool            `json:"success"`
	Data          *EvaluationData `json:"data,omitempty"`
	Error         string          `json:"error,omitempty"`
	TradeExecuted bool            `json:"tradeExecuted"`
	EvaluationID  string          `json:"evaluationId,omitempty"`
}
