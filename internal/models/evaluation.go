package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Evaluation is the immutable record of one decision cycle.
type Evaluation struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	BotID         string         `gorm:"type:varchar(36);not null;index" json:"botId"`
	UserID        string         `gorm:"type:varchar(36);not null;index" json:"userId"`
	Symbol        string         `json:"symbol"`
	Timeframe     string         `json:"timeframe"`
	ChartURL      string         `gorm:"column:chart_url" json:"chartUrl"`
	Decision      string         `gorm:"index" json:"decision"`
	Confidence    float64        `json:"confidence"`
	Reasoning     string         `gorm:"type:text" json:"reasoning"`
	ChartAnalysis string         `gorm:"type:text" json:"chartAnalysis"`
	RiskScore     *float64       `json:"riskScore,omitempty"`
	PositionSize  *float64       `json:"positionSize,omitempty"`
	StopLoss      *float64       `json:"stopLoss,omitempty"`
	TakeProfit    *float64       `json:"takeProfit,omitempty"`
	MarketPrice   *float64       `json:"marketPrice,omitempty"`
	AIResponse    datatypes.JSON `gorm:"column:ai_response" json:"aiResponse,omitempty"`
	PortfolioData datatypes.JSON `json:"portfolioData,omitempty"`
	StartDate     time.Time      `json:"startDate"`
	EndDate       *time.Time     `json:"endDate,omitempty"`
	Success       bool           `json:"success"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	Trades []Trade `gorm:"foreignKey:EvaluationID" json:"trades,omitempty"`
}

// TableName specifies the table name for Evaluation model
func (Evaluation) TableName() string {
	return "evaluations"
}

// BeforeCreate assigns an id
func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	newID(&e.ID)
	return nil
}

// Trade statuses and order types written by the evaluator.
const (
	TradeStatusFilled = "FILLED"
	TradeTypeMarket   = "MARKET"
)

// Trade is an order accepted by a broker.
type Trade struct {
	ID            string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string              `gorm:"type:varchar(36);not null;index" json:"userId"`
	BotID         string              `gorm:"type:varchar(36);index" json:"botId"`
	Symbol        string              `json:"symbol"`
	Side          string              `json:"side"`
	Type          string              `json:"type"`
	Size          float64             `json:"size"`
	EntryPrice    *float64            `json:"entryPrice,omitempty"`
	ExitPrice     *float64            `json:"exitPrice,omitempty"`
	StopLoss      *float64            `json:"stopLoss,omitempty"`
	TakeProfit    *float64            `json:"takeProfit,omitempty"`
	Status        string              `json:"status"`
	BrokerOrderID string              `json:"brokerOrderId"`
	BrokerTradeID string              `json:"brokerTradeId"`
	Reason        string              `gorm:"type:text" json:"reason"`
	Confidence    float64             `json:"confidence"`
	EvaluationID  *string             `gorm:"type:varchar(36);index" json:"evaluationId,omitempty"`
	ProfitLoss    decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"profitLoss"`
	OpenedAt      *time.Time          `json:"openedAt,omitempty"`
	ClosedAt      *time.Time          `json:"closedAt,omitempty"`
	CreatedAt     time.Time           `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// TableName specifies the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}

// BeforeCreate assigns an id
func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}
