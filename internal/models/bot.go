package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Bot is an automated trading agent bound to one trading pair and one user.
type Bot struct {
	ID                 string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID             string          `gorm:"type:varchar(36);not null;index" json:"userId"`
	StrategyID         *string         `gorm:"type:varchar(36)" json:"strategyId,omitempty"`
	BrokerCredentialID *string         `gorm:"type:varchar(36)" json:"brokerCredentialId,omitempty"`
	Name               string          `json:"name"`
	TradingPairSymbol  string          `gorm:"not null" json:"tradingPairSymbol"`
	Timeframe          string          `gorm:"not null" json:"timeframe"`
	IsActive           bool            `gorm:"column:is_active;index" json:"isActive"`
	IsAITradingActive  bool            `gorm:"column:is_ai_trading_active" json:"isAiTradingActive"`
	MaxPositionSize    float64         `json:"maxPositionSize"`
	TotalTrades        int             `gorm:"not null" json:"totalTrades"`
	WinningTrades      int             `gorm:"not null" json:"winningTrades"`
	TotalProfit        decimal.Decimal `gorm:"type:decimal(20,8)" json:"totalProfit"`
	MaxDrawdown        decimal.Decimal `gorm:"type:decimal(20,8)" json:"maxDrawdown"`
	LastEvaluationAt   *time.Time      `json:"lastEvaluationAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`

	User             *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Strategy         *Strategy         `gorm:"foreignKey:StrategyID" json:"strategy,omitempty"`
	BrokerCredential *BrokerCredential `gorm:"foreignKey:BrokerCredentialID" json:"brokerCredential,omitempty"`
}

// TableName specifies the table name for Bot model
func (Bot) TableName() string {
	return "bots"
}

// BeforeCreate assigns an id
func (b *Bot) BeforeCreate(tx *gorm.DB) error {
	newID(&b.ID)
	return nil
}

// Strategy describes the trading approach a bot follows. It is informational to the evaluator.
type Strategy struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string         `gorm:"type:varchar(36);index" json:"userId"`
	Name        string         `json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Config      datatypes.JSON `json:"config,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TableName specifies the table name for Strategy model
func (Strategy) TableName() string {
	return "strategies"
}

// BeforeCreate assigns an id
func (s *Strategy) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

// Supported broker names for BrokerCredential.Broker.
const (
	BrokerCapital = "capital"
	BrokerZerodha = "zerodha"
	BrokerPaper   = "paper"
)

// BrokerCredential stores the opaque login payload for one broker account.
type BrokerCredential struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string         `gorm:"type:varchar(36);index" json:"userId"`
	Broker      string         `gorm:"not null" json:"broker"`
	Name        string         `json:"name"`
	Credentials datatypes.JSON `json:"-"`
	IsDemo      bool           `gorm:"column:is_demo" json:"isDemo"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TableName specifies the table name for BrokerCredential model
func (BrokerCredential) TableName() string {
	return "broker_credentials"
}

// BeforeCreate assigns an id
func (c *BrokerCredential) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

// CredentialPayload is the decoded form of BrokerCredential.Credentials.
type CredentialPayload struct {
	APIKey      string `json:"apiKey"`
	Identifier  string `json:"identifier"`
	Password    string `json:"password"`
	APISecret   string `json:"apiSecret,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// HasPayload reports whether any credential payload is stored.
func (c *BrokerCredential) HasPayload() bool {
	if c == nil {
		return false
	}
	s := string(c.Credentials)
	return s != "" && s != "null" && s != "{}"
}

// Payload decodes the stored credential JSON.
func (c *BrokerCredential) Payload() (CredentialPayload, error) {
	var p CredentialPayload
	err := json.Unmarshal(c.Credentials, &p)
	return p, err
}
