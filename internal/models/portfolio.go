package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Portfolio is the account-level snapshot for a user.
type Portfolio struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string          `gorm:"type:varchar(36);not null;index" json:"userId"`
	Name            string          `json:"name"`
	Currency        string          `json:"currency"`
	Balance         decimal.Decimal `gorm:"type:decimal(20,8)" json:"balance"`
	Equity          decimal.Decimal `gorm:"type:decimal(20,8)" json:"equity"`
	AvailableMargin decimal.Decimal `gorm:"type:decimal(20,8)" json:"availableMargin"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for Portfolio model
func (Portfolio) TableName() string {
	return "portfolios"
}

// BeforeCreate assigns an id
func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

// Position is an open exposure held on behalf of a bot.
type Position struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string          `gorm:"type:varchar(36);index" json:"userId"`
	BotID         string          `gorm:"type:varchar(36);not null;index" json:"botId"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Size          float64         `json:"size"`
	EntryPrice    float64         `json:"entryPrice"`
	CurrentPrice  float64         `json:"currentPrice"`
	UnrealizedPnL decimal.Decimal `gorm:"column:unrealized_pnl;type:decimal(20,8)" json:"unrealizedPnl"`
	OpenedAt      time.Time       `json:"openedAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for Position model
func (Position) TableName() string {
	return "positions"
}

// BeforeCreate assigns an id
func (p *Position) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}
