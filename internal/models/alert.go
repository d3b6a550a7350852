package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertType discriminates the alert condition.
type AlertType string

const (
	AlertPriceUp       AlertType = "PRICE_UP"
	AlertPriceDown     AlertType = "PRICE_DOWN"
	AlertPercentChange AlertType = "PERCENT_CHANGE"
)

// Alert watches one holding's symbol against a price or percent threshold.
// Triggered only ever goes from false to true, and TriggeredAt is written in the same update.
type Alert struct {
	Base
	UserID         string              `gorm:"type:uuid;index;not null" json:"userId"`
	HoldingID      string              `gorm:"type:uuid;index;not null" json:"holdingId"`
	Symbol         string              `gorm:"not null" json:"symbol"`
	AlertType      AlertType           `gorm:"not null" json:"alertType"`
	TargetPrice    decimal.NullDecimal `gorm:"type:text" json:"targetPrice"`
	PercentChange  decimal.NullDecimal `gorm:"type:text" json:"percentChange"`
	ReferencePrice decimal.NullDecimal `gorm:"type:text" json:"referencePrice"`
	IsActive       bool                `gorm:"index;not null" json:"isActive"`
	Triggered      bool                `gorm:"index;not null" json:"triggered"`
	TriggeredAt    *time.Time          `json:"triggeredAt,omitempty"`
}
