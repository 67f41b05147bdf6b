package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission is earned by an affiliate once a referred order is delivered
type Commission struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	TenantID    uint            `json:"tenant_id" gorm:"not null;index"`
	AffiliateID uint            `json:"affiliate_id" gorm:"not null;index"`
	OrderID     uint            `json:"order_id" gorm:"not null;uniqueIndex"`
	Rate        decimal.Decimal `json:"rate" gorm:"type:decimal(5,4);not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
}
