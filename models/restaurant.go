package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	TenantID        uint            `json:"tenant_id" gorm:"not null;index"`
	Name            string          `json:"name" gorm:"not null"`
	Cuisine         string          `json:"cuisine"`
	Address         string          `json:"address"`
	Description     string          `json:"description"`
	AcceptingOrders bool            `json:"accepting_orders" gorm:"not null"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" gorm:"type:decimal(12,2);not null"`
	MinimumOrder    decimal.Decimal `json:"minimum_order" gorm:"type:decimal(12,2);not null"`
	Products        []Product       `json:"products,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Product struct {
	ID           uint                 `json:"id" gorm:"primaryKey"`
	TenantID     uint                 `json:"tenant_id" gorm:"not null;index"`
	RestaurantID uint                 `json:"restaurant_id" gorm:"not null;index"`
	Name         string               `json:"name" gorm:"not null"`
	Description  string               `json:"description"`
	Category     string               `json:"category"`
	BasePrice    decimal.Decimal      `json:"base_price" gorm:"type:decimal(12,2);not null"`
	Active       bool                 `json:"active" gorm:"not null"`
	OptionGroups []ProductOptionGroup `json:"option_groups,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// OptionGroup is a set of customizations with selection-count constraints.
// MaxSelect 0 means unlimited. FreeQuota selections are included in the base price.
type OptionGroup struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TenantID     uint      `json:"tenant_id" gorm:"not null;index"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Required     bool      `json:"required" gorm:"not null"`
	MinSelect    int       `json:"min_select" gorm:"not null"`
	MaxSelect    int       `json:"max_select" gorm:"not null"`
	FreeQuota    int       `json:"free_quota" gorm:"not null"`
	Options      []Option  `json:"options,omitempty" gorm:"foreignKey:OptionGroupID"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Option struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	OptionGroupID uint            `json:"option_group_id" gorm:"not null;index"`
	Name          string          `json:"name" gorm:"not null"`
	PriceDelta    decimal.Decimal `json:"price_delta" gorm:"type:decimal(12,2);not null"`
	Active        bool            `json:"active" gorm:"not null"`
	Position      int             `json:"position"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductOptionGroup links a group to a product. Nil overrides fall back to the group's values.
type ProductOptionGroup struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	ProductID     uint        `json:"product_id" gorm:"not null;uniqueIndex:idx_product_option_group"`
	OptionGroupID uint        `json:"option_group_id" gorm:"not null;uniqueIndex:idx_product_option_group"`
	OptionGroup   OptionGroup `json:"option_group" gorm:"foreignKey:OptionGroupID"`
	MinSelect     *int        `json:"min_select,omitempty"`
	MaxSelect     *int        `json:"max_select,omitempty"`
	FreeQuota     *int        `json:"free_quota,omitempty"`
	Position      int         `json:"position"`
}

// Effective returns the group's constraints with this link's overrides applied.
func (l ProductOptionGroup) Effective() (minSelect, maxSelect, freeQuota int) {
	minSelect, maxSelect, freeQuota = l.OptionGroup.MinSelect, l.OptionGroup.MaxSelect, l.OptionGroup.FreeQuota
	if l.MinSelect != nil {
		minSelect = *l.MinSelect
	}
	if l.MaxSelect != nil {
		maxSelect = *l.MaxSelect
	}
	if l.FreeQuota != nil {
		freeQuota = *l.FreeQuota
	}
	return minSelect, maxSelect, freeQuota
}
