package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCanceled       OrderStatus = "CANCELED"
)

var AllStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCanceled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "DELIVERY"
	FulfillmentPickup   FulfillmentType = "PICKUP"
)

func (f FulfillmentType) Valid() bool {
	return f == FulfillmentDelivery || f == FulfillmentPickup
}

// ErrAppendOnly is returned when code tries to rewrite an order snapshot or event
var ErrAppendOnly = errors.New("record is immutable once written")

type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	TenantID        uint            `json:"tenant_id" gorm:"not null;index"`
	RestaurantID    uint            `json:"restaurant_id" gorm:"not null;index"`
	Restaurant      *Restaurant     `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	CustomerID      uint            `json:"customer_id" gorm:"not null;index"`
	Customer        *User           `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	AffiliateID     *uint           `json:"affiliate_id,omitempty" gorm:"index"`
	Status          OrderStatus     `json:"status" gorm:"not null;index"`
	Fulfillment     FulfillmentType `json:"fulfillment" gorm:"not null"`
	DeliveryAddress string          `json:"delivery_address"`
	Notes           string          `json:"notes"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	// Version increments on every status change and guards concurrent transitions.
	Version   int          `json:"version" gorm:"not null"`
	Items     []OrderItem  `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Events    []OrderEvent `json:"events,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// OrderItem is a point-in-time snapshot of a product
type OrderItem struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	OrderID      uint              `json:"order_id" gorm:"not null;index"`
	ProductID    uint              `json:"product_id" gorm:"not null"`
	NameSnapshot string            `json:"name_snapshot" gorm:"not null"`
	BasePrice    decimal.Decimal   `json:"base_price" gorm:"type:decimal(12,2);not null"`
	UnitPrice    decimal.Decimal   `json:"unit_price" gorm:"type:decimal(12,2);not null"` // base + applied option deltas
	Quantity     int               `json:"quantity" gorm:"not null"`
	LineTotal    decimal.Decimal   `json:"line_total" gorm:"type:decimal(12,2);not null"`
	Notes        string            `json:"notes"`
	Options      []OrderItemOption `json:"options,omitempty" gorm:"foreignKey:OrderItemID"`
	CreatedAt    time.Time         `json:"created_at"`
}

// OrderItemOption snapshots one selected option. PriceDeltaApplied is the amount
// actually charged for this selection after the group's free quota.
type OrderItemOption struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	OrderItemID        uint            `json:"order_item_id" gorm:"not null;index"`
	OptionID           uint            `json:"option_id" gorm:"not null"`
	GroupNameSnapshot  string          `json:"group_name_snapshot" gorm:"not null"`
	OptionNameSnapshot string          `json:"option_name_snapshot" gorm:"not null"`
	PriceDeltaApplied  decimal.Decimal `json:"price_delta_applied" gorm:"type:decimal(12,2);not null"`
	Quantity           int             `json:"quantity" gorm:"not null"`
}

// OrderEvent is the append-only audit trail of an order's status
type OrderEvent struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	OrderID     uint         `json:"order_id" gorm:"not null;index"`
	FromStatus  *OrderStatus `json:"from_status"`
	ToStatus    OrderStatus  `json:"to_status" gorm:"not null"`
	ActorUserID uint         `json:"actor_user_id" gorm:"not null"`
	Notes       string       `json:"notes"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (OrderItem) BeforeUpdate(*gorm.DB) error       { return ErrAppendOnly }
func (OrderItem) BeforeDelete(*gorm.DB) error       { return ErrAppendOnly }
func (OrderItemOption) BeforeUpdate(*gorm.DB) error { return ErrAppendOnly }
func (OrderItemOption) BeforeDelete(*gorm.DB) error { return ErrAppendOnly }
func (OrderEvent) BeforeUpdate(*gorm.DB) error      { return ErrAppendOnly }
func (OrderEvent) BeforeDelete(*gorm.DB) error      { return ErrAppendOnly }
