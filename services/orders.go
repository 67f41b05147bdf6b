package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-delivery-platform/apperr"
	"food-delivery-platform/auth"
	"food-delivery-platform/events"
	"food-delivery-platform/idempotency"
	"food-delivery-platform/logging"
	"food-delivery-platform/models"
	"food-delivery-platform/pricing"
	"food-delivery-platform/statemachine"
	"food-delivery-platform/tenancy"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderMetrics receives order counters after commit.
type OrderMetrics interface {
	OrderPlaced(fulfillment string)
	OrderTransitioned(from, to string)
}

type nopMetrics struct{}

func (nopMetrics) OrderPlaced(string)               {}
func (nopMetrics) OrderTransitioned(string, string) {}

type Orders struct {
	runner         *tenancy.Runner
	idem           idempotency.Store
	publisher      events.Publisher
	metrics        OrderMetrics
	commissionRate decimal.Decimal
	now            func() time.Time
}

// NewOrders wires the order service. Nil collaborators fall back to no-ops.
func NewOrders(runner *tenancy.Runner, idem idempotency.Store, pub events.Publisher, m OrderMetrics, commissionRate decimal.Decimal) *Orders {
	if idem == nil {
		idem = idempotency.Nop{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &Orders{
		runner:         runner,
		idem:           idem,
		publisher:      pub,
		metrics:        m,
		commissionRate: commissionRate,
		now:            time.Now,
	}
}

type OrderItemInput struct {
	ProductID uint
	Quantity  int
	Notes     string
	Options   []pricing.Selection
}

type PlaceOrderInput struct {
	RestaurantID    uint
	Fulfillment     models.FulfillmentType
	DeliveryAddress string
	Notes           string
	ReferralCode    string
	IdempotencyKey  string
	Items           []OrderItemInput
}

func withOrderDetails(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Options", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Restaurant")
}

// visible narrows an orders query to what the scope may read.
func visible(scope tenancy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(scope.Tenant("orders"))
		switch {
		case scope.Role == models.RoleCustomer:
			return db.Where("orders.customer_id = ?", scope.UserID)
		case scope.Role == models.RoleAffiliate:
			return db.Where("orders.affiliate_id = ?", scope.UserID)
		case auth.Can(scope.Role, auth.CapViewTenantOrders):
			return db
		default:
			return db.Where("1 = 0")
		}
	}
}

// PlaceOrder prices the cart from the catalog and writes the order, its
// snapshots and the initial PENDING event in one transaction. A repeated
// idempotency key returns the first order with replayed set.
func (s *Orders) PlaceOrder(ctx context.Context, scope tenancy.Scope, in PlaceOrderInput) (order *models.Order, replayed bool, err error) {
	if err := authorize(scope, auth.CapPlaceOrder); err != nil {
		return nil, false, err
	}
	if !in.Fulfillment.Valid() {
		return nil, false, apperr.Validation("fulfillment must be DELIVERY or PICKUP")
	}
	if in.Fulfillment == models.FulfillmentDelivery && strings.TrimSpace(in.DeliveryAddress) == "" {
		return nil, false, apperr.Validation("delivery_address is required for delivery orders")
	}
	if len(in.Items) == 0 {
		return nil, false, apperr.Validation("order must contain at least one item")
	}

	log := logging.FromContext(ctx)
	var idemKey string
	if in.IdempotencyKey != "" {
		idemKey = idempotency.OrderCreateKey(scope.TenantID, scope.UserID, in.IdempotencyKey)
		id, found, err := s.idem.Lookup(ctx, idemKey)
		if err != nil {
			log.WithError(err).Warn("idempotency lookup failed, placing order anyway")
		} else if found {
			existing, err := s.GetOrder(ctx, scope, id)
			if err == nil {
				return existing, true, nil
			}
			log.WithError(err).WithField("order_id", id).Warn("idempotency key points to an unreadable order")
		}
	}

	order = &models.Order{}
	err = s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		var r models.Restaurant
		if err := tx.Scopes(scope.Tenant("restaurants")).First(&r, in.RestaurantID).Error; err != nil {
			return notFound(err, "restaurant not found")
		}

		lines, err := s.loadLines(tx, scope, r.ID, in.Items)
		if err != nil {
			return err
		}
		totals, err := pricing.PriceOrder(pricing.Restaurant{
			AcceptingOrders: r.AcceptingOrders,
			DeliveryFee:     r.DeliveryFee,
			MinimumOrder:    r.MinimumOrder,
		}, in.Fulfillment, lines)
		if err != nil {
			return err
		}

		affiliateID, err := s.resolveReferral(tx, r.TenantID, in.ReferralCode)
		if err != nil {
			return err
		}

		*order = models.Order{
			TenantID:        r.TenantID,
			RestaurantID:    r.ID,
			CustomerID:      scope.UserID,
			AffiliateID:     affiliateID,
			Status:          models.StatusPending,
			Fulfillment:     in.Fulfillment,
			DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
			Notes:           in.Notes,
			Subtotal:        totals.Subtotal,
			DeliveryFee:     totals.DeliveryFee,
			Total:           totals.Total,
			Version:         1,
			Items:           snapshotItems(totals.Lines, in.Items),
			Events: []models.OrderEvent{{
				ToStatus:    models.StatusPending,
				ActorUserID: scope.UserID,
				Notes:       "order placed",
			}},
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		id := order.ID
		*order = models.Order{}
		return withOrderDetails(tx).First(order, id).Error
	})
	if err != nil {
		return nil, false, wrap("services.PlaceOrder", err)
	}

	if idemKey != "" {
		if err := s.idem.Remember(ctx, idemKey, order.ID); err != nil {
			log.WithError(err).WithField("order_id", order.ID).Warn("could not record idempotency key")
		}
	}
	s.metrics.OrderPlaced(string(order.Fulfillment))
	s.publish(ctx, events.OrderEvent{
		Type:         events.TypeOrderCreated,
		OrderID:      order.ID,
		TenantID:     order.TenantID,
		RestaurantID: order.RestaurantID,
		ToStatus:     string(order.Status),
		ActorUserID:  scope.UserID,
		Total:        order.Total.StringFixed(2),
	})
	log.WithFields(map[string]interface{}{
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
	}).Info("order placed")
	return order, false, nil
}

// loadLines fetches every product in the cart from the restaurant's catalog.
func (s *Orders) loadLines(tx *gorm.DB, scope tenancy.Scope, restaurantID uint, items []OrderItemInput) ([]pricing.Line, error) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []models.Product
	if err := withOptionGroups(tx, false).Scopes(scope.Tenant("products")).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || p.RestaurantID != restaurantID {
			return nil, apperr.Validation(fmt.Sprintf("product %d is not on this restaurant's menu", it.ProductID))
		}
		if !p.Active {
			return nil, apperr.Validation(fmt.Sprintf("%q is not available", p.Name))
		}
		lines = append(lines, pricing.Line{
			Product:    pricing.FromCatalog(p),
			Quantity:   it.Quantity,
			Selections: it.Options,
		})
	}
	return lines, nil
}

func (s *Orders) resolveReferral(tx *gorm.DB, tenantID uint, code string) (*uint, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var affiliate models.User
	err := tx.Where("referral_code = ? AND tenant_id = ? AND role = ? AND active = ?",
		code, tenantID, models.RoleAffiliate, true).First(&affiliate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Validation("unknown referral code")
	}
	if err != nil {
		return nil, err
	}
	return &affiliate.ID, nil
}

func snapshotItems(lines []pricing.PricedLine, in []OrderItemInput) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for i, l := range lines {
		item := models.OrderItem{
			ProductID:    l.ProductID,
			NameSnapshot: l.Name,
			BasePrice:    l.BasePrice,
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
			LineTotal:    l.LineTotal,
			Notes:        in[i].Notes,
		}
		for _, o := range l.Options {
			item.Options = append(item.Options, models.OrderItemOption{
				OptionID:           o.OptionID,
				GroupNameSnapshot:  o.GroupName,
				OptionNameSnapshot: o.OptionName,
				PriceDeltaApplied:  o.PriceDeltaApplied,
				Quantity:           o.Quantity,
			})
		}
		items = append(items, item)
	}
	return items
}

// Transition moves an order to the next status. The role gate is checked
// before the table; the status change and its event are written together.
func (s *Orders) Transition(ctx context.Context, scope tenancy.Scope, orderID uint, to models.OrderStatus, notes string) (*models.Order, error) {
	if err := statemachine.Authorize(scope.Role); err != nil {
		return nil, apperr.Wrap(apperr.KindAuthorization, err.Error(), err)
	}
	if !to.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", to))
	}

	var order models.Order
	var from models.OrderStatus
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		if err := tx.Scopes(scope.Tenant("orders")).First(&order, orderID).Error; err != nil {
			return notFound(err, "order not found")
		}
		from = order.Status
		if err := statemachine.CanTransition(from, to); err != nil {
			return apperr.Wrap(apperr.KindValidation, err.Error(), err)
		}
		if err := applyTransition(tx, &order, to, scope.UserID, notes); err != nil {
			return err
		}
		if to == models.StatusDelivered && order.AffiliateID != nil {
			if err := s.recordCommission(tx, &order); err != nil {
				return err
			}
		}
		return withOrderDetails(tx).First(&order, order.ID).Error
	})
	if err != nil {
		return nil, wrap("services.Transition", err)
	}

	s.metrics.OrderTransitioned(string(from), string(to))
	s.publish(ctx, events.OrderEvent{
		Type:         events.TypeOrderStatusChanged,
		OrderID:      order.ID,
		TenantID:     order.TenantID,
		RestaurantID: order.RestaurantID,
		FromStatus:   string(from),
		ToStatus:     string(to),
		ActorUserID:  scope.UserID,
		Total:        order.Total.StringFixed(2),
	})
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"order_id": order.ID,
		"from":     from,
		"to":       to,
	}).Info("order status changed")
	return &order, nil
}

// applyTransition bumps the version only if nobody else changed the order
// since it was read, then appends the matching event.
func applyTransition(tx *gorm.DB, order *models.Order, to models.OrderStatus, actorID uint, notes string) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("order was changed by someone else, reload and try again")
	}

	from := order.Status
	event := models.OrderEvent{
		OrderID:     order.ID,
		FromStatus:  &from,
		ToStatus:    to,
		ActorUserID: actorID,
		Notes:       notes,
	}
	if err := tx.Create(&event).Error; err != nil {
		return err
	}
	order.Status = to
	order.Version++
	return nil
}

func (s *Orders) recordCommission(tx *gorm.DB, order *models.Order) error {
	c := models.Commission{
		TenantID:    order.TenantID,
		AffiliateID: *order.AffiliateID,
		OrderID:     order.ID,
		Rate:        s.commissionRate,
		Amount:      order.Subtotal.Mul(s.commissionRate).Round(2),
	}
	if err := tx.Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("commission already recorded for this order")
		}
		return err
	}
	return nil
}

func (s *Orders) publish(ctx context.Context, e events.OrderEvent) {
	e.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("order_id", e.OrderID).Warn("order event not published")
	}
}

// GetOrder returns one order with its items and event history. Orders the
// scope may not read are reported as missing.
func (s *Orders) GetOrder(ctx context.Context, scope tenancy.Scope, id uint) (*models.Order, error) {
	var order models.Order
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		err := withOrderDetails(tx).Scopes(visible(scope)).First(&order, id).Error
		return notFound(err, "order not found")
	})
	if err != nil {
		return nil, wrap("services.GetOrder", err)
	}
	return &order, nil
}

// ListMine returns the caller's own orders, newest first.
func (s *Orders) ListMine(ctx context.Context, scope tenancy.Scope) ([]models.Order, error) {
	var orders []models.Order
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		return tx.Preload("Restaurant").
			Scopes(scope.Tenant("orders")).
			Where("customer_id = ?", scope.UserID).
			Order("created_at desc, id desc").
			Find(&orders).Error
	})
	return orders, wrap("services.ListMine", err)
}

// OrderList is a page of orders with counts per status.
type OrderList struct {
	Orders  []models.Order
	Summary map[models.OrderStatus]int
}

func summarize(orders []models.Order) OrderList {
	summary := make(map[models.OrderStatus]int)
	for _, o := range orders {
		summary[o.Status]++
	}
	return OrderList{Orders: orders, Summary: summary}
}

func statusFilter(status models.OrderStatus) (func(*gorm.DB) *gorm.DB, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", status))
	}
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("orders.status = ?", status)
	}, nil
}

// ListRestaurantOrders is the kitchen view of one restaurant.
func (s *Orders) ListRestaurantOrders(ctx context.Context, scope tenancy.Scope, restaurantID uint, status models.OrderStatus) (*OrderList, error) {
	if err := authorize(scope, auth.CapViewTenantOrders); err != nil {
		return nil, err
	}
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	err = s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		var r models.Restaurant
		if err := tx.Scopes(scope.Tenant("restaurants")).First(&r, restaurantID).Error; err != nil {
			return notFound(err, "restaurant not found")
		}
		return tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Preload("Customer").
			Scopes(scope.Tenant("orders"), filter).
			Where("restaurant_id = ?", r.ID).
			Order("created_at desc, id desc").
			Find(&orders).Error
	})
	if err != nil {
		return nil, wrap("services.ListRestaurantOrders", err)
	}
	list := summarize(orders)
	return &list, nil
}

// ListAll is the platform view across every tenant.
func (s *Orders) ListAll(ctx context.Context, scope tenancy.Scope, status models.OrderStatus) (*OrderList, error) {
	if err := authorize(scope, auth.CapViewAllOrders); err != nil {
		return nil, err
	}
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	err = s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		return tx.Preload("Restaurant").Scopes(filter).Order("created_at desc, id desc").Find(&orders).Error
	})
	if err != nil {
		return nil, wrap("services.ListAll", err)
	}
	list := summarize(orders)
	return &list, nil
}
