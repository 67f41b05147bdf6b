package handlers

import (
	"net/http"

	"food-delivery-platform/models"
	"food-delivery-platform/pricing"
	"food-delivery-platform/services"

	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

type OrderOptionRequest struct {
	OptionID uint `json:"option_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"omitempty,min=1,max=99"`
}

type OrderItemRequest struct {
	ProductID uint                 `json:"product_id" binding:"required"`
	Quantity  int                  `json:"quantity" binding:"required,min=1,max=99"`
	Notes     string               `json:"notes"`
	Options   []OrderOptionRequest `json:"options" binding:"dive"`
}

type PlaceOrderRequest struct {
	RestaurantID    uint                   `json:"restaurant_id" binding:"required"`
	Fulfillment     models.FulfillmentType `json:"fulfillment" binding:"required,fulfillment"`
	DeliveryAddress string                 `json:"delivery_address"`
	Notes           string                 `json:"notes"`
	ReferralCode    string                 `json:"referral_code"`
	Items           []OrderItemRequest     `json:"items" binding:"required,min=1,dive"`
}

// PlaceOrder creates a new order (customer only)
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if !bind(c, &req) {
		return
	}

	in := services.PlaceOrderInput{
		RestaurantID:    req.RestaurantID,
		Fulfillment:     req.Fulfillment,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		ReferralCode:    req.ReferralCode,
		IdempotencyKey:  c.GetHeader(IdempotencyHeader),
	}
	for _, it := range req.Items {
		item := services.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity, Notes: it.Notes}
		for _, o := range it.Options {
			qty := o.Quantity
			if qty == 0 {
				qty = 1
			}
			item.Options = append(item.Options, pricing.Selection{OptionID: o.OptionID, Quantity: qty})
		}
		in.Items = append(in.Items, item)
	}

	order, replayed, err := h.Orders.PlaceOrder(c.Request.Context(), scope(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	if replayed {
		c.JSON(http.StatusOK, gin.H{"message": "Order already placed", "order": order, "replayed": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// GetMyOrders returns all orders for the logged-in customer
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListMine(c.Request.Context(), scope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns one order with items and its status history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), scope(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
