package handlers

import (
	"errors"
	"net/http"

	"food-delivery-platform/apperr"
	"food-delivery-platform/models"
	"food-delivery-platform/statemachine"

	"github.com/gin-gonic/gin"
)

// GetRestaurantOrders returns one restaurant's orders with a status summary
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.Orders.ListRestaurantOrders(c.Request.Context(), scope(c), id, models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": list.Summary,
		"count":         len(list.Orders),
		"orders":        list.Orders,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,orderstatus"`
	Notes  string             `json:"notes"`
}

// UpdateOrderStatus handles staff state transitions
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !bind(c, &req) {
		return
	}

	order, err := h.Orders.Transition(c.Request.Context(), scope(c), id, req.Status, req.Notes)
	var te *statemachine.TransitionError
	if errors.As(err, &te) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             apperr.PublicMessage(err),
			"current_status":    te.From,
			"requested":         te.To,
			"valid_next_states": statemachine.ValidTransitionsFrom(te.From),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Order status updated",
		"order_id":       order.ID,
		"current_status": order.Status,
		"version":        order.Version,
		"order":          order,
	})
}
