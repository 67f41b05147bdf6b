package handlers

import (
	"net/http"

	"food-delivery-platform/models"
	"food-delivery-platform/statemachine"

	"github.com/gin-gonic/gin"
)

// ListRestaurants returns a tenant's restaurants (public)
func (h *Handler) ListRestaurants(c *gin.Context) {
	tenantID, ok := idParam(c, "tenantId")
	if !ok {
		return
	}
	restaurants, err := h.Catalog.PublicRestaurants(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("open") == "true" {
		open := restaurants[:0]
		for _, r := range restaurants {
			if r.AcceptingOrders {
				open = append(open, r)
			}
		}
		restaurants = open
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
}

// GetMenu returns the menu for a specific restaurant (public)
func (h *Handler) GetMenu(c *gin.Context) {
	tenantID, ok := idParam(c, "tenantId")
	if !ok {
		return
	}
	restaurantID, ok := idParam(c, "id")
	if !ok {
		return
	}
	menu, err := h.Catalog.Menu(c.Request.Context(), tenantID, restaurantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// GetStateMachineInfo documents the order lifecycle
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	var roles []models.UserRole
	for _, r := range models.AllRoles {
		if statemachine.Authorize(r) == nil {
			roles = append(roles, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"transitions":     statemachine.GetAllTransitions(),
		"terminal_states": statemachine.TerminalStates(),
		"allowed_roles":   roles,
	})
}

// Health pings the database
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
