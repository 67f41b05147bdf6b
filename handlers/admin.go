package handlers

import (
	"net/http"

	"food-delivery-platform/models"
	"food-delivery-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminGetAllOrders returns every order on the platform with a status summary
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	list, err := h.Orders.ListAll(c.Request.Context(), scope(c), models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	revenue := decimal.Zero
	for _, o := range list.Orders {
		if o.Status == models.StatusDelivered {
			revenue = revenue.Add(o.Total)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary":     list.Summary,
		"delivered_revenue": revenue.StringFixed(2),
		"count":             len(list.Orders),
		"orders":            list.Orders,
	})
}

// AdminListTenants lists tenants, optionally by status
func (h *Handler) AdminListTenants(c *gin.Context) {
	tenants, err := h.Tenants.List(c.Request.Context(), scope(c), models.TenantStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(tenants), "tenants": tenants})
}

type UpdateTenantRequest struct {
	Status *models.TenantStatus `json:"status"`
	Plan   *string              `json:"plan"`
}

// AdminUpdateTenant suspends, reactivates or re-plans a tenant
func (h *Handler) AdminUpdateTenant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTenantRequest
	if !bind(c, &req) {
		return
	}
	tenant, err := h.Tenants.Update(c.Request.Context(), scope(c), id, services.TenantUpdate{Status: req.Status, Plan: req.Plan})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tenant updated", "tenant": tenant})
}
