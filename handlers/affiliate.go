package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCommissions returns earned commissions. Admins may pass ?affiliate_id.
func (h *Handler) GetCommissions(c *gin.Context) {
	affiliateID, ok := queryID(c, "affiliate_id")
	if !ok {
		return
	}
	report, err := h.Affiliates.Commissions(c.Request.Context(), scope(c), affiliateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(report.Commissions),
		"total":       report.Total.StringFixed(2),
		"commissions": report.Commissions,
	})
}
