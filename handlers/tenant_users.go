package handlers

import (
	"net/http"

	"food-delivery-platform/models"
	"food-delivery-platform/services"

	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Phone    string          `json:"phone"`
	Role     models.UserRole `json:"role" binding:"required,role"`
	TenantID uint            `json:"tenant_id"`
}

type ChangeRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required,role"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ListUsers returns the members of the caller's tenant
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), scope(c), models.UserRole(c.Query("role")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Users.CreateMember(c.Request.Context(), scope(c), services.MemberInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
		TenantID: req.TenantID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created", "user": user})
}

func (h *Handler) ChangeUserRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Users.ChangeRole(c.Request.Context(), scope(c), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": user})
}

func (h *Handler) SetUserActive(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Users.SetActive(c.Request.Context(), scope(c), id, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": user})
}
