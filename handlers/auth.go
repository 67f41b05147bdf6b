package handlers

import (
	"net/http"

	"food-delivery-platform/services"

	"github.com/gin-gonic/gin"
)

type SignupRequest struct {
	TenantName string `json:"tenant_name" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Phone      string `json:"phone"`
}

type RegisterRequest struct {
	TenantID uint   `json:"tenant_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func sessionResponse(s *services.Session) gin.H {
	return gin.H{"token": s.Token, "user": s.User}
}

// Signup creates a tenant and its first account
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bind(c, &req) {
		return
	}
	s, err := h.Accounts.Signup(c.Request.Context(), services.SignupInput{
		TenantName: req.TenantName,
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Phone:      req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	resp := sessionResponse(s)
	resp["message"] = "Tenant created successfully"
	c.JSON(http.StatusCreated, resp)
}

// Register signs a customer up to an existing tenant
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	s, err := h.Accounts.RegisterCustomer(c.Request.Context(), services.RegisterInput{
		TenantID: req.TenantID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	resp := sessionResponse(s)
	resp["message"] = "Account created successfully"
	c.JSON(http.StatusCreated, resp)
}

// Login authenticates and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	s, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// ForgotPassword always answers 200 so it cannot be used to probe emails
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bind(c, &req) {
		return
	}
	token, err := h.Accounts.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"message": "If that email is registered, a reset link has been sent"}
	if h.ExposeResetToken && token != "" {
		resp["reset_token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Accounts.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// GetProfile returns the logged-in user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.Accounts.Me(c.Request.Context(), scope(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
