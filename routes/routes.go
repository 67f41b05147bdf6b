package routes

import (
	"food-delivery-platform/auth"
	"food-delivery-platform/handlers"
	"food-delivery-platform/middleware"
	"food-delivery-platform/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, tokens *auth.Tokens) {
	r.GET("/health", h.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/signup", h.Signup)
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)
		public.POST("/auth/forgot-password", h.ForgotPassword)
		public.POST("/auth/reset-password", h.ResetPassword)

		// Restaurants & menus (no auth needed)
		public.GET("/tenants/:tenantId/restaurants", h.ListRestaurants)
		public.GET("/tenants/:tenantId/restaurants/:id/menu", h.GetMenu)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(tokens))
	{
		api.GET("/me", h.GetProfile)
	}

	// ── Orders ─────────────────────────────────────────────────────
	orders := api.Group("/orders")
	{
		orders.POST("", middleware.CapabilityRequired(auth.CapPlaceOrder), h.PlaceOrder)
		orders.GET("/mine", h.GetMyOrders)
		orders.GET("/:id", h.GetOrderDetail)
		orders.PATCH("/:id/status", middleware.CapabilityRequired(auth.CapTransitionOrder), h.UpdateOrderStatus)
	}

	// ── Restaurant staff & catalog ─────────────────────────────────
	staff := api.Group("")
	staff.Use(middleware.RoleRequired(models.RoleStaff))
	{
		staff.GET("/restaurants", h.GetMyRestaurants)
		staff.POST("/restaurants", h.CreateRestaurant)
		staff.PATCH("/restaurants/:id", h.UpdateRestaurant)
		staff.GET("/restaurants/:id/orders", h.GetRestaurantOrders)
		staff.GET("/restaurants/:id/products", h.ListProducts)
		staff.POST("/restaurants/:id/products", h.CreateProduct)
		staff.POST("/restaurants/:id/option-groups", h.CreateOptionGroup)

		staff.PATCH("/products/:productId", h.UpdateProduct)
		staff.POST("/products/:productId/option-groups", h.AttachOptionGroup)
		staff.POST("/option-groups/:groupId/options", h.AddOption)
		staff.PATCH("/options/:optionId", h.UpdateOption)
	}

	// ── Tenant user management ─────────────────────────────────────
	users := api.Group("/users")
	users.Use(middleware.CapabilityRequired(auth.CapManageUsers))
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.PATCH("/:id/role", h.ChangeUserRole)
		users.PATCH("/:id/active", h.SetUserActive)
	}

	// ── Affiliates ─────────────────────────────────────────────────
	api.GET("/affiliate/commissions", h.GetCommissions)

	// ── Admin routes ───────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/orders", h.AdminGetAllOrders)
		admin.GET("/tenants", h.AdminListTenants)
		admin.PATCH("/tenants/:id", h.AdminUpdateTenant)
	}
}
