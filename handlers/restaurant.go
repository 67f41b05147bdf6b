package handlers

import (
	"net/http"

	"food-delivery-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type RestaurantRequest struct {
	Name            string          `json:"name" binding:"required"`
	Cuisine         string          `json:"cuisine"`
	Address         string          `json:"address"`
	Description     string          `json:"description"`
	AcceptingOrders *bool           `json:"accepting_orders"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	MinimumOrder    decimal.Decimal `json:"minimum_order"`
}

type UpdateRestaurantRequest struct {
	Name            *string          `json:"name"`
	Cuisine         *string          `json:"cuisine"`
	Address         *string          `json:"address"`
	Description     *string          `json:"description"`
	AcceptingOrders *bool            `json:"accepting_orders"`
	DeliveryFee     *decimal.Decimal `json:"delivery_fee"`
	MinimumOrder    *decimal.Decimal `json:"minimum_order"`
}

type ProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	Active      *bool            `json:"active"`
}

type OptionRequest struct {
	Name       string          `json:"name" binding:"required"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	Position   int             `json:"position"`
}

type UpdateOptionRequest struct {
	Name       *string          `json:"name"`
	PriceDelta *decimal.Decimal `json:"price_delta"`
	Active     *bool            `json:"active"`
}

type OptionGroupRequest struct {
	Name      string          `json:"name" binding:"required"`
	Required  bool            `json:"required"`
	MinSelect int             `json:"min_select" binding:"min=0"`
	MaxSelect int             `json:"max_select" binding:"min=0"`
	FreeQuota int             `json:"free_quota" binding:"min=0"`
	Options   []OptionRequest `json:"options" binding:"dive"`
}

type AttachGroupRequest struct {
	OptionGroupID uint `json:"option_group_id" binding:"required"`
	MinSelect     *int `json:"min_select" binding:"omitempty,min=0"`
	MaxSelect     *int `json:"max_select" binding:"omitempty,min=0"`
	FreeQuota     *int `json:"free_quota" binding:"omitempty,min=0"`
	Position      int  `json:"position"`
}

// CreateRestaurant adds a restaurant to the caller's tenant
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req RestaurantRequest
	if !bind(c, &req) {
		return
	}
	accepting := true
	if req.AcceptingOrders != nil {
		accepting = *req.AcceptingOrders
	}
	r, err := h.Catalog.CreateRestaurant(c.Request.Context(), scope(c), services.RestaurantInput{
		Name:            req.Name,
		Cuisine:         req.Cuisine,
		Address:         req.Address,
		Description:     req.Description,
		AcceptingOrders: accepting,
		DeliveryFee:     req.DeliveryFee,
		MinimumOrder:    req.MinimumOrder,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": r})
}

// GetMyRestaurants lists the restaurants of the caller's tenant
func (h *Handler) GetMyRestaurants(c *gin.Context) {
	list, err := h.Catalog.ListRestaurants(c.Request.Context(), scope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "restaurants": list})
}

// UpdateRestaurant edits details or toggles accepting_orders
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateRestaurantRequest
	if !bind(c, &req) {
		return
	}
	r, err := h.Catalog.UpdateRestaurant(c.Request.Context(), scope(c), id, services.RestaurantUpdate{
		Name:            req.Name,
		Cuisine:         req.Cuisine,
		Address:         req.Address,
		Description:     req.Description,
		AcceptingOrders: req.AcceptingOrders,
		DeliveryFee:     req.DeliveryFee,
		MinimumOrder:    req.MinimumOrder,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": r})
}

func (h *Handler) ListProducts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	products, err := h.Catalog.ListProducts(c.Request.Context(), scope(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "products": products})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.Catalog.CreateProduct(c.Request.Context(), scope(c), id, services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product added", "product": p})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "productId")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.Catalog.UpdateProduct(c.Request.Context(), scope(c), id, services.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		Active:      req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": p})
}

func (h *Handler) CreateOptionGroup(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req OptionGroupRequest
	if !bind(c, &req) {
		return
	}
	in := services.OptionGroupInput{
		Name:      req.Name,
		Required:  req.Required,
		MinSelect: req.MinSelect,
		MaxSelect: req.MaxSelect,
		FreeQuota: req.FreeQuota,
	}
	for _, o := range req.Options {
		in.Options = append(in.Options, services.OptionInput{Name: o.Name, PriceDelta: o.PriceDelta, Position: o.Position})
	}
	g, err := h.Catalog.CreateOptionGroup(c.Request.Context(), scope(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Option group created", "option_group": g})
}

func (h *Handler) AddOption(c *gin.Context) {
	id, ok := idParam(c, "groupId")
	if !ok {
		return
	}
	var req OptionRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.Catalog.AddOption(c.Request.Context(), scope(c), id, services.OptionInput{
		Name: req.Name, PriceDelta: req.PriceDelta, Position: req.Position,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Option added", "option": o})
}

func (h *Handler) UpdateOption(c *gin.Context) {
	id, ok := idParam(c, "optionId")
	if !ok {
		return
	}
	var req UpdateOptionRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.Catalog.UpdateOption(c.Request.Context(), scope(c), id, services.OptionUpdate{
		Name: req.Name, PriceDelta: req.PriceDelta, Active: req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Option updated", "option": o})
}

// AttachOptionGroup links an option group to a product
func (h *Handler) AttachOptionGroup(c *gin.Context) {
	id, ok := idParam(c, "productId")
	if !ok {
		return
	}
	var req AttachGroupRequest
	if !bind(c, &req) {
		return
	}
	link, err := h.Catalog.AttachOptionGroup(c.Request.Context(), scope(c), id, services.AttachInput{
		OptionGroupID: req.OptionGroupID,
		MinSelect:     req.MinSelect,
		MaxSelect:     req.MaxSelect,
		FreeQuota:     req.FreeQuota,
		Position:      req.Position,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Option group attached", "link": link})
}
