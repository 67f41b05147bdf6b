package services

import (
	"context"

	"food-delivery-platform/apperr"
	"food-delivery-platform/auth"
	"food-delivery-platform/models"
	"food-delivery-platform/tenancy"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Catalog manages restaurants, products and their option groups
type Catalog struct {
	runner *tenancy.Runner
}

func NewCatalog(runner *tenancy.Runner) *Catalog {
	return &Catalog{runner: runner}
}

type RestaurantInput struct {
	Name            string
	Cuisine         string
	Address         string
	Description     string
	AcceptingOrders bool
	DeliveryFee     decimal.Decimal
	MinimumOrder    decimal.Decimal
}

// RestaurantUpdate holds optional fields; nil means unchanged.
type RestaurantUpdate struct {
	Name            *string
	Cuisine         *string
	Address         *string
	Description     *string
	AcceptingOrders *bool
	DeliveryFee     *decimal.Decimal
	MinimumOrder    *decimal.Decimal
}

type ProductInput struct {
	Name        string
	Description string
	Category    string
	BasePrice   decimal.Decimal
}

type ProductUpdate struct {
	Name        *string
	Description *string
	Category    *string
	BasePrice   *decimal.Decimal
	Active      *bool
}

type OptionInput struct {
	Name       string
	PriceDelta decimal.Decimal
	Position   int
}

type OptionUpdate struct {
	Name       *string
	PriceDelta *decimal.Decimal
	Active     *bool
}

type OptionGroupInput struct {
	Name      string
	Required  bool
	MinSelect int
	MaxSelect int
	FreeQuota int
	Options   []OptionInput
}

type AttachInput struct {
	OptionGroupID uint
	MinSelect     *int
	MaxSelect     *int
	FreeQuota     *int
	Position      int
}

func nonNegative(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return apperr.Validation(name + " cannot be negative")
	}
	return nil
}

func checkConstraints(minSelect, maxSelect, freeQuota int) error {
	if minSelect < 0 || maxSelect < 0 || freeQuota < 0 {
		return apperr.Validation("selection limits cannot be negative")
	}
	if maxSelect > 0 && minSelect > maxSelect {
		return apperr.Validation("min_select cannot exceed max_select")
	}
	return nil
}

func (s *Catalog) findRestaurant(tx *gorm.DB, scope tenancy.Scope, id uint) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := tx.Scopes(scope.Tenant("restaurants")).First(&r, id).Error; err != nil {
		return nil, notFound(err, "restaurant not found")
	}
	return &r, nil
}

func (s *Catalog) findProduct(tx *gorm.DB, scope tenancy.Scope, id uint) (*models.Product, error) {
	var p models.Product
	if err := tx.Scopes(scope.Tenant("products")).First(&p, id).Error; err != nil {
		return nil, notFound(err, "product not found")
	}
	return &p, nil
}

func (s *Catalog) findGroup(tx *gorm.DB, scope tenancy.Scope, id uint) (*models.OptionGroup, error) {
	var g models.OptionGroup
	if err := tx.Scopes(scope.Tenant("option_groups")).First(&g, id).Error; err != nil {
		return nil, notFound(err, "option group not found")
	}
	return &g, nil
}

// ── Restaurants ─────────────────────────────────────────────────────────────

func (s *Catalog) CreateRestaurant(ctx context.Context, scope tenancy.Scope, in RestaurantInput) (*models.Restaurant, error) {
	if err := authorize(scope, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	if err := nonNegative("delivery_fee", in.DeliveryFee); err != nil {
		return nil, err
	}
	if err := nonNegative("minimum_order", in.MinimumOrder); err != nil {
		return nil, err
	}
	r := models.Restaurant{
		TenantID:        scope.TenantID,
		Name:            in.Name,
		Cuisine:         in.Cuisine,
		Address:         in.Address,
		Description:     in.Description,
		AcceptingOrders: in.AcceptingOrders,
		DeliveryFee:     in.DeliveryFee,
		MinimumOrder:    in.MinimumOrder,
	}
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, wrap("services.CreateRestaurant", err)
	}
	return &r, nil
}

func (s *Catalog) ListRestaurants(ctx context.Context, scope tenancy.Scope) ([]models.Restaurant, error) {
	var out []models.Restaurant
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		return tx.Scopes(scope.Tenant("restaurants")).Order("id").Find(&out).Error
	})
	return out, wrap("services.ListRestaurants", err)
}

// UpdateRestaurant applies in. STAFF may only toggle accepting_orders.
func (s *Catalog) UpdateRestaurant(ctx context.Context, scope tenancy.Scope, id uint, in RestaurantUpdate) (*models.Restaurant, error) {
	onlyToggle := in.Name == nil && in.Cuisine == nil && in.Address == nil && in.Description == nil &&
		in.DeliveryFee == nil && in.MinimumOrder == nil
	if onlyToggle {
		if err := authorize(scope, auth.CapToggleAccepting); err != nil {
			return nil, err
		}
	} else if err := authorize(scope, auth.CapManageCatalog); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Cuisine != nil {
		updates["cuisine"] = *in.Cuisine
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.AcceptingOrders != nil {
		updates["accepting_orders"] = *in.AcceptingOrders
	}
	if in.DeliveryFee != nil {
		if err := nonNegative("delivery_fee", *in.DeliveryFee); err != nil {
			return nil, err
		}
		updates["delivery_fee"] = *in.DeliveryFee
	}
	if in.MinimumOrder != nil {
		if err := nonNegative("minimum_order", *in.MinimumOrder); err != nil {
			return nil, err
		}
		updates["minimum_order"] = *in.MinimumOrder
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	var r *models.Restaurant
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		var err error
		if r, err = s.findRestaurant(tx, scope, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Restaurant{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(r, r.ID).Error
	})
	if err != nil {
		return nil, wrap("services.UpdateRestaurant", err)
	}
	return r, nil
}

// ── Products ────────────────────────────────────────────────────────────────

func (s *Catalog) CreateProduct(ctx context.Context, scope tenancy.Scope, restaurantID uint, in ProductInput) (*models.Product, error) {
	if err := authorize(scope, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	if err := nonNegative("base_price", in.BasePrice); err != nil {
		return nil, err
	}
	var p models.Product
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		r, err := s.findRestaurant(tx, scope, restaurantID)
		if err != nil {
			return err
		}
		p = models.Product{
			TenantID:     r.TenantID,
			RestaurantID: r.ID,
			Name:         in.Name,
			Description:  in.Description,
			Category:     in.Category,
			BasePrice:    in.BasePrice,
			Active:       true,
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, wrap("services.CreateProduct", err)
	}
	return &p, nil
}

func (s *Catalog) UpdateProduct(ctx context.Context, scope tenancy.Scope, id uint, in ProductUpdate) (*models.Product, error) {
	if err := authorize(scope, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.BasePrice != nil {
		if err := nonNegative("base_price", *in.BasePrice); err != nil {
			return nil, err
		}
		updates["base_price"] = *in.BasePrice
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	var p *models.Product
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		var err error
		if p, err = s.findProduct(tx, scope, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(p, p.ID).Error
	})
	if err != nil {
		return nil, wrap("services.UpdateProduct", err)
	}
	return p, nil
}

// ListProducts returns a restaurant's products with their option groups.
func (s *Catalog) ListProducts(ctx context.Context, scope tenancy.Scope, restaurantID uint) ([]models.Product, error) {
	var out []models.Product
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		if _, err := s.findRestaurant(tx, scope, restaurantID); err != nil {
			return err
		}
		return withOptionGroups(tx, false).Where("restaurant_id = ?", restaurantID).Order("id").Find(&out).Error
	})
	return out, wrap("services.ListProducts", err)
}

// withOptionGroups preloads links, groups and options in display order.
func withOptionGroups(tx *gorm.DB, activeOptionsOnly bool) *gorm.DB {
	return tx.
		Preload("OptionGroups", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("OptionGroups.OptionGroup").
		Preload("OptionGroups.OptionGroup.Options", func(db *gorm.DB) *gorm.DB {
			if activeOptionsOnly {
				db = db.Where("active = ?", true)
			}
			return db.Order("position, id")
		})
}

// ── Option groups ───────────────────────────────────────────────────────────

func (s *Catalog) CreateOptionGroup(ctx context.Context, scope tenancy.Scope, restaurantID uint, in OptionGroupInput) (*models.OptionGroup, error) {
	if err := authorize(scope, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	if err := checkConstraints(in.MinSelect, in.MaxSelect, in.FreeQuota); err != nil {
		return nil, err
	}
	var g models.OptionGroup
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		r, err := s.findRestaurant(tx, scope, restaurantID)
		if err != nil {
			return err
		}
		g = models.OptionGroup{
			TenantID:     r.TenantID,
			RestaurantID: r.ID,
			Name:         in.Name,
			Required:     in.Required,
			MinSelect:    in.MinSelect,
			MaxSelect:    in.MaxSelect,
			FreeQuota:    in.FreeQuota,
		}
		for _, o := range in.Options {
			if err := nonNegative("price_delta", o.PriceDelta); err != nil {
				return err
			}
			g.Options = append(g.Options, models.Option{Name: o.Name, PriceDelta: o.PriceDelta, Active: true, Position: o.Position})
		}
		return tx.Create(&g).Error
	})
	if err != nil {
		return nil, wrap("services.CreateOptionGroup", err)
	}
	return &g, nil
}

func (s *Catalog) AddOption(ctx context.Context, scope tenancy.Scope, groupID uint, in OptionInput) (*models.Option, error) {
	if err := authorize(scope, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	if err := nonNegative("price_delta", in.PriceDelta); err != nil {
		return nil, err
	}
	var o models.Option
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		g, err := s.findGroup(tx, scope, groupID)
		if err != nil {
			return err
		}
		o = models.Option{OptionGroupID: g.ID, Name: in.Name, PriceDelta: in.PriceDelta, Active: true, Position: in.Position}
		return tx.Create(&o).Error
	})
	if err != nil {
		return nil, wrap("services.AddOption", err)
	}
	return &o, nil
}

func (s *Catalog) UpdateOption(ctx context.Context, scope tenancy.Scope, optionID uint, in OptionUpdate) (*models.Option, error) {
	if err := authorize(scope, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.PriceDelta != nil {
		if err := nonNegative("price_delta", *in.PriceDelta); err != nil {
			return nil, err
		}
		updates["price_delta"] = *in.PriceDelta
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	var o models.Option
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		if err := tx.First(&o, optionID).Error; err != nil {
			return notFound(err, "option not found")
		}
		// the option is visible only through its group's tenant
		if _, err := s.findGroup(tx, scope, o.OptionGroupID); err != nil {
			return apperr.NotFound("option not found")
		}
		if err := tx.Model(&models.Option{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&o, o.ID).Error
	})
	if err != nil {
		return nil, wrap("services.UpdateOption", err)
	}
	return &o, nil
}

// AttachOptionGroup links a group of the same restaurant to a product.
func (s *Catalog) AttachOptionGroup(ctx context.Context, scope tenancy.Scope, productID uint, in AttachInput) (*models.ProductOptionGroup, error) {
	if err := authorize(scope, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	var link models.ProductOptionGroup
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		p, err := s.findProduct(tx, scope, productID)
		if err != nil {
			return err
		}
		g, err := s.findGroup(tx, scope, in.OptionGroupID)
		if err != nil {
			return err
		}
		if g.RestaurantID != p.RestaurantID {
			return apperr.Validation("option group belongs to another restaurant")
		}
		link = models.ProductOptionGroup{
			ProductID:     p.ID,
			OptionGroupID: g.ID,
			MinSelect:     in.MinSelect,
			MaxSelect:     in.MaxSelect,
			FreeQuota:     in.FreeQuota,
			Position:      in.Position,
		}
		link.OptionGroup = *g
		minSelect, maxSelect, freeQuota := link.Effective()
		if err := checkConstraints(minSelect, maxSelect, freeQuota); err != nil {
			return err
		}
		if err := tx.Omit("OptionGroup").Create(&link).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("option group already attached to this product")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrap("services.AttachOptionGroup", err)
	}
	return &link, nil
}

// ── Public menu ─────────────────────────────────────────────────────────────

// MenuGroup is an option group as the customer sees it on one product
type MenuGroup struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Required  bool            `json:"required"`
	MinSelect int             `json:"min_select"`
	MaxSelect int             `json:"max_select"`
	FreeQuota int             `json:"free_quota"`
	Options   []models.Option `json:"options"`
}

type MenuProduct struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Groups      []MenuGroup     `json:"option_groups"`
}

type Menu struct {
	Restaurant models.Restaurant `json:"restaurant"`
	Products   []MenuProduct     `json:"products"`
}

// PublicRestaurants lists a tenant's restaurants for anonymous browsing.
func (s *Catalog) PublicRestaurants(ctx context.Context, tenantID uint) ([]models.Restaurant, error) {
	return s.ListRestaurants(ctx, tenancy.Public(tenantID))
}

// Menu returns active products with their effective option constraints.
func (s *Catalog) Menu(ctx context.Context, tenantID, restaurantID uint) (*Menu, error) {
	scope := tenancy.Public(tenantID)
	menu := &Menu{}
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		r, err := s.findRestaurant(tx, scope, restaurantID)
		if err != nil {
			return err
		}
		menu.Restaurant = *r

		var products []models.Product
		if err := withOptionGroups(tx, true).
			Where("restaurant_id = ? AND active = ?", r.ID, true).
			Order("category, id").
			Find(&products).Error; err != nil {
			return err
		}
		for _, p := range products {
			mp := MenuProduct{ID: p.ID, Name: p.Name, Description: p.Description, Category: p.Category, BasePrice: p.BasePrice}
			for _, link := range p.OptionGroups {
				minSelect, maxSelect, freeQuota := link.Effective()
				mp.Groups = append(mp.Groups, MenuGroup{
					ID:        link.OptionGroup.ID,
					Name:      link.OptionGroup.Name,
					Required:  link.OptionGroup.Required,
					MinSelect: minSelect,
					MaxSelect: maxSelect,
					FreeQuota: freeQuota,
					Options:   link.OptionGroup.Options,
				})
			}
			menu.Products = append(menu.Products, mp)
		}
		return nil
	})
	if err != nil {
		return nil, wrap("services.Menu", err)
	}
	return menu, nil
}
