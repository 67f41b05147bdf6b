package services

import (
	"context"
	"testing"

	"food-delivery-platform/apperr"
	"food-delivery-platform/tenancy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogPermissions(t *testing.T) {
	db := newTestDB(t)
	runner := tenancy.NewRunner(db, false)
	fx := seedFixture(t, db, runner)
	c := NewCatalog(runner)
	ctx := context.Background()

	name := "Renamed"
	_, err := c.UpdateRestaurant(ctx, fx.scope(fx.staff), fx.restaurant.ID, RestaurantUpdate{Name: &name})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err), "staff may only toggle accepting_orders")

	open := false
	r, err := c.UpdateRestaurant(ctx, fx.scope(fx.staff), fx.restaurant.ID, RestaurantUpdate{AcceptingOrders: &open})
	require.NoError(t, err)
	assert.False(t, r.AcceptingOrders)

	_, err = c.UpdateRestaurant(ctx, fx.scope(fx.customer), fx.restaurant.ID, RestaurantUpdate{AcceptingOrders: &open})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	fee := money("-1")
	_, err = c.UpdateRestaurant(ctx, fx.scope(fx.owner), fx.restaurant.ID, RestaurantUpdate{DeliveryFee: &fee})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = c.CreateProduct(ctx, fx.scope(fx.staff), fx.restaurant.ID, ProductInput{Name: "Fries", BasePrice: money("5")})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestCatalogIsTenantScoped(t *testing.T) {
	db := newTestDB(t)
	runner := tenancy.NewRunner(db, false)
	fx := seedFixture(t, db, runner)
	c := NewCatalog(runner)
	ctx := context.Background()

	rivalOwner := seedUser(t, db, fx.other.ID, "owner@rival.test", "OWNER")
	list, err := c.ListRestaurants(ctx, fx.scope(rivalOwner))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = c.CreateProduct(ctx, fx.scope(rivalOwner), fx.restaurant.ID, ProductInput{Name: "Spy", BasePrice: money("1")})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = c.Menu(ctx, fx.other.ID, fx.restaurant.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestOptionGroupRules(t *testing.T) {
	db := newTestDB(t)
	runner := tenancy.NewRunner(db, false)
	fx := seedFixture(t, db, runner)
	c := NewCatalog(runner)
	ctx := context.Background()
	owner := fx.scope(fx.owner)

	_, err := c.CreateOptionGroup(ctx, owner, fx.restaurant.ID, OptionGroupInput{Name: "Bad", MinSelect: 3, MaxSelect: 2})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = c.AttachOptionGroup(ctx, owner, fx.burger.ID, AttachInput{OptionGroupID: fx.extras.ID})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	second, err := c.CreateRestaurant(ctx, owner, RestaurantInput{Name: "Second", AcceptingOrders: true})
	require.NoError(t, err)
	sides, err := c.CreateOptionGroup(ctx, owner, second.ID, OptionGroupInput{Name: "Sides"})
	require.NoError(t, err)
	_, err = c.AttachOptionGroup(ctx, owner, fx.burger.ID, AttachInput{OptionGroupID: sides.ID})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMenuShowsEffectiveConstraints(t *testing.T) {
	db := newTestDB(t)
	runner := tenancy.NewRunner(db, false)
	fx := seedFixture(t, db, runner)
	c := NewCatalog(runner)
	ctx := context.Background()
	owner := fx.scope(fx.owner)

	size, err := c.CreateOptionGroup(ctx, owner, fx.restaurant.ID, OptionGroupInput{
		Name: "Size", Required: true, MaxSelect: 1,
		Options: []OptionInput{{Name: "Regular"}, {Name: "Large", PriceDelta: money("4")}},
	})
	require.NoError(t, err)
	three := 3
	_, err = c.AttachOptionGroup(ctx, owner, fx.burger.ID, AttachInput{OptionGroupID: size.ID, FreeQuota: &three, Position: 1})
	require.NoError(t, err)

	off := false
	_, err = c.UpdateOption(ctx, owner, fx.cheese.ID, OptionUpdate{Active: &off})
	require.NoError(t, err)
	hidden, err := c.CreateProduct(ctx, owner, fx.restaurant.ID, ProductInput{Name: "Secret", BasePrice: money("1")})
	require.NoError(t, err)
	_, err = c.UpdateProduct(ctx, owner, hidden.ID, ProductUpdate{Active: &off})
	require.NoError(t, err)

	menu, err := c.Menu(ctx, fx.tenant.ID, fx.restaurant.ID)
	require.NoError(t, err)
	require.Len(t, menu.Products, 1, "inactive products are hidden")
	groups := menu.Products[0].Groups
	require.Len(t, groups, 2)
	assert.Equal(t, "Extras", groups[0].Name)
	require.Len(t, groups[0].Options, 1, "inactive options are hidden")
	assert.Equal(t, "Bacon", groups[0].Options[0].Name)
	assert.Equal(t, "Size", groups[1].Name)
	assert.Equal(t, 3, groups[1].FreeQuota)
	assert.True(t, groups[1].Required)

	public, err := c.PublicRestaurants(ctx, fx.tenant.ID)
	require.NoError(t, err)
	assert.Len(t, public, 1)
}
