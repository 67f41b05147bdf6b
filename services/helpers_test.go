package services

import (
	"context"
	"sync"
	"testing"

	"food-delivery-platform/config"
	"food-delivery-platform/events"
	"food-delivery-platform/models"
	"food-delivery-platform/tenancy"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// memStore is an in-process idempotency.Store
type memStore struct {
	mu   sync.Mutex
	keys map[string]uint
}

func newMemStore() *memStore { return &memStore{keys: map[string]uint{}} }

func (m *memStore) Lookup(_ context.Context, key string) (uint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[key]
	return id, ok, nil
}

func (m *memStore) Remember(_ context.Context, key string, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; !ok {
		m.keys[key] = id
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type countingMetrics struct {
	placed      int
	transitions map[string]int
}

func (m *countingMetrics) OrderPlaced(string) { m.placed++ }

func (m *countingMetrics) OrderTransitioned(from, to string) {
	if m.transitions == nil {
		m.transitions = map[string]int{}
	}
	m.transitions[from+"->"+to]++
}

// fixture is one tenant with a burger restaurant, plus a second tenant.
type fixture struct {
	tenant     models.Tenant
	other      models.Tenant
	owner      models.User
	staff      models.User
	customer   models.User
	affiliate  models.User
	outsider   models.User
	restaurant *models.Restaurant
	burger     *models.Product
	extras     *models.OptionGroup
	bacon      models.Option
	cheese     models.Option
}

func (f *fixture) scope(u models.User) tenancy.Scope {
	return tenancy.Scope{TenantID: u.TenantID, UserID: u.ID, Role: u.Role}
}

func seedUser(t *testing.T, db *gorm.DB, tenantID uint, email string, role models.UserRole) models.User {
	t.Helper()
	u := models.User{TenantID: tenantID, Name: email, Email: email, PasswordHash: "unused", Role: role, Active: true}
	if role == models.RoleAffiliate {
		u.ReferralCode = newReferralCode()
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedFixture(t *testing.T, db *gorm.DB, runner *tenancy.Runner) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		tenant: models.Tenant{Name: "Acme", Slug: "acme", Status: models.TenantActive, Plan: models.PlanFree},
		other:  models.Tenant{Name: "Rival", Slug: "rival", Status: models.TenantActive, Plan: models.PlanFree},
	}
	require.NoError(t, db.Create(&f.tenant).Error)
	require.NoError(t, db.Create(&f.other).Error)

	f.owner = seedUser(t, db, f.tenant.ID, "owner@acme.test", models.RoleOwner)
	f.staff = seedUser(t, db, f.tenant.ID, "staff@acme.test", models.RoleStaff)
	f.customer = seedUser(t, db, f.tenant.ID, "customer@acme.test", models.RoleCustomer)
	f.affiliate = seedUser(t, db, f.tenant.ID, "affiliate@acme.test", models.RoleAffiliate)
	f.outsider = seedUser(t, db, f.other.ID, "staff@rival.test", models.RoleStaff)

	catalog := NewCatalog(runner)
	owner := f.scope(f.owner)
	var err error
	f.restaurant, err = catalog.CreateRestaurant(ctx, owner, RestaurantInput{
		Name: "Burger Place", AcceptingOrders: true, DeliveryFee: money("5.00"),
	})
	require.NoError(t, err)

	f.extras, err = catalog.CreateOptionGroup(ctx, owner, f.restaurant.ID, OptionGroupInput{
		Name: "Extras", FreeQuota: 1,
		Options: []OptionInput{
			{Name: "Bacon", PriceDelta: money("3.00"), Position: 1},
			{Name: "Cheese", PriceDelta: money("2.00"), Position: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, f.extras.Options, 2)
	f.bacon, f.cheese = f.extras.Options[0], f.extras.Options[1]

	f.burger, err = catalog.CreateProduct(ctx, owner, f.restaurant.ID, ProductInput{
		Name: "Burger", Category: "mains", BasePrice: money("20.00"),
	})
	require.NoError(t, err)
	_, err = catalog.AttachOptionGroup(ctx, owner, f.burger.ID, AttachInput{OptionGroupID: f.extras.ID})
	require.NoError(t, err)
	return f
}
