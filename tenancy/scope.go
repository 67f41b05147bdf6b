// Package tenancy carries the verified caller identity through data access and
// applies it to database sessions for row-level enforcement.
package tenancy

import (
	"context"

	"food-delivery-platform/models"

	"gorm.io/gorm"
)

// Scope is the verified identity a unit of work runs as.
type Scope struct {
	TenantID uint
	UserID   uint
	Role     models.UserRole
}

// Platform reports whether the scope crosses tenant boundaries.
func (s Scope) Platform() bool { return s.Role == models.RoleAdmin }

// Public builds the scope used for anonymous reads of one tenant's catalog.
func Public(tenantID uint) Scope {
	return Scope{TenantID: tenantID, Role: models.RoleCustomer}
}

type ctxKey struct{}

func NewContext(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(ctxKey{}).(Scope)
	return s, ok
}

// Tenant restricts a query on a table with a tenant_id column. Platform
// scopes see every tenant.
func (s Scope) Tenant(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.Platform() {
			return db
		}
		return db.Where(table+".tenant_id = ?", s.TenantID)
	}
}

// Owns reports whether a row belonging to tenantID is visible to s.
func (s Scope) Owns(tenantID uint) bool {
	return s.Platform() || s.TenantID == tenantID
}
