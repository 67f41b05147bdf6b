package auth

import "food-delivery-platform/models"

var roleRank = map[models.UserRole]int{
	models.RoleCustomer:  0,
	models.RoleAffiliate: 1,
	models.RoleStaff:     2,
	models.RoleOwner:     3,
	models.RoleAdmin:     4,
}

// HasPermission reports whether actual ranks at or above required.
// Unknown roles never have permission.
func HasPermission(actual, required models.UserRole) bool {
	a, ok := roleRank[actual]
	if !ok {
		return false
	}
	r, ok := roleRank[required]
	if !ok {
		return false
	}
	return a >= r
}

// Capability names an action that is granted per role rather than by rank.
type Capability string

const (
	CapPlaceOrder         Capability = "order:place"
	CapViewTenantOrders   Capability = "order:view_tenant"
	CapViewAllOrders      Capability = "order:view_all"
	CapTransitionOrder    Capability = "order:transition"
	CapManageCatalog      Capability = "catalog:manage"
	CapToggleAccepting    Capability = "catalog:toggle_accepting"
	CapManageUsers        Capability = "tenant:manage_users"
	CapManageTenants      Capability = "platform:manage_tenants"
	CapViewOwnCommissions Capability = "affiliate:view_commissions"
	CapViewAllCommissions Capability = "affiliate:view_all_commissions"
)

func set(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

var capabilities = map[models.UserRole]map[Capability]bool{
	models.RoleCustomer:  set(CapPlaceOrder),
	models.RoleAffiliate: set(CapViewOwnCommissions),
	models.RoleStaff:     set(CapViewTenantOrders, CapTransitionOrder, CapToggleAccepting),
	models.RoleOwner: set(CapViewTenantOrders, CapTransitionOrder, CapToggleAccepting,
		CapManageCatalog, CapManageUsers),
	models.RoleAdmin: set(CapViewTenantOrders, CapViewAllOrders, CapTransitionOrder, CapToggleAccepting,
		CapManageCatalog, CapManageUsers, CapManageTenants, CapViewAllCommissions),
}

// Can reports whether role holds capability c.
func Can(role models.UserRole, c Capability) bool {
	return capabilities[role][c]
}
