package services

import (
	"context"
	"testing"

	"food-delivery-platform/apperr"
	"food-delivery-platform/models"
	"food-delivery-platform/tenancy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberManagement(t *testing.T) {
	db := newTestDB(t)
	runner := tenancy.NewRunner(db, false)
	fx := seedFixture(t, db, runner)
	users := NewUsers(runner)
	ctx := context.Background()
	owner := fx.scope(fx.owner)

	aff, err := users.CreateMember(ctx, owner, MemberInput{Name: "Pat", Email: "pat@acme.test", Password: "password1", Role: models.RoleAffiliate})
	require.NoError(t, err)
	require.NotNil(t, aff.ReferralCode)
	assert.Len(t, *aff.ReferralCode, 10)
	assert.Equal(t, fx.tenant.ID, aff.TenantID)

	_, err = users.CreateMember(ctx, owner, MemberInput{Name: "Eve", Email: "eve@acme.test", Password: "password1", Role: models.RoleAdmin})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err), "owners cannot grant ADMIN")

	_, err = users.CreateMember(ctx, fx.scope(fx.staff), MemberInput{Name: "S", Email: "s@acme.test", Password: "password1", Role: models.RoleStaff})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = users.ChangeRole(ctx, owner, fx.owner.ID, models.RoleStaff)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "no self role change")

	promoted, err := users.ChangeRole(ctx, owner, fx.customer.ID, models.RoleAffiliate)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAffiliate, promoted.Role)
	assert.NotNil(t, promoted.ReferralCode)

	_, err = users.SetActive(ctx, owner, fx.outsider.ID, false)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "members of other tenants are invisible")

	off, err := users.SetActive(ctx, owner, fx.staff.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Active)

	list, err := users.List(ctx, owner, models.RoleAffiliate)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestTenantIsImmutable(t *testing.T) {
	db := newTestDB(t)
	runner := tenancy.NewRunner(db, false)
	fx := seedFixture(t, db, runner)

	err := db.Model(&fx.customer).Update("tenant_id", fx.other.ID).Error
	assert.ErrorIs(t, err, models.ErrTenantImmutable)

	var fresh models.User
	require.NoError(t, db.First(&fresh, fx.customer.ID).Error)
	assert.Equal(t, fx.tenant.ID, fresh.TenantID)
}

func TestTenantAdministration(t *testing.T) {
	db := newTestDB(t)
	runner := tenancy.NewRunner(db, false)
	fx := seedFixture(t, db, runner)
	tenants := NewTenants(db)
	ctx := context.Background()
	admin := tenancy.Scope{UserID: 1, Role: models.RoleAdmin}

	_, err := tenants.List(ctx, fx.scope(fx.owner), "")
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	suspended := models.TenantSuspended
	got, err := tenants.Update(ctx, admin, fx.other.ID, TenantUpdate{Status: &suspended})
	require.NoError(t, err)
	assert.Equal(t, models.TenantSuspended, got.Status)

	bogus := models.TenantStatus("DELETED")
	_, err = tenants.Update(ctx, admin, fx.other.ID, TenantUpdate{Status: &bogus})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	list, err := tenants.List(ctx, admin, models.TenantSuspended)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rival", list[0].Slug)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "joe-s-pizza-co", slugify("  Joe's Pizza & Co. "))
	assert.Equal(t, "", slugify("!!!"))
}
