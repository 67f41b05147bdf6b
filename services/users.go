package services

import (
	"context"
	"strings"

	"food-delivery-platform/apperr"
	"food-delivery-platform/auth"
	"food-delivery-platform/models"
	"food-delivery-platform/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Users manages the members of a tenant
type Users struct {
	runner *tenancy.Runner
}

func NewUsers(runner *tenancy.Runner) *Users {
	return &Users{runner: runner}
}

type MemberInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.UserRole
	// TenantID is honoured only for platform admins; everyone else creates
	// members in their own tenant.
	TenantID uint
}

// canGrant: OWNER may hand out any role below ADMIN, ADMIN any role.
func canGrant(actor, role models.UserRole) bool {
	if !role.Valid() {
		return false
	}
	if role == models.RoleAdmin {
		return actor == models.RoleAdmin
	}
	return auth.Can(actor, auth.CapManageUsers)
}

func newReferralCode() *string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return &code
}

func (s *Users) List(ctx context.Context, scope tenancy.Scope, role models.UserRole) ([]models.User, error) {
	if err := authorize(scope, auth.CapManageUsers); err != nil {
		return nil, err
	}
	var users []models.User
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		q := tx.Scopes(scope.Tenant("users")).Order("id")
		if role != "" {
			q = q.Where("role = ?", role)
		}
		return q.Find(&users).Error
	})
	return users, wrap("services.ListUsers", err)
}

func (s *Users) CreateMember(ctx context.Context, scope tenancy.Scope, in MemberInput) (*models.User, error) {
	if err := authorize(scope, auth.CapManageUsers); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("unknown role")
	}
	if !canGrant(scope.Role, in.Role) {
		return nil, apperr.Forbidden("you cannot grant role " + string(in.Role))
	}
	hash, err := hashForStorage(in.Password)
	if err != nil {
		return nil, err
	}

	tenantID := scope.TenantID
	if scope.Platform() && in.TenantID != 0 {
		tenantID = in.TenantID
	}
	user := models.User{
		TenantID:     tenantID,
		Name:         in.Name,
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
		Phone:        in.Phone,
	}
	if in.Role == models.RoleAffiliate {
		user.ReferralCode = newReferralCode()
	}

	err = s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.First(&tenant, tenantID).Error; err != nil {
			return notFound(err, "tenant not found")
		}
		return createUser(tx, &user)
	})
	if err != nil {
		return nil, wrap("services.CreateMember", err)
	}
	return &user, nil
}

// loadMember fetches a user visible to scope and refuses self-service changes
// and changes to ADMIN accounts by non-admins.
func loadMember(tx *gorm.DB, scope tenancy.Scope, userID uint) (*models.User, error) {
	if userID == scope.UserID {
		return nil, apperr.Validation("you cannot change your own account this way")
	}
	var target models.User
	if err := tx.Scopes(scope.Tenant("users")).First(&target, userID).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	if target.Role == models.RoleAdmin && !scope.Platform() {
		return nil, apperr.Forbidden("only an ADMIN can change an ADMIN account")
	}
	return &target, nil
}

// ChangeRole sets a member's role. The member's tenant never changes.
func (s *Users) ChangeRole(ctx context.Context, scope tenancy.Scope, userID uint, role models.UserRole) (*models.User, error) {
	if err := authorize(scope, auth.CapManageUsers); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validation("unknown role")
	}
	if !canGrant(scope.Role, role) {
		return nil, apperr.Forbidden("you cannot grant role " + string(role))
	}

	var target *models.User
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		var err error
		if target, err = loadMember(tx, scope, userID); err != nil {
			return err
		}
		updates := map[string]interface{}{"role": role}
		if role == models.RoleAffiliate && target.ReferralCode == nil {
			target.ReferralCode = newReferralCode()
			updates["referral_code"] = *target.ReferralCode
		}
		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).Updates(updates).Error; err != nil {
			return err
		}
		target.Role = role
		return nil
	})
	if err != nil {
		return nil, wrap("services.ChangeRole", err)
	}
	return target, nil
}

// SetActive enables or disables a member's login.
func (s *Users) SetActive(ctx context.Context, scope tenancy.Scope, userID uint, active bool) (*models.User, error) {
	if err := authorize(scope, auth.CapManageUsers); err != nil {
		return nil, err
	}
	var target *models.User
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		var err error
		if target, err = loadMember(tx, scope, userID); err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).Update("active", active).Error; err != nil {
			return err
		}
		target.Active = active
		return nil
	})
	if err != nil {
		return nil, wrap("services.SetActive", err)
	}
	return target, nil
}
