package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"food-delivery-platform/apperr"
	"food-delivery-platform/auth"
	"food-delivery-platform/logging"
	"food-delivery-platform/mailer"
	"food-delivery-platform/models"

	"gorm.io/gorm"
)

// bootstrapLockKey serialises the first-admin promotion on postgres
const bootstrapLockKey = 7_450_001

type Accounts struct {
	db          *gorm.DB
	tokens      *auth.Tokens
	mailer      mailer.Mailer
	frontendURL string
}

func NewAccounts(db *gorm.DB, tokens *auth.Tokens, m mailer.Mailer, frontendURL string) *Accounts {
	return &Accounts{db: db, tokens: tokens, mailer: m, frontendURL: frontendURL}
}

type SignupInput struct {
	TenantName string
	Name       string
	Email      string
	Password   string
	Phone      string
}

type RegisterInput struct {
	TenantID uint
	Name     string
	Email    string
	Password string
	Phone    string
}

// Session is a signed-in user and their token
type Session struct {
	Token string
	User  models.User
}

func (s *Accounts) session(u *models.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(auth.Payload{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Role:     u.Role,
		Email:    u.Email,
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("sign token: %w", err))
	}
	return &Session{Token: token, User: *u}, nil
}

func hashForStorage(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", apperr.Validation("password cannot be used")
	}
	return hash, nil
}

func createUser(tx *gorm.DB, u *models.User) error {
	if err := tx.Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("email already registered")
		}
		return err
	}
	return nil
}

// Signup creates a tenant and its first user. The very first user in the
// system becomes ADMIN, every later tenant founder becomes OWNER.
func (s *Accounts) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	slug := slugify(in.TenantName)
	if slug == "" {
		return nil, apperr.Validation("tenant name must contain letters or digits")
	}
	hash, err := hashForStorage(in.Password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Count(&users).Error; err != nil {
			return err
		}

		tenant := models.Tenant{Name: in.TenantName, Slug: slug, Status: models.TenantActive, Plan: models.PlanFree}
		if err := tx.Create(&tenant).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("tenant name already taken")
			}
			return err
		}

		role := models.RoleOwner
		if users == 0 {
			role = models.RoleAdmin
		}
		user = models.User{
			TenantID:     tenant.ID,
			Name:         in.Name,
			Email:        normalizeEmail(in.Email),
			PasswordHash: hash,
			Role:         role,
			Active:       true,
			Phone:        in.Phone,
		}
		return createUser(tx, &user)
	})
	if err != nil {
		return nil, wrap("services.Signup", err)
	}

	logging.FromContext(ctx).WithField("tenant_id", user.TenantID).WithField("role", user.Role).Info("tenant created")
	return s.session(&user)
}

// RegisterCustomer signs a customer up to an existing active tenant.
func (s *Accounts) RegisterCustomer(ctx context.Context, in RegisterInput) (*Session, error) {
	hash, err := hashForStorage(in.Password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.First(&tenant, in.TenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("tenant not found")
			}
			return err
		}
		if !tenant.IsActive() {
			return apperr.Validation("tenant is not accepting registrations")
		}
		user = models.User{
			TenantID:     tenant.ID,
			Name:         in.Name,
			Email:        normalizeEmail(in.Email),
			PasswordHash: hash,
			Role:         models.RoleCustomer,
			Active:       true,
			Phone:        in.Phone,
		}
		return createUser(tx, &user)
	})
	if err != nil {
		return nil, wrap("services.RegisterCustomer", err)
	}
	return s.session(&user)
}

// Login verifies credentials. Unknown email, wrong password and deactivated
// account all produce the same ErrUnauthorized.
func (s *Accounts) Login(ctx context.Context, email, password string) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		auth.BurnPasswordCheck(password)
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, wrap("services.Login", err)
	}
	if !auth.VerifyPassword(password, user.PasswordHash) || !user.Active {
		return nil, apperr.ErrUnauthorized
	}

	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, user.TenantID).Error; err != nil {
		return nil, wrap("services.Login", err)
	}
	if !tenant.IsActive() && user.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("tenant is suspended")
	}

	if user.Role == models.RoleOwner {
		if err := s.bootstrapAdmin(ctx, &user); err != nil {
			return nil, wrap("services.Login", err)
		}
	}
	return s.session(&user)
}

// bootstrapAdmin promotes an OWNER to ADMIN when the system has no ADMIN yet.
// Once any ADMIN exists it does nothing.
func (s *Accounts) bootstrapAdmin(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", bootstrapLockKey).Error; err != nil {
				return err
			}
		}
		var admins int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
			return err
		}
		if admins > 0 {
			return nil
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.RoleAdmin).Error; err != nil {
			return err
		}
		user.Role = models.RoleAdmin
		logging.FromContext(ctx).WithField("user_id", user.ID).Warn("no ADMIN exists, promoted owner")
		return nil
	})
}

// RequestPasswordReset mails a reset link when the email belongs to an active
// user. It reports success either way. The token is returned so a development
// setup can hand it back directly; callers decide whether to expose it.
func (s *Accounts) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	log := logging.FromContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debug("password reset requested for unknown email")
		return "", nil
	}
	if err != nil {
		return "", wrap("services.RequestPasswordReset", err)
	}
	if !user.Active {
		return "", nil
	}

	token, err := s.tokens.GeneratePasswordResetToken(user.ID, user.Email, auth.PasswordFingerprint(user.PasswordHash))
	if err != nil {
		return "", wrap("services.RequestPasswordReset", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, url.QueryEscape(token))
	body := fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in 15 minutes.\n\n%s\n", user.Name, link)
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("failed to send password reset email")
	}
	return token, nil
}

// ResetPassword sets a new password. The token is single-use in effect: it
// carries a fingerprint of the old hash, which no longer matches afterwards.
func (s *Accounts) ResetPassword(ctx context.Context, token, newPassword string) error {
	p, err := s.tokens.VerifyPasswordResetToken(token)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("rejected password reset token")
		return apperr.ErrUnauthorized
	}
	hash, err := hashForStorage(newPassword)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, p.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrUnauthorized
			}
			return err
		}
		if user.Email != p.Email || auth.PasswordFingerprint(user.PasswordHash) != p.Fingerprint {
			return apperr.ErrUnauthorized
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", hash).Error
	})
	return wrap("services.ResetPassword", err)
}

// Me returns the caller's own record.
func (s *Accounts) Me(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, wrap("services.Me", notFound(err, "user not found"))
	}
	return &user, nil
}
