package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer  UserRole = "CUSTOMER"
	RoleAffiliate UserRole = "AFFILIATE"
	RoleStaff     UserRole = "STAFF"
	RoleOwner     UserRole = "OWNER"
	RoleAdmin     UserRole = "ADMIN"
)

// AllRoles lists roles from least to most privileged
var AllRoles = []UserRole{RoleCustomer, RoleAffiliate, RoleStaff, RoleOwner, RoleAdmin}

func (r UserRole) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TenantID     uint      `json:"tenant_id" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;index"`
	Active       bool      `json:"active" gorm:"not null"`
	Phone        string    `json:"phone"`
	ReferralCode *string   `json:"referral_code,omitempty" gorm:"uniqueIndex"` // affiliates only
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeUpdate rejects any attempt to move a user to another tenant.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("TenantID") {
		return ErrTenantImmutable
	}
	return nil
}
