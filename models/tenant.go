package models

import (
	"errors"
	"time"
)

type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
)

const PlanFree = "FREE"

var ErrTenantImmutable = errors.New("a user's tenant cannot be changed")

type Tenant struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"not null"`
	Slug      string       `json:"slug" gorm:"uniqueIndex;not null"`
	Status    TenantStatus `json:"status" gorm:"not null"`
	Plan      string       `json:"plan" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (t *Tenant) IsActive() bool { return t.Status == TenantActive }
