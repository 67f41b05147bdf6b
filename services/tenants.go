package services

import (
	"context"

	"food-delivery-platform/apperr"
	"food-delivery-platform/auth"
	"food-delivery-platform/models"
	"food-delivery-platform/tenancy"

	"gorm.io/gorm"
)

// Tenants is the platform admin's view of all tenants
type Tenants struct {
	db *gorm.DB
}

func NewTenants(db *gorm.DB) *Tenants {
	return &Tenants{db: db}
}

type TenantUpdate struct {
	Status *models.TenantStatus
	Plan   *string
}

func (s *Tenants) List(ctx context.Context, scope tenancy.Scope, status models.TenantStatus) ([]models.Tenant, error) {
	if err := authorize(scope, auth.CapManageTenants); err != nil {
		return nil, err
	}
	var tenants []models.Tenant
	q := s.db.WithContext(ctx).Order("id")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return tenants, wrap("services.ListTenants", q.Find(&tenants).Error)
}

func (s *Tenants) Update(ctx context.Context, scope tenancy.Scope, id uint, in TenantUpdate) (*models.Tenant, error) {
	if err := authorize(scope, auth.CapManageTenants); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Status != nil {
		switch *in.Status {
		case models.TenantActive, models.TenantSuspended:
			updates["status"] = *in.Status
		default:
			return nil, apperr.Validation("status must be ACTIVE or SUSPENDED")
		}
	}
	if in.Plan != nil {
		if *in.Plan == "" {
			return nil, apperr.Validation("plan cannot be empty")
		}
		updates["plan"] = *in.Plan
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	var tenant models.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tenant, id).Error; err != nil {
			return notFound(err, "tenant not found")
		}
		return tx.Model(&tenant).Updates(updates).Error
	})
	if err != nil {
		return nil, wrap("services.UpdateTenant", err)
	}
	return &tenant, nil
}
