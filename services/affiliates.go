package services

import (
	"context"

	"food-delivery-platform/auth"
	"food-delivery-platform/models"
	"food-delivery-platform/tenancy"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Affiliates struct {
	runner *tenancy.Runner
}

func NewAffiliates(runner *tenancy.Runner) *Affiliates {
	return &Affiliates{runner: runner}
}

type CommissionReport struct {
	Commissions []models.Commission
	Total       decimal.Decimal
}

// Commissions lists earned commissions. Affiliates always see their own;
// platform admins see everything or filter by affiliateID.
func (s *Affiliates) Commissions(ctx context.Context, scope tenancy.Scope, affiliateID uint) (*CommissionReport, error) {
	all := auth.Can(scope.Role, auth.CapViewAllCommissions)
	if !all {
		if err := authorize(scope, auth.CapViewOwnCommissions); err != nil {
			return nil, err
		}
		affiliateID = scope.UserID
	}

	report := &CommissionReport{Total: decimal.Zero}
	err := s.runner.Run(ctx, scope, func(tx *gorm.DB) error {
		q := tx.Scopes(scope.Tenant("commissions")).Order("id")
		if affiliateID != 0 {
			q = q.Where("affiliate_id = ?", affiliateID)
		}
		return q.Find(&report.Commissions).Error
	})
	if err != nil {
		return nil, wrap("services.Commissions", err)
	}
	for _, c := range report.Commissions {
		report.Total = report.Total.Add(c.Amount)
	}
	return report, nil
}
