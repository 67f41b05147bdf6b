package tenancy

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// Runner executes units of work inside a transaction carrying the caller's scope.
type Runner struct {
	db    *gorm.DB
	apply func(tx *gorm.DB, s Scope) error
}

// NewRunner returns a Runner. With rowSecurity the scope is written to
// transaction-local postgres settings that the row policies read.
func NewRunner(db *gorm.DB, rowSecurity bool) *Runner {
	r := &Runner{db: db}
	if rowSecurity {
		r.apply = setSessionScope
	}
	return r
}

// DB exposes the unscoped handle for work that is not tenant-bound.
func (r *Runner) DB() *gorm.DB { return r.db }

// Run opens a transaction, applies s, and calls fn. The settings are local to
// the transaction, so they are dropped on commit, rollback or panic and never
// reach the next user of the pooled connection.
func (r *Runner) Run(ctx context.Context, s Scope, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.apply != nil {
			if err := r.apply(tx, s); err != nil {
				return fmt.Errorf("tenancy: apply scope: %w", err)
			}
		}
		return fn(tx)
	})
}

func setSessionScope(tx *gorm.DB, s Scope) error {
	return tx.Exec(
		"SELECT set_config('app.tenant_id', ?, true), set_config('app.user_id', ?, true), set_config('app.role', ?, true)",
		strconv.FormatUint(uint64(s.TenantID), 10),
		strconv.FormatUint(uint64(s.UserID), 10),
		string(s.Role),
	).Error
}
