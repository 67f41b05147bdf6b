package tenancy

import (
	"context"
	"errors"
	"testing"

	"food-delivery-platform/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Restaurant{}))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestContextRoundTrip(t *testing.T) {
	s := Scope{TenantID: 3, UserID: 9, Role: models.RoleStaff}
	got, ok := FromContext(NewContext(context.Background(), s))
	require.True(t, ok)
	assert.Equal(t, s, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestTenantFilter(t *testing.T) {
	db := newDB(t)
	require.NoError(t, db.Create(&models.Restaurant{TenantID: 1, Name: "A"}).Error)
	require.NoError(t, db.Create(&models.Restaurant{TenantID: 2, Name: "B"}).Error)

	var own []models.Restaurant
	require.NoError(t, db.Scopes(Scope{TenantID: 1, Role: models.RoleOwner}.Tenant("restaurants")).Find(&own).Error)
	require.Len(t, own, 1)
	assert.Equal(t, "A", own[0].Name)

	var all []models.Restaurant
	require.NoError(t, db.Scopes(Scope{TenantID: 1, Role: models.RoleAdmin}.Tenant("restaurants")).Find(&all).Error)
	assert.Len(t, all, 2)

	assert.True(t, Scope{TenantID: 1}.Owns(1))
	assert.False(t, Scope{TenantID: 1}.Owns(2))
	assert.True(t, Scope{Role: models.RoleAdmin}.Owns(2))
}

func TestRunAppliesScopeInsideTransaction(t *testing.T) {
	db := newDB(t)
	r := NewRunner(db, false)

	var applied []Scope
	r.apply = func(tx *gorm.DB, s Scope) error {
		applied = append(applied, s)
		return nil
	}

	s := Scope{TenantID: 4, UserID: 2, Role: models.RoleOwner}
	err := r.Run(context.Background(), s, func(tx *gorm.DB) error {
		return tx.Create(&models.Restaurant{TenantID: 4, Name: "Kept"}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, []Scope{s}, applied)
}

func TestRunRollsBackOnError(t *testing.T) {
	db := newDB(t)
	r := NewRunner(db, false)
	boom := errors.New("boom")

	err := r.Run(context.Background(), Scope{TenantID: 1}, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.Restaurant{TenantID: 1, Name: "Lost"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.Model(&models.Restaurant{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRunStopsWhenScopeCannotBeApplied(t *testing.T) {
	db := newDB(t)
	r := NewRunner(db, false)
	r.apply = func(*gorm.DB, Scope) error { return errors.New("no set_config") }

	called := false
	err := r.Run(context.Background(), Scope{TenantID: 1}, func(*gorm.DB) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestRowSecurityOnSqliteFails(t *testing.T) {
	// set_config does not exist on sqlite, so the unit of work never runs
	r := NewRunner(newDB(t), true)
	err := r.Run(context.Background(), Scope{TenantID: 1, Role: models.RoleOwner}, func(*gorm.DB) error {
		return nil
	})
	assert.Error(t, err)
}
