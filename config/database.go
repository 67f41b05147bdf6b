package config

import (
	"fmt"

	"food-delivery-platform/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// tenantTables carry a tenant_id column and get a row-security policy on postgres
var tenantTables = []string{"restaurants", "products", "option_groups", "orders", "commissions"}

// OpenDB connects to the configured database, migrates it and, on postgres with
// RLS enabled, installs the tenant isolation policies.
func OpenDB(cfg DBConfig, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if cfg.Driver == "postgres" {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if cfg.EnableRLS {
		if err := InstallRowSecurity(db); err != nil {
			return nil, err
		}
		log.Info("row level security policies installed")
	}

	log.WithField("driver", cfg.Driver).Info("database connected and migrated")
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Restaurant{},
		&models.Product{},
		&models.OptionGroup{},
		&models.Option{},
		&models.ProductOptionGroup{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemOption{},
		&models.OrderEvent{},
		&models.Commission{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// InstallRowSecurity enables postgres row-level security on tenant tables.
// Policies read the transaction-local settings written by tenancy.Runner.
func InstallRowSecurity(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tenantTables {
			stmts := []string{
				fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", table),
				fmt.Sprintf("ALTER TABLE %s FORCE ROW LEVEL SECURITY", table),
				fmt.Sprintf("DROP POLICY IF EXISTS tenant_isolation ON %s", table),
				fmt.Sprintf(`CREATE POLICY tenant_isolation ON %s USING (
					current_setting('app.role', true) = 'ADMIN'
					OR tenant_id::text = current_setting('app.tenant_id', true)
				)`, table),
			}
			for _, stmt := range stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("install row security on %s: %w", table, err)
				}
			}
		}
		return nil
	})
}
