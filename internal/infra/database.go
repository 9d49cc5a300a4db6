package infra

import (
	"fmt"
	"strings"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the store named by dsn, runs AutoMigrate and then applies
// idempotent SQL patches GORM cannot express (CHECK constraints).
//
// A dsn starting with "file:" or "sqlite://" opens SQLite, used by a single
// terminal and by tests. SQLite is held to one connection: it has no row
// locks, so writers are serialized at the pool instead.
func NewDatabase(dsn string) (*gorm.DB, error) {
	dialector, isSQLite := dialectorFor(dsn)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(dsn string) (gorm.Dialector, bool) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), true
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), true
	}
	return postgres.Open(dsn), false
}

// RunMigrations creates or updates every table and applies schema patches.
// Parents are migrated before children so foreign keys resolve.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Branch{},
		&model.Product{},
		&model.Customer{},
		&model.Sale{},
		&model.SaleItem{},
		&model.StockMovement{},
		&model.DebtTransaction{},
		&model.AuditLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches adds CHECK constraints guarding the invariants the
// services rely on. Each block is guarded by an existence check, so re-running
// on a patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	checks := []struct{ table, name, expr string }{
		{"products", "chk_products_unit_ratio_positive", "unit_ratio > 0"},
		{"products", "chk_products_prices_non_negative", "sale_price >= 0 AND cost_price >= 0"},
		{"customers", "chk_customers_debt_non_negative", "debt >= 0"},
		{"customers", "chk_customers_debt_limit_non_negative", "debt_limit >= 0"},
		{"sales", "chk_sales_discount_range", "discount_amount >= 0 AND discount_amount <= subtotal"},
		{"sale_items", "chk_sale_items_quantity_positive", "quantity > 0"},
	}
	for _, c := range checks {
		sql := fmt.Sprintf(`
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint
                 WHERE conrelid = to_regclass('%s') AND conname = '%s') THEN
    ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
  END IF;
END $$`, c.table, c.name, c.table, c.name, c.expr)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", c.name, err)
		}
	}
	return nil
}
