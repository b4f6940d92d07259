package infra

import (
	"fmt"

	"aromapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (sequences, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations migrates the schema and applies the SQL patches. Also used by
// integration tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Department{},
		&model.User{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Ingredient{},
		&model.PricingConfig{},
		&model.CostTier{},
		&model.PresetPrice{},
		&model.Sale{},
		&model.SaleItem{},
		&model.StockMovement{},
		&model.Receipt{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Receipt numbers come from a sequence so concurrent sales never collide.
		`CREATE SEQUENCE IF NOT EXISTS sales_receipt_number_seq START 1`,
		// Partial index feeding the receipt retry cron.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_receipts_pending_retry') THEN
		    CREATE INDEX idx_receipts_pending_retry
		        ON receipts (next_retry_at)
		        WHERE status IN ('pending', 'failed') AND next_retry_at IS NOT NULL;
		  END IF;
		END $$`,
		// Movement history is always queried per entity, newest first.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_movements_entity') THEN
		    CREATE INDEX idx_stock_movements_entity
		        ON stock_movements (entity_type, entity_id, created_at DESC);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
