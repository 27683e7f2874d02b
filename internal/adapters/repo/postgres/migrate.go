package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/growshop/internal/domain"
)

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

// Migrate crea o actualiza el esquema. Los ALTER/INDEX son idempotentes para
// bases creadas con versiones anteriores.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Category{}, &domain.Brand{}, &domain.Product{},
		&domain.Order{}, &domain.OrderItem{},
		&domain.Coupon{}, &domain.ShippingZone{},
		&domain.Profile{}, &domain.Settings{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	stmts := []string{
		"ALTER TABLE orders ADD COLUMN IF NOT EXISTS payment_method VARCHAR(40)",
		"ALTER TABLE orders ADD COLUMN IF NOT EXISTS discount_amount DECIMAL(12,2) DEFAULT 0",
		"ALTER TABLE products ADD COLUMN IF NOT EXISTS weight_kg DECIMAL(8,3) DEFAULT 0",
		"UPDATE products SET gallery_images = '[]'::jsonb WHERE gallery_images IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_archived ON orders(status, archived)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("migración %q: %w", s, err)
		}
	}
	return nil
}
