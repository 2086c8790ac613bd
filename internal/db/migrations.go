package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'offer_status') THEN
			CREATE TYPE offer_status AS ENUM ('draft', 'sent', 'approved', 'finished', 'cancelled');
		END IF;
	END
	$$;`,
	`CREATE SEQUENCE IF NOT EXISTS offer_number_seq START WITH 1 INCREMENT BY 1;`,
	`CREATE TABLE IF NOT EXISTS offers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		number VARCHAR(64) NOT NULL,
		client_id UUID,
		vehicle_id UUID,
		customer_name TEXT NOT NULL,
		customer_phone TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		vehicle_make TEXT NOT NULL DEFAULT '',
		vehicle_model TEXT NOT NULL DEFAULT '',
		vehicle_plate TEXT NOT NULL DEFAULT '',
		vin VARCHAR(32) NOT NULL DEFAULT '',
		mileage INTEGER,
		discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		status offer_status NOT NULL DEFAULT 'draft',
		created_by UUID NOT NULL,
		created_by_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_offers_discount CHECK (discount_percent >= 0 AND discount_percent <= 100),
		CONSTRAINT chk_offers_mileage CHECK (mileage IS NULL OR mileage >= 0)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_offers_number ON offers (number);`,
	`CREATE INDEX IF NOT EXISTS idx_offers_status ON offers (status);`,
	`CREATE INDEX IF NOT EXISTS idx_offers_created_at ON offers (created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_offers_client_id ON offers (client_id) WHERE client_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_offers_vehicle_id ON offers (vehicle_id) WHERE vehicle_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS offer_parts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		part_number TEXT NOT NULL DEFAULT '',
		unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		sort_order INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_offer_parts_offer_id ON offer_parts (offer_id, sort_order);`,
	`CREATE TABLE IF NOT EXISTS offer_labor (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		action_name TEXT NOT NULL,
		time_required VARCHAR(32) NOT NULL DEFAULT '',
		price_per_hour NUMERIC(12,2) NOT NULL CHECK (price_per_hour >= 0),
		sort_order INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_offer_labor_offer_id ON offer_labor (offer_id, sort_order);`,
	`CREATE TABLE IF NOT EXISTS offer_prepayments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
		note TEXT NOT NULL DEFAULT '',
		paid_at TIMESTAMPTZ,
		sort_order INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_offer_prepayments_offer_id ON offer_prepayments (offer_id, sort_order);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
