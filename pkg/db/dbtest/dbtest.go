// Package dbtest opens in-memory sqlite databases carrying the service schema
// for repository tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  display_name TEXT,
  role TEXT NOT NULL DEFAULT 'user',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL,
  tier TEXT NOT NULL,
  billing_interval TEXT NOT NULL,
  amount_cents INTEGER NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'USD',
  is_gifted INTEGER NOT NULL DEFAULT 0,
  gifted_expires_at DATETIME,
  cancelled_at DATETIME,
  lemonsqueezy_subscription_id TEXT UNIQUE,
  lemonsqueezy_customer_id TEXT,
  lemonsqueezy_order_id TEXT,
  lemonsqueezy_product_id TEXT,
  lemonsqueezy_variant_id TEXT,
  card_brand TEXT,
  card_last_four TEXT,
  customer_portal_url TEXT,
  update_payment_method_url TEXT,
  current_period_start DATETIME,
  current_period_end DATETIME,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS tier_pricing (
  id TEXT PRIMARY KEY,
  tier TEXT NOT NULL,
  billing_interval TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  lemonsqueezy_variant_id TEXT,
  last_synced_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT tier_pricing_tier_interval_key UNIQUE (tier, billing_interval)
);
CREATE TABLE IF NOT EXISTS scoreboards (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  visibility TEXT NOT NULL DEFAULT 'public',
  is_locked INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS scoreboard_entries (
  id TEXT PRIMARY KEY,
  scoreboard_id TEXT NOT NULL,
  name TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS scoreboard_snapshots (
  id TEXT PRIMARY KEY,
  scoreboard_id TEXT NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS kiosk_configs (
  id TEXT PRIMARY KEY,
  scoreboard_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS kiosk_slides (
  id TEXT PRIMARY KEY,
  kiosk_config_id TEXT NOT NULL,
  position INTEGER NOT NULL CHECK (position >= 0),
  slide_type TEXT NOT NULL,
  image_url TEXT,
  thumbnail_url TEXT,
  duration_seconds INTEGER,
  file_name TEXT,
  file_size INTEGER,
  mime_type TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT kiosk_slides_config_position_key UNIQUE (kiosk_config_id, position)
);
CREATE TABLE IF NOT EXISTS admin_audit_log (
  id TEXT PRIMARY KEY,
  admin_id TEXT NOT NULL,
  action TEXT NOT NULL,
  target_user_id TEXT,
  details TEXT,
  created_at DATETIME
);`

// Open returns a fresh in-memory database with the service tables created.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.Exec(schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
