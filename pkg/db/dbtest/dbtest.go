// Package dbtest opens throwaway sqlite databases carrying the MealBridge schema.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  address TEXT NOT NULL,
  subscription_plan TEXT NOT NULL,
  subscription_status TEXT NOT NULL,
  subscription_start DATETIME,
  subscription_end DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  company_id TEXT,
  specialty TEXT,
  push_subscription TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE meal_packages (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  chef_id TEXT NOT NULL,
  price NUMERIC NOT NULL,
  meal_type TEXT NOT NULL,
  dietary_options TEXT NOT NULL DEFAULT '{}',
  nutritional_info TEXT NOT NULL DEFAULT '{}',
  available_days TEXT NOT NULL DEFAULT '{}',
  max_orders_per_day INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE company_meal_packages (
  company_id TEXT NOT NULL,
  meal_package_id TEXT NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (company_id, meal_package_id)
);`,
	`CREATE TABLE menus (
  id TEXT PRIMARY KEY,
  chef_id TEXT NOT NULL,
  name TEXT NOT NULL,
  menu_date DATETIME NOT NULL,
  meal_package_ids TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME
);`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  company_id TEXT,
  meal_package_id TEXT NOT NULL,
  scheduled_for DATETIME NOT NULL,
  delivery_status TEXT NOT NULL,
  status TEXT NOT NULL,
  price_meal NUMERIC NOT NULL,
  price_delivery_fee NUMERIC NOT NULL,
  price_total NUMERIC NOT NULL,
  location TEXT,
  location_updated_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  stripe_payment_intent_id TEXT UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  published_at DATETIME,
  created_at DATETIME
);`,
}

// Open returns an isolated in-memory sqlite database with every table created.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
