// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mintforge/assetledger/internal/config"
	"github.com/mintforge/assetledger/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
	} else {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Info),
			TranslateError: true,
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	err := db.AutoMigrate(
		&models.Asset{},
		&models.AssetVersion{},
		&models.Order{},
		&models.Bid{},
		&models.License{},
		&models.UsageRecord{},
		&models.Account{},
		&models.LedgerEntry{},
		&models.Event{},
		&models.PlatformSetting{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	// Composite indexes backing the hot queries: every list endpoint
	// resolves through one of these rather than a table scan.
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_assets_owner_for_sale ON assets(current_owner, for_sale)",
		"CREATE INDEX IF NOT EXISTS idx_assets_kind_for_sale ON assets(kind, for_sale)",
		"CREATE INDEX IF NOT EXISTS idx_orders_active_kind ON orders(active, kind)",
		"CREATE INDEX IF NOT EXISTS idx_orders_asset_active ON orders(asset_id, active)",
		"CREATE INDEX IF NOT EXISTS idx_bids_order_bidder ON bids(order_id, bidder)",
		"CREATE INDEX IF NOT EXISTS idx_licenses_licensee_asset ON licenses(licensee, asset_id, active)",
		"CREATE INDEX IF NOT EXISTS idx_usage_records_license ON usage_records(license_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_events_id_type ON events(id, type)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData creates the reserved platform accounts and default
// settings on first start.
func SeedInitialData(db *gorm.DB, cfg *config.Config) error {
	reserved := []models.Account{
		{ID: cfg.Platform.FeeAccount},
		{ID: cfg.Platform.EscrowAccount},
	}
	for _, account := range reserved {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
			return fmt.Errorf("failed to seed account %s: %w", account.ID, err)
		}
	}

	defaultSettings := []models.PlatformSetting{
		{
			Key:         models.SettingFeeBps,
			Value:       models.JSONB{"value": cfg.Platform.FeeBps},
			Description: "Platform fee in basis points, applied at settlement time",
		},
		{
			Key:         models.SettingOperational,
			Value:       models.JSONB{"value": true},
			Description: "Process-wide pause flag; mutations fail while false",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.PlatformSetting{}).Where("key = ?", setting.Key).Count(&count)
		if count == 0 {
			if err := db.Create(&setting).Error; err != nil {
				return fmt.Errorf("failed to seed setting %s: %w", setting.Key, err)
			}
		}
	}

	return nil
}

// VerifyState loads the settings rows the ledger cannot run without. A
// missing or unreadable row means the persisted state is corrupt; the
// caller is expected to abort.
func VerifyState(db *gorm.DB) error {
	for _, key := range []string{models.SettingFeeBps, models.SettingOperational} {
		var setting models.PlatformSetting
		if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
			return fmt.Errorf("unreadable platform setting %q: %w", key, err)
		}
		switch key {
		case models.SettingFeeBps:
			if v, ok := setting.IntValue(); !ok || v < 0 || v > models.MaxFeeBps {
				return fmt.Errorf("corrupt platform setting %q: %v", key, setting.Value)
			}
		case models.SettingOperational:
			if _, ok := setting.BoolValue(); !ok {
				return fmt.Errorf("corrupt platform setting %q: %v", key, setting.Value)
			}
		}
	}
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// LockForUpdate applies a row-level exclusive lock on dialects that
// support it. SQLite serializes writers on its own, so the clause is
// skipped there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
