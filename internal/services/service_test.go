// internal/services/service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mintforge/assetledger/internal/config"
	"github.com/mintforge/assetledger/internal/database"
	"github.com/mintforge/assetledger/internal/models"
	"github.com/mintforge/assetledger/internal/utils"
)

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	accounts *AccountService
	events   *EventService
	admin    *AdminService
	assets   *AssetService
	orders   *OrderService
	licenses *LicenseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
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
	))

	cfg := &config.Config{
		Environment: "test",
		Platform: config.PlatformConfig{
			FeeBps:          250,
			FeeAccount:      uuid.New(),
			EscrowAccount:   uuid.New(),
			EventFeedLimit:  500,
			MaxQueryResults: 100,
		},
	}
	require.NoError(t, database.SeedInitialData(db, cfg))

	accounts := NewAccountService(db)
	events := NewEventService(db)

	return &testEnv{
		db:       db,
		cfg:      cfg,
		accounts: accounts,
		events:   events,
		admin:    NewAdminService(db, events),
		assets:   NewAssetService(db, accounts, events),
		orders:   NewOrderService(db, accounts, events, cfg),
		licenses: NewLicenseService(db, accounts, events),
	}
}

func (e *testEnv) fund(t *testing.T, account uuid.UUID, amount int64) {
	t.Helper()
	err := database.WithTransaction(e.db, func(tx *gorm.DB) error {
		return e.accounts.Credit(tx, account, amount, "seed:"+uuid.NewString(), models.EntryKindDeposit)
	})
	require.NoError(t, err)
}

func (e *testEnv) balance(t *testing.T, account uuid.UUID) int64 {
	t.Helper()
	balance, err := e.accounts.GetBalance(account)
	require.NoError(t, err)
	return balance
}

// totalBalance sums every account. Settlements only move value between
// accounts, so this should always equal the total ever funded.
func (e *testEnv) totalBalance(t *testing.T) int64 {
	t.Helper()
	var total int64
	err := e.db.Model(&models.Account{}).
		Select("COALESCE(SUM(balance), 0)").Scan(&total).Error
	require.NoError(t, err)
	return total
}

func (e *testEnv) mintAsset(t *testing.T, creator uuid.UUID, royaltyBps int64) *models.Asset {
	t.Helper()
	asset, err := e.assets.Mint(creator, &MintRequest{
		Kind:        models.AssetKindModel,
		Name:        "test asset",
		ContentHash: randomHash(),
		RoyaltyBps:  royaltyBps,
	})
	require.NoError(t, err)
	return asset
}

func (e *testEnv) eventCount(t *testing.T, eventType models.EventType) int64 {
	t.Helper()
	var count int64
	err := e.db.Model(&models.Event{}).Where("type = ?", eventType).Count(&count).Error
	require.NoError(t, err)
	return count
}

func randomHash() string {
	return utils.HashString(uuid.NewString())
}

func testPage() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 20, Sort: "id", Order: "asc"}
}
