// internal/services/admin_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintforge/assetledger/internal/models"
)

func TestPauseBlocksMutations(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()
	creator := uuid.New()

	require.NoError(t, env.admin.SetOperational(admin, false))

	_, err := env.assets.Mint(creator, &MintRequest{
		Kind: models.AssetKindModel, Name: "x", ContentHash: randomHash(),
	})
	assert.ErrorIs(t, err, ErrLedgerPaused)

	// the pause control itself must keep working while paused
	require.NoError(t, env.admin.SetOperational(admin, true))

	_, err = env.assets.Mint(creator, &MintRequest{
		Kind: models.AssetKindModel, Name: "x", ContentHash: randomHash(),
	})
	require.NoError(t, err)
}

func TestPauseBlocksOrderBookAndLicensing(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()
	seller := uuid.New()
	buyer := uuid.New()

	asset := env.mintAsset(t, seller, 0)
	require.NoError(t, env.admin.SetLicensable(admin, asset.ID, true))
	order, err := env.orders.CreateFixedPriceOrder(seller, &CreateFixedPriceOrderRequest{
		AssetID: asset.ID, Price: 100,
	})
	require.NoError(t, err)
	env.fund(t, buyer, 1000)

	require.NoError(t, env.admin.SetOperational(admin, false))

	_, err = env.orders.BuyFixedPrice(order.ID, buyer, 100)
	assert.ErrorIs(t, err, ErrLedgerPaused)

	_, err = env.licenses.CreateLicense(buyer, &CreateLicenseRequest{
		AssetID: asset.ID, Licensor: seller, Kind: models.LicenseKindResearch,
	})
	assert.ErrorIs(t, err, ErrLedgerPaused)

	assert.Equal(t, int64(1000), env.balance(t, buyer))
}

func TestPauseBlocksCancellationsAndUsage(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()
	seller := uuid.New()
	bidder := uuid.New()
	licensee := uuid.New()

	auctioned := env.mintAsset(t, seller, 0)
	order, err := env.orders.CreateAuctionOrder(seller, &CreateAuctionOrderRequest{
		AssetID: auctioned.ID, StartingPrice: 100, Duration: 3600,
	})
	require.NoError(t, err)
	env.fund(t, bidder, 200)
	_, err = env.orders.PlaceBid(order.ID, bidder, 100)
	require.NoError(t, err)

	licensed := env.mintAsset(t, seller, 0)
	require.NoError(t, env.admin.SetLicensable(admin, licensed.ID, true))
	license, err := env.licenses.CreateLicense(licensee, &CreateLicenseRequest{
		AssetID: licensed.ID, Licensor: seller, Kind: models.LicenseKindResearch,
	})
	require.NoError(t, err)

	require.NoError(t, env.admin.SetOperational(admin, false))

	// escrow-moving exits are gated like every other mutation
	_, err = env.orders.CancelOrder(order.ID, seller)
	assert.ErrorIs(t, err, ErrLedgerPaused)

	err = env.orders.WithdrawBid(order.ID, bidder)
	assert.ErrorIs(t, err, ErrLedgerPaused)

	_, err = env.licenses.RecordUsage(license.ID, licensee, &RecordUsageRequest{Action: "inference"})
	assert.ErrorIs(t, err, ErrLedgerPaused)

	_, err = env.licenses.DeactivateLicense(license.ID, seller)
	assert.ErrorIs(t, err, ErrLedgerPaused)

	assert.Equal(t, int64(100), env.balance(t, bidder))

	require.NoError(t, env.admin.SetOperational(admin, true))
	_, err = env.orders.CancelOrder(order.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, int64(200), env.balance(t, bidder))
}

func TestFeeRateAppliedAtSettlementTime(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()
	seller := uuid.New()
	buyer := uuid.New()

	asset := env.mintAsset(t, seller, 0)
	order, err := env.orders.CreateFixedPriceOrder(seller, &CreateFixedPriceOrderRequest{
		AssetID: asset.ID, Price: 1000,
	})
	require.NoError(t, err)

	// raise the fee after the order was created; settlement uses the
	// live rate
	require.NoError(t, env.admin.SetFeeBps(admin, 500))

	env.fund(t, buyer, 1000)
	_, err = env.orders.BuyFixedPrice(order.ID, buyer, 1000)
	require.NoError(t, err)

	assert.Equal(t, int64(50), env.balance(t, env.cfg.Platform.FeeAccount))
	assert.Equal(t, int64(950), env.balance(t, seller))
}

func TestSetFeeBpsBounds(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()

	assert.ErrorIs(t, env.admin.SetFeeBps(admin, models.MaxFeeBps+1), ErrInvalidFeeRate)
	assert.ErrorIs(t, env.admin.SetFeeBps(admin, -1), ErrInvalidFeeRate)
	require.NoError(t, env.admin.SetFeeBps(admin, 0))
	require.NoError(t, env.admin.SetFeeBps(admin, models.MaxFeeBps))

	assert.Equal(t, int64(2), env.eventCount(t, models.EventSettingsChanged))
}

func TestSetLicensableBatchIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()
	owner := uuid.New()

	first := env.mintAsset(t, owner, 0)
	second := env.mintAsset(t, owner, 0)

	err := env.admin.SetLicensableBatch(admin, []uint64{first.ID, 99999, second.ID}, true)
	assert.ErrorIs(t, err, ErrNotFound)

	// nothing from the failed batch stuck
	reloaded, err := env.assets.GetAsset(first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Licensable)

	require.NoError(t, env.admin.SetLicensableBatch(admin, []uint64{first.ID, second.ID}, true))
	reloaded, err = env.assets.GetAsset(second.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Licensable)

	// repeated flag writes are no-ops and emit nothing
	events := env.eventCount(t, models.EventAssetLicensableFlag)
	require.NoError(t, env.admin.SetLicensableBatch(admin, []uint64{first.ID}, true))
	assert.Equal(t, events, env.eventCount(t, models.EventAssetLicensableFlag))
}

func TestPlatformStats(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()
	buyer := uuid.New()

	asset := env.mintAsset(t, seller, 0)
	order, err := env.orders.CreateFixedPriceOrder(seller, &CreateFixedPriceOrderRequest{
		AssetID: asset.ID, Price: 400,
	})
	require.NoError(t, err)
	env.fund(t, buyer, 400)
	_, err = env.orders.BuyFixedPrice(order.ID, buyer, 400)
	require.NoError(t, err)

	stats, err := env.admin.PlatformStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["assets"])
	assert.Equal(t, int64(1), stats["orders"])
	assert.Equal(t, int64(0), stats["active_orders"])
	assert.Equal(t, int64(390), stats["seller_volume"]) // 400 minus 2.5% fee
}
