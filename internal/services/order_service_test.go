// internal/services/order_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintforge/assetledger/internal/models"
)

func TestFixedPriceOrderSettlement(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()
	buyer := uuid.New()

	// seller is also the creator, royalty 5%, default fee 2.5%
	asset := env.mintAsset(t, seller, 500)

	order, err := env.orders.CreateFixedPriceOrder(seller, &CreateFixedPriceOrderRequest{
		AssetID: asset.ID,
		Price:   1000,
	})
	require.NoError(t, err)
	assert.True(t, order.Active)
	assert.Nil(t, order.EndTime)

	env.fund(t, buyer, 1200)
	funded := env.totalBalance(t)

	filled, err := env.orders.BuyFixedPrice(order.ID, buyer, 1100)
	require.NoError(t, err)

	assert.False(t, filled.Active)
	require.NotNil(t, filled.Buyer)
	assert.Equal(t, buyer, *filled.Buyer)

	// 1000 splits into 25 fee + 50 royalty + 925 proceeds; the seller is
	// the creator so royalty lands on the same account
	assert.Equal(t, int64(25), env.balance(t, env.cfg.Platform.FeeAccount))
	assert.Equal(t, int64(975), env.balance(t, seller))
	assert.Equal(t, int64(200), env.balance(t, buyer)) // 1200 - 1100 + 100 change
	assert.Equal(t, funded, env.totalBalance(t))

	reloaded, err := env.assets.GetAsset(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer, reloaded.CurrentOwner)
	assert.False(t, reloaded.ForSale)

	assert.Equal(t, int64(1), env.eventCount(t, models.EventOrderFilled))

	// the order settles exactly once
	second := uuid.New()
	env.fund(t, second, 2000)
	_, err = env.orders.BuyFixedPrice(order.ID, second, 1000)
	assert.ErrorIs(t, err, ErrAlreadySold)
}

func TestFixedPriceOrderGuards(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()
	asset := env.mintAsset(t, seller, 0)

	_, err := env.orders.CreateFixedPriceOrder(uuid.New(), &CreateFixedPriceOrderRequest{
		AssetID: asset.ID, Price: 100,
	})
	assert.ErrorIs(t, err, ErrNotOwner)

	order, err := env.orders.CreateFixedPriceOrder(seller, &CreateFixedPriceOrderRequest{
		AssetID: asset.ID, Price: 100,
	})
	require.NoError(t, err)

	_, err = env.orders.BuyFixedPrice(order.ID, seller, 100)
	assert.ErrorIs(t, err, ErrSelfTrade)

	buyer := uuid.New()
	env.fund(t, buyer, 1000)
	_, err = env.orders.BuyFixedPrice(order.ID, buyer, 99)
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	_, err = env.orders.PlaceBid(order.ID, buyer, 200)
	assert.ErrorIs(t, err, ErrWrongOrderKind)

	_, err = env.orders.BuyFixedPrice(99999, buyer, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuctionBiddingAndEscrow(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	asset := env.mintAsset(t, seller, 0)
	order, err := env.orders.CreateAuctionOrder(seller, &CreateAuctionOrderRequest{
		AssetID:       asset.ID,
		StartingPrice: 100,
		Duration:      3600,
	})
	require.NoError(t, err)
	require.NotNil(t, order.EndTime)

	env.fund(t, alice, 500)
	env.fund(t, bob, 500)

	_, err = env.orders.PlaceBid(order.ID, alice, 99)
	assert.ErrorIs(t, err, ErrBidTooLow)

	_, err = env.orders.PlaceBid(order.ID, seller, 100)
	assert.ErrorIs(t, err, ErrSelfTrade)

	updated, err := env.orders.PlaceBid(order.ID, alice, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), updated.HighestBid)
	assert.Equal(t, int64(400), env.balance(t, alice))
	assert.Equal(t, int64(100), env.balance(t, env.cfg.Platform.EscrowAccount))

	// equal bid is not an improvement
	_, err = env.orders.PlaceBid(order.ID, bob, 100)
	assert.ErrorIs(t, err, ErrBidTooLow)

	// a higher bid refunds the displaced bidder in the same transaction
	updated, err = env.orders.PlaceBid(order.ID, bob, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(150), updated.HighestBid)
	assert.Equal(t, bob, *updated.HighestBidder)
	assert.Equal(t, int64(500), env.balance(t, alice))
	assert.Equal(t, int64(350), env.balance(t, bob))
	assert.Equal(t, int64(150), env.balance(t, env.cfg.Platform.EscrowAccount))

	// alice's escrow was already released at displacement
	err = env.orders.WithdrawBid(order.ID, alice)
	assert.ErrorIs(t, err, ErrNoBidFound)

	// the highest bidder is pinned until displaced or settled
	err = env.orders.WithdrawBid(order.ID, bob)
	assert.ErrorIs(t, err, ErrIsHighestBidder)

	bids, err := env.orders.GetBids(order.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.True(t, bids[0].Released)
	assert.False(t, bids[1].Released)
}

func TestAuctionEndSettlesAtHighestBid(t *testing.T) {
	env := newTestEnv(t)
	creator := uuid.New()
	seller := uuid.New()
	bidder := uuid.New()

	// 10% royalty, asset owned by a reseller
	asset := env.mintAsset(t, creator, 1000)
	_, err := env.assets.SetSaleTerms(asset.ID, creator, &SaleTermsRequest{Price: 100, ForSale: true})
	require.NoError(t, err)
	env.fund(t, seller, 100)
	_, err = env.assets.DirectBuy(asset.ID, seller, 100)
	require.NoError(t, err)

	order, err := env.orders.CreateAuctionOrder(seller, &CreateAuctionOrderRequest{
		AssetID:       asset.ID,
		StartingPrice: 100,
		Duration:      3600,
	})
	require.NoError(t, err)

	env.fund(t, bidder, 1000)
	_, err = env.orders.PlaceBid(order.ID, bidder, 400)
	require.NoError(t, err)

	_, err = env.orders.EndAuction(order.ID, bidder)
	assert.ErrorIs(t, err, ErrNotExpired)

	env.orders.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	// late bids bounce off the expired auction
	_, err = env.orders.PlaceBid(order.ID, uuid.New(), 500)
	assert.ErrorIs(t, err, ErrOrderExpired)

	funded := env.totalBalance(t)

	// anyone may trigger settlement once expired
	ended, err := env.orders.EndAuction(order.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ended.Active)
	require.NotNil(t, ended.Buyer)
	assert.Equal(t, bidder, *ended.Buyer)

	// 400 splits into 10 fee + 40 royalty + 350 proceeds; the creator
	// already holds 100 from the first sale
	assert.Equal(t, int64(0), env.balance(t, env.cfg.Platform.EscrowAccount))
	assert.Equal(t, int64(140), env.balance(t, creator))
	assert.Equal(t, int64(350), env.balance(t, seller))
	assert.Equal(t, int64(600), env.balance(t, bidder))
	assert.Equal(t, funded, env.totalBalance(t))

	reloaded, err := env.assets.GetAsset(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, bidder, reloaded.CurrentOwner)

	_, err = env.orders.EndAuction(order.ID, bidder)
	assert.ErrorIs(t, err, ErrAlreadyEnded)

	assert.Equal(t, int64(1), env.eventCount(t, models.EventAuctionEnded))
}

func TestAuctionEndWithoutBids(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()
	asset := env.mintAsset(t, seller, 0)

	order, err := env.orders.CreateAuctionOrder(seller, &CreateAuctionOrderRequest{
		AssetID:       asset.ID,
		StartingPrice: 100,
		Duration:      60,
	})
	require.NoError(t, err)

	env.orders.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err = env.orders.EndAuction(order.ID, seller)
	assert.ErrorIs(t, err, ErrNoBids)
}

func TestCancelAuctionRefundsEscrow(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()
	bidder := uuid.New()

	asset := env.mintAsset(t, seller, 0)
	order, err := env.orders.CreateAuctionOrder(seller, &CreateAuctionOrderRequest{
		AssetID:       asset.ID,
		StartingPrice: 100,
		Duration:      3600,
	})
	require.NoError(t, err)

	env.fund(t, bidder, 300)
	_, err = env.orders.PlaceBid(order.ID, bidder, 200)
	require.NoError(t, err)

	_, err = env.orders.CancelOrder(order.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotSeller)

	cancelled, err := env.orders.CancelOrder(order.ID, seller)
	require.NoError(t, err)
	assert.False(t, cancelled.Active)
	assert.Nil(t, cancelled.HighestBidder)

	assert.Equal(t, int64(300), env.balance(t, bidder))
	assert.Equal(t, int64(0), env.balance(t, env.cfg.Platform.EscrowAccount))

	// already refunded at cancellation
	err = env.orders.WithdrawBid(order.ID, bidder)
	assert.ErrorIs(t, err, ErrNoBidFound)

	_, err = env.orders.CancelOrder(order.ID, seller)
	assert.ErrorIs(t, err, ErrOrderInactive)
}

func TestDisplacedBidConservation(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	asset := env.mintAsset(t, seller, 0)
	order, err := env.orders.CreateAuctionOrder(seller, &CreateAuctionOrderRequest{
		AssetID:       asset.ID,
		StartingPrice: 100,
		Duration:      3600,
	})
	require.NoError(t, err)

	env.fund(t, alice, 500)
	env.fund(t, bob, 500)

	_, err = env.orders.PlaceBid(order.ID, alice, 100)
	require.NoError(t, err)
	_, err = env.orders.PlaceBid(order.ID, bob, 200)
	require.NoError(t, err)

	// conservation across the displacement refund
	assert.Equal(t, int64(500), env.balance(t, alice))
	assert.Equal(t, int64(300), env.balance(t, bob))
	assert.Equal(t, int64(200), env.balance(t, env.cfg.Platform.EscrowAccount))
}

func TestBidWithoutFunds(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()
	asset := env.mintAsset(t, seller, 0)

	order, err := env.orders.CreateAuctionOrder(seller, &CreateAuctionOrderRequest{
		AssetID:       asset.ID,
		StartingPrice: 100,
		Duration:      3600,
	})
	require.NoError(t, err)

	_, err = env.orders.PlaceBid(order.ID, uuid.New(), 150)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// the failed bid left no trace
	assert.Equal(t, int64(0), env.balance(t, env.cfg.Platform.EscrowAccount))
	bids, err := env.orders.GetBids(order.ID)
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestSearchActiveOrders(t *testing.T) {
	env := newTestEnv(t)
	seller := uuid.New()

	first := env.mintAsset(t, seller, 0)
	second := env.mintAsset(t, seller, 0)

	_, err := env.orders.CreateFixedPriceOrder(seller, &CreateFixedPriceOrderRequest{AssetID: first.ID, Price: 100})
	require.NoError(t, err)
	cancelled, err := env.orders.CreateAuctionOrder(seller, &CreateAuctionOrderRequest{AssetID: second.ID, StartingPrice: 50, Duration: 60})
	require.NoError(t, err)
	_, err = env.orders.CancelOrder(cancelled.ID, seller)
	require.NoError(t, err)

	orders, total, err := env.orders.SearchActiveOrders(OrderSearchParams{PaginationParams: testPage()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].AssetID)
}
