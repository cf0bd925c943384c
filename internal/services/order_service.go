// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintforge/assetledger/internal/config"
	"github.com/mintforge/assetledger/internal/database"
	"github.com/mintforge/assetledger/internal/models"
	"github.com/mintforge/assetledger/internal/utils"
)

// OrderService owns the order book: fixed-price and auction orders,
// the append-only bid log, and settlement. It reads asset state and
// moves ownership only through the asset registry's transfer primitive,
// and it holds at most one bidder's funds in escrow per auction.
type OrderService struct {
	db       *gorm.DB
	accounts *AccountService
	events   *EventService
	cfg      *config.Config
	now      func() time.Time
}

type CreateFixedPriceOrderRequest struct {
	AssetID uint64 `json:"asset_id" validate:"required"`
	Price   int64  `json:"price" validate:"required,gt=0"`
}

type CreateAuctionOrderRequest struct {
	AssetID       uint64 `json:"asset_id" validate:"required"`
	StartingPrice int64  `json:"starting_price" validate:"required,gt=0"`
	Duration      int64  `json:"duration" validate:"required,gt=0"` // seconds
}

type OrderSearchParams struct {
	utils.PaginationParams
	AssetID *uint64           `json:"asset_id,omitempty"`
	Seller  *uuid.UUID        `json:"seller,omitempty"`
	Kind    *models.OrderKind `json:"kind,omitempty"`
}

func NewOrderService(db *gorm.DB, accounts *AccountService, events *EventService, cfg *config.Config) *OrderService {
	return &OrderService{
		db:       db,
		accounts: accounts,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *OrderService) CreateFixedPriceOrder(seller uuid.UUID, req *CreateFixedPriceOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.createOrder(seller, req.AssetID, models.OrderKindFixedPrice, req.Price, 0)
}

func (s *OrderService) CreateAuctionOrder(seller uuid.UUID, req *CreateAuctionOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.createOrder(seller, req.AssetID, models.OrderKindAuction, req.StartingPrice, req.Duration)
}

func (s *OrderService) createOrder(seller uuid.UUID, assetID uint64, kind models.OrderKind, price, duration int64) (*models.Order, error) {
	var order *models.Order
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		var asset models.Asset
		if err := lockAsset(tx, assetID, &asset); err != nil {
			return err
		}
		if asset.CurrentOwner != seller {
			return ErrNotOwner
		}

		start := s.now()
		order = &models.Order{
			AssetID:   assetID,
			Seller:    seller,
			Kind:      kind,
			Price:     price,
			StartTime: start,
			Active:    true,
		}
		if kind == models.OrderKindAuction {
			end := start.Add(time.Duration(duration) * time.Second)
			order.EndTime = &end
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		return s.events.Emit(tx, orderEvent(models.EventOrderCreated, order.ID, assetID, seller, models.JSONB{
			"kind":  string(kind),
			"price": price,
		}))
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// BuyFixedPrice fills a fixed-price order at its listed price. Excess
// payment flows straight back to the buyer.
func (s *OrderService) BuyFixedPrice(orderID uint64, buyer uuid.UUID, payment int64) (*models.Order, error) {
	if payment < 0 {
		return nil, fmt.Errorf("%w: negative payment", ErrInvalidInput)
	}

	var order models.Order
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Kind != models.OrderKindFixedPrice {
			return ErrWrongOrderKind
		}
		if order.Buyer != nil {
			return ErrAlreadySold
		}
		if !order.Active {
			return ErrOrderInactive
		}
		if order.Seller == buyer {
			return ErrSelfTrade
		}
		if payment < order.Price {
			return ErrInsufficientPayment
		}

		txnID := uuid.New()
		if err := s.accounts.Debit(tx, buyer, payment, settlementRef(txnID, "payment"), models.EntryKindPayment); err != nil {
			return err
		}
		if err := s.accounts.Credit(tx, buyer, payment-order.Price, settlementRef(txnID, "change"), models.EntryKindRefund); err != nil {
			return err
		}

		return s.settle(tx, &order, buyer, buyer, order.Price, txnID)
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// PlaceBid accepts a strictly higher bid on a live auction. The
// displaced highest bidder is refunded in the same transaction, so the
// order book escrows exactly one bid at any time.
func (s *OrderService) PlaceBid(orderID uint64, bidder uuid.UUID, amount int64) (*models.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bid must be positive", ErrInvalidInput)
	}

	var order models.Order
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Kind != models.OrderKindAuction {
			return ErrWrongOrderKind
		}
		if !order.Active {
			return ErrOrderInactive
		}
		if order.EndTime != nil && s.now().After(*order.EndTime) {
			return ErrOrderExpired
		}
		if order.Seller == bidder {
			return ErrSelfTrade
		}
		if amount < order.Price || amount <= order.HighestBid {
			return ErrBidTooLow
		}

		txnID := uuid.New()
		if err := s.accounts.Debit(tx, bidder, amount, settlementRef(txnID, "bid"), models.EntryKindEscrow); err != nil {
			return err
		}
		if err := s.accounts.Credit(tx, s.cfg.Platform.EscrowAccount, amount, settlementRef(txnID, "escrow"), models.EntryKindEscrow); err != nil {
			return err
		}

		if order.HighestBidder != nil {
			if err := s.releaseEscrow(tx, &order, *order.HighestBidder, order.HighestBid, txnID); err != nil {
				return err
			}
		}

		order.HighestBid = amount
		order.HighestBidder = &bidder
		if err := tx.Save(&order).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		bid := &models.Bid{OrderID: orderID, Bidder: bidder, Amount: amount}
		if err := tx.Create(bid).Error; err != nil {
			return fmt.Errorf("failed to append bid: %w", err)
		}

		return s.events.Emit(tx, orderEvent(models.EventBidPlaced, orderID, order.AssetID, bidder, models.JSONB{
			"amount": amount,
		}))
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// releaseEscrow refunds a displaced bidder and marks their bids
// released so the amount can never leave the escrow account twice.
func (s *OrderService) releaseEscrow(tx *gorm.DB, order *models.Order, bidder uuid.UUID, amount int64, txnID uuid.UUID) error {
	if err := s.accounts.Debit(tx, s.cfg.Platform.EscrowAccount, amount, settlementRef(txnID, "escrow_release"), models.EntryKindEscrow); err != nil {
		return err
	}
	if err := s.accounts.Credit(tx, bidder, amount, settlementRef(txnID, "bid_refund"), models.EntryKindRefund); err != nil {
		return err
	}
	if err := tx.Model(&models.Bid{}).
		Where("order_id = ? AND bidder = ? AND released = ?", order.ID, bidder, false).
		UpdateColumn("released", true).Error; err != nil {
		return fmt.Errorf("failed to mark bids released: %w", err)
	}
	return nil
}

// WithdrawBid refunds the caller's escrowed bid if one is still held.
// Bids displaced by a higher bid were refunded at displacement, so they
// surface here as ErrNoBidFound rather than a second refund.
func (s *OrderService) WithdrawBid(orderID uint64, bidder uuid.UUID) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		var order models.Order
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Kind != models.OrderKindAuction {
			return ErrWrongOrderKind
		}
		if order.Active && order.HighestBidder != nil && *order.HighestBidder == bidder {
			return ErrIsHighestBidder
		}

		var bid models.Bid
		if err := database.LockForUpdate(tx).
			Where("order_id = ? AND bidder = ? AND released = ?", orderID, bidder, false).
			Order("id DESC").First(&bid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoBidFound
			}
			return fmt.Errorf("failed to load bid: %w", err)
		}

		txnID := uuid.New()
		if err := s.accounts.Debit(tx, s.cfg.Platform.EscrowAccount, bid.Amount, settlementRef(txnID, "escrow_release"), models.EntryKindEscrow); err != nil {
			return err
		}
		if err := s.accounts.Credit(tx, bidder, bid.Amount, settlementRef(txnID, "bid_refund"), models.EntryKindRefund); err != nil {
			return err
		}
		if err := tx.Model(&bid).UpdateColumn("released", true).Error; err != nil {
			return fmt.Errorf("failed to mark bid released: %w", err)
		}

		return s.events.Emit(tx, orderEvent(models.EventBidWithdrawn, orderID, order.AssetID, bidder, models.JSONB{
			"amount": bid.Amount,
		}))
	})
}

// EndAuction settles an expired auction at the highest bid. Anyone may
// trigger it once the end time has passed; the winning escrow funds the
// settlement.
func (s *OrderService) EndAuction(orderID uint64, caller uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Kind != models.OrderKindAuction {
			return ErrWrongOrderKind
		}
		if !order.Active {
			return ErrAlreadyEnded
		}
		if order.EndTime != nil && s.now().Before(*order.EndTime) {
			return ErrNotExpired
		}
		if order.HighestBidder == nil {
			return ErrNoBids
		}

		winner := *order.HighestBidder
		price := order.HighestBid

		txnID := uuid.New()
		if err := s.accounts.Debit(tx, s.cfg.Platform.EscrowAccount, price, settlementRef(txnID, "escrow_settle"), models.EntryKindEscrow); err != nil {
			return err
		}
		if err := tx.Model(&models.Bid{}).
			Where("order_id = ? AND bidder = ? AND released = ?", orderID, winner, false).
			UpdateColumn("released", true).Error; err != nil {
			return fmt.Errorf("failed to mark winning bid released: %w", err)
		}

		if err := s.settle(tx, &order, winner, caller, price, txnID); err != nil {
			return err
		}

		return s.events.Emit(tx, orderEvent(models.EventAuctionEnded, orderID, order.AssetID, caller, models.JSONB{
			"winner": winner.String(),
			"price":  price,
		}))
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// CancelOrder deactivates an unfilled order. An auction's escrowed
// highest bid is refunded first.
func (s *OrderService) CancelOrder(orderID uint64, seller uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Seller != seller {
			return ErrNotSeller
		}
		if order.Buyer != nil {
			return ErrAlreadySold
		}
		if !order.Active {
			return ErrOrderInactive
		}

		if order.HighestBidder != nil {
			txnID := uuid.New()
			if err := s.releaseEscrow(tx, &order, *order.HighestBidder, order.HighestBid, txnID); err != nil {
				return err
			}
			order.HighestBid = 0
			order.HighestBidder = nil
		}

		order.Active = false
		if err := tx.Save(&order).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		return s.events.Emit(tx, orderEvent(models.EventOrderCancelled, orderID, order.AssetID, seller, nil))
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// settle splits price into platform fee, creator royalty and seller
// proceeds, transfers ownership, and closes the order. The split is
// exact: fee + royalty + proceeds == price. The fee rate in effect at
// settlement applies, not the one at order creation.
func (s *OrderService) settle(tx *gorm.DB, order *models.Order, buyer, actor uuid.UUID, price int64, txnID uuid.UUID) error {
	var asset models.Asset
	if err := lockAsset(tx, order.AssetID, &asset); err != nil {
		return err
	}

	fee, err := feeBps(tx)
	if err != nil {
		return err
	}

	feeAmount := price * fee / models.BpsDenominator
	royalty := price * asset.RoyaltyBps / models.BpsDenominator
	sellerAmount := price - feeAmount - royalty

	if err := s.accounts.Credit(tx, s.cfg.Platform.FeeAccount, feeAmount, settlementRef(txnID, "fee"), models.EntryKindFee); err != nil {
		return err
	}
	if err := s.accounts.Credit(tx, asset.Creator, royalty, settlementRef(txnID, "royalty"), models.EntryKindRoyalty); err != nil {
		return err
	}
	if err := s.accounts.Credit(tx, order.Seller, sellerAmount, settlementRef(txnID, "proceeds"), models.EntryKindProceeds); err != nil {
		return err
	}

	if err := transferLocked(tx, &asset, order.Seller, buyer); err != nil {
		return err
	}

	order.Buyer = &buyer
	order.Active = false
	if err := tx.Save(order).Error; err != nil {
		return fmt.Errorf("failed to close order: %w", err)
	}

	return s.events.Emit(tx, orderEvent(models.EventOrderFilled, order.ID, order.AssetID, actor, models.JSONB{
		"buyer":   buyer.String(),
		"price":   price,
		"fee":     feeAmount,
		"royalty": royalty,
		"seller":  sellerAmount,
	}))
}

func lockOrder(tx *gorm.DB, orderID uint64, order *models.Order) error {
	if err := database.LockForUpdate(tx).First(order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load order: %w", err)
	}
	return nil
}

func (s *OrderService) GetOrder(orderID uint64) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Bids", func(db *gorm.DB) *gorm.DB {
		return db.Order("bids.id ASC")
	}).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

func (s *OrderService) GetBids(orderID uint64) ([]models.Bid, error) {
	if _, err := s.GetOrder(orderID); err != nil {
		return nil, err
	}

	var bids []models.Bid
	if err := s.db.Where("order_id = ?", orderID).
		Order("id ASC").Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bids: %w", err)
	}
	return bids, nil
}

// SearchActiveOrders lists open orders through the status indexes.
func (s *OrderService) SearchActiveOrders(params OrderSearchParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("active = ?", true)

	if params.AssetID != nil {
		query = query.Where("asset_id = ?", *params.AssetID)
	}
	if params.Seller != nil {
		query = query.Where("seller = ?", *params.Seller)
	}
	if params.Kind != nil {
		query = query.Where("kind = ?", *params.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"id", "created_at", "price", "end_time"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}
