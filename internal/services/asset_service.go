// internal/services/asset_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintforge/assetledger/internal/database"
	"github.com/mintforge/assetledger/internal/models"
	"github.com/mintforge/assetledger/internal/utils"
)

// AssetService owns asset records, version history, content-hash
// uniqueness and the ownership-transfer primitive. Other components
// read and transfer ownership only through it.
type AssetService struct {
	db       *gorm.DB
	accounts *AccountService
	events   *EventService
	now      func() time.Time
}

type MintRequest struct {
	Kind        models.AssetKind `json:"kind" validate:"required"`
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description,omitempty"`
	Version     string           `json:"version,omitempty" validate:"omitempty,max=100"`
	ContentHash string           `json:"content_hash" validate:"required,content_hash"`
	IsPublic    bool             `json:"is_public"`
	RoyaltyBps  int64            `json:"royalty_bps" validate:"min=0"`
	Price       int64            `json:"price" validate:"min=0"`
	ForSale     bool             `json:"for_sale"`
	Tags        []string         `json:"tags,omitempty"`
}

type UpdateVersionRequest struct {
	Label       string `json:"label" validate:"required,max=100"`
	ContentHash string `json:"content_hash" validate:"required,content_hash"`
	Changelog   string `json:"changelog,omitempty"`
}

type SaleTermsRequest struct {
	Price   int64 `json:"price" validate:"min=0"`
	ForSale bool  `json:"for_sale"`
}

type AssetSearchParams struct {
	utils.PaginationParams
	Owner   *uuid.UUID        `json:"owner,omitempty"`
	Creator *uuid.UUID        `json:"creator,omitempty"`
	Kind    *models.AssetKind `json:"kind,omitempty"`
	ForSale *bool             `json:"for_sale,omitempty"`
}

func NewAssetService(db *gorm.DB, accounts *AccountService, events *EventService) *AssetService {
	return &AssetService{
		db:       db,
		accounts: accounts,
		events:   events,
		now:      time.Now,
	}
}

// Mint registers a new asset owned by its creator, with the initial
// version appended in the same transaction.
func (s *AssetService) Mint(creator uuid.UUID, req *MintRequest) (*models.Asset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown asset kind %q", ErrInvalidInput, req.Kind)
	}
	if req.RoyaltyBps > models.MaxRoyaltyBps {
		return nil, ErrInvalidRoyalty
	}
	if req.ForSale && req.Price <= 0 {
		return nil, fmt.Errorf("%w: for-sale asset needs a positive price", ErrInvalidInput)
	}

	label := req.Version
	if label == "" {
		label = "1.0.0"
	}

	var asset *models.Asset
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := s.checkHashUnused(tx, req.ContentHash); err != nil {
			return err
		}

		asset = &models.Asset{
			Kind:         req.Kind,
			Name:         req.Name,
			Description:  req.Description,
			Creator:      creator,
			CurrentOwner: creator,
			ContentHash:  req.ContentHash,
			RoyaltyBps:   req.RoyaltyBps,
			SalePrice:    req.Price,
			ForSale:      req.ForSale,
			IsPublic:     req.IsPublic,
			Tags:         tagsJSON(req.Tags),
		}
		if err := tx.Create(asset).Error; err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}

		version := &models.AssetVersion{
			AssetID:     asset.ID,
			Label:       label,
			ContentHash: req.ContentHash,
			Changelog:   "Initial version",
		}
		if err := tx.Create(version).Error; err != nil {
			return mapVersionInsertError(err)
		}

		return s.events.Emit(tx, assetEvent(models.EventAssetMinted, asset.ID, creator, models.JSONB{
			"kind":         string(req.Kind),
			"name":         req.Name,
			"content_hash": req.ContentHash,
			"royalty_bps":  req.RoyaltyBps,
		}))
	})
	if err != nil {
		return nil, err
	}

	return asset, nil
}

// UpdateVersion appends a version and moves the asset's content pointer.
func (s *AssetService) UpdateVersion(assetID uint64, caller uuid.UUID, req *UpdateVersionRequest) (*models.Asset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var asset models.Asset
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := lockAsset(tx, assetID, &asset); err != nil {
			return err
		}
		if asset.CurrentOwner != caller {
			return ErrNotOwner
		}

		if err := s.checkHashUnused(tx, req.ContentHash); err != nil {
			return err
		}

		version := &models.AssetVersion{
			AssetID:     assetID,
			Label:       req.Label,
			ContentHash: req.ContentHash,
			Changelog:   req.Changelog,
		}
		if err := tx.Create(version).Error; err != nil {
			return mapVersionInsertError(err)
		}

		asset.ContentHash = req.ContentHash
		if err := tx.Save(&asset).Error; err != nil {
			return fmt.Errorf("failed to update asset: %w", err)
		}

		return s.events.Emit(tx, assetEvent(models.EventAssetUpdated, assetID, caller, models.JSONB{
			"label":        req.Label,
			"content_hash": req.ContentHash,
		}))
	})
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

// SetSaleTerms updates price and for-sale flag on an owned asset.
func (s *AssetService) SetSaleTerms(assetID uint64, caller uuid.UUID, req *SaleTermsRequest) (*models.Asset, error) {
	if req.ForSale && req.Price <= 0 {
		return nil, fmt.Errorf("%w: for-sale asset needs a positive price", ErrInvalidInput)
	}

	var asset models.Asset
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := lockAsset(tx, assetID, &asset); err != nil {
			return err
		}
		if asset.CurrentOwner != caller {
			return ErrNotOwner
		}

		asset.SalePrice = req.Price
		asset.ForSale = req.ForSale
		if err := tx.Save(&asset).Error; err != nil {
			return fmt.Errorf("failed to update sale terms: %w", err)
		}

		return s.events.Emit(tx, assetEvent(models.EventAssetPriceChanged, assetID, caller, models.JSONB{
			"price":    req.Price,
			"for_sale": req.ForSale,
		}))
	})
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

// DirectBuy is the one path outside the order book that moves value and
// ownership atomically: the buyer pays the listed price, the creator
// takes the royalty cut, excess payment flows back to the buyer.
func (s *AssetService) DirectBuy(assetID uint64, buyer uuid.UUID, payment int64) (*models.Asset, error) {
	if payment < 0 {
		return nil, fmt.Errorf("%w: negative payment", ErrInvalidInput)
	}

	var asset models.Asset
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := lockAsset(tx, assetID, &asset); err != nil {
			return err
		}
		if !asset.ForSale {
			return ErrNotForSale
		}
		if asset.CurrentOwner == buyer {
			return ErrSelfTrade
		}
		if payment < asset.SalePrice {
			return ErrInsufficientPayment
		}

		seller := asset.CurrentOwner
		price := asset.SalePrice
		royalty := price * asset.RoyaltyBps / models.BpsDenominator

		txnID := uuid.New()
		if err := s.accounts.Debit(tx, buyer, payment, settlementRef(txnID, "payment"), models.EntryKindPayment); err != nil {
			return err
		}
		if err := s.accounts.Credit(tx, seller, price-royalty, settlementRef(txnID, "proceeds"), models.EntryKindProceeds); err != nil {
			return err
		}
		if err := s.accounts.Credit(tx, asset.Creator, royalty, settlementRef(txnID, "royalty"), models.EntryKindRoyalty); err != nil {
			return err
		}
		if err := s.accounts.Credit(tx, buyer, payment-price, settlementRef(txnID, "change"), models.EntryKindRefund); err != nil {
			return err
		}

		if err := transferLocked(tx, &asset, seller, buyer); err != nil {
			return err
		}

		return s.events.Emit(tx, assetEvent(models.EventAssetSold, assetID, buyer, models.JSONB{
			"seller":  seller.String(),
			"buyer":   buyer.String(),
			"price":   price,
			"royalty": royalty,
		}))
	})
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

// transferLocked is the ownership-transfer primitive. The asset row
// must already be locked by the surrounding transaction; sale terms are
// cleared so the new owner never inherits the old listing.
func transferLocked(tx *gorm.DB, asset *models.Asset, from, to uuid.UUID) error {
	if asset.CurrentOwner != from {
		return ErrNotOwner
	}
	if from == to {
		return ErrSelfTransfer
	}

	asset.CurrentOwner = to
	asset.ForSale = false
	asset.SalePrice = 0
	if err := tx.Save(asset).Error; err != nil {
		return fmt.Errorf("failed to transfer ownership: %w", err)
	}
	return nil
}

func lockAsset(tx *gorm.DB, assetID uint64, asset *models.Asset) error {
	if err := database.LockForUpdate(tx).First(asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load asset: %w", err)
	}
	return nil
}

// mapVersionInsertError turns a unique-index violation on
// asset_versions.content_hash into the duplicate-content error kind.
func mapVersionInsertError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateContent
	}
	return fmt.Errorf("failed to insert version: %w", err)
}

// checkHashUnused guards content uniqueness across every version ever
// recorded. A concurrent insert that slips past the check still hits
// the unique index on asset_versions.content_hash.
func (s *AssetService) checkHashUnused(tx *gorm.DB, contentHash string) error {
	var count int64
	if err := tx.Model(&models.AssetVersion{}).
		Where("content_hash = ?", contentHash).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check content hash: %w", err)
	}
	if count > 0 {
		return ErrDuplicateContent
	}
	return nil
}

func (s *AssetService) GetAsset(assetID uint64) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.Preload("Versions", func(db *gorm.DB) *gorm.DB {
		return db.Order("asset_versions.id ASC")
	}).First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}
	return &asset, nil
}

func (s *AssetService) GetVersions(assetID uint64) ([]models.AssetVersion, error) {
	if _, err := s.GetAsset(assetID); err != nil {
		return nil, err
	}

	var versions []models.AssetVersion
	if err := s.db.Where("asset_id = ?", assetID).
		Order("id ASC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch versions: %w", err)
	}
	return versions, nil
}

func (s *AssetService) SearchAssets(params AssetSearchParams) ([]models.Asset, int64, error) {
	query := s.db.Model(&models.Asset{})

	if params.Owner != nil {
		query = query.Where("current_owner = ?", *params.Owner)
	}
	if params.Creator != nil {
		query = query.Where("creator = ?", *params.Creator)
	}
	if params.Kind != nil {
		query = query.Where("kind = ?", *params.Kind)
	}
	if params.ForSale != nil {
		query = query.Where("for_sale = ?", *params.ForSale)
	}
	if params.Search != "" {
		query = query.Where("name LIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assets: %w", err)
	}

	allowedSortFields := []string{"id", "created_at", "updated_at", "sale_price", "name"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var assets []models.Asset
	if err := query.Find(&assets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch assets: %w", err)
	}

	return assets, total, nil
}

func tagsJSON(tags []string) models.JSONB {
	if len(tags) == 0 {
		return nil
	}
	list := make([]interface{}, len(tags))
	for i, t := range tags {
		list[i] = t
	}
	return models.JSONB{"tags": list}
}
