// internal/services/license_service.go
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

// LicenseService owns license grants and their usage log. It reads the
// licensable flag an administrator sets on assets but is otherwise
// independent of the order book.
type LicenseService struct {
	db       *gorm.DB
	accounts *AccountService
	events   *EventService
	now      func() time.Time
}

type CreateLicenseRequest struct {
	AssetID  uint64             `json:"asset_id" validate:"required"`
	Licensor uuid.UUID          `json:"licensor" validate:"required"`
	Kind     models.LicenseKind `json:"kind" validate:"required"`
	Price    int64              `json:"price" validate:"min=0"`
	Duration int64              `json:"duration" validate:"min=0"` // seconds, 0 = perpetual
	Terms    string             `json:"terms,omitempty"`
	Payment  int64              `json:"payment" validate:"min=0"`
}

type RecordUsageRequest struct {
	Action  string `json:"action" validate:"required,max=100"`
	Details string `json:"details,omitempty"`
}

type LicenseSearchParams struct {
	utils.PaginationParams
	AssetID  *uint64    `json:"asset_id,omitempty"`
	Licensee *uuid.UUID `json:"licensee,omitempty"`
	Licensor *uuid.UUID `json:"licensor,omitempty"`
	Active   *bool      `json:"active,omitempty"`
}

func NewLicenseService(db *gorm.DB, accounts *AccountService, events *EventService) *LicenseService {
	return &LicenseService{
		db:       db,
		accounts: accounts,
		events:   events,
		now:      time.Now,
	}
}

// CreateLicense grants the caller a usage window against a licensable
// asset. The caller is the licensee and the paying party; the named
// licensor must be the asset's current owner and receives the price.
// Excess payment is refunded in the same transaction.
func (s *LicenseService) CreateLicense(licensee uuid.UUID, req *CreateLicenseRequest) (*models.License, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown license kind %q", ErrInvalidInput, req.Kind)
	}
	if licensee == uuid.Nil || licensee == req.Licensor {
		return nil, ErrInvalidLicensee
	}
	if req.Payment < req.Price {
		return nil, ErrInsufficientPayment
	}

	var license *models.License
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		var asset models.Asset
		if err := lockAsset(tx, req.AssetID, &asset); err != nil {
			return err
		}
		if !asset.Licensable {
			return ErrNotLicensable
		}
		if asset.CurrentOwner != req.Licensor {
			return ErrNotOwner
		}

		txnID := uuid.New()
		if err := s.accounts.Debit(tx, licensee, req.Payment, settlementRef(txnID, "license_payment"), models.EntryKindPayment); err != nil {
			return err
		}
		if err := s.accounts.Credit(tx, req.Licensor, req.Price, settlementRef(txnID, "license_price"), models.EntryKindProceeds); err != nil {
			return err
		}
		if err := s.accounts.Credit(tx, licensee, req.Payment-req.Price, settlementRef(txnID, "change"), models.EntryKindRefund); err != nil {
			return err
		}

		start := s.now()
		license = &models.License{
			AssetID:   req.AssetID,
			Licensor:  req.Licensor,
			Licensee:  licensee,
			Kind:      req.Kind,
			Price:     req.Price,
			Duration:  req.Duration,
			StartTime: start,
			Active:    true,
			Terms:     req.Terms,
		}
		if req.Duration > 0 {
			end := start.Add(time.Duration(req.Duration) * time.Second)
			license.EndTime = &end
		}
		if err := tx.Create(license).Error; err != nil {
			return fmt.Errorf("failed to create license: %w", err)
		}

		return s.events.Emit(tx, licenseEvent(models.EventLicenseCreated, license.ID, req.AssetID, licensee, models.JSONB{
			"licensor": req.Licensor.String(),
			"kind":     string(req.Kind),
			"price":    req.Price,
			"duration": req.Duration,
		}))
	})
	if err != nil {
		return nil, err
	}

	return license, nil
}

// RecordUsage appends to the usage log of a currently valid license.
func (s *LicenseService) RecordUsage(licenseID uint64, caller uuid.UUID, req *RecordUsageRequest) (*models.UsageRecord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var record *models.UsageRecord
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		var license models.License
		if err := lockLicense(tx, licenseID, &license); err != nil {
			return err
		}
		if license.Licensee != caller {
			return ErrNotLicensee
		}
		if !license.Active {
			return ErrLicenseInactive
		}
		if license.EndTime != nil && s.now().After(*license.EndTime) {
			return ErrLicenseExpired
		}

		record = &models.UsageRecord{
			LicenseID: licenseID,
			User:      caller,
			Action:    req.Action,
			Details:   req.Details,
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to append usage record: %w", err)
		}

		return s.events.Emit(tx, licenseEvent(models.EventLicenseUsage, licenseID, license.AssetID, caller, models.JSONB{
			"action": req.Action,
		}))
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// HasValidLicense reports whether the user holds any license for the
// asset that is active and inside its validity window right now.
func (s *LicenseService) HasValidLicense(user uuid.UUID, assetID uint64) (bool, error) {
	now := s.now()
	var count int64
	err := s.db.Model(&models.License{}).
		Where("licensee = ? AND asset_id = ? AND active = ?", user, assetID, true).
		Where("start_time <= ?", now).
		Where("(end_time IS NULL OR end_time >= ?)", now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check license validity: %w", err)
	}
	return count > 0, nil
}

// DeactivateLicense revokes a grant; only the licensor may do so.
func (s *LicenseService) DeactivateLicense(licenseID uint64, caller uuid.UUID) (*models.License, error) {
	var license models.License
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := ensureOperational(tx); err != nil {
			return err
		}

		if err := lockLicense(tx, licenseID, &license); err != nil {
			return err
		}
		if license.Licensor != caller {
			return ErrNotLicensor
		}
		if !license.Active {
			return ErrLicenseInactive
		}

		license.Active = false
		if err := tx.Save(&license).Error; err != nil {
			return fmt.Errorf("failed to deactivate license: %w", err)
		}

		return s.events.Emit(tx, licenseEvent(models.EventLicenseDeactivated, licenseID, license.AssetID, caller, nil))
	})
	if err != nil {
		return nil, err
	}

	return &license, nil
}

func lockLicense(tx *gorm.DB, licenseID uint64, license *models.License) error {
	if err := database.LockForUpdate(tx).First(license, licenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load license: %w", err)
	}
	return nil
}

func (s *LicenseService) GetLicense(licenseID uint64) (*models.License, error) {
	var license models.License
	if err := s.db.First(&license, licenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load license: %w", err)
	}
	return &license, nil
}

func (s *LicenseService) GetUsageRecords(licenseID uint64, params utils.PaginationParams) ([]models.UsageRecord, int64, error) {
	if _, err := s.GetLicense(licenseID); err != nil {
		return nil, 0, err
	}

	query := s.db.Model(&models.UsageRecord{}).Where("license_id = ?", licenseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count usage records: %w", err)
	}

	query = utils.ApplyPagination(query.Order("id ASC"), params)

	var records []models.UsageRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch usage records: %w", err)
	}

	return records, total, nil
}

func (s *LicenseService) SearchLicenses(params LicenseSearchParams) ([]models.License, int64, error) {
	query := s.db.Model(&models.License{})

	if params.AssetID != nil {
		query = query.Where("asset_id = ?", *params.AssetID)
	}
	if params.Licensee != nil {
		query = query.Where("licensee = ?", *params.Licensee)
	}
	if params.Licensor != nil {
		query = query.Where("licensor = ?", *params.Licensor)
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count licenses: %w", err)
	}

	allowedSortFields := []string{"id", "created_at", "start_time", "end_time", "price"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var licenses []models.License
	if err := query.Find(&licenses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch licenses: %w", err)
	}

	return licenses, total, nil
}
