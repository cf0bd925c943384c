// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintforge/assetledger/internal/database"
	"github.com/mintforge/assetledger/internal/models"
)

// AdminService owns the platform settings: the fee rate applied at
// settlement, the process-wide operational flag, and per-asset
// licensable flags.
type AdminService struct {
	db     *gorm.DB
	events *EventService
}

func NewAdminService(db *gorm.DB, events *EventService) *AdminService {
	return &AdminService{db: db, events: events}
}

// feeBps reads the platform fee rate inside the given transaction. The
// rate in effect at settlement time applies, not the one at order
// creation.
func feeBps(tx *gorm.DB) (int64, error) {
	var setting models.PlatformSetting
	if err := tx.Where("key = ?", models.SettingFeeBps).First(&setting).Error; err != nil {
		return 0, fmt.Errorf("failed to read fee setting: %w", err)
	}
	v, ok := setting.IntValue()
	if !ok {
		return 0, fmt.Errorf("corrupt fee setting: %v", setting.Value)
	}
	return v, nil
}

// ensureOperational fails every mutating operation while the pause flag
// is cleared.
func ensureOperational(tx *gorm.DB) error {
	var setting models.PlatformSetting
	if err := tx.Where("key = ?", models.SettingOperational).First(&setting).Error; err != nil {
		return fmt.Errorf("failed to read operational setting: %w", err)
	}
	operational, ok := setting.BoolValue()
	if !ok {
		return fmt.Errorf("corrupt operational setting: %v", setting.Value)
	}
	if !operational {
		return ErrLedgerPaused
	}
	return nil
}

func (s *AdminService) SetFeeBps(admin uuid.UUID, bps int64) error {
	if bps < 0 || bps > models.MaxFeeBps {
		return ErrInvalidFeeRate
	}
	return s.setSetting(admin, models.SettingFeeBps, models.JSONB{"value": bps})
}

// SetOperational toggles the process-wide pause flag. This is the one
// mutation that must work while the ledger is paused.
func (s *AdminService) SetOperational(admin uuid.UUID, operational bool) error {
	return s.setSetting(admin, models.SettingOperational, models.JSONB{"value": operational})
}

func (s *AdminService) setSetting(admin uuid.UUID, key string, value models.JSONB) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var setting models.PlatformSetting
		if err := database.LockForUpdate(tx).Where("key = ?", key).First(&setting).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load setting: %w", err)
		}

		setting.Value = value
		setting.UpdatedBy = admin
		if err := tx.Save(&setting).Error; err != nil {
			return fmt.Errorf("failed to update setting: %w", err)
		}

		return s.events.Emit(tx, &models.Event{
			Type:  models.EventSettingsChanged,
			Actor: admin,
			Data:  models.JSONB{"key": key, "value": value["value"]},
		})
	})
}

func (s *AdminService) GetSettings() ([]models.PlatformSetting, error) {
	var settings []models.PlatformSetting
	if err := s.db.Order("key ASC").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

// SetLicensable flags a single asset for licensing.
func (s *AdminService) SetLicensable(admin uuid.UUID, assetID uint64, licensable bool) error {
	return s.SetLicensableBatch(admin, []uint64{assetID}, licensable)
}

// SetLicensableBatch flags several assets at once; the whole batch
// applies or none of it does.
func (s *AdminService) SetLicensableBatch(admin uuid.UUID, assetIDs []uint64, licensable bool) error {
	if len(assetIDs) == 0 {
		return fmt.Errorf("%w: empty asset list", ErrInvalidInput)
	}

	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		for _, assetID := range assetIDs {
			var asset models.Asset
			if err := database.LockForUpdate(tx).First(&asset, assetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("asset %d: %w", assetID, ErrNotFound)
				}
				return fmt.Errorf("failed to load asset %d: %w", assetID, err)
			}

			if asset.Licensable == licensable {
				continue
			}

			if err := tx.Model(&asset).UpdateColumn("licensable", licensable).Error; err != nil {
				return fmt.Errorf("failed to update asset %d: %w", assetID, err)
			}

			event := assetEvent(models.EventAssetLicensableFlag, assetID, admin,
				models.JSONB{"licensable": licensable})
			if err := s.events.Emit(tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

// PlatformStats returns the aggregate counters the admin dashboard
// shows.
func (s *AdminService) PlatformStats() (map[string]interface{}, error) {
	var assetCount, orderCount, activeOrderCount, licenseCount, eventCount int64
	var volume int64

	s.db.Model(&models.Asset{}).Count(&assetCount)
	s.db.Model(&models.Order{}).Count(&orderCount)
	s.db.Model(&models.Order{}).Where("active = ?", true).Count(&activeOrderCount)
	s.db.Model(&models.License{}).Count(&licenseCount)
	s.db.Model(&models.Event{}).Count(&eventCount)

	if err := s.db.Model(&models.LedgerEntry{}).
		Where("kind = ? AND amount > 0", models.EntryKindProceeds).
		Select("COALESCE(SUM(amount), 0)").Scan(&volume).Error; err != nil {
		return nil, fmt.Errorf("failed to compute volume: %w", err)
	}

	return map[string]interface{}{
		"assets":        assetCount,
		"orders":        orderCount,
		"active_orders": activeOrderCount,
		"licenses":      licenseCount,
		"events":        eventCount,
		"seller_volume": volume,
	}, nil
}
