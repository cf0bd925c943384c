// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Base model for ledger entities. IDs come from a database sequence, so
// assignment is monotonic per entity type.
type BaseModel struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONB type for PostgreSQL (stored as a plain JSON blob on other dialects)
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (JSONB) GormDataType() string {
	return "jsonb"
}

func (JSONB) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}

	return nil
}

// Enums
type AssetKind string

const (
	AssetKindModel   AssetKind = "model"
	AssetKindScript  AssetKind = "script"
	AssetKindDataset AssetKind = "dataset"
)

func (k AssetKind) Valid() bool {
	switch k {
	case AssetKindModel, AssetKindScript, AssetKindDataset:
		return true
	}
	return false
}

type OrderKind string

const (
	OrderKindFixedPrice OrderKind = "fixed_price"
	OrderKindAuction    OrderKind = "auction"
)

type LicenseKind string

const (
	LicenseKindCommercial    LicenseKind = "commercial"
	LicenseKindNonCommercial LicenseKind = "non_commercial"
	LicenseKindResearch      LicenseKind = "research"
	LicenseKindCustom        LicenseKind = "custom"
)

func (k LicenseKind) Valid() bool {
	switch k {
	case LicenseKindCommercial, LicenseKindNonCommercial, LicenseKindResearch, LicenseKindCustom:
		return true
	}
	return false
}

type EventType string

const (
	EventAssetMinted         EventType = "asset_minted"
	EventAssetUpdated        EventType = "asset_updated"
	EventAssetPriceChanged   EventType = "asset_price_changed"
	EventAssetSold           EventType = "asset_sold"
	EventOrderCreated        EventType = "order_created"
	EventOrderCancelled      EventType = "order_cancelled"
	EventOrderFilled         EventType = "order_filled"
	EventBidPlaced           EventType = "bid_placed"
	EventBidWithdrawn        EventType = "bid_withdrawn"
	EventAuctionEnded        EventType = "auction_ended"
	EventLicenseCreated      EventType = "license_created"
	EventLicenseDeactivated  EventType = "license_deactivated"
	EventLicenseUsage        EventType = "license_usage_recorded"
	EventAccountDeposited    EventType = "account_deposited"
	EventAccountWithdrawn    EventType = "account_withdrawn"
	EventSettingsChanged     EventType = "settings_changed"
	EventAssetLicensableFlag EventType = "asset_licensable_changed"
)

type EntryKind string

const (
	EntryKindDeposit  EntryKind = "deposit"
	EntryKindWithdraw EntryKind = "withdraw"
	EntryKindPayment  EntryKind = "payment"
	EntryKindRefund   EntryKind = "refund"
	EntryKindEscrow   EntryKind = "escrow"
	EntryKindRoyalty  EntryKind = "royalty"
	EntryKindFee      EntryKind = "fee"
	EntryKindProceeds EntryKind = "proceeds"
)

// Royalty and platform fee rates are expressed in basis points; both are
// capped at 1000 (10%).
const (
	MaxRoyaltyBps  = 1000
	MaxFeeBps      = 1000
	BpsDenominator = 10000
)
