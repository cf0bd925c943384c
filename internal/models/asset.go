// internal/models/asset.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Asset struct {
	BaseModel
	Kind         AssetKind `json:"kind" gorm:"type:varchar(20);not null;index"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Creator      uuid.UUID `json:"creator" gorm:"type:uuid;not null;index"`
	CurrentOwner uuid.UUID `json:"current_owner" gorm:"type:uuid;not null;index"`
	ContentHash  string    `json:"content_hash" gorm:"size:128;not null;index"`
	RoyaltyBps   int64     `json:"royalty_bps" gorm:"not null"`
	SalePrice    int64     `json:"sale_price" gorm:"not null;default:0"`
	ForSale      bool      `json:"for_sale" gorm:"not null;default:false;index"`
	IsPublic     bool      `json:"is_public" gorm:"not null;default:false"`
	Licensable   bool      `json:"licensable" gorm:"not null;default:false;index"`
	Tags         JSONB     `json:"tags,omitempty"`

	// Relationships
	Versions []AssetVersion `json:"versions,omitempty" gorm:"foreignKey:AssetID"`
}

// AssetVersion rows are append-only; the unique index on ContentHash is
// what enforces global content uniqueness across all assets and all
// versions ever recorded (the mint-time version included).
type AssetVersion struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	AssetID     uint64    `json:"asset_id" gorm:"not null;index"`
	Label       string    `json:"label" gorm:"size:100;not null"`
	ContentHash string    `json:"content_hash" gorm:"size:128;not null;uniqueIndex"`
	Changelog   string    `json:"changelog" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}
