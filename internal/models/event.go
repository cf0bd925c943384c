// internal/models/event.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is one row of the append-only feed consumed by external
// indexers and notifiers. Rows are written inside the same transaction
// as the state change they describe and are never mutated.
type Event struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Type      EventType `json:"type" gorm:"type:varchar(40);not null;index"`
	AssetID   *uint64   `json:"asset_id,omitempty" gorm:"index"`
	OrderID   *uint64   `json:"order_id,omitempty" gorm:"index"`
	LicenseID *uint64   `json:"license_id,omitempty" gorm:"index"`
	Actor     uuid.UUID `json:"actor" gorm:"type:uuid;not null;index"`
	Data      JSONB     `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
