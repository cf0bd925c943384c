// internal/models/license.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type License struct {
	BaseModel
	AssetID   uint64      `json:"asset_id" gorm:"not null;index"`
	Licensor  uuid.UUID   `json:"licensor" gorm:"type:uuid;not null;index"`
	Licensee  uuid.UUID   `json:"licensee" gorm:"type:uuid;not null;index"`
	Kind      LicenseKind `json:"kind" gorm:"type:varchar(20);not null"`
	Price     int64       `json:"price" gorm:"not null"`
	Duration  int64       `json:"duration" gorm:"not null;default:0"` // seconds, 0 = perpetual
	StartTime time.Time   `json:"start_time" gorm:"not null"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Active    bool        `json:"active" gorm:"not null;default:true;index"`
	Terms     string      `json:"terms,omitempty" gorm:"type:text"`

	// Relationships
	UsageRecords []UsageRecord `json:"usage_records,omitempty" gorm:"foreignKey:LicenseID"`
}

// ValidAt reports whether the license covers the given instant.
func (l *License) ValidAt(t time.Time) bool {
	if !l.Active || t.Before(l.StartTime) {
		return false
	}
	return l.EndTime == nil || !t.After(*l.EndTime)
}

// UsageRecord rows are an append-only audit log.
type UsageRecord struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	LicenseID uint64    `json:"license_id" gorm:"not null;index"`
	User      uuid.UUID `json:"user" gorm:"type:uuid;not null;index"`
	Action    string    `json:"action" gorm:"size:100;not null"`
	Details   string    `json:"details,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
