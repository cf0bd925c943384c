// internal/models/settings.go
package models

import (
	"github.com/google/uuid"
)

// Platform setting keys.
const (
	SettingFeeBps      = "fee_bps"
	SettingOperational = "operational"
)

type PlatformSetting struct {
	BaseModel
	Key         string    `json:"key" gorm:"size:100;not null;uniqueIndex"`
	Value       JSONB     `json:"value" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	UpdatedBy   uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

// IntValue reads the setting as an integer; JSON numbers decode as
// float64, so both encodings are accepted.
func (s *PlatformSetting) IntValue() (int64, bool) {
	switch v := s.Value["value"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func (s *PlatformSetting) BoolValue() (bool, bool) {
	v, ok := s.Value["value"].(bool)
	return v, ok
}
