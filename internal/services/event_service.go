// internal/services/event_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintforge/assetledger/internal/models"
)

// EventService owns the append-only feed. Emit runs on the mutating
// transaction handle so an event row commits if and only if the state
// change it describes does.
type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

func (s *EventService) Emit(tx *gorm.DB, event *models.Event) error {
	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func assetEvent(t models.EventType, assetID uint64, actor uuid.UUID, data models.JSONB) *models.Event {
	return &models.Event{Type: t, AssetID: &assetID, Actor: actor, Data: data}
}

func orderEvent(t models.EventType, orderID, assetID uint64, actor uuid.UUID, data models.JSONB) *models.Event {
	return &models.Event{Type: t, OrderID: &orderID, AssetID: &assetID, Actor: actor, Data: data}
}

func licenseEvent(t models.EventType, licenseID, assetID uint64, actor uuid.UUID, data models.JSONB) *models.Event {
	return &models.Event{Type: t, LicenseID: &licenseID, AssetID: &assetID, Actor: actor, Data: data}
}

// Feed returns events with id > afterID in insertion order, for
// consumption by an external indexer.
func (s *EventService) Feed(afterID uint64, eventType models.EventType, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := s.db.Where("id > ?", afterID)
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}

	var events []models.Event
	if err := query.Order("id ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, nil
}
