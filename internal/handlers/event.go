// internal/handlers/event.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mintforge/assetledger/internal/models"
	"github.com/mintforge/assetledger/internal/services"
	"github.com/mintforge/assetledger/internal/utils"
)

type EventHandler struct {
	eventService *services.EventService
	feedLimit    int
}

func NewEventHandler(eventService *services.EventService, feedLimit int) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		feedLimit:    feedLimit,
	}
}

// GET /events
//
// Cursor pagination over the append-only feed: clients pass the last
// event id they saw as after_id and poll forward.
func (h *EventHandler) GetFeed(c *gin.Context) {
	afterID, _ := strconv.ParseUint(c.DefaultQuery("after_id", "0"), 10, 64)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.feedLimit)))
	if err != nil || limit < 1 || limit > h.feedLimit {
		limit = h.feedLimit
	}

	eventType := models.EventType(c.Query("type"))

	events, err := h.eventService.Feed(afterID, eventType, limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	var nextCursor uint64
	if len(events) > 0 {
		nextCursor = events[len(events)-1].ID
	} else {
		nextCursor = afterID
	}

	utils.SuccessResponseWithMeta(c, gin.H{
		"events": events,
	}, gin.H{
		"next_after_id": nextCursor,
	})
}
