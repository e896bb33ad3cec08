package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kehilahub/kehila/internal/database"
	"github.com/kehilahub/kehila/internal/database/service"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/gamification"
	"github.com/kehilahub/kehila/internal/leaderboard"
	"github.com/kehilahub/kehila/internal/presence"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// EventHandler handles community event endpoints.
type EventHandler struct {
	db          database.Client
	leaderboard *leaderboard.Leaderboard
	presence    *presence.Tracker
	logger      *zap.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(
	db database.Client, lb *leaderboard.Leaderboard, tracker *presence.Tracker, logger *zap.Logger,
) *EventHandler {
	return &EventHandler{
		db:          db,
		leaderboard: lb,
		presence:    tracker,
		logger:      logger,
	}
}

// createEventRequest is the body for scheduling an event.
type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
}

// rsvpResponse bundles the RSVP outcome with its award.
type rsvpResponse struct {
	Attending bool                 `json:"attending"`
	Attendees int                  `json:"attendees"`
	Award     *service.AwardResult `json:"award,omitempty"`
}

// presenceResponse reports live viewer counts for an event page.
type presenceResponse struct {
	EventID int64 `json:"eventId"`
	Present int64 `json:"present"`
}

// ListEvents returns upcoming events, soonest first.
func (h *EventHandler) ListEvents(w http.ResponseWriter, req bunrouter.Request) error {
	limit := queryInt(req, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	events, err := h.db.Model().Event().Upcoming(req.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list events", zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, events)
}

// CreateEvent schedules a new community event.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, req bunrouter.Request) error {
	if _, err := requestUserID(req); err != nil {
		return unauthorized(w)
	}

	var body createEventRequest
	if err := decodeBody(req, &body); err != nil {
		return badRequest(w, "invalid request body")
	}

	if strings.TrimSpace(body.Title) == "" || body.StartsAt.IsZero() {
		return badRequest(w, "title and startsAt are required")
	}

	event := &types.Event{
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		StartsAt:    body.StartsAt,
		CreatedAt:   time.Now(),
	}

	if err := h.db.Model().Event().Create(req.Context(), event); err != nil {
		h.logger.Error("Failed to create event", zap.Error(err))
		return internalError(w)
	}

	w.WriteHeader(http.StatusCreated)

	return bunrouter.JSON(w, event)
}

// RSVP marks the member as attending and awards RSVP points once per event.
// Repeat RSVPs are no-ops at both the attendance and points level.
func (h *EventHandler) RSVP(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	eventID, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid event id")
	}

	joined, err := h.db.Model().Event().RSVP(req.Context(), eventID, userID)
	if err != nil {
		h.logger.Error("Failed to RSVP",
			zap.Int64("eventID", eventID), zap.Int64("userID", userID), zap.Error(err))

		return internalError(w)
	}

	attendees, err := h.db.Model().Event().AttendeeCount(req.Context(), eventID)
	if err != nil {
		h.logger.Warn("Failed to count attendees", zap.Int64("eventID", eventID), zap.Error(err))
	}

	var award *service.AwardResult
	if joined {
		award = h.db.Service().Points().Award(
			req.Context(), userID, string(gamification.ActionEventRSVP),
			service.AwardOptions{RelatedID: fmt.Sprintf("event:%d", eventID)},
		)

		if award.Success {
			if err := h.leaderboard.Record(req.Context(), userID, int64(award.Points)); err != nil {
				h.logger.Warn("Failed to update leaderboard", zap.Int64("userID", userID), zap.Error(err))
			}
		}
	}

	return bunrouter.JSON(w, rsvpResponse{Attending: true, Attendees: attendees, Award: award})
}

// Heartbeat marks the member as currently viewing the event page.
func (h *EventHandler) Heartbeat(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	eventID, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid event id")
	}

	if err := h.presence.Heartbeat(req.Context(), eventID, userID); err != nil {
		return internalError(w)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// PresenceCount reports how many members are viewing the event right now.
func (h *EventHandler) PresenceCount(w http.ResponseWriter, req bunrouter.Request) error {
	eventID, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid event id")
	}

	count, err := h.presence.Count(req.Context(), eventID)
	if err != nil {
		h.logger.Error("Failed to count presence", zap.Int64("eventID", eventID), zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, presenceResponse{EventID: eventID, Present: count})
}
