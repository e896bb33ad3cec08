package models

import (
	"context"
	"fmt"
	"time"

	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// EventModel handles database operations for community events and RSVPs.
type EventModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewEvent creates a new event model.
func NewEvent(db *bun.DB, logger *zap.Logger) *EventModel {
	return &EventModel{
		db:     db,
		logger: logger.Named("db_event"),
	}
}

// Create inserts a new event.
func (r *EventModel) Create(ctx context.Context, event *types.Event) error {
	event.CreatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(event).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// Upcoming retrieves events that have not started yet, soonest first.
func (r *EventModel) Upcoming(ctx context.Context, limit int) ([]*types.Event, error) {
	var events []*types.Event

	err := r.db.NewSelect().
		Model(&events).
		Where("starts_at > ?", time.Now()).
		Order("starts_at").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}

	return events, nil
}

// RSVP records a member's attendance intent. Returns whether it was new.
func (r *EventModel) RSVP(ctx context.Context, eventID, userID int64) (bool, error) {
	rsvp := &types.EventRSVP{
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	res, err := r.db.NewInsert().
		Model(rsvp).
		On("CONFLICT (event_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to RSVP to event %d: %w", eventID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read RSVP result: %w", err)
	}

	return rows > 0, nil
}

// AttendeeCount reports how many members have RSVP'd to an event.
func (r *EventModel) AttendeeCount(ctx context.Context, eventID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*types.EventRSVP)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendees for event %d: %w", eventID, err)
	}

	return count, nil
}

// Search retrieves events matching the query, soonest first.
func (r *EventModel) Search(ctx context.Context, query string, limit int) ([]*types.Event, error) {
	var events []*types.Event

	pattern := "%" + query + "%"

	err := r.db.NewSelect().
		Model(&events).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("title ILIKE ?", pattern).WhereOr("description ILIKE ?", pattern)
		}).
		Order("starts_at").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}

	return events, nil
}
