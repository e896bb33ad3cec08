package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrUnsupportedType signals that the database's type constraint rejected
// the notification. Happens on deployments whose constraint predates the
// gamification types; callers retry with a generic type.
var ErrUnsupportedType = errors.New("notification type not accepted by schema")

// NotificationModel handles database operations for user notifications.
type NotificationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewNotification creates a new notification model.
func NewNotification(db *bun.DB, logger *zap.Logger) *NotificationModel {
	return &NotificationModel{
		db:     db,
		logger: logger.Named("db_notification"),
	}
}

// Insert writes one notification. Returns ErrUnsupportedType when the type
// check constraint rejects the row.
func (r *NotificationModel) Insert(ctx context.Context, notification *types.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	_, err := r.db.NewInsert().
		Model(notification).
		Exec(ctx)
	if err != nil {
		if pgErrorCode(err) == pgCheckViolation {
			return ErrUnsupportedType
		}

		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// ListForUser retrieves a user's notifications, newest first.
func (r *NotificationModel) ListForUser(
	ctx context.Context, userID int64, unreadOnly bool, limit, offset int,
) ([]*types.Notification, error) {
	var notifications []*types.Notification

	q := r.db.NewSelect().
		Model(&notifications).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if unreadOnly {
		q = q.Where("NOT is_read")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}

	return notifications, nil
}

// MarkRead marks the given notifications as read. Scoped to the user so one
// member cannot clear another's inbox.
func (r *NotificationModel) MarkRead(ctx context.Context, userID int64, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.NewUpdate().
		Model((*types.Notification)(nil)).
		Set("is_read = true").
		Where("user_id = ?", userID).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

// MarkAllRead marks every unread notification for the user as read.
func (r *NotificationModel) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.db.NewUpdate().
		Model((*types.Notification)(nil)).
		Set("is_read = true").
		Where("user_id = ?", userID).
		Where("NOT is_read").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	return nil
}

// UnreadCount reports how many unread notifications a user has.
func (r *NotificationModel) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*types.Notification)(nil)).
		Where("user_id = ?", userID).
		Where("NOT is_read").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}
