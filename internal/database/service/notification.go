package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kehilahub/kehila/internal/database/models"
	"github.com/kehilahub/kehila/internal/database/types"
	"go.uber.org/zap"
)

// fanOutBatchSize bounds how many profiles one fan-out query pulls.
const fanOutBatchSize = 500

// NotificationStore persists notifications.
type NotificationStore interface {
	Insert(ctx context.Context, notification *types.Notification) error
}

// ProfileLister pages through all member user ids for fan-out.
type ProfileLister interface {
	AllUserIDs(ctx context.Context, limit, offset int) ([]int64, error)
}

// NotificationService creates user-facing notifications, tolerating schema
// revisions whose type constraint predates the gamification types.
type NotificationService struct {
	model    NotificationStore
	profiles ProfileLister
	logger   *zap.Logger
}

// NewNotification creates a new notification service.
func NewNotification(model NotificationStore, profiles ProfileLister, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		model:    model,
		profiles: profiles,
		logger:   logger.Named("notification_service"),
	}
}

// Notify writes one notification. When the schema rejects the type, it
// retries once with the generic system type before giving up.
func (s *NotificationService) Notify(ctx context.Context, userID int64, typ, title, message, link string) error {
	notification := &types.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    link,
	}

	err := s.model.Insert(ctx, notification)
	if err == nil {
		return nil
	}

	if !errors.Is(err, models.ErrUnsupportedType) {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Debug("Notification type rejected by schema, falling back",
		zap.String("type", typ),
		zap.Int64("userID", userID))

	fallback := &types.Notification{
		UserID:  userID,
		Type:    types.NotificationTypeSystem,
		Title:   title,
		Message: message,
		Link:    link,
	}

	if err := s.model.Insert(ctx, fallback); err != nil {
		return fmt.Errorf("failed to create fallback notification: %w", err)
	}

	return nil
}

// Broadcast notifies every member, in batches. Used for announcements.
// Individual failures are logged and skipped so one bad row cannot stall
// the fan-out.
func (s *NotificationService) Broadcast(ctx context.Context, typ, title, message, link string) (int, error) {
	notified := 0

	for offset := 0; ; offset += fanOutBatchSize {
		ids, err := s.profiles.AllUserIDs(ctx, fanOutBatchSize, offset)
		if err != nil {
			return notified, fmt.Errorf("failed to page profiles for broadcast: %w", err)
		}

		if len(ids) == 0 {
			return notified, nil
		}

		for _, userID := range ids {
			if err := s.Notify(ctx, userID, typ, title, message, link); err != nil {
				s.logger.Warn("Broadcast notification failed",
					zap.Int64("userID", userID),
					zap.Error(err))

				continue
			}

			notified++
		}
	}
}
