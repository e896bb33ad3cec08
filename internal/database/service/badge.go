package service

import (
	"context"
	"fmt"

	"github.com/kehilahub/kehila/internal/database/types"
	"go.uber.org/zap"
)

// BadgeStore provides badge definitions and idempotent grants.
type BadgeStore interface {
	ActiveBadges(ctx context.Context) ([]*types.Badge, error)
	Grant(ctx context.Context, userID, badgeID int64) (bool, error)
}

// PointsReader reads a user's current aggregate balance.
type PointsReader interface {
	Points(ctx context.Context, userID int64) (int, error)
}

// BadgeService re-evaluates threshold badges after balance changes.
type BadgeService struct {
	badges   BadgeStore
	profiles PointsReader
	notifier Notifier
	logger   *zap.Logger
}

// NewBadge creates a new badge service.
func NewBadge(badges BadgeStore, profiles PointsReader, notifier Notifier, logger *zap.Logger) *BadgeService {
	return &BadgeService{
		badges:   badges,
		profiles: profiles,
		notifier: notifier,
		logger:   logger.Named("badge_service"),
	}
}

// Evaluate grants every active badge whose threshold the user's cumulative
// points now meet. Granting is idempotent per (user, badge) at the store
// level, so re-evaluating after every award is safe.
func (s *BadgeService) Evaluate(ctx context.Context, userID int64) error {
	total, err := s.profiles.Points(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read points for badge evaluation: %w", err)
	}

	badges, err := s.badges.ActiveBadges(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch badges: %w", err)
	}

	for _, badge := range badges {
		if badge.MinPoints > total {
			// Badges are ordered by threshold
			break
		}

		granted, err := s.badges.Grant(ctx, userID, badge.ID)
		if err != nil {
			return fmt.Errorf("failed to grant badge %q: %w", badge.Name, err)
		}

		if !granted {
			continue
		}

		s.logger.Info("Badge granted",
			zap.Int64("userID", userID),
			zap.String("badge", badge.Name),
			zap.Int("total", total))

		// New badge, tell the user. Failure does not undo the grant.
		message := fmt.Sprintf("You earned the %q badge: %s", badge.Name, badge.Description)
		if err := s.notifier.Notify(ctx, userID, types.NotificationTypeBadge, "New badge!", message, "/profile/badges"); err != nil {
			s.logger.Warn("Badge notification failed",
				zap.Int64("userID", userID),
				zap.String("badge", badge.Name),
				zap.Error(err))
		}
	}

	return nil
}
