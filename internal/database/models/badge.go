package models

import (
	"context"
	"fmt"
	"time"

	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// BadgeModel handles database operations for badges and badge grants.
type BadgeModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBadge creates a new badge model.
func NewBadge(db *bun.DB, logger *zap.Logger) *BadgeModel {
	return &BadgeModel{
		db:     db,
		logger: logger.Named("db_badge"),
	}
}

// ActiveBadges retrieves every active badge ordered by threshold.
func (r *BadgeModel) ActiveBadges(ctx context.Context) ([]*types.Badge, error) {
	var badges []*types.Badge

	err := r.db.NewSelect().
		Model(&badges).
		Where("active").
		Order("min_points").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active badges: %w", err)
	}

	return badges, nil
}

// Grant awards a badge to a user. Returns whether a new grant was written;
// the conflict clause makes re-granting a no-op.
func (r *BadgeModel) Grant(ctx context.Context, userID, badgeID int64) (bool, error) {
	grant := &types.UserBadge{
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: time.Now(),
	}

	res, err := r.db.NewInsert().
		Model(grant).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to grant badge %d to user %d: %w", badgeID, userID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read grant result: %w", err)
	}

	return rows > 0, nil
}

// UserBadges retrieves a user's earned badges, newest first.
func (r *BadgeModel) UserBadges(ctx context.Context, userID int64) ([]*types.UserBadge, error) {
	var grants []*types.UserBadge

	err := r.db.NewSelect().
		Model(&grants).
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges for user %d: %w", userID, err)
	}

	return grants, nil
}
