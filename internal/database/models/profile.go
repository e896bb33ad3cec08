package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

var (
	// ErrProfileNotFound signals that no profile row matched either the
	// user_id or the primary-key lookup.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists signals that the member already has a profile.
	ErrProfileExists = errors.New("profile already exists")
)

// ProfileModel handles database operations for member profiles.
type ProfileModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewProfile creates a new profile model.
func NewProfile(db *bun.DB, logger *zap.Logger) *ProfileModel {
	return &ProfileModel{
		db:     db,
		logger: logger.Named("db_profile"),
	}
}

// GetByUserID retrieves a profile by its user id, falling back to a
// primary-key lookup for rows imported from the legacy system where the two
// key conventions diverged.
func (r *ProfileModel) GetByUserID(ctx context.Context, userID int64) (*types.Profile, error) {
	var profile types.Profile

	err := r.db.NewSelect().
		Model(&profile).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err == nil {
		return &profile, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get profile for user %d: %w", userID, err)
	}

	err = r.db.NewSelect().
		Model(&profile).
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("failed to get profile %d: %w", userID, err)
	}

	return &profile, nil
}

// Create inserts a new profile.
func (r *ProfileModel) Create(ctx context.Context, profile *types.Profile) error {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(profile).
		Exec(ctx)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrProfileExists
		}

		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// AddPoints atomically adds delta to a profile's running total and returns
// the new total. Tries the user_id key first, then the primary key, and
// returns ErrProfileNotFound when neither matches.
func (r *ProfileModel) AddPoints(ctx context.Context, userID int64, delta int) (int, error) {
	total, err := r.addPointsBy(ctx, "user_id", userID, delta)
	if err == nil {
		return total, nil
	}

	if !errors.Is(err, ErrProfileNotFound) {
		return 0, err
	}

	return r.addPointsBy(ctx, "id", userID, delta)
}

func (r *ProfileModel) addPointsBy(ctx context.Context, column string, key int64, delta int) (int, error) {
	var total int

	err := r.db.NewUpdate().
		Model((*types.Profile)(nil)).
		Set("points = points + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("? = ?", bun.Ident(column), key).
		Returning("points").
		Scan(ctx, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProfileNotFound
		}

		return 0, fmt.Errorf("failed to add points via %s %d: %w", column, key, err)
	}

	return total, nil
}

// Points returns a profile's current total.
func (r *ProfileModel) Points(ctx context.Context, userID int64) (int, error) {
	profile, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	return profile.Points, nil
}

// Touch updates the profile's display fields.
func (r *ProfileModel) Touch(ctx context.Context, userID int64, displayName, bio string) error {
	_, err := r.db.NewUpdate().
		Model((*types.Profile)(nil)).
		Set("display_name = ?", displayName).
		Set("bio = ?", bio).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update profile for user %d: %w", userID, err)
	}

	return nil
}

// AllUserIDs lists every profile's user id in batches for notification
// fan-out.
func (r *ProfileModel) AllUserIDs(ctx context.Context, limit, offset int) ([]int64, error) {
	var ids []int64

	err := r.db.NewSelect().
		Model((*types.Profile)(nil)).
		Column("user_id").
		Order("user_id").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile user ids: %w", err)
	}

	return ids, nil
}

// TopByPoints lists profiles ordered by points for leaderboard rebuilds.
func (r *ProfileModel) TopByPoints(ctx context.Context, limit int) ([]*types.Profile, error) {
	var profiles []*types.Profile

	err := r.db.NewSelect().
		Model(&profiles).
		Order("points DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list top profiles: %w", err)
	}

	return profiles, nil
}
