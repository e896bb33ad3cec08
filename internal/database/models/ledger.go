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

// ErrDuplicateAward signals that an insert collided with an existing ledger
// row for the same (user, action, day) or (user, action, entity). The
// uniqueness indexes make the insert itself the idempotency guard.
var ErrDuplicateAward = errors.New("points already awarded")

// LedgerModel handles database operations for the append-only points ledger.
type LedgerModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewLedger creates a new ledger model.
func NewLedger(db *bun.DB, logger *zap.Logger) *LedgerModel {
	return &LedgerModel{
		db:     db,
		logger: logger.Named("db_ledger"),
	}
}

// Insert appends one award row. Returns ErrDuplicateAward when the guard
// indexes reject the row.
func (r *LedgerModel) Insert(ctx context.Context, entry *types.PointsEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.db.NewInsert().
		Model(entry).
		Exec(ctx)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrDuplicateAward
		}

		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

// Delete removes one ledger row by id. Only used to compensate when the
// aggregate update after an insert cannot complete.
func (r *LedgerModel) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*types.PointsEntry)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry %d: %w", id, err)
	}

	return nil
}

// UserHistory retrieves a user's award rows, newest first.
func (r *LedgerModel) UserHistory(ctx context.Context, userID int64, limit, offset int) ([]*types.PointsEntry, error) {
	var entries []*types.PointsEntry

	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger history for user %d: %w", userID, err)
	}

	return entries, nil
}

// CountForUserOnDay reports how many rows exist for a user and action on one
// calendar day. Diagnostics only; the guard lives in the insert.
func (r *LedgerModel) CountForUserOnDay(ctx context.Context, userID int64, action string, day time.Time) (int, error) {
	count, err := r.db.NewSelect().
		Model((*types.PointsEntry)(nil)).
		Where("user_id = ?", userID).
		Where("action = ?", action).
		Where("awarded_on = ?", day.Format("2006-01-02")).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}
