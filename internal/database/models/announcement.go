package models

import (
	"context"
	"fmt"
	"time"

	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AnnouncementModel handles database operations for announcements.
type AnnouncementModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAnnouncement creates a new announcement model.
func NewAnnouncement(db *bun.DB, logger *zap.Logger) *AnnouncementModel {
	return &AnnouncementModel{
		db:     db,
		logger: logger.Named("db_announcement"),
	}
}

// Create inserts a new announcement.
func (r *AnnouncementModel) Create(ctx context.Context, announcement *types.Announcement) error {
	if announcement.PublishedAt.IsZero() {
		announcement.PublishedAt = time.Now()
	}

	_, err := r.db.NewInsert().
		Model(announcement).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}

	return nil
}

// List retrieves announcements, pinned first then newest first.
func (r *AnnouncementModel) List(ctx context.Context, limit, offset int) ([]*types.Announcement, error) {
	var announcements []*types.Announcement

	err := r.db.NewSelect().
		Model(&announcements).
		Order("pinned DESC", "published_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}

	return announcements, nil
}

// Search retrieves announcements matching the query, newest first.
func (r *AnnouncementModel) Search(ctx context.Context, query string, limit int) ([]*types.Announcement, error) {
	var announcements []*types.Announcement

	pattern := "%" + query + "%"

	err := r.db.NewSelect().
		Model(&announcements).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("title ILIKE ?", pattern).WhereOr("body ILIKE ?", pattern)
		}).
		Order("published_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search announcements: %w", err)
	}

	return announcements, nil
}
