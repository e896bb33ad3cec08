package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- The ledger insert is the idempotency guard: a uniqueness
			-- violation is the "already awarded" signal, so there is no
			-- check-then-act race between concurrent awards.

			-- Daily actions carry no related entity
			CREATE UNIQUE INDEX IF NOT EXISTS idx_points_entries_daily_guard
			ON points_entries (user_id, action, awarded_on)
			WHERE related_id IS NULL;

			-- Per-entity actions are guarded per (user, action, entity), permanently
			CREATE UNIQUE INDEX IF NOT EXISTS idx_points_entries_entity_guard
			ON points_entries (user_id, action, related_id)
			WHERE related_id IS NOT NULL;

			-- History lookups
			CREATE INDEX IF NOT EXISTS idx_points_entries_user_time
			ON points_entries (user_id, created_at DESC);

			-- Inbox lookups
			CREATE INDEX IF NOT EXISTS idx_notifications_user_unread
			ON notifications (user_id, created_at DESC)
			WHERE NOT is_read;

			-- Forum listing
			CREATE INDEX IF NOT EXISTS idx_posts_created
			ON posts (created_at DESC);

			CREATE INDEX IF NOT EXISTS idx_announcements_published
			ON announcements (pinned DESC, published_at DESC);

			CREATE INDEX IF NOT EXISTS idx_events_starts_at
			ON events (starts_at);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_points_entries_daily_guard;
			DROP INDEX IF EXISTS idx_points_entries_entity_guard;
			DROP INDEX IF EXISTS idx_points_entries_user_time;
			DROP INDEX IF EXISTS idx_notifications_user_unread;
			DROP INDEX IF EXISTS idx_posts_created;
			DROP INDEX IF EXISTS idx_announcements_published;
			DROP INDEX IF EXISTS idx_events_starts_at;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
