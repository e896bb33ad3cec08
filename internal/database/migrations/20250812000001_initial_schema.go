package migrations

import (
	"context"
	"fmt"

	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.Profile)(nil),
			(*types.PointsRule)(nil),
			(*types.PointsEntry)(nil),
			(*types.Badge)(nil),
			(*types.UserBadge)(nil),
			(*types.Notification)(nil),
			(*types.Post)(nil),
			(*types.PostLike)(nil),
			(*types.Announcement)(nil),
			(*types.Event)(nil),
			(*types.EventRSVP)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		// Constrain notification types. The gamification types were added in
		// a later revision of this constraint; the notification service falls
		// back to 'system' when an older database rejects them.
		_, err := db.NewRaw(`
			ALTER TABLE notifications
			ADD CONSTRAINT notifications_type_check
			CHECK (type IN ('announcement', 'comment', 'like', 'event', 'points', 'badge', 'system'))
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add notification type constraint: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		tables := []string{
			"event_rsvps", "events", "announcements", "post_likes", "posts",
			"notifications", "user_badges", "badges", "points_entries",
			"points_rules", "profiles",
		}

		for _, table := range tables {
			_, err := db.NewRaw(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}

		return nil
	})
}
