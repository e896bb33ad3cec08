package migrations

import (
	"context"
	"fmt"

	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/gamification"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		rules := []*types.PointsRule{
			{Action: gamification.ActionDailyLogin.String(), Description: "Daily login", Points: 5, Active: true},
			{Action: gamification.ActionCreatePost.String(), Description: "Publish a forum post", Points: 10, Active: true},
			{Action: gamification.ActionLikePost.String(), Description: "Like a post", Points: 2, Active: true},
			{Action: gamification.ActionCommentPost.String(), Description: "Comment on a post", Points: 3, Active: true},
			{Action: gamification.ActionEventRSVP.String(), Description: "RSVP to an event", Points: 5, Active: true},
			{Action: gamification.ActionUpdateProfile.String(), Description: "Update profile details", Points: 3, Active: true},
			{Action: gamification.ActionReadAnnounce.String(), Description: "Read an announcement", Points: 1, Active: true},
		}

		_, err := db.NewInsert().
			Model(&rules).
			On("CONFLICT (action) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed points rules: %w", err)
		}

		badges := []*types.Badge{
			{Name: "Newcomer", Description: "Earned your first points", MinPoints: 1, Active: true},
			{Name: "Regular", Description: "Reached 100 points", MinPoints: 100, Active: true},
			{Name: "Contributor", Description: "Reached 500 points", MinPoints: 500, Active: true},
			{Name: "Pillar of the Community", Description: "Reached 2000 points", MinPoints: 2000, Active: true},
		}

		_, err = db.NewInsert().
			Model(&badges).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed badges: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		return nil
	})
}
