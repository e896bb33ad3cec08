package gamification_test

import (
	"testing"

	"github.com/kehilahub/kehila/internal/gamification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCollapsesLanguageAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  gamification.Action
	}{
		{"daily_login", gamification.ActionDailyLogin},
		{"DAILY_LOGIN", gamification.ActionDailyLogin},
		{"  daily login  ", gamification.ActionDailyLogin},
		{"כניסה יומית", gamification.ActionDailyLogin},
		{"התחברות יומית", gamification.ActionDailyLogin},
		{"לייק לפוסט", gamification.ActionLikePost},
		{"like_post", gamification.ActionLikePost},
		{"תגובה לפוסט", gamification.ActionCommentPost},
		{"אישור הגעה לאירוע", gamification.ActionEventRSVP},
	}

	for _, tc := range tests {
		action, ok := gamification.Resolve(tc.label)
		require.True(t, ok, "label %q should resolve", tc.label)
		assert.Equal(t, tc.want, action, "label %q", tc.label)
	}
}

func TestResolveUnknownLabel(t *testing.T) {
	t.Parallel()

	_, ok := gamification.Resolve("nonexistent_action")
	assert.False(t, ok)
}

func TestGuardKinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, gamification.GuardDaily, gamification.ActionDailyLogin.Guard())
	assert.Equal(t, gamification.GuardPerEntity, gamification.ActionLikePost.Guard())
	assert.Equal(t, gamification.GuardNone, gamification.ActionCreatePost.Guard())
}

func TestMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, gamification.ActionDailyLogin.Matches("כניסה יומית"))
	assert.True(t, gamification.ActionDailyLogin.Matches("Daily_Login"))
	assert.False(t, gamification.ActionDailyLogin.Matches("like_post"))
	assert.False(t, gamification.ActionDailyLogin.Matches("לייק לפוסט"))
}
