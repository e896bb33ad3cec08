package setup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/leaderboard"
	"github.com/kehilahub/kehila/internal/setup"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProfileSource struct {
	profiles []*types.Profile
	err      error
}

func (f *fakeProfileSource) TopByPoints(_ context.Context, _ int) ([]*types.Profile, error) {
	return f.profiles, f.err
}

func setupLeaderboard(t *testing.T) (*leaderboard.Leaderboard, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	lb := leaderboard.New(client, logger)

	cleanup := func() {
		mr.Close()
		client.Close()
		logger.Sync()
	}

	return lb, cleanup
}

func TestSeedLeaderboard(t *testing.T) {
	t.Parallel()

	lb, cleanup := setupLeaderboard(t)
	defer cleanup()

	ctx := context.Background()
	source := &fakeProfileSource{profiles: []*types.Profile{
		{UserID: 1, Points: 50},
		{UserID: 2, Points: 120},
		{UserID: 3, Points: 80},
	}}

	require.NoError(t, setup.SeedLeaderboard(ctx, source, lb))

	top, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, int64(2), top[0].UserID)
	assert.Equal(t, int64(120), top[0].Points)
	assert.Equal(t, int64(1), top[2].UserID)
}

func TestSeedLeaderboardPropagatesFetchError(t *testing.T) {
	t.Parallel()

	lb, cleanup := setupLeaderboard(t)
	defer cleanup()

	source := &fakeProfileSource{err: errors.New("database unreachable")}

	err := setup.SeedLeaderboard(context.Background(), source, lb)
	require.Error(t, err)

	top, err := lb.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
