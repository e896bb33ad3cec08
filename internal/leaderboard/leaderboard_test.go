package leaderboard_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/kehilahub/kehila/internal/leaderboard"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) (*leaderboard.Leaderboard, func()) {
	t.Helper()
	// Start miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Create Redis client
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	// Create test logger
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

func TestRecordAndTop(t *testing.T) {
	t.Parallel()
	lb, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, lb.Record(ctx, 1, 50))
	require.NoError(t, lb.Record(ctx, 2, 120))
	require.NoError(t, lb.Record(ctx, 3, 80))

	top, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.Equal(t, int64(2), top[0].UserID)
	assert.Equal(t, int64(120), top[0].Points)
	assert.Equal(t, int64(1), top[0].Rank)
	assert.Equal(t, int64(3), top[1].UserID)
	assert.Equal(t, int64(1), top[2].UserID)
	assert.Equal(t, int64(3), top[2].Rank)
}

func TestRecordOverwritesScore(t *testing.T) {
	t.Parallel()
	lb, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, lb.Record(ctx, 7, 10))
	require.NoError(t, lb.Record(ctx, 7, 25))

	entry, err := lb.Rank(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(25), entry.Points)
	assert.Equal(t, int64(1), entry.Rank)
}

func TestTopLimit(t *testing.T) {
	t.Parallel()
	lb, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, lb.Record(ctx, i, i*10))
	}

	top, err := lb.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(5), top[0].UserID)
	assert.Equal(t, int64(4), top[1].UserID)
}

func TestRankUnknownUser(t *testing.T) {
	t.Parallel()
	lb, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, lb.Record(ctx, 1, 10))

	entry, err := lb.Rank(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, int64(999), entry.UserID)
	assert.Equal(t, int64(0), entry.Rank)
	assert.Equal(t, int64(0), entry.Points)
}
