package presence_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kehilahub/kehila/internal/presence"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) (*presence.Tracker, *miniredis.Miniredis, func()) {
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

	tracker := presence.New(client, logger)

	cleanup := func() {
		mr.Close()
		client.Close()
		logger.Sync()
	}

	return tracker, mr, cleanup
}

func TestHeartbeatCountsOnce(t *testing.T) {
	t.Parallel()
	tracker, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, tracker.Heartbeat(ctx, 5, 100))
	require.NoError(t, tracker.Heartbeat(ctx, 5, 100))
	require.NoError(t, tracker.Heartbeat(ctx, 5, 101))

	count, err := tracker.Count(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCountPrunesStaleHeartbeats(t *testing.T) {
	t.Parallel()
	tracker, mr, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, tracker.Heartbeat(ctx, 5, 100))

	// Age the heartbeat past the TTL
	stale := float64(time.Now().Add(-2 * presence.HeartbeatTTL).Unix())
	mr.ZAdd("presence:event:5", stale, strconv.Itoa(100))

	count, err := tracker.Count(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestLeave(t *testing.T) {
	t.Parallel()
	tracker, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, tracker.Heartbeat(ctx, 9, 100))
	require.NoError(t, tracker.Heartbeat(ctx, 9, 101))
	require.NoError(t, tracker.Leave(ctx, 9, 100))

	count, err := tracker.Count(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEventsAreIsolated(t *testing.T) {
	t.Parallel()
	tracker, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, tracker.Heartbeat(ctx, 1, 100))
	require.NoError(t, tracker.Heartbeat(ctx, 2, 100))
	require.NoError(t, tracker.Heartbeat(ctx, 2, 101))

	count, err := tracker.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = tracker.Count(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
