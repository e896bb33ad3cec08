// Package presence tracks who is currently viewing an event page using a
// per-event Redis sorted set scored by last heartbeat time.
package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// HeartbeatTTL is how long a member counts as present after their last
// heartbeat. Counts prune anything older before reporting.
const HeartbeatTTL = 60 * time.Second

// Tracker records event page heartbeats.
type Tracker struct {
	client rueidis.Client
	logger *zap.Logger
}

// New creates a presence tracker backed by the given Redis client.
func New(client rueidis.Client, logger *zap.Logger) *Tracker {
	return &Tracker{
		client: client,
		logger: logger.Named("presence"),
	}
}

func eventKey(eventID int64) string {
	return fmt.Sprintf("presence:event:%d", eventID)
}

// Heartbeat marks the user present on the event right now. The first
// heartbeat joins, later ones refresh the score.
func (t *Tracker) Heartbeat(ctx context.Context, eventID, userID int64) error {
	member := strconv.FormatInt(userID, 10)
	now := float64(time.Now().Unix())

	err := t.client.Do(ctx,
		t.client.B().Zadd().Key(eventKey(eventID)).ScoreMember().ScoreMember(now, member).Build(),
	).Error()
	if err != nil {
		t.logger.Error("Failed to record presence heartbeat",
			zap.Int64("eventID", eventID), zap.Int64("userID", userID), zap.Error(err))

		return fmt.Errorf("failed to record presence heartbeat: %w", err)
	}

	return nil
}

// Leave removes the user from the event's presence set immediately.
func (t *Tracker) Leave(ctx context.Context, eventID, userID int64) error {
	member := strconv.FormatInt(userID, 10)

	err := t.client.Do(ctx,
		t.client.B().Zrem().Key(eventKey(eventID)).Member(member).Build(),
	).Error()
	if err != nil {
		return fmt.Errorf("failed to remove presence entry: %w", err)
	}

	return nil
}

// Count prunes stale heartbeats and returns how many users remain present.
func (t *Tracker) Count(ctx context.Context, eventID int64) (int64, error) {
	key := eventKey(eventID)
	cutoff := time.Now().Add(-HeartbeatTTL).Unix()

	err := t.client.Do(ctx,
		t.client.B().Zremrangebyscore().Key(key).Min("-inf").Max(strconv.FormatInt(cutoff, 10)).Build(),
	).Error()
	if err != nil {
		return 0, fmt.Errorf("failed to prune stale presence entries: %w", err)
	}

	count, err := t.client.Do(ctx, t.client.B().Zcard().Key(key).Build()).ToInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to count presence entries: %w", err)
	}

	return count, nil
}
