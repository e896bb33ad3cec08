// Package leaderboard maintains the community points ranking in a Redis
// sorted set so rank queries never scan the relational profile table.
package leaderboard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// PointsKey is the sorted set holding one member per user scored by
// their lifetime point total.
const PointsKey = "leaderboard:points"

// Entry is a single leaderboard row.
type Entry struct {
	UserID int64 `json:"userId"`
	Points int64 `json:"points"`
	Rank   int64 `json:"rank"`
}

// Leaderboard mirrors profile point totals into a Redis sorted set.
type Leaderboard struct {
	client rueidis.Client
	logger *zap.Logger
}

// New creates a leaderboard backed by the given Redis client.
func New(client rueidis.Client, logger *zap.Logger) *Leaderboard {
	return &Leaderboard{
		client: client,
		logger: logger.Named("leaderboard"),
	}
}

// Record sets the user's score to their current point total. Awards always
// carry the post-award total, so ZADD overwrites rather than increments.
func (l *Leaderboard) Record(ctx context.Context, userID int64, points int64) error {
	member := strconv.FormatInt(userID, 10)

	err := l.client.Do(ctx,
		l.client.B().Zadd().Key(PointsKey).ScoreMember().ScoreMember(float64(points), member).Build(),
	).Error()
	if err != nil {
		l.logger.Error("Failed to record leaderboard score",
			zap.Int64("userID", userID), zap.Error(err))

		return fmt.Errorf("failed to record leaderboard score: %w", err)
	}

	return nil
}

// Top returns the highest-scored users, best first.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	scores, err := l.client.Do(ctx,
		l.client.B().Zrange().Key(PointsKey).
			Min("0").Max(strconv.Itoa(limit-1)).Rev().Withscores().Build(),
	).AsZScores()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(scores))

	for i, zs := range scores {
		userID, err := strconv.ParseInt(zs.Member, 10, 64)
		if err != nil {
			l.logger.Warn("Skipping malformed leaderboard member", zap.String("member", zs.Member))
			continue
		}

		entries = append(entries, Entry{
			UserID: userID,
			Points: int64(zs.Score),
			Rank:   int64(i + 1),
		})
	}

	return entries, nil
}

// Rank returns the user's 1-based position and score. Users who never
// earned points have no entry and are reported as rank 0.
func (l *Leaderboard) Rank(ctx context.Context, userID int64) (*Entry, error) {
	member := strconv.FormatInt(userID, 10)

	rank, err := l.client.Do(ctx,
		l.client.B().Zrevrank().Key(PointsKey).Member(member).Build(),
	).AsInt64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return &Entry{UserID: userID}, nil
		}

		return nil, fmt.Errorf("failed to fetch leaderboard rank: %w", err)
	}

	score, err := l.client.Do(ctx,
		l.client.B().Zscore().Key(PointsKey).Member(member).Build(),
	).AsFloat64()
	if err != nil && !rueidis.IsRedisNil(err) {
		return nil, fmt.Errorf("failed to fetch leaderboard score: %w", err)
	}

	return &Entry{
		UserID: userID,
		Points: int64(score),
		Rank:   rank + 1,
	}, nil
}
