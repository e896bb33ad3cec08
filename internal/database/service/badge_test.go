package service_test

import (
	"context"
	"testing"

	"github.com/kehilahub/kehila/internal/database/service"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBadgeStore struct {
	badges []*types.Badge
	grants map[int64][]int64
}

func (f *fakeBadgeStore) ActiveBadges(_ context.Context) ([]*types.Badge, error) {
	return f.badges, nil
}

func (f *fakeBadgeStore) Grant(_ context.Context, userID, badgeID int64) (bool, error) {
	if f.grants == nil {
		f.grants = make(map[int64][]int64)
	}

	for _, existing := range f.grants[userID] {
		if existing == badgeID {
			return false, nil
		}
	}

	f.grants[userID] = append(f.grants[userID], badgeID)

	return true, nil
}

type fakePointsReader struct {
	totals map[int64]int
}

func (f *fakePointsReader) Points(_ context.Context, userID int64) (int, error) {
	return f.totals[userID], nil
}

func newBadgeFixture(t *testing.T) (*service.BadgeService, *fakeBadgeStore, *fakePointsReader, *fakeNotifier) {
	t.Helper()

	store := &fakeBadgeStore{badges: []*types.Badge{
		{ID: 1, Name: "Newcomer", MinPoints: 1, Active: true},
		{ID: 2, Name: "Regular", MinPoints: 100, Active: true},
		{ID: 3, Name: "Contributor", MinPoints: 500, Active: true},
	}}
	profiles := &fakePointsReader{totals: map[int64]int{}}
	notifier := &fakeNotifier{}

	return service.NewBadge(store, profiles, notifier, zap.NewNop()), store, profiles, notifier
}

func TestEvaluateGrantsThresholdBadges(t *testing.T) {
	t.Parallel()

	svc, store, profiles, notifier := newBadgeFixture(t)
	profiles.totals[7] = 150

	require.NoError(t, svc.Evaluate(context.Background(), 7))

	assert.Equal(t, []int64{1, 2}, store.grants[7])
	assert.Len(t, notifier.notes, 2, "each new badge notifies the user")
	assert.Equal(t, types.NotificationTypeBadge, notifier.notes[0].typ)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, store, profiles, notifier := newBadgeFixture(t)
	profiles.totals[7] = 150

	require.NoError(t, svc.Evaluate(context.Background(), 7))
	require.NoError(t, svc.Evaluate(context.Background(), 7))

	assert.Equal(t, []int64{1, 2}, store.grants[7])
	assert.Len(t, notifier.notes, 2, "re-evaluation must not re-notify")
}

func TestEvaluateBelowEveryThreshold(t *testing.T) {
	t.Parallel()

	svc, store, profiles, _ := newBadgeFixture(t)
	profiles.totals[7] = 0

	require.NoError(t, svc.Evaluate(context.Background(), 7))

	assert.Empty(t, store.grants[7])
}
