package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kehilahub/kehila/internal/cache"
	"github.com/kehilahub/kehila/internal/database/models"
	"github.com/kehilahub/kehila/internal/database/service"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRules serves a static rule set and counts fetches.
type fakeRules struct {
	rules   []*types.PointsRule
	fetches int
	err     error
}

func (f *fakeRules) ActiveRules(_ context.Context) ([]*types.PointsRule, error) {
	f.fetches++
	return f.rules, f.err
}

// fakeLedger mimics the database guard indexes: rows without a related id
// collide on (user, action, day), rows with one collide on (user, action,
// entity).
type fakeLedger struct {
	entries []*types.PointsEntry
	nextID  int64
}

func (f *fakeLedger) Insert(_ context.Context, entry *types.PointsEntry) error {
	for _, existing := range f.entries {
		if existing.UserID != entry.UserID || existing.Action != entry.Action {
			continue
		}

		if entry.RelatedID == "" && existing.RelatedID == "" && existing.AwardedOn.Equal(entry.AwardedOn) {
			return models.ErrDuplicateAward
		}

		if entry.RelatedID != "" && existing.RelatedID == entry.RelatedID {
			return models.ErrDuplicateAward
		}
	}

	f.nextID++
	entry.ID = f.nextID
	f.entries = append(f.entries, entry)

	return nil
}

func (f *fakeLedger) Delete(_ context.Context, id int64) error {
	for i, entry := range f.entries {
		if entry.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}

	return nil
}

// fakeProfiles keeps balances in a map; unknown users report not found.
type fakeProfiles struct {
	points map[int64]int
}

func (f *fakeProfiles) AddPoints(_ context.Context, userID int64, delta int) (int, error) {
	current, ok := f.points[userID]
	if !ok {
		return 0, models.ErrProfileNotFound
	}

	f.points[userID] = current + delta

	return f.points[userID], nil
}

type fakeBadges struct {
	evaluated []int64
	err       error
}

func (f *fakeBadges) Evaluate(_ context.Context, userID int64) error {
	f.evaluated = append(f.evaluated, userID)
	return f.err
}

type sentNote struct {
	userID int64
	typ    string
	title  string
}

type fakeNotifier struct {
	notes []sentNote
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, userID int64, typ, title, _, _ string) error {
	if f.err != nil {
		return f.err
	}

	f.notes = append(f.notes, sentNote{userID: userID, typ: typ, title: title})

	return nil
}

type pointsFixture struct {
	svc      *service.PointsService
	rules    *fakeRules
	ledger   *fakeLedger
	profiles *fakeProfiles
	badges   *fakeBadges
	notifier *fakeNotifier
}

func newPointsFixture(t *testing.T, ruleCache service.Cache) *pointsFixture {
	t.Helper()

	rules := &fakeRules{rules: []*types.PointsRule{
		{ID: 1, Action: "daily_login", Description: "Daily login", Points: 5, Active: true},
		{ID: 2, Action: "like_post", Description: "Like a post", Points: 2, Active: true},
		{ID: 3, Action: "create_post", Description: "Publish a forum post", Points: 10, Active: true},
	}}
	ledger := &fakeLedger{}
	profiles := &fakeProfiles{points: map[int64]int{1: 10, 2: 0}}
	badges := &fakeBadges{}
	notifier := &fakeNotifier{}

	svc := service.NewPoints(rules, ledger, profiles, badges, notifier, ruleCache, zap.NewNop())

	return &pointsFixture{
		svc:      svc,
		rules:    rules,
		ledger:   ledger,
		profiles: profiles,
		badges:   badges,
		notifier: notifier,
	}
}

func TestDailyGuardIdempotence(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	ctx := context.Background()

	first := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{CheckDaily: true})
	require.True(t, first.Success)
	assert.Equal(t, 15, first.Points)

	second := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{CheckDaily: true})
	assert.False(t, second.Success)
	assert.True(t, second.AlreadyAwarded)
	assert.Equal(t, 15, f.profiles.points[1], "duplicate must not change the balance")
	assert.Len(t, f.ledger.entries, 1)

	// Past the day boundary the guard opens again
	f.ledger.entries[0].AwardedOn = f.ledger.entries[0].AwardedOn.AddDate(0, 0, -1)

	third := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{CheckDaily: true})
	assert.True(t, third.Success)
	assert.Equal(t, 20, third.Points)
}

func TestDailyGuardIgnoresRelatedID(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	ctx := context.Background()

	first := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{CheckDaily: true, RelatedID: "session-a"})
	require.True(t, first.Success)
	require.Len(t, f.ledger.entries, 1)
	assert.Empty(t, f.ledger.entries[0].RelatedID, "daily rows must carry no related id")

	// A different related id must not open the guard within the same day
	second := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{CheckDaily: true, RelatedID: "session-b"})
	assert.False(t, second.Success)
	assert.True(t, second.AlreadyAwarded)
	assert.Equal(t, 15, f.profiles.points[1])
	assert.Len(t, f.ledger.entries, 1)
}

func TestDailyActionGuardCannotBeLifted(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	ctx := context.Background()

	// Requesting a per-entity guard on an inherently-daily action still
	// enforces the daily guard
	first := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{CheckRelated: true, RelatedID: "session-a"})
	require.True(t, first.Success)

	second := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{CheckRelated: true, RelatedID: "session-b"})
	assert.False(t, second.Success)
	assert.True(t, second.AlreadyAwarded)
	assert.Len(t, f.ledger.entries, 1)
}

func TestBilingualAliasCollapse(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	ctx := context.Background()

	first := f.svc.Award(ctx, 1, "כניסה יומית", service.AwardOptions{CheckDaily: true})
	require.True(t, first.Success)

	// The ledger records the canonical action, not the caller's label
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, "daily_login", f.ledger.entries[0].Action)

	second := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{CheckDaily: true})
	assert.False(t, second.Success)
	assert.True(t, second.AlreadyAwarded)
}

func TestAggregateCorrectness(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	ctx := context.Background()

	for _, relatedID := range []string{"post-1", "post-2", "post-3"} {
		result := f.svc.Award(ctx, 1, "like_post", service.AwardOptions{CheckRelated: true, RelatedID: relatedID})
		require.True(t, result.Success)
	}

	assert.Equal(t, 10+3*2, f.profiles.points[1])
	assert.Len(t, f.ledger.entries, 3)
}

func TestMissingRuleIsNonFatal(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)

	result := f.svc.Award(context.Background(), 1, "nonexistent_action", service.AwardOptions{})
	assert.False(t, result.Success)
	assert.Equal(t, "rule not found", result.Error)
	assert.Empty(t, f.ledger.entries)
	assert.Equal(t, 10, f.profiles.points[1])
}

func TestPerEntityGuardEndToEnd(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	ctx := context.Background()

	result := f.svc.Award(ctx, 1, "לייק לפוסט", service.AwardOptions{CheckRelated: true, RelatedID: "post-42"})
	require.True(t, result.Success)
	assert.Equal(t, 12, result.Points)
	assert.Equal(t, 2, result.Awarded)
	require.Len(t, f.ledger.entries, 1)

	repeat := f.svc.Award(ctx, 1, "לייק לפוסט", service.AwardOptions{CheckRelated: true, RelatedID: "post-42"})
	assert.False(t, repeat.Success)
	assert.True(t, repeat.AlreadyAwarded)
	assert.Equal(t, 12, f.profiles.points[1])
	assert.Len(t, f.ledger.entries, 1)
}

func TestGuardInferredFromCanonicalAction(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	ctx := context.Background()

	// No explicit options: daily_login is inherently daily
	first := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{})
	require.True(t, first.Success)

	second := f.svc.Award(ctx, 1, "daily_login", service.AwardOptions{})
	assert.True(t, second.AlreadyAwarded)
}

func TestOneShotActionsNeverCollide(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	ctx := context.Background()

	// Two posts created the same day both award
	first := f.svc.Award(ctx, 1, "create_post", service.AwardOptions{})
	require.True(t, first.Success)

	second := f.svc.Award(ctx, 1, "create_post", service.AwardOptions{})
	require.True(t, second.Success)

	assert.Equal(t, 30, f.profiles.points[1])
}

func TestRelatedIDRequiredForEntityGuard(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)

	result := f.svc.Award(context.Background(), 1, "like_post", service.AwardOptions{CheckRelated: true})
	assert.False(t, result.Success)
	assert.Equal(t, "related entity id required", result.Error)
	assert.Empty(t, f.ledger.entries)
}

func TestProfileNotFoundCompensatesLedger(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)

	result := f.svc.Award(context.Background(), 999, "daily_login", service.AwardOptions{CheckDaily: true})
	assert.False(t, result.Success)
	assert.Equal(t, "profile not found", result.Error)

	// The guard row must not survive a failed award
	assert.Empty(t, f.ledger.entries)

	// A later attempt for a real profile path is not blocked
	retry := f.svc.Award(context.Background(), 999, "daily_login", service.AwardOptions{CheckDaily: true})
	assert.Equal(t, "profile not found", retry.Error)
	assert.False(t, retry.AlreadyAwarded)
}

func TestCascadeRunsOnSuccess(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)

	result := f.svc.Award(context.Background(), 1, "daily_login", service.AwardOptions{CheckDaily: true})
	require.True(t, result.Success)

	assert.Equal(t, []int64{1}, f.badges.evaluated)
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, types.NotificationTypePoints, f.notifier.notes[0].typ)
}

func TestCascadeFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	f.badges.err = errors.New("badge store down")
	f.notifier.err = errors.New("notification store down")

	result := f.svc.Award(context.Background(), 1, "daily_login", service.AwardOptions{CheckDaily: true})
	assert.True(t, result.Success, "cascade failures must not fail the award")
	assert.Equal(t, 15, f.profiles.points[1])
}

func TestRulesAreReadThroughCache(t *testing.T) {
	t.Parallel()

	c := cache.New(zap.NewNop())
	f := newPointsFixture(t, c)
	ctx := context.Background()

	f.svc.Award(ctx, 1, "like_post", service.AwardOptions{CheckRelated: true, RelatedID: "post-1"})
	f.svc.Award(ctx, 1, "like_post", service.AwardOptions{CheckRelated: true, RelatedID: "post-2"})

	assert.Equal(t, 1, f.rules.fetches, "second award should hit the rule cache")
}

func TestRuleFetchFailureIsSoft(t *testing.T) {
	t.Parallel()

	f := newPointsFixture(t, nil)
	f.rules.err = errors.New("database unreachable")

	result := f.svc.Award(context.Background(), 1, "daily_login", service.AwardOptions{CheckDaily: true})
	assert.False(t, result.Success)
	assert.Equal(t, "award failed", result.Error)
	assert.Empty(t, f.ledger.entries)
}
