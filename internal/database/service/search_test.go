package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kehilahub/kehila/internal/cache"
	"github.com/kehilahub/kehila/internal/database/service"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeContent struct {
	posts         []*types.Post
	announcements []*types.Announcement
	events        []*types.Event
	searches      int
}

func (f *fakeContent) Search(_ context.Context, query string, limit int) ([]*types.Post, error) {
	f.searches++

	var hits []*types.Post

	for _, post := range f.posts {
		if strings.Contains(strings.ToLower(post.Title+post.Body), strings.ToLower(query)) {
			hits = append(hits, post)
		}

		if len(hits) == limit {
			break
		}
	}

	return hits, nil
}

type fakeAnnouncements struct {
	items []*types.Announcement
}

func (f *fakeAnnouncements) Search(_ context.Context, query string, limit int) ([]*types.Announcement, error) {
	var hits []*types.Announcement

	for _, announcement := range f.items {
		if strings.Contains(strings.ToLower(announcement.Title+announcement.Body), strings.ToLower(query)) {
			hits = append(hits, announcement)
		}

		if len(hits) == limit {
			break
		}
	}

	return hits, nil
}

type fakeEvents struct {
	items []*types.Event
}

func (f *fakeEvents) Search(_ context.Context, query string, limit int) ([]*types.Event, error) {
	var hits []*types.Event

	for _, event := range f.items {
		if strings.Contains(strings.ToLower(event.Title+event.Description), strings.ToLower(query)) {
			hits = append(hits, event)
		}

		if len(hits) == limit {
			break
		}
	}

	return hits, nil
}

func newSearchFixture(t *testing.T, c service.Cache) (*service.SearchService, *fakeContent) {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	posts := &fakeContent{posts: []*types.Post{
		{ID: 1, Title: "Garden cleanup", Body: "Volunteers needed", CreatedAt: base.Add(3 * time.Hour)},
		{ID: 2, Title: "Lost cat", Body: "Near the garden gate", CreatedAt: base.Add(1 * time.Hour)},
	}}
	announcements := &fakeAnnouncements{items: []*types.Announcement{
		{ID: 10, Title: "Community garden opens", Body: "This spring", PublishedAt: base.Add(2 * time.Hour)},
	}}
	events := &fakeEvents{items: []*types.Event{
		{ID: 20, Title: "Garden party", Description: "Bring snacks", StartsAt: base.Add(4 * time.Hour)},
	}}

	return service.NewSearch(posts, announcements, events, c, zap.NewNop()), posts
}

func TestSearchMergesSourcesNewestFirst(t *testing.T) {
	t.Parallel()

	svc, _ := newSearchFixture(t, nil)

	page, err := svc.Search(context.Background(), "garden", 10, 0)
	require.NoError(t, err)

	require.Len(t, page.Results, 4)
	assert.Equal(t, 4, page.Total)

	kinds := make([]string, 0, len(page.Results))
	for _, result := range page.Results {
		kinds = append(kinds, result.Kind)
	}

	// Ordered by timestamp descending across all sources
	assert.Equal(t, []string{"event", "post", "announcement", "post"}, kinds)
}

func TestSearchPagination(t *testing.T) {
	t.Parallel()

	svc, _ := newSearchFixture(t, nil)

	first, err := svc.Search(context.Background(), "garden", 2, 0)
	require.NoError(t, err)
	require.Len(t, first.Results, 2)

	second, err := svc.Search(context.Background(), "garden", 2, 2)
	require.NoError(t, err)
	require.Len(t, second.Results, 2)

	assert.NotEqual(t, first.Results[0].ID, second.Results[0].ID)

	beyond, err := svc.Search(context.Background(), "garden", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond.Results)
}

func TestSearchEmptyQuery(t *testing.T) {
	t.Parallel()

	svc, posts := newSearchFixture(t, nil)

	page, err := svc.Search(context.Background(), "   ", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Zero(t, posts.searches, "empty queries never reach the stores")
}

func TestSearchResultsAreCached(t *testing.T) {
	t.Parallel()

	c := cache.New(zap.NewNop())
	svc, posts := newSearchFixture(t, c)

	_, err := svc.Search(context.Background(), "garden", 10, 0)
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "garden", 10, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, posts.searches, "second identical search should come from cache")

	// Content writes invalidate by prefix and the next search refetches
	c.ClearPattern("search:")

	_, err = svc.Search(context.Background(), "garden", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, posts.searches)
}
