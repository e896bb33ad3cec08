package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kehilahub/kehila/internal/cache"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// snippetLength bounds how much body text a search result carries.
const snippetLength = 160

// PostSearcher searches forum posts.
type PostSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]*types.Post, error)
}

// AnnouncementSearcher searches announcements.
type AnnouncementSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]*types.Announcement, error)
}

// EventSearcher searches events.
type EventSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]*types.Event, error)
}

// SearchResult is one hit from any content source.
type SearchResult struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchPage is one page of merged results.
type SearchPage struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// SearchService fans a query out across posts, announcements and events in
// parallel, merges the hits newest first and paginates. Pages are cached
// briefly; content writes invalidate by key prefix.
type SearchService struct {
	posts         PostSearcher
	announcements AnnouncementSearcher
	events        EventSearcher
	cache         Cache
	logger        *zap.Logger
}

// NewSearch creates a new search service.
func NewSearch(
	posts PostSearcher,
	announcements AnnouncementSearcher,
	events EventSearcher,
	c Cache,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		posts:         posts,
		announcements: announcements,
		events:        events,
		cache:         c,
		logger:        logger.Named("search_service"),
	}
}

// Search returns one page of results for the query.
func (s *SearchService) Search(ctx context.Context, query string, limit, offset int) (*SearchPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchPage{Query: query, Results: []SearchResult{}, Limit: limit, Offset: offset}, nil
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("search:%s:%d:%d", strings.ToLower(query), limit, offset)

	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			if page, ok := cached.(*SearchPage); ok {
				return page, nil
			}
		}
	}

	// Each source is asked for enough rows to fill the requested page even
	// if every other source comes back empty
	fetch := offset + limit

	var (
		p       = pool.New().WithContext(ctx)
		mu      sync.Mutex
		results []SearchResult
	)

	p.Go(func(ctx context.Context) error {
		posts, err := s.posts.Search(ctx, query, fetch)
		if err != nil {
			return fmt.Errorf("post search failed: %w", err)
		}

		mu.Lock()
		defer mu.Unlock()

		for _, post := range posts {
			results = append(results, SearchResult{
				Kind:      "post",
				ID:        post.ID,
				Title:     post.Title,
				Snippet:   snippet(post.Body),
				Timestamp: post.CreatedAt,
			})
		}

		return nil
	})

	p.Go(func(ctx context.Context) error {
		announcements, err := s.announcements.Search(ctx, query, fetch)
		if err != nil {
			return fmt.Errorf("announcement search failed: %w", err)
		}

		mu.Lock()
		defer mu.Unlock()

		for _, announcement := range announcements {
			results = append(results, SearchResult{
				Kind:      "announcement",
				ID:        announcement.ID,
				Title:     announcement.Title,
				Snippet:   snippet(announcement.Body),
				Timestamp: announcement.PublishedAt,
			})
		}

		return nil
	})

	p.Go(func(ctx context.Context) error {
		events, err := s.events.Search(ctx, query, fetch)
		if err != nil {
			return fmt.Errorf("event search failed: %w", err)
		}

		mu.Lock()
		defer mu.Unlock()

		for _, event := range events {
			results = append(results, SearchResult{
				Kind:      "event",
				ID:        event.ID,
				Title:     event.Title,
				Snippet:   snippet(event.Description),
				Timestamp: event.StartsAt,
			})
		}

		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("search fan-out failed: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	total := len(results)

	if offset >= total {
		results = []SearchResult{}
	} else if offset+limit <= total {
		results = results[offset : offset+limit]
	} else {
		results = results[offset:]
	}

	page := &SearchPage{
		Query:   query,
		Results: results,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, page, cache.TTLShort)
	}

	return page, nil
}

func snippet(body string) string {
	body = strings.TrimSpace(body)

	// Rune-based so Hebrew text is never cut mid-character
	runes := []rune(body)
	if len(runes) <= snippetLength {
		return body
	}

	cut := string(runes[:snippetLength])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}

	return cut + "…"
}
