package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrPostNotFound signals a lookup for a post id that does not exist.
var ErrPostNotFound = errors.New("post not found")

// PostModel handles database operations for forum posts and likes.
type PostModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPost creates a new post model.
func NewPost(db *bun.DB, logger *zap.Logger) *PostModel {
	return &PostModel{
		db:     db,
		logger: logger.Named("db_post"),
	}
}

// Create inserts a new post.
func (r *PostModel) Create(ctx context.Context, post *types.Post) error {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(post).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// Get retrieves one post by id.
func (r *PostModel) Get(ctx context.Context, id int64) (*types.Post, error) {
	var post types.Post

	err := r.db.NewSelect().
		Model(&post).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}

		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}

	return &post, nil
}

// List retrieves posts newest first.
func (r *PostModel) List(ctx context.Context, limit, offset int) ([]*types.Post, error) {
	var posts []*types.Post

	err := r.db.NewSelect().
		Model(&posts).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// Like records a like and bumps the post counter. Returns whether the like
// was new; liking the same post twice is a store-level no-op.
func (r *PostModel) Like(ctx context.Context, postID, userID int64) (bool, error) {
	like := &types.PostLike{
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	res, err := r.db.NewInsert().
		Model(like).
		On("CONFLICT (post_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to like post %d: %w", postID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read like result: %w", err)
	}

	if rows == 0 {
		return false, nil
	}

	_, err = r.db.NewUpdate().
		Model((*types.Post)(nil)).
		Set("like_count = like_count + 1").
		Where("id = ?", postID).
		Exec(ctx)
	if err != nil {
		return true, fmt.Errorf("failed to bump like count for post %d: %w", postID, err)
	}

	return true, nil
}

// Unlike removes a like and decrements the counter if one existed.
func (r *PostModel) Unlike(ctx context.Context, postID, userID int64) error {
	res, err := r.db.NewDelete().
		Model((*types.PostLike)(nil)).
		Where("post_id = ?", postID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to unlike post %d: %w", postID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil || rows == 0 {
		return err
	}

	_, err = r.db.NewUpdate().
		Model((*types.Post)(nil)).
		Set("like_count = GREATEST(like_count - 1, 0)").
		Where("id = ?", postID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop like count for post %d: %w", postID, err)
	}

	return nil
}

// Search retrieves posts whose title or body contains the query,
// case-insensitively, newest first.
func (r *PostModel) Search(ctx context.Context, query string, limit int) ([]*types.Post, error) {
	var posts []*types.Post

	pattern := "%" + query + "%"

	err := r.db.NewSelect().
		Model(&posts).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("title ILIKE ?", pattern).WhereOr("body ILIKE ?", pattern)
		}).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	return posts, nil
}
