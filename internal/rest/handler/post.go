package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kehilahub/kehila/internal/cache"
	"github.com/kehilahub/kehila/internal/database"
	"github.com/kehilahub/kehila/internal/database/models"
	"github.com/kehilahub/kehila/internal/database/service"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/gamification"
	"github.com/kehilahub/kehila/internal/leaderboard"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// PostHandler handles forum post endpoints. Writes award points through the
// gamification pipeline and invalidate the affected cache regions.
type PostHandler struct {
	db          database.Client
	cache       *cache.Cache
	leaderboard *leaderboard.Leaderboard
	logger      *zap.Logger
}

// NewPostHandler creates a new post handler.
func NewPostHandler(
	db database.Client, c *cache.Cache, lb *leaderboard.Leaderboard, logger *zap.Logger,
) *PostHandler {
	return &PostHandler{
		db:          db,
		cache:       c,
		leaderboard: lb,
		logger:      logger,
	}
}

// createPostRequest is the body for creating a post.
type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// postWriteResponse bundles the written post with its award outcome.
type postWriteResponse struct {
	Post  *types.Post          `json:"post,omitempty"`
	Liked bool                 `json:"liked,omitempty"`
	Award *service.AwardResult `json:"award,omitempty"`
}

// ListPosts returns recent posts, newest first. Pages are cached briefly and
// invalidated on any post write.
func (h *PostHandler) ListPosts(w http.ResponseWriter, req bunrouter.Request) error {
	limit := queryInt(req, "limit", 20)
	offset := queryInt(req, "offset", 0)

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	key := fmt.Sprintf("posts:list:%d:%d", limit, offset)
	if posts, ok := cache.GetTyped[[]*types.Post](h.cache, key); ok {
		return bunrouter.JSON(w, posts)
	}

	posts, err := h.db.Model().Post().List(req.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list posts", zap.Error(err))
		return internalError(w)
	}

	h.cache.Set(key, posts, cache.TTLShort)

	return bunrouter.JSON(w, posts)
}

// GetPost returns a single post by ID.
func (h *PostHandler) GetPost(w http.ResponseWriter, req bunrouter.Request) error {
	id, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid post id")
	}

	key := fmt.Sprintf("posts:item:%d", id)
	if post, ok := cache.GetTyped[*types.Post](h.cache, key); ok {
		return bunrouter.JSON(w, post)
	}

	post, err := h.db.Model().Post().Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			http.Error(w, "post not found", http.StatusNotFound)
			return nil
		}

		h.logger.Error("Failed to get post", zap.Int64("postID", id), zap.Error(err))

		return internalError(w)
	}

	h.cache.Set(key, post, cache.TTLMedium)

	return bunrouter.JSON(w, post)
}

// CreatePost stores a new post and awards the author creation points.
func (h *PostHandler) CreatePost(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	var body createPostRequest
	if err := decodeBody(req, &body); err != nil {
		return badRequest(w, "invalid request body")
	}

	if strings.TrimSpace(body.Title) == "" || strings.TrimSpace(body.Body) == "" {
		return badRequest(w, "title and body are required")
	}

	post := &types.Post{
		AuthorID:  userID,
		Title:     body.Title,
		Body:      body.Body,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := h.db.Model().Post().Create(req.Context(), post); err != nil {
		h.logger.Error("Failed to create post", zap.Int64("userID", userID), zap.Error(err))
		return internalError(w)
	}

	h.cache.ClearPattern("posts:")
	h.cache.ClearPattern("search:")

	// The award never blocks the post write; its outcome rides along in the
	// response so the UI can show earned points.
	award := h.db.Service().Points().Award(
		req.Context(), userID, string(gamification.ActionCreatePost), service.AwardOptions{},
	)
	h.recordScore(req, userID, award)

	w.WriteHeader(http.StatusCreated)

	return bunrouter.JSON(w, postWriteResponse{Post: post, Award: award})
}

// LikePost records a like and awards points once per post, permanently.
// Liking again after an unlike bumps the counter but never re-awards.
func (h *PostHandler) LikePost(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	postID, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid post id")
	}

	liked, err := h.db.Model().Post().Like(req.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			http.Error(w, "post not found", http.StatusNotFound)
			return nil
		}

		h.logger.Error("Failed to like post",
			zap.Int64("postID", postID), zap.Int64("userID", userID), zap.Error(err))

		return internalError(w)
	}

	h.cache.ClearPattern("posts:")

	var award *service.AwardResult
	if liked {
		award = h.db.Service().Points().Award(
			req.Context(), userID, string(gamification.ActionLikePost),
			service.AwardOptions{RelatedID: fmt.Sprintf("post:%d", postID)},
		)
		h.recordScore(req, userID, award)
	}

	return bunrouter.JSON(w, postWriteResponse{Liked: liked, Award: award})
}

// UnlikePost removes the user's like. The earlier award stands.
func (h *PostHandler) UnlikePost(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	postID, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid post id")
	}

	if err := h.db.Model().Post().Unlike(req.Context(), postID, userID); err != nil {
		h.logger.Error("Failed to unlike post",
			zap.Int64("postID", postID), zap.Int64("userID", userID), zap.Error(err))

		return internalError(w)
	}

	h.cache.ClearPattern("posts:")

	return bunrouter.JSON(w, postWriteResponse{Liked: false})
}

// recordScore mirrors a successful award's new total into the leaderboard.
func (h *PostHandler) recordScore(req bunrouter.Request, userID int64, award *service.AwardResult) {
	if award == nil || !award.Success {
		return
	}

	if err := h.leaderboard.Record(req.Context(), userID, int64(award.Points)); err != nil {
		h.logger.Warn("Failed to update leaderboard", zap.Int64("userID", userID), zap.Error(err))
	}
}
