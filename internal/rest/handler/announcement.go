package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kehilahub/kehila/internal/cache"
	"github.com/kehilahub/kehila/internal/database"
	"github.com/kehilahub/kehila/internal/database/service"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/gamification"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// AnnouncementHandler handles community announcement endpoints.
type AnnouncementHandler struct {
	db     database.Client
	cache  *cache.Cache
	logger *zap.Logger
}

// NewAnnouncementHandler creates a new announcement handler.
func NewAnnouncementHandler(db database.Client, c *cache.Cache, logger *zap.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		db:     db,
		cache:  c,
		logger: logger,
	}
}

// createAnnouncementRequest is the body for publishing an announcement.
type createAnnouncementRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Pinned bool   `json:"pinned"`
}

// ListAnnouncements returns announcements, pinned first then newest first.
func (h *AnnouncementHandler) ListAnnouncements(w http.ResponseWriter, req bunrouter.Request) error {
	limit := queryInt(req, "limit", 20)
	offset := queryInt(req, "offset", 0)

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	key := fmt.Sprintf("announcements:list:%d:%d", limit, offset)
	if announcements, ok := cache.GetTyped[[]*types.Announcement](h.cache, key); ok {
		return bunrouter.JSON(w, announcements)
	}

	announcements, err := h.db.Model().Announcement().List(req.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list announcements", zap.Error(err))
		return internalError(w)
	}

	h.cache.Set(key, announcements, cache.TTLMedium)

	return bunrouter.JSON(w, announcements)
}

// CreateAnnouncement publishes an announcement and notifies every member.
func (h *AnnouncementHandler) CreateAnnouncement(w http.ResponseWriter, req bunrouter.Request) error {
	if _, err := requestUserID(req); err != nil {
		return unauthorized(w)
	}

	var body createAnnouncementRequest
	if err := decodeBody(req, &body); err != nil {
		return badRequest(w, "invalid request body")
	}

	if strings.TrimSpace(body.Title) == "" || strings.TrimSpace(body.Body) == "" {
		return badRequest(w, "title and body are required")
	}

	announcement := &types.Announcement{
		Title:       body.Title,
		Body:        body.Body,
		Pinned:      body.Pinned,
		PublishedAt: time.Now(),
	}

	if err := h.db.Model().Announcement().Create(req.Context(), announcement); err != nil {
		h.logger.Error("Failed to create announcement", zap.Error(err))
		return internalError(w)
	}

	h.cache.ClearPattern("announcements:")
	h.cache.ClearPattern("search:")

	sent, err := h.db.Service().Notification().Broadcast(
		req.Context(), types.NotificationTypeAnnouncement,
		announcement.Title, announcement.Body,
		fmt.Sprintf("/announcements/%d", announcement.ID),
	)
	if err != nil {
		// The announcement itself stands; delivery is best effort.
		h.logger.Error("Failed to broadcast announcement",
			zap.Int64("announcementID", announcement.ID), zap.Error(err))
	} else {
		h.logger.Info("Broadcast announcement",
			zap.Int64("announcementID", announcement.ID), zap.Int("recipients", sent))
	}

	w.WriteHeader(http.StatusCreated)

	return bunrouter.JSON(w, announcement)
}

// MarkAnnouncementRead awards read points once per announcement per member.
func (h *AnnouncementHandler) MarkAnnouncementRead(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	announcementID, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid announcement id")
	}

	award := h.db.Service().Points().Award(
		req.Context(), userID, string(gamification.ActionReadAnnounce),
		service.AwardOptions{RelatedID: fmt.Sprintf("announcement:%d", announcementID)},
	)

	return bunrouter.JSON(w, award)
}
