package handler

import (
	"net/http"

	"github.com/kehilahub/kehila/internal/database"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// NotificationHandler handles member inbox endpoints.
type NotificationHandler struct {
	db     database.Client
	logger *zap.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(db database.Client, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		db:     db,
		logger: logger,
	}
}

// markReadRequest is the body for marking specific notifications read.
type markReadRequest struct {
	IDs []int64 `json:"ids"`
}

// inboxResponse is one page of a member's inbox.
type inboxResponse struct {
	Notifications []*types.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// unreadCountResponse reports the unread badge count.
type unreadCountResponse struct {
	Unread int `json:"unread"`
}

// ListNotifications returns the member's inbox, newest first. Pass
// unread=true to filter to unread entries.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	limit := queryInt(req, "limit", 50)
	offset := queryInt(req, "offset", 0)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	unreadOnly := req.URL.Query().Get("unread") == "true"

	notifications, err := h.db.Model().Notification().ListForUser(
		req.Context(), userID, unreadOnly, limit, offset,
	)
	if err != nil {
		h.logger.Error("Failed to list notifications", zap.Int64("userID", userID), zap.Error(err))
		return internalError(w)
	}

	unread, err := h.db.Model().Notification().UnreadCount(req.Context(), userID)
	if err != nil {
		h.logger.Warn("Failed to count unread notifications", zap.Int64("userID", userID), zap.Error(err))
	}

	return bunrouter.JSON(w, inboxResponse{Notifications: notifications, Unread: unread})
}

// MarkRead marks the given notifications read for the member.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	var body markReadRequest
	if err := decodeBody(req, &body); err != nil || len(body.IDs) == 0 {
		return badRequest(w, "ids are required")
	}

	if err := h.db.Model().Notification().MarkRead(req.Context(), userID, body.IDs...); err != nil {
		h.logger.Error("Failed to mark notifications read", zap.Int64("userID", userID), zap.Error(err))
		return internalError(w)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// MarkAllRead clears the member's entire unread backlog.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	if err := h.db.Model().Notification().MarkAllRead(req.Context(), userID); err != nil {
		h.logger.Error("Failed to mark all notifications read", zap.Int64("userID", userID), zap.Error(err))
		return internalError(w)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// UnreadCount reports the member's unread badge count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	unread, err := h.db.Model().Notification().UnreadCount(req.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to count unread notifications", zap.Int64("userID", userID), zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, unreadCountResponse{Unread: unread})
}
