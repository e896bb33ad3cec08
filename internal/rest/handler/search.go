package handler

import (
	"net/http"
	"strings"

	"github.com/kehilahub/kehila/internal/database"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// SearchHandler handles the cross-content search endpoint.
type SearchHandler struct {
	db     database.Client
	logger *zap.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(db database.Client, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		db:     db,
		logger: logger,
	}
}

// Search runs a query across posts, announcements and events.
func (h *SearchHandler) Search(w http.ResponseWriter, req bunrouter.Request) error {
	query := strings.TrimSpace(req.URL.Query().Get("q"))
	if query == "" {
		return badRequest(w, "query parameter q is required")
	}

	limit := queryInt(req, "limit", 20)
	offset := queryInt(req, "offset", 0)

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	page, err := h.db.Service().Search().Search(req.Context(), query, limit, offset)
	if err != nil {
		h.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, page)
}
