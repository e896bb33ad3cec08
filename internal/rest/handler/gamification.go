package handler

import (
	"net/http"
	"time"

	"github.com/kehilahub/kehila/internal/database"
	"github.com/kehilahub/kehila/internal/database/service"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/gamification"
	"github.com/kehilahub/kehila/internal/leaderboard"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// GamificationHandler handles point, history and ranking endpoints.
type GamificationHandler struct {
	db          database.Client
	leaderboard *leaderboard.Leaderboard
	logger      *zap.Logger
}

// NewGamificationHandler creates a new gamification handler.
func NewGamificationHandler(
	db database.Client, lb *leaderboard.Leaderboard, logger *zap.Logger,
) *GamificationHandler {
	return &GamificationHandler{
		db:          db,
		leaderboard: lb,
		logger:      logger,
	}
}

// historyResponse is one page of a member's point history.
type historyResponse struct {
	Entries []*types.PointsEntry `json:"entries"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// dailyStatusResponse reports whether today's login bonus is already claimed.
type dailyStatusResponse struct {
	Claimed bool `json:"claimed"`
}

// ClaimDaily awards the daily login bonus. The second claim of the same
// calendar day reports alreadyAwarded instead of failing.
func (h *GamificationHandler) ClaimDaily(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	award := h.db.Service().Points().Award(
		req.Context(), userID, string(gamification.ActionDailyLogin), service.AwardOptions{},
	)

	if award.Success {
		if err := h.leaderboard.Record(req.Context(), userID, int64(award.Points)); err != nil {
			h.logger.Warn("Failed to update leaderboard", zap.Int64("userID", userID), zap.Error(err))
		}
	}

	return bunrouter.JSON(w, award)
}

// DailyStatus reports whether the member already claimed today's login
// bonus, so the UI can disable the claim button.
func (h *GamificationHandler) DailyStatus(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	count, err := h.db.Model().Ledger().CountForUserOnDay(
		req.Context(), userID, string(gamification.ActionDailyLogin), time.Now(),
	)
	if err != nil {
		h.logger.Error("Failed to check daily claim status", zap.Int64("userID", userID), zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, dailyStatusResponse{Claimed: count > 0})
}

// History returns the member's point ledger, newest first.
func (h *GamificationHandler) History(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	limit := queryInt(req, "limit", 50)
	offset := queryInt(req, "offset", 0)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := h.db.Model().Ledger().UserHistory(req.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get point history", zap.Int64("userID", userID), zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, historyResponse{Entries: entries, Limit: limit, Offset: offset})
}

// Rules returns the active point rules so the UI can show earnable actions.
// Admin surfaces pass include_inactive=true to see retired rules too.
func (h *GamificationHandler) Rules(w http.ResponseWriter, req bunrouter.Request) error {
	var (
		rules []*types.PointsRule
		err   error
	)

	if req.URL.Query().Get("include_inactive") == "true" {
		rules, err = h.db.Model().Rule().AllRules(req.Context())
	} else {
		rules, err = h.db.Model().Rule().ActiveRules(req.Context())
	}

	if err != nil {
		h.logger.Error("Failed to list point rules", zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, rules)
}

// Leaderboard returns the top members by lifetime points.
func (h *GamificationHandler) Leaderboard(w http.ResponseWriter, req bunrouter.Request) error {
	limit := queryInt(req, "limit", 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	entries, err := h.leaderboard.Top(req.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to fetch leaderboard", zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, entries)
}
