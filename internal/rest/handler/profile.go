package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kehilahub/kehila/internal/database"
	"github.com/kehilahub/kehila/internal/database/models"
	"github.com/kehilahub/kehila/internal/database/service"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/gamification"
	"github.com/kehilahub/kehila/internal/leaderboard"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ProfileHandler handles member profile endpoints.
type ProfileHandler struct {
	db          database.Client
	leaderboard *leaderboard.Leaderboard
	logger      *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(db database.Client, lb *leaderboard.Leaderboard, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		db:          db,
		leaderboard: lb,
		logger:      logger,
	}
}

// profileRequest is the body for registering or editing a profile.
type profileRequest struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

// profileResponse bundles a profile with its badges and rank.
type profileResponse struct {
	Profile *types.Profile       `json:"profile"`
	Badges  []*types.UserBadge   `json:"badges"`
	Rank    *leaderboard.Entry   `json:"rank,omitempty"`
	Award   *service.AwardResult `json:"award,omitempty"`
}

// CreateProfile registers the acting member's profile. Members joining with
// an existing profile get a conflict instead of a duplicate row.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	var body profileRequest
	if err := decodeBody(req, &body); err != nil {
		return badRequest(w, "invalid request body")
	}

	if strings.TrimSpace(body.DisplayName) == "" {
		return badRequest(w, "displayName is required")
	}

	profile := &types.Profile{
		UserID:      userID,
		DisplayName: body.DisplayName,
		Bio:         body.Bio,
	}

	if err := h.db.Model().Profile().Create(req.Context(), profile); err != nil {
		if errors.Is(err, models.ErrProfileExists) {
			http.Error(w, "profile already exists", http.StatusConflict)
			return nil
		}

		h.logger.Error("Failed to create profile", zap.Int64("userID", userID), zap.Error(err))

		return internalError(w)
	}

	w.WriteHeader(http.StatusCreated)

	return bunrouter.JSON(w, profileResponse{Profile: profile})
}

// GetProfile returns a member's profile, earned badges and leaderboard rank.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, req bunrouter.Request) error {
	userID, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid profile id")
	}

	profile, err := h.db.Model().Profile().GetByUserID(req.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return nil
		}

		h.logger.Error("Failed to get profile", zap.Int64("userID", userID), zap.Error(err))

		return internalError(w)
	}

	badges, err := h.db.Model().Badge().UserBadges(req.Context(), profile.UserID)
	if err != nil {
		h.logger.Warn("Failed to get user badges", zap.Int64("userID", userID), zap.Error(err))
	}

	rank, err := h.leaderboard.Rank(req.Context(), profile.UserID)
	if err != nil {
		h.logger.Warn("Failed to get leaderboard rank", zap.Int64("userID", userID), zap.Error(err))
	}

	return bunrouter.JSON(w, profileResponse{Profile: profile, Badges: badges, Rank: rank})
}

// UpdateProfile edits the member's own profile and awards update points at
// most once per day.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := requestUserID(req)
	if err != nil {
		return unauthorized(w)
	}

	targetID, ok := pathID(req, "id")
	if !ok {
		return badRequest(w, "invalid profile id")
	}

	if targetID != userID {
		http.Error(w, "cannot edit another member's profile", http.StatusForbidden)
		return nil
	}

	var body profileRequest
	if err := decodeBody(req, &body); err != nil {
		return badRequest(w, "invalid request body")
	}

	if strings.TrimSpace(body.DisplayName) == "" {
		return badRequest(w, "displayName is required")
	}

	if err := h.db.Model().Profile().Touch(req.Context(), userID, body.DisplayName, body.Bio); err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return nil
		}

		h.logger.Error("Failed to update profile", zap.Int64("userID", userID), zap.Error(err))

		return internalError(w)
	}

	award := h.db.Service().Points().Award(
		req.Context(), userID, string(gamification.ActionUpdateProfile), service.AwardOptions{},
	)

	if award.Success {
		if err := h.leaderboard.Record(req.Context(), userID, int64(award.Points)); err != nil {
			h.logger.Warn("Failed to update leaderboard", zap.Int64("userID", userID), zap.Error(err))
		}
	}

	profile, err := h.db.Model().Profile().GetByUserID(req.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to reload profile", zap.Int64("userID", userID), zap.Error(err))
		return internalError(w)
	}

	return bunrouter.JSON(w, profileResponse{Profile: profile, Award: award})
}
