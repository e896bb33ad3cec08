package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kehilahub/kehila/internal/cache"
	"github.com/kehilahub/kehila/internal/database/models"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/gamification"
	"go.uber.org/zap"
)

// rulesCacheKey holds the active rule set in the TTL cache so repeated
// awards do not refetch a table that rarely changes.
const rulesCacheKey = "gamification:rules"

// Soft-failure messages surfaced in AwardResult.Error.
const (
	awardErrRuleNotFound    = "rule not found"
	awardErrProfileNotFound = "profile not found"
	awardErrRelatedRequired = "related entity id required"
	awardErrInternal        = "award failed"
)

// RuleStore provides the active points rules.
type RuleStore interface {
	ActiveRules(ctx context.Context) ([]*types.PointsRule, error)
}

// LedgerStore appends award rows and removes them when an award cannot
// complete.
type LedgerStore interface {
	Insert(ctx context.Context, entry *types.PointsEntry) error
	Delete(ctx context.Context, id int64) error
}

// ProfileStore mutates the aggregate points balance.
type ProfileStore interface {
	AddPoints(ctx context.Context, userID int64, delta int) (int, error)
}

// BadgeEvaluator re-evaluates a user's badges after a balance change.
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID int64) error
}

// Notifier delivers a user-facing notification.
type Notifier interface {
	Notify(ctx context.Context, userID int64, typ, title, message, link string) error
}

// Cache is the optional rule cache. A nil cache disables caching.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, data any, ttl time.Duration)
}

// AwardOptions controls the idempotency guard for one award attempt. When
// both flags are false the guard is inferred from the canonical action.
type AwardOptions struct {
	// CheckDaily limits the award to once per user per calendar day.
	CheckDaily bool
	// CheckRelated limits the award to once per user per related entity.
	CheckRelated bool
	// RelatedID identifies the entity for CheckRelated guards.
	RelatedID string
}

// AwardResult is the outcome of one award attempt. The pipeline never
// returns a Go error: gamification is a side enhancement and must not break
// the caller's primary operation, so every failure is folded into a typed
// result.
type AwardResult struct {
	Success        bool   `json:"success"`
	Points         int    `json:"points,omitempty"`
	Awarded        int    `json:"awarded,omitempty"`
	AlreadyAwarded bool   `json:"alreadyAwarded,omitempty"`
	Error          string `json:"error,omitempty"`
}

// PointsService runs the idempotent point-award pipeline.
type PointsService struct {
	rules    RuleStore
	ledger   LedgerStore
	profiles ProfileStore
	badges   BadgeEvaluator
	notifier Notifier
	cache    Cache
	logger   *zap.Logger
}

// NewPoints creates a new points service.
func NewPoints(
	rules RuleStore,
	ledger LedgerStore,
	profiles ProfileStore,
	badges BadgeEvaluator,
	notifier Notifier,
	cache Cache,
	logger *zap.Logger,
) *PointsService {
	return &PointsService{
		rules:    rules,
		ledger:   ledger,
		profiles: profiles,
		badges:   badges,
		notifier: notifier,
		cache:    cache,
		logger:   logger.Named("points_service"),
	}
}

// Award grants the points configured for the action identified by label,
// enforcing the action's duplicate guard, then cascades into badge
// re-evaluation and a notification. The label may be any known language
// alias; all aliases of an action share one guard.
func (s *PointsService) Award(ctx context.Context, userID int64, label string, opts AwardOptions) *AwardResult {
	// Rule resolution
	rules, err := s.activeRules(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch points rules", zap.Error(err))
		return &AwardResult{Error: awardErrInternal}
	}

	rule, action, ok := matchRule(rules, label)
	if !ok {
		s.logger.Debug("No active rule for action",
			zap.Int64("userID", userID),
			zap.String("label", label))

		return &AwardResult{Error: awardErrRuleNotFound}
	}

	// Guard selection: explicit options may tighten the guard, otherwise
	// the canonical action's declared guard applies
	checkDaily, checkRelated := opts.CheckDaily, opts.CheckRelated
	if !checkDaily && !checkRelated {
		switch action.Guard() {
		case gamification.GuardDaily:
			checkDaily = true
		case gamification.GuardPerEntity:
			checkRelated = true
		case gamification.GuardNone:
		}
	}

	// An inherently-daily action keeps its daily guard no matter what the
	// options say
	if action.Guard() == gamification.GuardDaily {
		checkDaily = true
	}

	// Daily rows must carry no related id: the daily unique index only
	// covers rows whose related_id is NULL, so a caller-supplied entity
	// id would slip past it
	relatedID := opts.RelatedID
	if checkDaily {
		checkRelated = false
		relatedID = ""
	}

	if checkRelated && relatedID == "" {
		return &AwardResult{Error: awardErrRelatedRequired}
	}

	// The ledger insert is the guard. Daily rows collide on (user, action,
	// day); per-entity rows collide on (user, action, entity). Unguarded
	// one-shot actions get a synthetic entity id so the daily index never
	// blocks them.
	if !checkDaily && relatedID == "" {
		relatedID = uuid.NewString()
	}

	now := time.Now()
	entry := &types.PointsEntry{
		UserID:    userID,
		Action:    rule.Action,
		Points:    rule.Points,
		RelatedID: relatedID,
		AwardedOn: dayOf(now),
		CreatedAt: now,
	}

	if err := s.ledger.Insert(ctx, entry); err != nil {
		if errors.Is(err, models.ErrDuplicateAward) {
			return &AwardResult{AlreadyAwarded: true}
		}

		s.logger.Error("Failed to write ledger entry",
			zap.Int64("userID", userID),
			zap.String("action", rule.Action),
			zap.Error(err))

		return &AwardResult{Error: awardErrInternal}
	}

	// Aggregate update
	total, err := s.profiles.AddPoints(ctx, userID, rule.Points)
	if err != nil {
		// The ledger row must not stand without the aggregate; remove it so
		// a later attempt is not blocked by the guard.
		if delErr := s.ledger.Delete(ctx, entry.ID); delErr != nil {
			s.logger.Error("Failed to compensate ledger entry",
				zap.Int64("entryID", entry.ID),
				zap.Error(delErr))
		}

		if errors.Is(err, models.ErrProfileNotFound) {
			return &AwardResult{Error: awardErrProfileNotFound}
		}

		s.logger.Error("Failed to update points aggregate",
			zap.Int64("userID", userID),
			zap.Error(err))

		return &AwardResult{Error: awardErrInternal}
	}

	s.cascade(ctx, userID, rule, total)

	return &AwardResult{Success: true, Points: total, Awarded: rule.Points}
}

// cascade triggers the best-effort side effects of a successful award.
// Failures here are logged and swallowed; the award already stands.
func (s *PointsService) cascade(ctx context.Context, userID int64, rule *types.PointsRule, total int) {
	if err := s.badges.Evaluate(ctx, userID); err != nil {
		s.logger.Warn("Badge evaluation failed",
			zap.Int64("userID", userID),
			zap.Error(err))
	}

	title := "You earned points!"
	message := fmt.Sprintf("+%d points for %s (total %d)", rule.Points, describeRule(rule), total)

	err := s.notifier.Notify(ctx, userID, types.NotificationTypePoints, title, message, "/profile/points")
	if err != nil {
		s.logger.Warn("Points notification failed",
			zap.Int64("userID", userID),
			zap.Error(err))
	}
}

// matchRule finds the first active rule matching the label, collapsing
// language aliases to one canonical action first and falling back to a
// case-insensitive comparison against the stored rule action.
func matchRule(rules []*types.PointsRule, label string) (*types.PointsRule, gamification.Action, bool) {
	action, resolved := gamification.Resolve(label)

	for _, rule := range rules {
		if resolved && strings.EqualFold(rule.Action, action.String()) {
			return rule, action, true
		}

		if !resolved && strings.EqualFold(rule.Action, strings.TrimSpace(label)) {
			return rule, gamification.Action(rule.Action), true
		}
	}

	return nil, "", false
}

// activeRules reads the rule set through the TTL cache when one is wired.
func (s *PointsService) activeRules(ctx context.Context) ([]*types.PointsRule, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(rulesCacheKey); ok {
			if rules, ok := cached.([]*types.PointsRule); ok {
				return rules, nil
			}
		}
	}

	rules, err := s.rules.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(rulesCacheKey, rules, cache.TTLMedium)
	}

	return rules, nil
}

func describeRule(rule *types.PointsRule) string {
	if rule.Description != "" {
		return rule.Description
	}

	return rule.Action
}

// dayOf truncates a time to its calendar day in the local timezone, the
// granularity the daily guard index works at.
func dayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
