package models

import (
	"context"
	"fmt"

	"github.com/kehilahub/kehila/internal/database/dbretry"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// MaxRuleFetch bounds how many rules a single lookup pulls. The rule table
// is small; the bound only protects against pathological growth.
const MaxRuleFetch = 100

// RuleModel handles database operations for points rules.
type RuleModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewRule creates a new rule model.
func NewRule(db *bun.DB, logger *zap.Logger) *RuleModel {
	return &RuleModel{
		db:     db,
		logger: logger.Named("db_rule"),
	}
}

// ActiveRules retrieves all active points rules. Activeness is filtered in
// the query since the schema carries a single active flag.
func (r *RuleModel) ActiveRules(ctx context.Context) ([]*types.PointsRule, error) {
	rules, err := dbretry.Operation(ctx, func(ctx context.Context) ([]*types.PointsRule, error) {
		var rules []*types.PointsRule

		err := r.db.NewSelect().
			Model(&rules).
			Where("active").
			Order("id").
			Limit(MaxRuleFetch).
			Scan(ctx)

		return rules, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get active rules: %w", err)
	}

	return rules, nil
}

// AllRules retrieves every rule including inactive ones, for admin surfaces.
func (r *RuleModel) AllRules(ctx context.Context) ([]*types.PointsRule, error) {
	var rules []*types.PointsRule

	err := r.db.NewSelect().
		Model(&rules).
		Order("id").
		Limit(MaxRuleFetch).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}

	return rules, nil
}
