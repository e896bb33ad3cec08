package types

import (
	"time"

	"github.com/uptrace/bun"
)

// PointsRule defines how many points one canonical action is worth.
// Inactive rules are kept for history but never matched by the award
// pipeline.
type PointsRule struct {
	bun.BaseModel `bun:"table:points_rules"`

	ID          int64     `bun:",pk,autoincrement"                   json:"id"`
	Action      string    `bun:",notnull,unique"                     json:"action"`
	Description string    `bun:""                                    json:"description"`
	Points      int       `bun:",notnull"                            json:"points"`
	Active      bool      `bun:",notnull,default:true"               json:"active"`
	CreatedAt   time.Time `bun:",notnull,default:current_timestamp"  json:"createdAt"`
}

// PointsEntry is one append-only ledger row recording a successful award.
// The ledger doubles as the idempotency guard: uniqueness indexes on
// (user_id, action, awarded_on) for rows without a related entity and on
// (user_id, action, related_id) for rows with one make the insert itself
// the at-most-once check.
type PointsEntry struct {
	bun.BaseModel `bun:"table:points_entries"`

	ID        int64     `bun:",pk,autoincrement"                  json:"id"`
	UserID    int64     `bun:",notnull"                           json:"userId"`
	Action    string    `bun:",notnull"                           json:"action"`
	Points    int       `bun:",notnull"                           json:"points"`
	RelatedID string    `bun:",nullzero"                          json:"relatedId,omitempty"`
	AwardedOn time.Time `bun:"awarded_on,notnull,type:date"       json:"awardedOn"`
	CreatedAt time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
}
