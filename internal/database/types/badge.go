package types

import (
	"time"

	"github.com/uptrace/bun"
)

// Badge is a rank members earn by crossing a cumulative points threshold.
type Badge struct {
	bun.BaseModel `bun:"table:badges"`

	ID          int64     `bun:",pk,autoincrement"                  json:"id"`
	Name        string    `bun:",notnull,unique"                    json:"name"`
	Description string    `bun:""                                   json:"description"`
	Icon        string    `bun:""                                   json:"icon,omitempty"`
	MinPoints   int       `bun:",notnull"                           json:"minPoints"`
	Active      bool      `bun:",notnull,default:true"              json:"active"`
	CreatedAt   time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
}

// UserBadge records one badge grant. The (user_id, badge_id) uniqueness
// makes granting idempotent.
type UserBadge struct {
	bun.BaseModel `bun:"table:user_badges"`

	UserID    int64     `bun:",pk"                                json:"userId"`
	BadgeID   int64     `bun:",pk"                                json:"badgeId"`
	AwardedAt time.Time `bun:",notnull,default:current_timestamp" json:"awardedAt"`
}
