package types

import (
	"time"

	"github.com/uptrace/bun"
)

// Profile holds a member's public identity plus the running points total.
// Points is an aggregate over the ledger, updated in place on every
// successful award rather than recomputed.
type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	ID          int64     `bun:",pk,autoincrement"                  json:"id"`
	UserID      int64     `bun:",notnull,unique"                    json:"userId"`
	DisplayName string    `bun:",notnull"                           json:"displayName"`
	Bio         string    `bun:""                                   json:"bio,omitempty"`
	Points      int       `bun:",notnull,default:0"                 json:"points"`
	CreatedAt   time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:",notnull,default:current_timestamp" json:"updatedAt"`
}
