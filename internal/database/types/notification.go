package types

import (
	"time"

	"github.com/uptrace/bun"
)

// Notification types accepted by the current schema. Older deployments run
// with a tighter check constraint that predates the gamification types, so
// an insert with NotificationTypePoints or NotificationTypeBadge can be
// rejected there; callers fall back to NotificationTypeSystem.
const (
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeComment      = "comment"
	NotificationTypeLike         = "like"
	NotificationTypeEvent        = "event"
	NotificationTypePoints       = "points"
	NotificationTypeBadge        = "badge"
	NotificationTypeSystem       = "system"
)

// Notification is one user-facing inbox item.
type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	ID        int64     `bun:",pk,autoincrement"                  json:"id"`
	UserID    int64     `bun:",notnull"                           json:"userId"`
	Type      string    `bun:",notnull"                           json:"type"`
	Title     string    `bun:",notnull"                           json:"title"`
	Message   string    `bun:",notnull"                           json:"message"`
	Link      string    `bun:",nullzero"                          json:"link,omitempty"`
	IsRead    bool      `bun:",notnull,default:false"             json:"isRead"`
	CreatedAt time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
}
