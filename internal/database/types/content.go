package types

import (
	"time"

	"github.com/uptrace/bun"
)

// Post is one forum post.
type Post struct {
	bun.BaseModel `bun:"table:posts"`

	ID        int64     `bun:",pk,autoincrement"                  json:"id"`
	AuthorID  int64     `bun:",notnull"                           json:"authorId"`
	Title     string    `bun:",notnull"                           json:"title"`
	Body      string    `bun:",notnull"                           json:"body"`
	LikeCount int       `bun:",notnull,default:0"                 json:"likeCount"`
	CreatedAt time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:",notnull,default:current_timestamp" json:"updatedAt"`
}

// PostLike records one user liking one post. The composite key makes a
// second like by the same user a no-op at the store level.
type PostLike struct {
	bun.BaseModel `bun:"table:post_likes"`

	PostID    int64     `bun:",pk"                                json:"postId"`
	UserID    int64     `bun:",pk"                                json:"userId"`
	CreatedAt time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
}

// Announcement is a staff-authored broadcast shown to all members.
type Announcement struct {
	bun.BaseModel `bun:"table:announcements"`

	ID          int64     `bun:",pk,autoincrement"                  json:"id"`
	Title       string    `bun:",notnull"                           json:"title"`
	Body        string    `bun:",notnull"                           json:"body"`
	Pinned      bool      `bun:",notnull,default:false"             json:"pinned"`
	PublishedAt time.Time `bun:",notnull,default:current_timestamp" json:"publishedAt"`
}

// Event is a scheduled community event members can RSVP to.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64     `bun:",pk,autoincrement"                  json:"id"`
	Title       string    `bun:",notnull"                           json:"title"`
	Description string    `bun:""                                   json:"description"`
	Location    string    `bun:""                                   json:"location,omitempty"`
	StartsAt    time.Time `bun:",notnull"                           json:"startsAt"`
	CreatedAt   time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
}

// EventRSVP records a member's intent to attend an event.
type EventRSVP struct {
	bun.BaseModel `bun:"table:event_rsvps"`

	EventID   int64     `bun:",pk"                                json:"eventId"`
	UserID    int64     `bun:",pk"                                json:"userId"`
	CreatedAt time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
}
