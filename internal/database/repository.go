package database

import (
	"github.com/kehilahub/kehila/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	rule         *models.RuleModel
	ledger       *models.LedgerModel
	profile      *models.ProfileModel
	badge        *models.BadgeModel
	notification *models.NotificationModel
	post         *models.PostModel
	announcement *models.AnnouncementModel
	event        *models.EventModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		rule:         models.NewRule(db, logger),
		ledger:       models.NewLedger(db, logger),
		profile:      models.NewProfile(db, logger),
		badge:        models.NewBadge(db, logger),
		notification: models.NewNotification(db, logger),
		post:         models.NewPost(db, logger),
		announcement: models.NewAnnouncement(db, logger),
		event:        models.NewEvent(db, logger),
	}
}

// Rule returns the points rule model repository.
func (r *Repository) Rule() *models.RuleModel {
	return r.rule
}

// Ledger returns the points ledger model repository.
func (r *Repository) Ledger() *models.LedgerModel {
	return r.ledger
}

// Profile returns the profile model repository.
func (r *Repository) Profile() *models.ProfileModel {
	return r.profile
}

// Badge returns the badge model repository.
func (r *Repository) Badge() *models.BadgeModel {
	return r.badge
}

// Notification returns the notification model repository.
func (r *Repository) Notification() *models.NotificationModel {
	return r.notification
}

// Post returns the post model repository.
func (r *Repository) Post() *models.PostModel {
	return r.post
}

// Announcement returns the announcement model repository.
func (r *Repository) Announcement() *models.AnnouncementModel {
	return r.announcement
}

// Event returns the event model repository.
func (r *Repository) Event() *models.EventModel {
	return r.event
}
