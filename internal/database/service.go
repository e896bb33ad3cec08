package database

import (
	"github.com/kehilahub/kehila/internal/database/service"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	points       *service.PointsService
	badge        *service.BadgeService
	notification *service.NotificationService
	search       *service.SearchService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, cache Cache, logger *zap.Logger) *Service {
	notificationService := service.NewNotification(repository.Notification(), repository.Profile(), logger)
	badgeService := service.NewBadge(repository.Badge(), repository.Profile(), notificationService, logger)
	pointsService := service.NewPoints(
		repository.Rule(), repository.Ledger(), repository.Profile(),
		badgeService, notificationService, cache, logger,
	)
	searchService := service.NewSearch(
		repository.Post(), repository.Announcement(), repository.Event(), cache, logger,
	)

	return &Service{
		points:       pointsService,
		badge:        badgeService,
		notification: notificationService,
		search:       searchService,
	}
}

// Points returns the point-award service.
func (s *Service) Points() *service.PointsService {
	return s.points
}

// Badge returns the badge evaluation service.
func (s *Service) Badge() *service.BadgeService {
	return s.badge
}

// Notification returns the notification service.
func (s *Service) Notification() *service.NotificationService {
	return s.notification
}

// Search returns the search service.
func (s *Service) Search() *service.SearchService {
	return s.search
}
