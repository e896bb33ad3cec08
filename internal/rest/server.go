// Package rest exposes the community API over HTTP.
package rest

import (
	"net/http"

	"github.com/kehilahub/kehila/internal/cache"
	"github.com/kehilahub/kehila/internal/database"
	"github.com/kehilahub/kehila/internal/leaderboard"
	"github.com/kehilahub/kehila/internal/presence"
	"github.com/kehilahub/kehila/internal/rest/handler"
	"github.com/klauspost/compress/gzhttp"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the REST API service.
type Server struct {
	postHandler         *handler.PostHandler
	announcementHandler *handler.AnnouncementHandler
	eventHandler        *handler.EventHandler
	profileHandler      *handler.ProfileHandler
	gamificationHandler *handler.GamificationHandler
	notificationHandler *handler.NotificationHandler
	searchHandler       *handler.SearchHandler
}

// NewServer creates a new REST API server.
func NewServer(
	db database.Client,
	appCache *cache.Cache,
	lb *leaderboard.Leaderboard,
	tracker *presence.Tracker,
	logger *zap.Logger,
) http.Handler {
	// Create server instance with handlers
	server := &Server{
		postHandler:         handler.NewPostHandler(db, appCache, lb, logger),
		announcementHandler: handler.NewAnnouncementHandler(db, appCache, logger),
		eventHandler:        handler.NewEventHandler(db, lb, tracker, logger),
		profileHandler:      handler.NewProfileHandler(db, lb, logger),
		gamificationHandler: handler.NewGamificationHandler(db, lb, logger),
		notificationHandler: handler.NewNotificationHandler(db, logger),
		searchHandler:       handler.NewSearchHandler(db, logger),
	}

	// Create base router
	router := bunrouter.New()

	router.WithGroup("/v1", func(g *bunrouter.Group) {
		g.GET("/posts", server.postHandler.ListPosts)
		g.POST("/posts", server.postHandler.CreatePost)
		g.GET("/posts/:id", server.postHandler.GetPost)
		g.POST("/posts/:id/like", server.postHandler.LikePost)
		g.DELETE("/posts/:id/like", server.postHandler.UnlikePost)

		g.GET("/announcements", server.announcementHandler.ListAnnouncements)
		g.POST("/announcements", server.announcementHandler.CreateAnnouncement)
		g.POST("/announcements/:id/read", server.announcementHandler.MarkAnnouncementRead)

		g.GET("/events", server.eventHandler.ListEvents)
		g.POST("/events", server.eventHandler.CreateEvent)
		g.POST("/events/:id/rsvp", server.eventHandler.RSVP)
		g.POST("/events/:id/presence", server.eventHandler.Heartbeat)
		g.GET("/events/:id/presence", server.eventHandler.PresenceCount)

		g.POST("/profiles", server.profileHandler.CreateProfile)
		g.GET("/profiles/:id", server.profileHandler.GetProfile)
		g.PUT("/profiles/:id", server.profileHandler.UpdateProfile)

		g.POST("/gamification/daily-claim", server.gamificationHandler.ClaimDaily)
		g.GET("/gamification/daily-status", server.gamificationHandler.DailyStatus)
		g.GET("/gamification/history", server.gamificationHandler.History)
		g.GET("/gamification/rules", server.gamificationHandler.Rules)
		g.GET("/gamification/leaderboard", server.gamificationHandler.Leaderboard)

		g.GET("/notifications", server.notificationHandler.ListNotifications)
		g.POST("/notifications/read", server.notificationHandler.MarkRead)
		g.POST("/notifications/read-all", server.notificationHandler.MarkAllRead)
		g.GET("/notifications/unread-count", server.notificationHandler.UnreadCount)

		g.GET("/search", server.searchHandler.Search)
	})

	// Add gzip compression
	return gzhttp.GzipHandler(router)
}
