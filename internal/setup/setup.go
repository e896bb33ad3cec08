// Package setup bootstraps all application dependencies in the correct order.
package setup

import (
	"context"
	"log"
	"time"

	"github.com/kehilahub/kehila/internal/cache"
	"github.com/kehilahub/kehila/internal/database"
	"github.com/kehilahub/kehila/internal/database/types"
	"github.com/kehilahub/kehila/internal/leaderboard"
	"github.com/kehilahub/kehila/internal/presence"
	"github.com/kehilahub/kehila/internal/redis"
	"github.com/kehilahub/kehila/internal/setup/config"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config           // Application configuration
	Logger       *zap.Logger              // Main application logger
	Cache        *cache.Cache             // In-process TTL cache
	DB           database.Client          // Database connection pool
	RedisManager *redis.Manager           // Redis connection manager
	Leaderboard  *leaderboard.Leaderboard // Points leaderboard
	Presence     *presence.Tracker        // Event presence tracker
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, err := NewLogger(&cfg.Debug)
	if err != nil {
		return nil, err
	}

	// The TTL cache is shared by the database services and request handlers
	appCache := cache.New(logger)

	sweep := time.Duration(cfg.Cache.SweepInterval) * time.Minute
	if sweep > 0 {
		appCache.StartSweeper(ctx, sweep)
	}

	// Initialize database with migration check
	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, appCache, logger.Named("database"), true)
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for the ranking subsystems
	redisManager := redis.NewManager(&cfg.Redis, logger)

	lbClient, err := redisManager.GetClient(redis.LeaderboardDBIndex)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Rebuild the ranking from the profile table so a flushed Redis
	// instance does not come up empty
	lb := leaderboard.New(lbClient, logger)
	if err := SeedLeaderboard(ctx, db.Model().Profile(), lb); err != nil {
		logger.Warn("Failed to seed leaderboard from profiles", zap.Error(err))
	}

	presClient, err := redisManager.GetClient(redis.PresenceDBIndex)
	if err != nil {
		db.Close()
		redisManager.Close()

		return nil, err
	}

	// Bundle all initialized components
	return &App{
		Config:       cfg,
		Logger:       logger,
		Cache:        appCache,
		DB:           db,
		RedisManager: redisManager,
		Leaderboard:  lb,
		Presence:     presence.New(presClient, logger),
	}, nil
}

// leaderboardSeedLimit bounds how many profiles the startup rebuild mirrors
// into Redis.
const leaderboardSeedLimit = 1000

// ProfileSource provides the point totals the leaderboard seed reads.
type ProfileSource interface {
	TopByPoints(ctx context.Context, limit int) ([]*types.Profile, error)
}

// SeedLeaderboard mirrors the highest profile point totals into the Redis
// ranking.
func SeedLeaderboard(ctx context.Context, profiles ProfileSource, lb *leaderboard.Leaderboard) error {
	top, err := profiles.TopByPoints(ctx, leaderboardSeedLimit)
	if err != nil {
		return err
	}

	for _, profile := range top {
		if err := lb.Record(ctx, profile.UserID, int64(profile.Points)); err != nil {
			return err
		}
	}

	return nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(_ context.Context) {
	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need them during cleanup
	s.RedisManager.Close()
}
