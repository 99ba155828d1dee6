package app

import (
	"context"
	"fmt"

	"github.com/rgoulding/trackline/internal/cache"
	"github.com/rgoulding/trackline/internal/config"
	"github.com/rgoulding/trackline/internal/database"
	"github.com/rgoulding/trackline/internal/events"
	"github.com/rgoulding/trackline/internal/feed"
	"github.com/rgoulding/trackline/internal/httpapi"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/moderation"
	"github.com/rgoulding/trackline/internal/playlists"
	"github.com/rgoulding/trackline/internal/posts"
	"github.com/rgoulding/trackline/internal/profiles"
	"github.com/rgoulding/trackline/internal/tracks"
)

// App holds all application dependencies
type App struct {
	Config        *config.Config
	Logger        *logging.Logger
	Cache         cache.Cache
	FeedEngine    *feed.Engine
	FeedSessions  *feed.SessionManager
	PostSvc       *posts.Service
	TrackSvc      *tracks.Service
	PlaylistSvc   *playlists.Service
	ProfileSvc    *profiles.Service
	ModerationSvc *moderation.Service
	Publisher     events.Publisher
	HTTPServer    *httpapi.Server
	db            *database.DB
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	app.Logger = app.initLogger()
	app.Cache = app.initCache()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initPublisher()
	app.initServices()

	app.HTTPServer = httpapi.New(
		app.FeedSessions,
		app.PostSvc,
		app.TrackSvc,
		app.PlaylistSvc,
		app.ProfileSvc,
		app.ModerationSvc,
		app.Logger,
	)

	return app, nil
}

// Run starts the HTTP server and blocks until it stops
func (a *App) Run(ctx context.Context) error {
	return a.HTTPServer.Start(a.Config.Server.HTTPAddr)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	if a.FeedSessions != nil {
		a.FeedSessions.Stop()
	}

	if a.Publisher != nil {
		a.Publisher.Close()
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error("Database close error", logging.WithField("error", err.Error()))
		}
	}

	a.Logger.Sync()

	return nil
}

func (a *App) initLogger() *logging.Logger {
	level := logging.LevelInfo
	switch a.Config.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(level)
}

func (a *App) initCache() cache.Cache {
	switch a.Config.Cache.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr: a.Config.Cache.RedisAddr,
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			return cache.NewMemory(a.Config.Cache.TTL)
		}
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
		return cache.NewMemory(a.Config.Cache.TTL)
	}
}

func (a *App) initDatabase() error {
	dbConfig := database.Config{
		Host:     a.Config.Database.Host,
		Port:     a.Config.Database.Port,
		User:     a.Config.Database.User,
		Password: a.Config.Database.Password,
		Database: a.Config.Database.Database,
		SSLMode:  a.Config.Database.SSLMode,
	}
	dbConfig.MaxOpenConns = database.DefaultConfig().MaxOpenConns
	dbConfig.MaxIdleConns = database.DefaultConfig().MaxIdleConns
	dbConfig.ConnMaxLifetime = database.DefaultConfig().ConnMaxLifetime

	db, err := database.New(dbConfig)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	a.Logger.Info("Connected to PostgreSQL")
	a.db = db
	return nil
}

func (a *App) initPublisher() {
	if a.Config.Events.NATSURL == "" {
		a.Logger.Info("Event publishing disabled")
		a.Publisher = events.NoopPublisher{}
		return
	}

	pub, err := events.Connect(a.Config.Events.NATSURL, a.Logger)
	if err != nil {
		a.Logger.Error("Failed to connect to NATS, events disabled", logging.WithField("error", err.Error()))
		a.Publisher = events.NoopPublisher{}
		return
	}

	a.Logger.Info("Connected to NATS", logging.WithField("url", a.Config.Events.NATSURL))
	a.Publisher = pub
}

func (a *App) initServices() {
	contentStore := database.NewContentStore(a.db)

	a.FeedEngine = feed.New(contentStore, contentStore, a.Cache, a.Logger, feed.Options{
		PageSize:             a.Config.Feed.PageSize,
		ScopeLinearThreshold: a.Config.Feed.ScopeLinearThreshold,
		ScopeLatencyBudget:   a.Config.Feed.ScopeLatencyBudget,
		CacheTTL:             a.Config.Cache.TTL,
	})
	a.FeedSessions = feed.NewSessionManager(a.FeedEngine, a.Config.Feed.SessionIdleTTL)

	postStore := database.NewPostStore(a.db)
	trackStore := database.NewTrackStore(a.db)
	playlistStore := database.NewPlaylistStore(a.db)
	userStore := database.NewUserStore(a.db)
	moderationStore := database.NewModerationStore(a.db)

	a.PostSvc = posts.NewService(postStore, trackStore, a.Publisher, a.Logger)
	a.TrackSvc = tracks.NewService(trackStore, a.Publisher, a.Logger)
	a.PlaylistSvc = playlists.NewService(playlistStore, trackStore, a.Logger)
	a.ProfileSvc = profiles.NewService(userStore, a.Logger)
	a.ModerationSvc = moderation.NewService(moderationStore, a.Logger)
}
