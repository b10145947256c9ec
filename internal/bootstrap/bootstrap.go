package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/metrics"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/pending"
	"github.com/go-authgate/fedlink/internal/services"
	"github.com/go-authgate/fedlink/internal/session"
	"github.com/go-authgate/fedlink/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                 *store.Store
	MetricsRecorder    metrics.Recorder
	MetricsCache       core.Cache[int64]
	MetricsCacheCloser func() error
	UserCache          core.Cache[models.User]
	UserCacheCloser    func() error
	PendingRedisClient *redis.Client

	// Services
	UserService      *services.UserService
	IdentityResolver *services.IdentityResolver
	MergeService     *services.MergeService
	Establisher      *session.Establisher
	PendingCarrier   pending.Carrier

	// HTTP
	OAuthProviders map[auth.ProviderType]*auth.OAuthProvider
	HandlerSet     handlerSet
	Router         *gin.Engine
	Server         *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	ctx := context.Background()
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	validateAllConfiguration(cfg)

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, caches, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, app.MetricsCacheCloser, err = initializeMetricsCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// User cache
	app.UserCache, app.UserCacheCloser, err = initializeUserCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// Redis (for pending federated sign-ins)
	app.PendingRedisClient, err = initializePendingRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.UserService,
		app.IdentityResolver,
		app.MergeService,
		app.Establisher = initializeServices(
		app.Config,
		app.DB,
		app.UserCache,
		app.MetricsRecorder,
	)
	app.PendingCarrier = initializePendingCarrier(app.Config, app.PendingRedisClient)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	// OAuth setup
	app.OAuthProviders = initializeOAuthProviders(app.Config)
	logOAuthProvidersStatus(app.OAuthProviders)
	oauthHTTPClient, err := createOAuthHTTPClient(app.Config)
	if err != nil {
		return err
	}

	// Handlers
	app.HandlerSet = initializeHandlers(
		app.DB,
		app.UserService,
		app.IdentityResolver,
		app.MergeService,
		app.Establisher,
		app.PendingCarrier,
		app.OAuthProviders,
		oauthHTTPClient,
		app.MetricsRecorder,
	)

	// Router
	app.Router = setupRouter(app.Config, app.HandlerSet, app.MetricsRecorder)

	// HTTP Server
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server, app.Config.ServerShutdownTimeout)
	addRedisClientShutdownJob(m, app.PendingRedisClient, app.Config.RedisCloseTimeout)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addCacheCleanupJob(m, "Metrics cache", app.MetricsCacheCloser, app.Config.CacheCloseTimeout)
	addCacheCleanupJob(m, "User cache", app.UserCacheCloser, app.Config.CacheCloseTimeout)
	addDatabaseShutdownJob(m, app.DB, app.Config.DBCloseTimeout)

	// Wait for graceful shutdown
	<-m.Done()
}
