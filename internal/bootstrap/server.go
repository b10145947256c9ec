package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/metrics"
	"github.com/go-authgate/fedlink/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// closeWithTimeout runs closer and gives up after timeout
func closeWithTimeout(closer func() error, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- closer() }()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("close timed out after %s", timeout)
	}
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(
	m *graceful.Manager,
	redisClient *redis.Client,
	timeout time.Duration,
) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing Redis connection...")
		if err := closeWithTimeout(redisClient.Close, timeout); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		log.Println("Redis connection closed")
		return nil
	})
}

// addDatabaseShutdownJob closes the database connection pool
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := db.Close(ctx); err != nil {
			log.Printf("Error closing database: %v", err)
			return err
		}
		log.Println("Database connection closed")
		return nil
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db core.MetricsStore,
	prometheusMetrics metrics.Recorder,
	metricsCache core.Cache[int64],
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || metricsCache == nil {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		cacheWrapper := metrics.NewCacheWrapper(db, metricsCache)

		// Update immediately on startup
		updateGaugeMetricsWithCache(
			ctx,
			cacheWrapper,
			prometheusMetrics,
			cfg.MetricsGaugeUpdateInterval,
		)

		for {
			select {
			case <-ticker.C:
				updateGaugeMetricsWithCache(
					ctx,
					cacheWrapper,
					prometheusMetrics,
					cfg.MetricsGaugeUpdateInterval,
				)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCacheCleanupJob closes a cache on shutdown
func addCacheCleanupJob(
	m *graceful.Manager,
	name string,
	closer func() error,
	timeout time.Duration,
) {
	if closer == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := closeWithTimeout(closer, timeout); err != nil {
			log.Printf("Error closing %s: %v", name, err)
		} else {
			log.Printf("%s closed", name)
		}
		return nil
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger() *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // Log at most once per 5 minutes per operation
	}
}

// logIfNeeded logs an error only if rate limit allows
func (e *errorLogger) logIfNeeded(operation string, err error) {
	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]

	if !exists || now.Sub(lastTime) >= e.rateLimitWindow {
		log.Printf("Database query failed for %s: %v (further errors will be suppressed for %v)",
			operation, err, e.rateLimitWindow)
		e.lastErrorTimes[operation] = now
	}
}

var gaugeErrorLogger = newErrorLogger()

// updateGaugeMetricsWithCache refreshes the account gauges. The cache TTL
// matches the update interval so instances share one query per tick.
func updateGaugeMetricsWithCache(
	ctx context.Context,
	cacheWrapper *metrics.CacheWrapper,
	m metrics.Recorder,
	cacheTTL time.Duration,
) {
	users, err := cacheWrapper.GetUsersCount(ctx, cacheTTL)
	if err != nil {
		m.RecordDatabaseQueryError("count_users")
		gaugeErrorLogger.logIfNeeded("count_users", err)
	} else {
		m.SetUsersCount(int(users))
	}

	for _, p := range auth.Providers {
		provider := string(p)
		operation := "count_links_" + provider

		links, err := cacheWrapper.GetLinkedAccountsCount(ctx, provider, cacheTTL)
		if err != nil {
			m.RecordDatabaseQueryError(operation)
			gaugeErrorLogger.logIfNeeded(operation, err)
			continue
		}
		m.SetLinkedAccountsCount(provider, int(links))
	}
}
