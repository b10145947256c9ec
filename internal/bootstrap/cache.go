package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-authgate/fedlink/internal/cache"
	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/metrics"
	"github.com/go-authgate/fedlink/internal/models"
)

// Redis key prefixes, one per cached value type
const (
	userCacheKeyPrefix    = "fedlink:users:"
	metricsCacheKeyPrefix = "fedlink:metrics:"
)

// cacheSpec describes one cache backend choice from the configuration
type cacheSpec struct {
	label       string // used in logs and errors
	backend     string // memory, redis or redis-aside
	keyPrefix   string
	clientTTL   time.Duration
	sizePerConn int
}

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	prometheusMetrics := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return prometheusMetrics
}

// newCache builds the backend named by spec. Redis backends must connect
// within cfg.CacheInitTimeout.
func newCache[T any](
	ctx context.Context,
	cfg *config.Config,
	spec cacheSpec,
) (core.Cache[T], error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	// User and metrics cache types share the same values
	switch spec.backend {
	case config.UserCacheTypeRedisAside:
		c, err := cache.NewRueidisAsideCache[T](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			spec.keyPrefix,
			spec.clientTTL,
			spec.sizePerConn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis-aside %s cache: %w", spec.label, err)
		}
		log.Printf(
			"Cache %s: redis-aside (addr=%s, db=%d, prefix=%s, client_ttl=%s, cache_size_per_conn=%dMB)",
			spec.label, cfg.RedisAddr, cfg.RedisDB, spec.keyPrefix, spec.clientTTL, spec.sizePerConn,
		)
		return c, nil

	case config.UserCacheTypeRedis:
		c, err := cache.NewRueidisCache[T](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			spec.keyPrefix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis %s cache: %w", spec.label, err)
		}
		log.Printf("Cache %s: redis (addr=%s, db=%d, prefix=%s)",
			spec.label, cfg.RedisAddr, cfg.RedisDB, spec.keyPrefix)
		return c, nil

	default:
		log.Printf("Cache %s: memory (single instance only)", spec.label)
		return cache.NewMemoryCache[T](), nil
	}
}

// initializeMetricsCache returns the cache behind the user and link count
// gauges, or nil when gauge updates are off
func initializeMetricsCache(
	ctx context.Context,
	cfg *config.Config,
) (core.Cache[int64], func() error, error) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil, nil, nil
	}

	c, err := newCache[int64](ctx, cfg, cacheSpec{
		label:       "metrics",
		backend:     cfg.MetricsCacheType,
		keyPrefix:   metricsCacheKeyPrefix,
		clientTTL:   cfg.MetricsCacheClientTTL,
		sizePerConn: cfg.MetricsCacheSizePerConn,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// initializeUserCache returns the cache LoadUser reads signed-in users from
func initializeUserCache(
	ctx context.Context,
	cfg *config.Config,
) (core.Cache[models.User], func() error, error) {
	c, err := newCache[models.User](ctx, cfg, cacheSpec{
		label:       "user",
		backend:     cfg.UserCacheType,
		keyPrefix:   userCacheKeyPrefix,
		clientTTL:   cfg.UserCacheClientTTL,
		sizePerConn: cfg.UserCacheSizePerConn,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
