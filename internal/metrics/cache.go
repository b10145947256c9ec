package metrics

import (
	"context"
	"time"

	"github.com/go-authgate/fedlink/internal/core"
)

// CacheWrapper provides a read-through cache for gauge counts, so that
// several instances do not all hit the database on every update tick.
type CacheWrapper struct {
	store core.MetricsStore
	cache core.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store core.MetricsStore, cache core.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// GetUsersCount returns the number of user accounts
func (m *CacheWrapper) GetUsersCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return m.cache.GetWithFetch(ctx, "users", ttl,
		func(ctx context.Context, _ string) (int64, error) {
			return m.store.CountUsers(ctx)
		},
	)
}

// GetLinkedAccountsCount returns the number of configured links for provider
func (m *CacheWrapper) GetLinkedAccountsCount(
	ctx context.Context,
	provider string,
	ttl time.Duration,
) (int64, error) {
	return m.cache.GetWithFetch(ctx, "links:"+provider, ttl,
		func(ctx context.Context, _ string) (int64, error) {
			return m.store.CountServiceLinks(ctx, provider)
		},
	)
}
