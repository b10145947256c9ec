package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-authgate/fedlink/internal/core"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

var _ core.Cache[struct{}] = (*MemoryCache[struct{}])(nil)

// MemoryCache keeps values in process memory with lazy expiration.
// Use it for single-instance deployments.
type MemoryCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
}

// NewMemoryCache creates an empty memory cache.
func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{entries: make(map[string]entry[T])}
}

func (m *MemoryCache[T]) Get(_ context.Context, key string) (T, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		var zero T
		return zero, ErrCacheMiss
	}
	return e.value, nil
}

func (m *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = entry[T]{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close drops every entry.
func (m *MemoryCache[T]) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]entry[T])
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[T]) Health(context.Context) error {
	return nil
}

// GetWithFetch returns the cached value or calls fetchFunc and caches its result.
// Concurrent misses for the same key may each call fetchFunc.
func (m *MemoryCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	if value, err := m.Get(ctx, key); err == nil {
		return value, nil
	}
	value, err := fetchFunc(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = m.Set(ctx, key, value, ttl)
	return value, nil
}
