package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/fedlink/internal/auth"

	"github.com/gin-contrib/sessions"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCarrier keeps the identity in Redis under a random reference and
// stores only the reference in the session, so provider tokens never reach
// the cookie.
type RedisCarrier struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Carrier = (*RedisCarrier)(nil)

func NewRedisCarrier(client *redis.Client, prefix string, ttl time.Duration) *RedisCarrier {
	return &RedisCarrier{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCarrier) key(ref string) string {
	return r.prefix + ref
}

func (r *RedisCarrier) Stash(
	ctx context.Context,
	session sessions.Session,
	identity *auth.FederatedIdentity,
) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode pending identity: %w", err)
	}

	// Replace any earlier attempt of this session
	if old, ok := session.Get(SessionAuthRef).(string); ok && old != "" {
		_ = r.client.Del(ctx, r.key(old)).Err()
	}

	ref := uuid.New().String()
	if err := r.client.Set(ctx, r.key(ref), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store pending identity: %w", err)
	}

	session.Set(SessionAuthRef, ref)
	return session.Save()
}

func (r *RedisCarrier) Retrieve(
	ctx context.Context,
	session sessions.Session,
) (*auth.FederatedIdentity, error) {
	ref, ok := session.Get(SessionAuthRef).(string)
	if !ok || ref == "" {
		return nil, ErrNoPendingAuth
	}

	data, err := r.client.Get(ctx, r.key(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoPendingAuth
	}
	if err != nil {
		return nil, fmt.Errorf("load pending identity: %w", err)
	}
	return decodeIdentity(data)
}

func (r *RedisCarrier) Clear(ctx context.Context, session sessions.Session) error {
	if ref, ok := session.Get(SessionAuthRef).(string); ok && ref != "" {
		if err := r.client.Del(ctx, r.key(ref)).Err(); err != nil {
			return fmt.Errorf("delete pending identity: %w", err)
		}
	}
	session.Delete(SessionAuthRef)
	return session.Save()
}
