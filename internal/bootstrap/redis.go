package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/fedlink/internal/config"

	"github.com/redis/go-redis/v9"
)

// initializePendingRedisClient initializes the go-redis client that holds
// pending federated sign-ins. Returns nil when identities travel in the session.
func initializePendingRedisClient(
	ctx context.Context,
	cfg *config.Config,
) (*redis.Client, error) {
	if cfg.PendingAuthStore != config.PendingAuthStoreRedis {
		return nil, nil //nolint:nilnil // redis client not needed in this configuration
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.RedisConnTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf(
		"Pending sign-in store: redis (address: %s, db: %d, ttl: %s)",
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.PendingAuthTTL,
	)
	return client, nil
}
