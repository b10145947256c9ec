package bootstrap

import (
	"log"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/metrics"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/pending"
	"github.com/go-authgate/fedlink/internal/services"
	"github.com/go-authgate/fedlink/internal/session"
	"github.com/go-authgate/fedlink/internal/store"

	"github.com/redis/go-redis/v9"
)

const pendingKeyPrefix = "fedlink:pending:"

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	userCache core.Cache[models.User],
	prometheusMetrics metrics.Recorder,
) (*services.UserService, *services.IdentityResolver, *services.MergeService, *session.Establisher) {
	localProvider := auth.NewLocalAuthProvider(db)

	userService := services.NewUserService(
		db,
		localProvider,
		userCache,
		cfg.UserCacheTTL,
		prometheusMetrics,
	)
	resolver := services.NewIdentityResolver(db, prometheusMetrics)
	mergeService := services.NewMergeService(db, userService, prometheusMetrics)
	establisher := session.NewEstablisher(cfg.BaseURL, prometheusMetrics)

	return userService, resolver, mergeService, establisher
}

// initializePendingCarrier selects where a federated identity waits for confirmation
func initializePendingCarrier(cfg *config.Config, redisClient *redis.Client) pending.Carrier {
	if cfg.PendingAuthStore == config.PendingAuthStoreRedis && redisClient != nil {
		return pending.NewRedisCarrier(redisClient, pendingKeyPrefix, cfg.PendingAuthTTL)
	}
	log.Println("Pending sign-in store: session cookie")
	return pending.NewSessionCarrier()
}
