package bootstrap

import (
	"net/http"
	"time"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/handlers"
	"github.com/go-authgate/fedlink/internal/metrics"
	"github.com/go-authgate/fedlink/internal/pending"
	"github.com/go-authgate/fedlink/internal/services"
	"github.com/go-authgate/fedlink/internal/session"
)

const healthCheckTimeout = 3 * time.Second

// handlerSet holds all HTTP handlers and required services
type handlerSet struct {
	auth        *handlers.AuthHandler
	oauth       *handlers.OAuthHandler
	confirm     *handlers.ConfirmHandler
	health      *handlers.HealthHandler
	userService *services.UserService
	est         *session.Establisher
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	db handlers.HealthChecker,
	userService *services.UserService,
	resolver *services.IdentityResolver,
	mergeService *services.MergeService,
	est *session.Establisher,
	carrier pending.Carrier,
	oauthProviders map[auth.ProviderType]*auth.OAuthProvider,
	oauthHTTPClient *http.Client,
	prometheusMetrics metrics.Recorder,
) handlerSet {
	oauthHandler := handlers.NewOAuthHandler(
		oauthProviders,
		carrier,
		oauthHTTPClient,
		prometheusMetrics,
	)

	return handlerSet{
		auth:        handlers.NewAuthHandler(userService, est, oauthHandler.Providers()),
		oauth:       oauthHandler,
		confirm:     handlers.NewConfirmHandler(carrier, resolver, mergeService, est),
		health:      handlers.NewHealthHandler(db, healthCheckTimeout),
		userService: userService,
		est:         est,
	}
}
