package bootstrap

import (
	"log"
	"net/http"

	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/metrics"
	"github.com/go-authgate/fedlink/internal/middleware"
	"github.com/go-authgate/fedlink/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionCookieName = "fedlink_session"

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	prometheusMetrics metrics.Recorder,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.IPMiddleware())

	// Setup session middleware
	setupSessionMiddleware(r, cfg, h)

	// Health check endpoint
	r.GET("/health", h.health.Check)

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup all routes
	setupAllRoutes(r, h)

	// Log server startup info
	logServerStartup(cfg)

	return r
}

// setupSessionMiddleware configures session handling, the signed-in user and CSRF
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config, h handlerSet) {
	sessionStore := session.NewCookieStore(cfg.SessionSecret, cfg.SessionEncryptKey, sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.SessionSecure || cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))
	r.Use(middleware.SessionIdleTimeout(cfg.SessionIdleTimeout))
	r.Use(middleware.LoadUser(h.userService))
	r.Use(middleware.CSRFMiddleware())
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet) {
	r.GET("/", h.auth.Home)

	// Local accounts
	r.GET("/sign-in", h.auth.SignInPage)
	r.POST("/sign-in", h.auth.SignIn)
	r.GET("/join", h.auth.JoinPage)
	r.POST("/join", h.auth.Join)
	r.GET("/sign-out", h.auth.SignOut)
	r.POST("/sign-out", h.auth.SignOut)

	// Federated sign-in
	oauthGroup := r.Group("/auth")
	{
		oauthGroup.GET("/confirm", h.confirm.ShowConfirm)
		oauthGroup.POST("/confirm", h.confirm.SubmitConfirm)
		oauthGroup.GET("/:provider", h.oauth.Authenticate)
	}

	// Protected routes (require sign-in)
	protected := r.Group("")
	protected.Use(middleware.RequireAuth(h.est))
	{
		protected.GET("/me", h.auth.Account)
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("fedlink server starting on %s", cfg.ServerAddr)
	log.Printf("Sign-in URL: %s/sign-in", cfg.BaseURL)
	if cfg.SessionIdleTimeout > 0 {
		log.Printf("Session idle timeout: %s", cfg.SessionIdleTimeout)
	}
}
