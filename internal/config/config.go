package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Pending-auth store constants
const (
	PendingAuthStoreSession = "session" // identity JSON inside the cookie session
	PendingAuthStoreRedis   = "redis"   // identity in Redis, session holds a reference
)

// User cache type constants
const (
	UserCacheTypeMemory     = "memory"
	UserCacheTypeRedis      = "redis"
	UserCacheTypeRedisAside = "redis-aside"
)

// Metrics cache type constants
const (
	MetricsCacheTypeMemory     = "memory"
	MetricsCacheTypeRedis      = "redis"
	MetricsCacheTypeRedisAside = "redis-aside"
)

// Database driver constants
const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

// ProviderConfig holds the OAuth client settings of one identity provider
type ProviderConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Configured reports whether the provider is enabled and has credentials
func (p ProviderConfig) Configured() bool {
	return p.Enabled && p.ClientID != "" && p.ClientSecret != ""
}

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Session settings
	SessionSecret      string
	SessionEncryptKey  string // AES key for the cookie; derived from SessionSecret when empty
	SessionMaxAge      int  // seconds
	SessionSecure      bool // Set the Secure flag on the session cookie
	SessionIdleTimeout time.Duration

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Seeded administrator (skipped when DefaultAdminEmail is empty)
	DefaultAdminEmail    string
	DefaultAdminPassword string // Random when empty

	// Redis (pending-auth store and user cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Pending federated sign-in
	PendingAuthStore string        // "session" or "redis"
	PendingAuthTTL   time.Duration // Lifetime of a stashed identity in Redis

	// User cache
	UserCacheType        string // "memory", "redis" or "redis-aside"
	UserCacheTTL         time.Duration
	UserCacheClientTTL   time.Duration // Client-side TTL for redis-aside
	UserCacheSizePerConn int           // MB per connection for redis-aside

	// Metrics
	MetricsEnabled bool
	MetricsToken   string // Bearer token for /metrics (optional)

	// Periodic user / linked account gauges
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration
	MetricsCacheType           string        // "memory", "redis" or "redis-aside"
	MetricsCacheClientTTL      time.Duration // Client-side TTL for redis-aside
	MetricsCacheSizePerConn    int           // MB per connection for redis-aside

	// Identity providers
	GitHub   ProviderConfig
	Facebook ProviderConfig
	Google   ProviderConfig
	Twitter  ProviderConfig

	// OAuth HTTP Client Settings
	OAuthTimeout            time.Duration // HTTP client timeout for provider requests (default: 15s)
	OAuthInsecureSkipVerify bool          // Skip TLS verification (dev/testing only, default: false)

	// Timeouts
	DBInitTimeout         time.Duration
	DBCloseTimeout        time.Duration
	RedisConnTimeout      time.Duration
	RedisCloseTimeout     time.Duration
	CacheInitTimeout      time.Duration
	CacheCloseTimeout     time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", DatabaseDriverSQLite)
	var dsn string
	if driver == DatabaseDriverSQLite {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "fedlink.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      baseURL,
		IsProduction: getEnv("ENVIRONMENT", "development") == "production",

		SessionSecret:      getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionEncryptKey:  getEnv("SESSION_ENCRYPT_KEY", ""),
		SessionMaxAge:      getEnvInt("SESSION_MAX_AGE", 86400*7),
		SessionSecure:      getEnvBool("SESSION_SECURE", false),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 0),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		DefaultAdminEmail:    strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_ADMIN_EMAIL", ""))),
		DefaultAdminPassword: strings.TrimSpace(getEnv("DEFAULT_ADMIN_PASSWORD", "")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		PendingAuthStore: getEnv("PENDING_AUTH_STORE", PendingAuthStoreSession),
		PendingAuthTTL:   getEnvDuration("PENDING_AUTH_TTL", 15*time.Minute),

		UserCacheType:        getEnv("USER_CACHE_TYPE", UserCacheTypeMemory),
		UserCacheTTL:         getEnvDuration("USER_CACHE_TTL", 5*time.Minute),
		UserCacheClientTTL:   getEnvDuration("USER_CACHE_CLIENT_TTL", 30*time.Second),
		UserCacheSizePerConn: getEnvInt("USER_CACHE_SIZE_PER_CONN", 32),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),
		MetricsCacheType:           getEnv("METRICS_CACHE_TYPE", MetricsCacheTypeMemory),
		MetricsCacheClientTTL:      getEnvDuration("METRICS_CACHE_CLIENT_TTL", 10*time.Second),
		MetricsCacheSizePerConn:    getEnvInt("METRICS_CACHE_SIZE_PER_CONN", 8),

		GitHub:   loadProvider("GITHUB", baseURL, []string{"read:user", "user:email"}),
		Facebook: loadProvider("FACEBOOK", baseURL, []string{"email"}),
		Google:   loadProvider("GOOGLE", baseURL, []string{"profile", "email"}),
		Twitter: loadProvider(
			"TWITTER",
			baseURL,
			[]string{"users.read", "tweet.read", "offline.access"},
		),

		OAuthTimeout:            getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		OAuthInsecureSkipVerify: getEnvBool("OAUTH_INSECURE_SKIP_VERIFY", false),

		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout:        getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),
		RedisConnTimeout:      getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		RedisCloseTimeout:     getEnvDuration("REDIS_CLOSE_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		CacheCloseTimeout:     getEnvDuration("CACHE_CLOSE_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// loadProvider reads <PREFIX>_OAUTH_ENABLED, _CLIENT_ID, _CLIENT_SECRET,
// _REDIRECT_URL and _SCOPES. The redirect URL defaults to the callback route.
func loadProvider(prefix, baseURL string, defaultScopes []string) ProviderConfig {
	name := strings.ToLower(prefix)
	return ProviderConfig{
		Enabled:      getEnvBool(prefix+"_OAUTH_ENABLED", false),
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURL: getEnv(
			prefix+"_REDIRECT_URL",
			strings.TrimRight(baseURL, "/")+"/auth/"+name+"?cb=1",
		),
		Scopes: getEnvSlice(prefix+"_SCOPES", defaultScopes),
	}
}

// Validate checks enumerated settings and the dependencies between them
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DatabaseDriverSQLite, DatabaseDriverPostgres:
	default:
		return fmt.Errorf(
			`invalid DATABASE_DRIVER value: %q (must be "sqlite" or "postgres")`,
			c.DatabaseDriver,
		)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}

	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	switch len(c.SessionEncryptKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf(
			"SESSION_ENCRYPT_KEY must be 16, 24 or 32 bytes long, got %d",
			len(c.SessionEncryptKey),
		)
	}

	switch c.PendingAuthStore {
	case PendingAuthStoreSession:
	case PendingAuthStoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("PENDING_AUTH_STORE=%q requires REDIS_ADDR", c.PendingAuthStore)
		}
		if c.PendingAuthTTL <= 0 {
			return errors.New("PENDING_AUTH_TTL must be a positive duration")
		}
	default:
		return fmt.Errorf(
			`invalid PENDING_AUTH_STORE value: %q (must be "session" or "redis")`,
			c.PendingAuthStore,
		)
	}

	switch c.UserCacheType {
	case UserCacheTypeMemory:
	case UserCacheTypeRedis, UserCacheTypeRedisAside:
		if c.RedisAddr == "" {
			return fmt.Errorf("USER_CACHE_TYPE=%q requires REDIS_ADDR", c.UserCacheType)
		}
	default:
		return fmt.Errorf(
			`invalid USER_CACHE_TYPE value: %q (must be "memory", "redis" or "redis-aside")`,
			c.UserCacheType,
		)
	}
	if c.UserCacheTTL <= 0 {
		return errors.New("USER_CACHE_TTL must be a positive duration")
	}
	if c.UserCacheType == UserCacheTypeRedisAside && c.UserCacheClientTTL <= 0 {
		return errors.New("USER_CACHE_CLIENT_TTL must be a positive duration")
	}

	if c.MetricsEnabled && c.MetricsGaugeUpdateEnabled {
		if c.MetricsGaugeUpdateInterval <= 0 {
			return errors.New("METRICS_GAUGE_UPDATE_INTERVAL must be a positive duration")
		}
		switch c.MetricsCacheType {
		case MetricsCacheTypeMemory:
		case MetricsCacheTypeRedis, MetricsCacheTypeRedisAside:
			if c.RedisAddr == "" {
				return fmt.Errorf("METRICS_CACHE_TYPE=%q requires REDIS_ADDR", c.MetricsCacheType)
			}
		default:
			return fmt.Errorf(
				`invalid METRICS_CACHE_TYPE value: %q (must be "memory", "redis" or "redis-aside")`,
				c.MetricsCacheType,
			)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
