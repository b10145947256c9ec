package metrics

import (
	"sync"

	"github.com/go-authgate/fedlink/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics interface consumed by services and handlers
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Federated Sign-in Metrics
	OAuthCallbackTotal  *prometheus.CounterVec
	ProviderAPIDuration *prometheus.HistogramVec
	ReconciliationTotal *prometheus.CounterVec
	AccountMergeTotal   *prometheus.CounterVec
	LinkedAccounts      *prometheus.GaugeVec
	UsersTotal          prometheus.Gauge

	// Authentication Metrics
	AuthAttemptsTotal  *prometheus.CounterVec
	AuthLoginTotal     *prometheus.CounterVec
	AuthLogoutTotal    prometheus.Counter
	AuthLoginDuration  *prometheus.HistogramVec
	RegistrationsTotal *prometheus.CounterVec
	SessionDuration    prometheus.Histogram

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	m := &Metrics{
		// Federated Sign-in Metrics
		OAuthCallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_oauth_callback_total",
				Help: "Total number of OAuth callback attempts",
			},
			[]string{
				"provider",
				"result",
			}, // provider: github, facebook, google, twitter; result: success, error
		),
		ProviderAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_provider_api_duration_seconds",
				Help:    "Time taken for token exchange and profile fetch against a provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		ReconciliationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_reconciliation_total",
				Help: "Total number of federated identity reconciliations by outcome",
			},
			[]string{
				"provider",
				"outcome",
			}, // outcome: update_existing, sign_in_existing, needs_confirmation, conflict, create_new
		),
		AccountMergeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_account_merge_total",
				Help: "Total number of account create/link writes",
			},
			[]string{"provider", "operation", "result"}, // operation: create, update
		),
		LinkedAccounts: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "auth_linked_accounts",
				Help: "Current number of configured provider links",
			},
			[]string{"provider"},
		),
		UsersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "auth_users",
				Help: "Current number of user accounts",
			},
		),

		// Authentication Metrics
		AuthAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"method", "result"}, // method: local, oauth; result: success, failure
		),
		AuthLoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of login attempts",
			},
			[]string{
				"auth_source",
				"result",
			}, // auth_source: local, github, facebook, google, twitter; result: success, failure
		),
		AuthLogoutTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_logout_total",
				Help: "Total number of logouts",
			},
		),
		AuthLoginDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_login_duration_seconds",
				Help:    "Time taken to complete login",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		RegistrationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registrations_total",
				Help: "Total number of local registrations",
			},
			[]string{"result"},
		),
		SessionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "session_duration_seconds",
				Help: "Duration of user sessions",
				Buckets: []float64{
					60,
					300,
					600,
					1800,
					3600,
					7200,
					14400,
					28800,
				}, // 1m, 5m, 10m, 30m, 1h, 2h, 4h, 8h
			},
		),

		// HTTP Request Metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		// Database Query Metrics
		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of user store query errors",
			},
			[]string{"operation"},
		),
	}

	return m
}
