package core

import (
	"context"
	"time"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Federated sign-in
	RecordOAuthCallback(provider string, success bool)
	RecordProviderAPICall(provider string, duration time.Duration)
	RecordReconciliation(provider, outcome string)
	RecordAccountMerge(provider, operation string, success bool)

	// Authentication
	RecordAuthAttempt(method string, success bool, duration time.Duration)
	RecordLogin(authSource string, success bool)
	RecordLogout(sessionDuration time.Duration)
	RecordRegistration(success bool)

	// Gauges (for periodic updates)
	SetUsersCount(count int)
	SetLinkedAccountsCount(provider string, count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by CacheWrapper.
type MetricsStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CountServiceLinks(ctx context.Context, provider string) (int64, error)
}
