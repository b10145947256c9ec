package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	metrics, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // Use route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath returns the route pattern (e.g. "/auth/:provider"),
// or "unknown" for unmatched requests
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

func successLabel(success bool, failure string) string {
	if success {
		return resultSuccess
	}
	return failure
}

// RecordOAuthCallback records the result of a provider callback
func (m *Metrics) RecordOAuthCallback(provider string, success bool) {
	m.OAuthCallbackTotal.WithLabelValues(provider, successLabel(success, resultError)).Inc()
}

// RecordProviderAPICall records token exchange plus profile fetch latency
func (m *Metrics) RecordProviderAPICall(provider string, duration time.Duration) {
	m.ProviderAPIDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordReconciliation records the resolver outcome for a federated identity
func (m *Metrics) RecordReconciliation(provider, outcome string) {
	m.ReconciliationTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordAccountMerge records an account create or link write
func (m *Metrics) RecordAccountMerge(provider, operation string, success bool) {
	m.AccountMergeTotal.WithLabelValues(provider, operation, successLabel(success, resultError)).
		Inc()
}

// RecordAuthAttempt records authentication attempt
func (m *Metrics) RecordAuthAttempt(method string, success bool, duration time.Duration) {
	m.AuthAttemptsTotal.WithLabelValues(method, successLabel(success, resultFailure)).Inc()
	m.AuthLoginDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordLogin records login attempt
func (m *Metrics) RecordLogin(authSource string, success bool) {
	m.AuthLoginTotal.WithLabelValues(authSource, successLabel(success, resultFailure)).Inc()
}

// RecordLogout records logout
func (m *Metrics) RecordLogout(sessionDuration time.Duration) {
	m.AuthLogoutTotal.Inc()
	m.SessionDuration.Observe(sessionDuration.Seconds())
}

// RecordRegistration records a local registration attempt
func (m *Metrics) RecordRegistration(success bool) {
	m.RegistrationsTotal.WithLabelValues(successLabel(success, resultFailure)).Inc()
}

// SetUsersCount sets the current number of user accounts (for periodic updates)
func (m *Metrics) SetUsersCount(count int) {
	m.UsersTotal.Set(float64(count))
}

// SetLinkedAccountsCount sets the configured link count of provider (for periodic updates)
func (m *Metrics) SetLinkedAccountsCount(provider string, count int) {
	m.LinkedAccounts.WithLabelValues(provider).Set(float64(count))
}

// RecordDatabaseQueryError records a user store query error
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
