package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

// Federated sign-in
func (n *NoopMetrics) RecordOAuthCallback(provider string, success bool)             {}
func (n *NoopMetrics) RecordProviderAPICall(provider string, duration time.Duration) {}
func (n *NoopMetrics) RecordReconciliation(provider, outcome string)                 {}
func (n *NoopMetrics) RecordAccountMerge(provider, operation string, success bool)   {}

// Authentication
func (n *NoopMetrics) RecordAuthAttempt(method string, success bool, duration time.Duration) {}
func (n *NoopMetrics) RecordLogin(authSource string, success bool)                           {}
func (n *NoopMetrics) RecordLogout(sessionDuration time.Duration)                            {}
func (n *NoopMetrics) RecordRegistration(success bool)                                       {}

// Gauges
func (n *NoopMetrics) SetUsersCount(count int)                           {}
func (n *NoopMetrics) SetLinkedAccountsCount(provider string, count int) {}

// Database
func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}
