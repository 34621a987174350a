package authgate

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint8

const (
	// MetricSignInSuccess counts completed password sign-ins.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure counts rejected password sign-ins.
	MetricSignInFailure
	// MetricTwoFactorRequired counts sign-ins answered with a step-up token.
	MetricTwoFactorRequired
	// MetricTwoFactorSuccess counts completed second-factor sign-ins.
	MetricTwoFactorSuccess
	// MetricTwoFactorFailure counts rejected second-factor completions.
	MetricTwoFactorFailure
	// MetricTokenValidated counts tokens accepted by Validate.
	MetricTokenValidated
	// MetricTokenRejected counts tokens rejected by Validate.
	MetricTokenRejected
	// MetricSessionIssued counts standard session tokens issued.
	MetricSessionIssued
	// MetricSessionRevoked counts single-session sign-outs.
	MetricSessionRevoked
	// MetricSignOutAll counts whole-list revocations.
	MetricSignOutAll
	// MetricTOTPEnrolled counts fresh TOTP secret enrollments.
	MetricTOTPEnrolled
	// MetricTOTPConfirmed counts successful enable confirmations.
	MetricTOTPConfirmed
	// MetricResetRequested counts persisted reset-code requests.
	MetricResetRequested
	// MetricResetConfirmed counts successful password resets.
	MetricResetConfirmed
	// MetricResetFailed counts rejected reset confirmations.
	MetricResetFailed

	metricIDCount
)

// Metrics holds atomic counters for engine events. A nil or disabled
// Metrics is a no-op on every method.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a [Metrics] instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns the current value of one counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters [metricIDCount]uint64
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var snap MetricsSnapshot
	if m == nil || !m.enabled {
		return snap
	}
	for i := range m.counters {
		snap.Counters[i] = m.counters[i].Load()
	}
	return snap
}
