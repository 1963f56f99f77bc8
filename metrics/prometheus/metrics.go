// Package prometheus provides Prometheus metrics for the synthesis chain
// and the multi-key Google client.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "speechkit"

// Status constants for metric labels.
const (
	StatusSuccess     = "success"
	StatusFailure     = "failure"
	StatusCircuitOpen = "circuit_open"
	StatusFault       = "fault"
)

var (
	// synthesisDuration is a histogram of whole-chain synthesis duration.
	synthesisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Histogram of chain synthesis duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"}, // status: success, failure
	)

	// synthesisRequestsTotal is a counter of chain synthesis requests.
	synthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Total number of chain synthesis requests",
		},
		[]string{"status"},
	)

	// providerAttemptDuration is a histogram of per-provider attempt duration.
	providerAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_attempt_duration_seconds",
			Help:      "Duration of individual provider synthesis attempts in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	// providerAttemptsTotal is a counter of provider attempts by outcome.
	providerAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Total number of provider synthesis attempts",
		},
		[]string{"provider", "status"}, // status: success, failure, fault, circuit_open
	)

	// circuitBreakerState is a gauge of breaker state per provider
	// (0 = closed, 1 = half-open, 2 = open).
	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	// apiKeysUsable is a gauge of usable (available or cooled-down) API keys.
	apiKeysUsable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_keys_usable",
			Help:      "Number of API keys currently usable by the multi-key client",
		},
		[]string{"provider"},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		synthesisDuration,
		synthesisRequestsTotal,
		providerAttemptDuration,
		providerAttemptsTotal,
		circuitBreakerState,
		apiKeysUsable,
	}
)

// RecordSynthesis records a completed chain request.
func RecordSynthesis(status string, durationSeconds float64) {
	synthesisRequestsTotal.WithLabelValues(status).Inc()
	synthesisDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordProviderAttempt records one provider attempt.
func RecordProviderAttempt(provider, status string, durationSeconds float64) {
	providerAttemptsTotal.WithLabelValues(provider, status).Inc()
	if status != StatusCircuitOpen {
		providerAttemptDuration.WithLabelValues(provider).Observe(durationSeconds)
	}
}

// SetCircuitBreakerState sets the breaker state gauge for a provider.
func SetCircuitBreakerState(provider string, state float64) {
	circuitBreakerState.WithLabelValues(provider).Set(state)
}

// SetAPIKeysUsable sets the usable-key gauge for a multi-key provider.
func SetAPIKeysUsable(provider string, n int) {
	apiKeysUsable.WithLabelValues(provider).Set(float64(n))
}
