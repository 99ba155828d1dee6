// Package metrics exposes Prometheus instruments for the HTTP surface and
// the feed composition engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	composeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trackline",
			Name:      "feed_compose_duration_seconds",
			Help:      "Feed composition cycle duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"trigger", "outcome"},
	)

	staleResults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trackline",
			Name:      "feed_stale_results_total",
			Help:      "Compose results discarded because a newer action superseded them",
		},
	)

	scopeFilterDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trackline",
			Name:      "feed_scope_filter_duration_seconds",
			Help:      "Creator scope filtering duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"strategy"},
	)
)

func init() {
	prometheus.MustRegister(composeDuration)
	prometheus.MustRegister(staleResults)
	prometheus.MustRegister(scopeFilterDuration)
}

// ObserveCompose records one composition cycle
func ObserveCompose(trigger, outcome string, elapsed time.Duration) {
	composeDuration.WithLabelValues(trigger, outcome).Observe(elapsed.Seconds())
}

// StaleResultDiscarded counts a result dropped by the generation check
func StaleResultDiscarded() {
	staleResults.Inc()
}

// ObserveScopeFilter records one creator-scope filtering pass
func ObserveScopeFilter(strategy string, elapsed time.Duration) {
	scopeFilterDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}
