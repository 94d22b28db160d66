// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesdeck_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"server", "method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdeck_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"server", "method", "path", "status"},
	)

	// DeckGenerationsTotal counts deck generation attempts by outcome.
	DeckGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdeck_deck_generations_total",
			Help: "Deck generation attempts",
		},
		[]string{"status"},
	)

	// LLMDuration tracks LLM completion duration.
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesdeck_llm_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdeck_llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// FetchAllDuration tracks the dashboard fan-out refetch.
	FetchAllDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salesdeck_dashboard_fetch_all_seconds",
			Help:    "Duration of the four-collection dashboard refetch",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FetchAllFailures counts refetches that left stale data in place.
	FetchAllFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salesdeck_dashboard_fetch_all_failures_total",
			Help: "Dashboard refetches that failed",
		},
	)

	// DashboardStatesActive tracks live per-browser dashboard states.
	DashboardStatesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salesdeck_dashboard_states_active",
			Help: "Number of live per-browser dashboard states",
		},
	)

	// ResourcesCreatedTotal tracks records created per collection.
	ResourcesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdeck_resources_created_total",
			Help: "Records created per collection",
		},
		[]string{"collection"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(server, method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(server, method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(server, method, path, status).Inc()
}

// RecordLLM records metrics for one LLM completion.
func RecordLLM(provider, status string, duration float64, tokensIn, tokensOut int) {
	LLMDuration.WithLabelValues(provider, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}

// RecordGeneration records one deck generation outcome.
func RecordGeneration(status string) {
	DeckGenerationsTotal.WithLabelValues(status).Inc()
}

// RecordFetchAll records one dashboard refetch.
func RecordFetchAll(duration float64, failed bool) {
	FetchAllDuration.Observe(duration)
	if failed {
		FetchAllFailures.Inc()
	}
}
