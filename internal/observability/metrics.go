package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics registers and records Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec

	validationsTotal   *prometheus.CounterVec
	suggestionSearches prometheus.Counter
	suggestionsFound   prometheus.Histogram
	schedulesCommitted prometheus.Counter
	commitsRejected    prometheus.Counter
}

// NewMetrics builds a Metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capacity",
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, labeled by path, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "capacity",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capacity",
			Name:      "http_errors_total",
			Help:      "Request errors, labeled by path, method and error code.",
		}, []string{"path", "method", "code"}),
		validationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capacity",
			Name:      "validations_total",
			Help:      "Capacity validation outcomes (valid, warning, error).",
		}, []string{"outcome"}),
		suggestionSearches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "capacity",
			Name:      "suggestion_searches_total",
			Help:      "Alternative suggestion searches performed.",
		}),
		suggestionsFound: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "capacity",
			Name:      "suggestions_found",
			Help:      "Suggestions returned per search across both lists.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		schedulesCommitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "capacity",
			Name:      "schedules_committed_total",
			Help:      "Job schedules committed through the write path.",
		}),
		commitsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "capacity",
			Name:      "commits_rejected_total",
			Help:      "Schedule commits rejected because capacity would be exceeded.",
		}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments request counters.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(path, method, code).Inc()
}

// RecordValidation records a validation outcome: "valid", "warning" or "error".
func (m *Metrics) RecordValidation(outcome string) {
	if m == nil {
		return
	}
	m.validationsTotal.WithLabelValues(outcome).Inc()
}

// RecordSuggestionSearch records one suggestion search and its yield.
func (m *Metrics) RecordSuggestionSearch(total int) {
	if m == nil {
		return
	}
	m.suggestionSearches.Inc()
	m.suggestionsFound.Observe(float64(total))
}

// RecordScheduleCommitted counts a successful commit.
func (m *Metrics) RecordScheduleCommitted() {
	if m == nil {
		return
	}
	m.schedulesCommitted.Inc()
}

// RecordCommitRejected counts a commit turned away at the capacity check.
func (m *Metrics) RecordCommitRejected() {
	if m == nil {
		return
	}
	m.commitsRejected.Inc()
}
