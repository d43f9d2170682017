package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "jan"
	subsystem = "support_chat"
)

// Support chat metrics
var (
	// HTTP
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint", "status"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)

	// History cache
	HistoryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_cache_lookups_total",
			Help:      "History cache lookups by result",
		},
		[]string{"result"},
	)

	HistoryCacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_cache_errors_total",
			Help:      "History cache backend failures by operation",
		},
		[]string{"op"},
	)

	HistoryCacheAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_cache_available",
			Help:      "History cache availability (1=available, 0=unavailable)",
		},
	)

	// Conversations
	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	MessagesStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_stored_total",
			Help:      "Messages persisted by sender",
		},
		[]string{"sender"},
	)

	// Completion provider
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_calls_total",
			Help:      "Completion provider calls by outcome",
		},
		[]string{"outcome"},
	)

	ProviderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_duration_seconds",
			Help:      "Completion provider call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
)

// RecordRequest records an HTTP request.
func RecordRequest(method, endpoint, status string, seconds float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(seconds)
}

// RecordCacheLookup records a history cache lookup result (hit, miss, unavailable).
func RecordCacheLookup(result string) {
	HistoryCacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheError records a failed backend operation.
func RecordCacheError(op string) {
	HistoryCacheErrors.WithLabelValues(op).Inc()
}

// SetCacheAvailable updates the availability gauge.
func SetCacheAvailable(available bool) {
	if available {
		HistoryCacheAvailable.Set(1)
		return
	}
	HistoryCacheAvailable.Set(0)
}

// RecordMessageStored counts a persisted message.
func RecordMessageStored(sender string) {
	MessagesStoredTotal.WithLabelValues(sender).Inc()
}

// RecordProviderCall records a completion call. outcome is "ok", "empty" or a failure class.
func RecordProviderCall(outcome string, seconds float64) {
	ProviderCallsTotal.WithLabelValues(outcome).Inc()
	ProviderDuration.Observe(seconds)
}
