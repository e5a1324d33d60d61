// Package metrics provides Prometheus metrics for the ranking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Submission pipeline
	submissionsAccepted *prometheus.CounterVec
	submissionsRejected *prometheus.CounterVec
	sessionScore        prometheus.Histogram
	aggregateUpdates    prometheus.Counter

	// Leaderboard reads
	leaderboardQueries *prometheus.CounterVec
	leaderboardLatency *prometheus.HistogramVec

	// Recomputation job
	recomputeRuns           prometheus.Counter
	recomputePlayersUpdated prometheus.Counter
	recomputePlayersFailed  prometheus.Counter

	// Storage
	storeLatency *prometheus.HistogramVec

	// Scale gauges
	totalPlayers prometheus.Gauge
	totalRecords prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager on a custom registry to avoid the default Go collectors.
var (
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton metrics registry
	globalManager  *Manager                   //nolint:gochecknoglobals // singleton metrics manager
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom latency histogram buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets a custom Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rankengine",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissionsAccepted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_accepted_total",
		Help:      "Accepted game result submissions by game type",
	}, []string{"game_type"})

	m.submissionsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_rejected_total",
		Help:      "Rejected submissions by reason",
	}, []string{"reason"})

	m.sessionScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_score",
		Help:      "Distribution of computed session ranking scores",
		Buckets:   prometheus.ExponentialBuckets(10, 2.5, 10),
	})

	m.aggregateUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregate_updates_total",
		Help:      "Successful player aggregate updates",
	})

	m.leaderboardQueries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_queries_total",
		Help:      "Leaderboard queries by kind (global, game)",
	}, []string{"kind"})

	m.leaderboardLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_query_latency_milliseconds",
		Help:      "Leaderboard query latency in milliseconds by kind",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})

	m.recomputeRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_runs_total",
		Help:      "Completed recomputation job runs",
	})

	m.recomputePlayersUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_players_updated_total",
		Help:      "Players whose composite score was rewritten by recomputation",
	})

	m.recomputePlayersFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_players_failed_total",
		Help:      "Players skipped by recomputation due to per-player failures",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_operation_latency_milliseconds",
		Help:      "Store operation latency in milliseconds by operation",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.totalPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_total",
		Help:      "Number of players tracked by the engine",
	})

	m.totalRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_records_total",
		Help:      "Number of stored score records",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Package-level helpers against the global manager.

// RecordSubmissionAccepted counts one accepted submission.
func RecordSubmissionAccepted(gameType string) {
	globalManager.submissionsAccepted.WithLabelValues(gameType).Inc()
}

// RecordSubmissionRejected counts one rejected submission by reason.
func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

// ObserveSessionScore records a computed session ranking score.
func ObserveSessionScore(score float64) {
	globalManager.sessionScore.Observe(score)
}

// RecordAggregateUpdate counts one successful aggregate update.
func RecordAggregateUpdate() {
	globalManager.aggregateUpdates.Inc()
}

// RecordLeaderboardQuery counts one leaderboard query by kind.
func RecordLeaderboardQuery(kind string) {
	globalManager.leaderboardQueries.WithLabelValues(kind).Inc()
}

// ObserveLeaderboardLatency records a leaderboard query latency sample.
func ObserveLeaderboardLatency(kind string, latencyMs float64) {
	globalManager.leaderboardLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordRecomputeRun counts a completed recomputation run and its outcome.
func RecordRecomputeRun(updated, failed int) {
	globalManager.recomputeRuns.Inc()
	globalManager.recomputePlayersUpdated.Add(float64(updated))
	globalManager.recomputePlayersFailed.Add(float64(failed))
}

// ObserveStoreLatency records a store operation latency sample.
func ObserveStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateTotalPlayers sets the tracked player count gauge.
func UpdateTotalPlayers(count int64) {
	globalManager.totalPlayers.Set(float64(count))
}

// UpdateTotalRecords sets the stored record count gauge.
func UpdateTotalRecords(count int64) {
	globalManager.totalRecords.Set(float64(count))
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request latency sample.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
