// Package metrics provides Prometheus metrics for the dugout split service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the dugout service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Split Metrics - macro cache behavior and rebuild cost
	macroHits      prometheus.Counter
	macroMisses    prometheus.Counter
	rebuilds       prometheus.Counter
	rebuildErrors  prometheus.Counter
	rebuildLatency prometheus.Histogram
	rebuildGames   prometheus.Histogram

	// Ingestion Metrics
	gamesAppended prometheus.Counter
	gamesRejected prometheus.Counter

	// Operational Health Metrics
	subjectsTotal prometheus.Gauge
	queueSize     prometheus.Gauge
	workerCount   prometheus.Gauge

	// Store Metrics - key/value store performance
	storeReadLatency  prometheus.Histogram
	storeWriteLatency prometheus.Histogram
	storeScanLatency  prometheus.Histogram
	macroBytes        prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics - rebuild queue performance
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueDrops       prometheus.Counter

	// Worker Metrics - rebuild worker performance
	workerActiveCount prometheus.Gauge
	workerJobLatency  prometheus.Histogram
	workerErrorRate   prometheus.Counter

	// Enhanced Error Metrics - detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dugout",
		subsystem:        "splits",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// name applies the optional metric prefix to a base metric name.
func (m *Manager) name(base string) string {
	if m.metricPrefix == "" {
		return base
	}
	return m.metricPrefix + "_" + base
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default).
	// A disabled manager still creates every collector so the record helpers
	// stay safe to call, but registers them on a throwaway registry.
	reg := m.registry
	if !m.enabled {
		reg = prometheus.NewRegistry()
	}
	auto := promauto.With(reg)
	labels := prometheus.Labels(m.customLabels)

	// Core Split Metrics - what the macro layer is doing
	m.macroHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("macro_hits_total"),
		Help:        "Total number of macro queries served from the persisted tree",
		ConstLabels: labels,
	})

	m.macroMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("macro_misses_total"),
		Help:        "Total number of macro queries that required a rebuild from raw games",
		ConstLabels: labels,
	})

	m.rebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuilds_total"),
		Help:        "Total number of macro tree rebuilds completed",
		ConstLabels: labels,
	})

	m.rebuildErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_errors_total"),
		Help:        "Total number of macro tree rebuilds that failed",
		ConstLabels: labels,
	})

	m.rebuildLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_latency_milliseconds"),
		Help:        "Histogram of macro tree rebuild latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.rebuildGames = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_games"),
		Help:        "Histogram of games folded per macro tree rebuild",
		Buckets:     []float64{1, 5, 10, 25, 50, 100, 162, 250, 500},
		ConstLabels: labels,
	})

	// Ingestion Metrics
	m.gamesAppended = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("games_appended_total"),
		Help:        "Total number of per-game records appended to raw storage",
		ConstLabels: labels,
	})

	m.gamesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("games_rejected_total"),
		Help:        "Total number of per-game records rejected before storage",
		ConstLabels: labels,
	})

	// Operational Health Metrics
	m.subjectsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("subjects_total"),
		Help:        "Number of distinct subjects with at least one persisted macro tree",
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_queue_size"),
		Help:        "Current number of rebuild jobs waiting in the queue",
		ConstLabels: labels,
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_count"),
		Help:        "Number of rebuild workers configured",
		ConstLabels: labels,
	})

	// Store Metrics - key/value store performance
	m.storeReadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_read_latency_milliseconds"),
		Help:        "Histogram of key/value read latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_write_latency_milliseconds"),
		Help:        "Histogram of key/value write latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.storeScanLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_scan_latency_milliseconds"),
		Help:        "Histogram of key/value scan latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.macroBytes = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("macro_encoded_bytes"),
		Help:        "Histogram of encoded macro tree sizes in bytes",
		Buckets:     prometheus.ExponentialBuckets(256, 4, 8),
		ConstLabels: labels,
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "Histogram of HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Queue Metrics - rebuild queue performance
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_queue_capacity"),
		Help:        "Maximum number of rebuild jobs the queue can hold",
		ConstLabels: labels,
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_queue_utilization"),
		Help:        "Rebuild queue utilization as a ratio of size to capacity",
		ConstLabels: labels,
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_queue_enqueues_total"),
		Help:        "Total number of rebuild jobs enqueued",
		ConstLabels: labels,
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_queue_dequeues_total"),
		Help:        "Total number of rebuild jobs dequeued by workers",
		ConstLabels: labels,
	})

	m.queueDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rebuild_queue_drops_total"),
		Help:        "Total number of rebuild jobs rejected because the queue was full",
		ConstLabels: labels,
	})

	// Worker Metrics - rebuild worker performance
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Number of rebuild workers currently processing a job",
		ConstLabels: labels,
	})

	m.workerJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_job_latency_milliseconds"),
		Help:        "Histogram of rebuild job processing latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Total number of rebuild jobs that failed in a worker",
		ConstLabels: labels,
	})

	// Enhanced Error Metrics - detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)
}

// Core Split Metrics Functions.

// RecordMacroHit increments the macro cache hit counter.
func RecordMacroHit() {
	globalManager.macroHits.Inc()
}

// RecordMacroMiss increments the macro cache miss counter.
func RecordMacroMiss() {
	globalManager.macroMisses.Inc()
}

// RecordRebuild increments the completed rebuilds counter.
func RecordRebuild() {
	globalManager.rebuilds.Inc()
}

// RecordRebuildError increments the failed rebuilds counter.
func RecordRebuildError() {
	globalManager.rebuildErrors.Inc()
}

// RecordRebuildLatency records rebuild latency in milliseconds.
func RecordRebuildLatency(latencyMs float64) {
	globalManager.rebuildLatency.Observe(latencyMs)
}

// RecordRebuildGames records how many games were folded in a rebuild.
func RecordRebuildGames(count int) {
	globalManager.rebuildGames.Observe(float64(count))
}

// Ingestion Metrics Functions.

// RecordGameAppended increments the appended games counter.
func RecordGameAppended() {
	globalManager.gamesAppended.Inc()
}

// RecordGameRejected increments the rejected games counter.
func RecordGameRejected() {
	globalManager.gamesRejected.Inc()
}

// Operational Health Metrics Functions.

// UpdateSubjectsTotal sets the number of subjects with persisted macros.
func UpdateSubjectsTotal(count int) {
	globalManager.subjectsTotal.Set(float64(count))
}

// UpdateQueueSize sets the current rebuild queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the configured rebuild worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// Store Metrics Functions.

// RecordStoreReadLatency records key/value read latency in milliseconds.
func RecordStoreReadLatency(latencyMs float64) {
	globalManager.storeReadLatency.Observe(latencyMs)
}

// RecordStoreWriteLatency records key/value write latency in milliseconds.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreScanLatency records key/value scan latency in milliseconds.
func RecordStoreScanLatency(latencyMs float64) {
	globalManager.storeScanLatency.Observe(latencyMs)
}

// RecordMacroBytes records the encoded size of a persisted macro tree.
func RecordMacroBytes(size int) {
	globalManager.macroBytes.Observe(float64(size))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the rebuild queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the rebuild queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueDrop increments the dropped jobs counter.
func RecordQueueDrop() {
	globalManager.queueDrops.Inc()
}

// Worker Metrics Functions.

// UpdateActiveWorkers sets the number of workers currently processing a job.
func UpdateActiveWorkers(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerJobLatency records rebuild job processing latency.
func RecordWorkerJobLatency(latencyMs float64) {
	globalManager.workerJobLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
