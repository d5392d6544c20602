// Package metrics provides Prometheus metrics for the streetpass service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Record ingestion
	recordsNormalized *prometheus.CounterVec
	recordsDropped    *prometheus.CounterVec
	snapshotFetches   *prometheus.CounterVec
	snapshotErrors    *prometheus.CounterVec
	snapshotLatency   *prometheus.HistogramVec

	// Derivations
	derivationLatency *prometheus.HistogramVec
	derivationFailed  *prometheus.CounterVec
	encountersEmitted prometheus.Counter
	onlineCount       prometheus.Gauge

	// Geocoding
	geocodeCache    *prometheus.CounterVec
	geocodeLookups  *prometheus.CounterVec
	geocodeLatency  prometheus.Histogram
	geocodeEntries  prometheus.Gauge
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueRejections prometheus.Counter
	workerCount     prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "streetpass",
		subsystem:        "engine",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.recordsNormalized = m.counterVec("records_normalized_total", "Records that normalized to a usable timestamp", "dataset")
	m.recordsDropped = m.counterVec("records_dropped_total", "Records dropped because their timestamp could not be resolved", "dataset")
	m.snapshotFetches = m.counterVec("snapshot_fetches_total", "Snapshot fetches issued to the record store", "dataset")
	m.snapshotErrors = m.counterVec("snapshot_fetch_errors_total", "Snapshot fetches that failed", "dataset")
	m.snapshotLatency = m.histogramVec("snapshot_fetch_latency_milliseconds", "Snapshot fetch latency in milliseconds", "dataset")

	m.derivationLatency = m.histogramVec("derivation_latency_milliseconds", "Derivation latency in milliseconds, fetch included", "kind")
	m.derivationFailed = m.counterVec("derivation_unavailable_total", "Derivations that could not run because an input fetch failed", "kind")
	m.encountersEmitted = m.counter("encounters_emitted_total", "Encounter events emitted across derivation runs")
	m.onlineCount = m.gauge("online_presences", "Online presences at the last liveness derivation")

	m.geocodeCache = m.counterVec("geocode_cache_total", "Place cache lookups by outcome", "outcome")
	m.geocodeLookups = m.counterVec("geocode_lookups_total", "Upstream reverse-geocoding calls by outcome", "outcome")
	m.geocodeLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "geocode_latency_milliseconds",
		Help:        "Upstream reverse-geocoding latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
	m.geocodeEntries = m.gauge("geocode_cache_entries", "Entries currently held by the place cache")
	m.queueSize = m.gauge("lookup_queue_size", "Pending reverse-geocoding lookups")
	m.queueCapacity = m.gauge("lookup_queue_capacity", "Capacity of the reverse-geocoding lookup queue")
	m.queueRejections = m.counter("lookup_queue_rejections_total", "Lookups rejected because the queue was full or closed")
	m.workerCount = m.gauge("lookup_worker_count", "Reverse-geocoding workers running")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint, error type and severity", "endpoint", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordNormalized adds n normalized records for dataset.
func RecordNormalized(dataset string, n int) {
	globalManager.recordsNormalized.WithLabelValues(dataset).Add(float64(n))
}

// RecordDropped adds n dropped records for dataset.
func RecordDropped(dataset string, n int) {
	globalManager.recordsDropped.WithLabelValues(dataset).Add(float64(n))
}

// RecordSnapshotFetch records one fetch and its latency.
func RecordSnapshotFetch(dataset string, latencyMs float64) {
	globalManager.snapshotFetches.WithLabelValues(dataset).Inc()
	globalManager.snapshotLatency.WithLabelValues(dataset).Observe(latencyMs)
}

// RecordSnapshotError increments failed fetches for dataset.
func RecordSnapshotError(dataset string) {
	globalManager.snapshotErrors.WithLabelValues(dataset).Inc()
}

// RecordDerivationLatency observes the latency of one derivation kind.
func RecordDerivationLatency(kind string, latencyMs float64) {
	globalManager.derivationLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordDerivationUnavailable increments unavailable derivations of kind.
func RecordDerivationUnavailable(kind string) {
	globalManager.derivationFailed.WithLabelValues(kind).Inc()
}

// RecordEncounters adds n emitted encounter events.
func RecordEncounters(n int) {
	globalManager.encountersEmitted.Add(float64(n))
}

// UpdateOnlineCount sets the online presence gauge.
func UpdateOnlineCount(n int) {
	globalManager.onlineCount.Set(float64(n))
}

// RecordGeocodeCache counts a cache lookup outcome: hit, negative, miss, inflight.
func RecordGeocodeCache(outcome string) {
	globalManager.geocodeCache.WithLabelValues(outcome).Inc()
}

// RecordGeocodeLookup counts an upstream call outcome and its latency.
func RecordGeocodeLookup(outcome string, latencyMs float64) {
	globalManager.geocodeLookups.WithLabelValues(outcome).Inc()
	globalManager.geocodeLatency.Observe(latencyMs)
}

// UpdateGeocodeEntries sets the place cache size gauge.
func UpdateGeocodeEntries(n int) {
	globalManager.geocodeEntries.Set(float64(n))
}

// UpdateQueueSize sets the lookup queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the lookup queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejection counts a rejected lookup.
func RecordQueueRejection() {
	globalManager.queueRejections.Inc()
}

// UpdateWorkerCount sets the number of lookup workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType, severity).Inc()
}

// UpdateSystemMemoryUsage updates the system memory usage metric.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count metric.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
