// Package metrics provides Prometheus metrics for the tokscope service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets are milliseconds; vendor calls routinely take seconds.
var defaultLatencyBuckets = []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000} //nolint:gochecknoglobals // read-only bucket layout

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Vendor calls (apify, gemini, openai, groq, supabase, ffmpeg)
	vendorCalls   *prometheus.CounterVec
	vendorLatency *prometheus.HistogramVec

	// Domain outcomes
	videosScraped          prometheus.Counter
	videosCached           prometheus.Gauge
	analyses               *prometheus.CounterVec
	transcriptions         *prometheus.CounterVec
	transcriptionFallbacks prometheus.Counter
	cacheMirrorOps         *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Batch queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Batch worker
	batchJobs        *prometheus.CounterVec
	batchItems       *prometheus.CounterVec
	batchItemLatency prometheus.Histogram
	workerBusy       prometheus.Gauge

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics singleton

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tokscope",
		subsystem:        "api",
		histogramBuckets: defaultLatencyBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.vendorCalls = auto.NewCounterVec(
		m.counterOpts("vendor_calls_total", "Calls to external vendors by outcome"),
		[]string{"vendor", "operation", "outcome"},
	)
	m.vendorLatency = auto.NewHistogramVec(
		m.histogramOpts("vendor_call_duration_milliseconds", "Latency of external vendor calls", m.histogramBuckets),
		[]string{"vendor", "operation"},
	)

	m.videosScraped = auto.NewCounter(m.counterOpts("videos_scraped_total", "Video records returned by the scraping actor after processing"))
	m.videosCached = auto.NewGauge(m.gaugeOpts("videos_cached", "Videos currently held in the in-memory cache"))
	m.analyses = auto.NewCounterVec(
		m.counterOpts("analyses_total", "Generative analyses by kind and outcome"),
		[]string{"kind", "outcome"},
	)
	m.transcriptions = auto.NewCounterVec(
		m.counterOpts("transcriptions_total", "Transcriptions by provider and outcome"),
		[]string{"provider", "outcome"},
	)
	m.transcriptionFallbacks = auto.NewCounter(m.counterOpts("transcription_fallbacks_total", "Transcriptions served by the fallback provider"))
	m.cacheMirrorOps = auto.NewCounterVec(
		m.counterOpts("cache_mirror_operations_total", "Video cache mirror loads and saves"),
		[]string{"backend", "operation", "outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("batch_queue_size", "Batch jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("batch_queue_capacity", "Maximum batch queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("batch_queue_utilization_ratio", "Batch queue utilization ratio (size / capacity)"))
	m.queueEnqueueTotal = auto.NewCounter(m.counterOpts("batch_queue_enqueue_total", "Batch jobs enqueued"))
	m.queueDequeueTotal = auto.NewCounter(m.counterOpts("batch_queue_dequeue_total", "Batch jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("batch_queue_enqueue_errors_total", "Batch jobs rejected by the queue"))

	m.batchJobs = auto.NewCounterVec(
		m.counterOpts("batch_jobs_total", "Batch jobs by terminal status"),
		[]string{"status"},
	)
	m.batchItems = auto.NewCounterVec(
		m.counterOpts("batch_items_total", "Batch items processed by outcome"),
		[]string{"mode", "outcome"},
	)
	m.batchItemLatency = auto.NewHistogram(
		m.histogramOpts("batch_item_duration_milliseconds", "Time spent on a single batch item", m.histogramBuckets),
	)
	m.workerBusy = auto.NewGauge(m.gaugeOpts("batch_worker_busy", "1 while the batch worker is processing a job"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Vendor metrics.

// RecordVendorCall counts a vendor call and observes its latency.
func RecordVendorCall(vendor, operation string, err error, latency time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		globalManager.errorRateByComponent.WithLabelValues(vendor, operation).Inc()
		globalManager.errorLatency.WithLabelValues(vendor, operation).Observe(float64(latency.Milliseconds()))
	}
	globalManager.vendorCalls.WithLabelValues(vendor, operation, outcome).Inc()
	globalManager.vendorLatency.WithLabelValues(vendor, operation).Observe(float64(latency.Milliseconds()))
}

// Domain metrics.

// RecordVideosScraped adds n processed search results.
func RecordVideosScraped(n int) {
	globalManager.videosScraped.Add(float64(n))
}

// UpdateVideosCached sets the cached video count.
func UpdateVideosCached(n int) {
	globalManager.videosCached.Set(float64(n))
}

// RecordAnalysis counts a generative analysis by kind (video, comments, generate).
func RecordAnalysis(kind string, err error) {
	globalManager.analyses.WithLabelValues(kind, outcomeOf(err)).Inc()
}

// RecordTranscription counts a transcription attempt for provider.
func RecordTranscription(provider string, err error) {
	globalManager.transcriptions.WithLabelValues(provider, outcomeOf(err)).Inc()
}

// RecordTranscriptionFallback counts a transcript produced by the fallback provider.
func RecordTranscriptionFallback() {
	globalManager.transcriptionFallbacks.Inc()
}

// RecordCacheMirror counts a mirror load or save.
func RecordCacheMirror(backend, operation string, err error) {
	globalManager.cacheMirrorOps.WithLabelValues(backend, operation, outcomeOf(err)).Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.Inc()
	globalManager.errorRateByComponent.WithLabelValues("queue", reason).Inc()
}

// Batch metrics.

// RecordBatchJob counts a job reaching a terminal status.
func RecordBatchJob(status string) {
	globalManager.batchJobs.WithLabelValues(status).Inc()
}

// RecordBatchItem counts one processed batch item and its latency.
func RecordBatchItem(mode string, err error, latency time.Duration) {
	globalManager.batchItems.WithLabelValues(mode, outcomeOf(err)).Inc()
	globalManager.batchItemLatency.Observe(float64(latency.Milliseconds()))
}

// UpdateWorkerBusy flags whether the batch worker is running a job.
func UpdateWorkerBusy(busy bool) {
	v := 0.0
	if busy {
		v = 1
	}
	globalManager.workerBusy.Set(v)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// Process metrics.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
