// Package metrics provides Prometheus metrics for the longevity engine.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultCollectInterval = 10 * time.Second

// Calculation operations.
const (
	OpImpact         = "impact"
	OpAggregate      = "aggregate"
	OpProjection     = "projection"
	OpRecommendation = "recommendation"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace       string
	subsystem       string
	prefix          string
	constLabels     map[string]string
	latencyBuckets  []float64
	netYearsBuckets []float64
	enabled         bool
	collectInterval time.Duration
	registry        prometheus.Registerer

	// Calculation metrics
	calculations       *prometheus.CounterVec
	calculationLatency *prometheus.HistogramVec
	metricsEvaluated   prometheus.Counter

	// Memo metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheSize   prometheus.Gauge

	// Outcome metrics
	recommendations    *prometheus.CounterVec
	projectionNetYears prometheus.Histogram
	projectionConf     prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	// Error metrics
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "longevity",
		subsystem:       "engine",
		constLabels:     make(map[string]string),
		latencyBuckets:  []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		netYearsBuckets: []float64{-10, -5, -2, -1, -0.5, 0, 0.5, 1, 2, 5, 10},
		enabled:         true,
		collectInterval: defaultCollectInterval,
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.prefix == "" {
		return n
	}
	return m.prefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts(m.counterOpts(name, help))
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.calculations = auto.NewCounterVec(
		m.counterOpts("calculations_total", "Total number of engine calculations by operation"),
		[]string{"operation"},
	)
	m.calculationLatency = auto.NewHistogramVec(
		m.histogramOpts("calculation_latency_milliseconds", "Engine calculation latency in milliseconds", m.latencyBuckets),
		[]string{"operation"},
	)
	m.metricsEvaluated = auto.NewCounter(
		m.counterOpts("metrics_evaluated_total", "Total number of health metric readings evaluated"),
	)

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Impact memo hits"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Impact memo misses"))
	m.cacheSize = auto.NewGauge(m.gaugeOpts("cache_entries", "Impact memo entries"))

	m.recommendations = auto.NewCounterVec(
		m.counterOpts("recommendations_total", "Recommendations issued by metric type and tier"),
		[]string{"metric_type", "tier"},
	)
	m.projectionNetYears = auto.NewHistogram(m.histogramOpts(
		"projection_net_years", "Net lifespan change of projections in years", m.netYearsBuckets,
	))
	m.projectionConf = auto.NewHistogram(m.histogramOpts(
		"projection_confidence_ratio", "Confidence of projections",
		[]float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
	))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.rateLimited = auto.NewCounter(m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"))

	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordCalculation counts one calculation and its latency.
func (m *Manager) RecordCalculation(op string, readings int, elapsed time.Duration) {
	if !m.enabled {
		return
	}
	m.calculations.WithLabelValues(op).Inc()
	m.calculationLatency.WithLabelValues(op).Observe(float64(elapsed.Microseconds()) / 1000)
	if readings > 0 {
		m.metricsEvaluated.Add(float64(readings))
	}
}

// RecordCacheResult counts hit and miss deltas and the current size.
func (m *Manager) RecordCacheResult(hits, misses, size int64) {
	if !m.enabled {
		return
	}
	if hits > 0 {
		m.cacheHits.Add(float64(hits))
	}
	if misses > 0 {
		m.cacheMisses.Add(float64(misses))
	}
	m.cacheSize.Set(float64(size))
}

// RecordRecommendation counts an issued recommendation.
func (m *Manager) RecordRecommendation(metricType, tier string) {
	if !m.enabled {
		return
	}
	m.recommendations.WithLabelValues(metricType, tier).Inc()
}

// RecordProjection observes a projection outcome.
func (m *Manager) RecordProjection(netYears, confidence float64) {
	if !m.enabled {
		return
	}
	m.projectionNetYears.Observe(netYears)
	m.projectionConf.Observe(confidence)
}

// RecordHTTPRequest records an HTTP request and its duration in milliseconds.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a rejected request.
func (m *Manager) RecordRateLimited() {
	if m.enabled {
		m.rateLimited.Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if m.enabled {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// CollectSystem samples memory, goroutines and the latest GC pause.
func (m *Manager) CollectSystem() {
	if !m.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.Alloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		pause := ms.PauseNs[(ms.NumGC+255)%256]
		m.systemGCPauseTime.Observe(float64(pause) / float64(time.Millisecond))
	}
}

// RunSystemCollector samples system metrics every refresh interval until ctx
// is done.
func (m *Manager) RunSystemCollector(ctx context.Context) error {
	ticker := time.NewTicker(m.collectInterval)
	defer ticker.Stop()
	for {
		m.CollectSystem()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Package-level helpers delegate to the global manager.

// Default returns the global manager.
func Default() *Manager { return globalManager }

// RecordCalculation counts a calculation on the global manager.
func RecordCalculation(op string, readings int, elapsed time.Duration) {
	globalManager.RecordCalculation(op, readings, elapsed)
}

// RecordCacheResult records memo activity on the global manager.
func RecordCacheResult(hits, misses, size int64) {
	globalManager.RecordCacheResult(hits, misses, size)
}

// RecordRecommendation counts a recommendation on the global manager.
func RecordRecommendation(metricType, tier string) {
	globalManager.RecordRecommendation(metricType, tier)
}

// RecordProjection observes a projection on the global manager.
func RecordProjection(netYears, confidence float64) {
	globalManager.RecordProjection(netYears, confidence)
}

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordRateLimited counts a rate-limited request on the global manager.
func RecordRateLimited() {
	globalManager.RecordRateLimited()
}

// RecordErrorByEndpoint records an endpoint error on the global manager.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordErrorByType records a typed error on the global manager.
func RecordErrorByType(errorType, severity string) {
	globalManager.RecordErrorByType(errorType, severity)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
