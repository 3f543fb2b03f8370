package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sp3dr4/finch/config"
)

// PrometheusRegistry implements the Registry interface using Prometheus metrics
type PrometheusRegistry struct {
	registry *prometheus.Registry
	config   config.MetricsConfig

	// HTTP Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Cache Metrics
	cacheHitsTotal          prometheus.Counter
	staleReadsTotal         prometheus.Counter
	entriesSeededTotal      prometheus.Counter
	entriesRefreshedTotal   prometheus.Counter
	proactiveRefreshesTotal prometheus.Counter
	refreshRetriesTotal     prometheus.Counter
	refreshFailuresTotal    prometheus.Counter
	batchesDispatchedTotal  prometheus.Counter
	batchSize               prometheus.Histogram
	pendingKeys             prometheus.Gauge
}

// NewPrometheusRegistry creates a new Prometheus metrics registry
func NewPrometheusRegistry(cfg config.MetricsConfig) (Registry, error) {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatusCode},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath, LabelStatusCode},
	)

	httpRequestsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	cacheHitsTotal := newCounter(cfg, "cache_hits_total", "Accessor reads served from a fresh entry")
	staleReadsTotal := newCounter(cfg, "stale_reads_total", "Accessor reads that returned an expired URL")
	entriesSeededTotal := newCounter(cfg, "entries_seeded_total", "Entries created from a fallback URL")
	entriesRefreshedTotal := newCounter(cfg, "entries_refreshed_total", "Entries updated by a successful reissue")
	proactiveRefreshesTotal := newCounter(cfg, "proactive_refreshes_total", "Per-key refresh timers fired")
	refreshRetriesTotal := newCounter(cfg, "refresh_retries_total", "Failed keys re-queued for another attempt")
	refreshFailuresTotal := newCounter(cfg, "refresh_failures_total", "Keys rejected after exhausting retries")
	batchesDispatchedTotal := newCounter(cfg, "batches_dispatched_total", "Batch reissue calls made to the issuer")

	batchSize := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "batch_size",
			Help:      "Number of keys per batch reissue call",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		},
	)

	pendingKeys := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "pending_keys",
			Help:      "Keys currently awaiting a batch dispatch",
		},
	)

	metricsCollectors := []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,
		cacheHitsTotal,
		staleReadsTotal,
		entriesSeededTotal,
		entriesRefreshedTotal,
		proactiveRefreshesTotal,
		refreshRetriesTotal,
		refreshFailuresTotal,
		batchesDispatchedTotal,
		batchSize,
		pendingKeys,
	}

	for _, collector := range metricsCollectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	if cfg.CollectRuntime {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return &PrometheusRegistry{
		registry:                registry,
		config:                  cfg,
		httpRequestsTotal:       httpRequestsTotal,
		httpRequestDuration:     httpRequestDuration,
		httpRequestsInFlight:    httpRequestsInFlight,
		cacheHitsTotal:          cacheHitsTotal,
		staleReadsTotal:         staleReadsTotal,
		entriesSeededTotal:      entriesSeededTotal,
		entriesRefreshedTotal:   entriesRefreshedTotal,
		proactiveRefreshesTotal: proactiveRefreshesTotal,
		refreshRetriesTotal:     refreshRetriesTotal,
		refreshFailuresTotal:    refreshFailuresTotal,
		batchesDispatchedTotal:  batchesDispatchedTotal,
		batchSize:               batchSize,
		pendingKeys:             pendingKeys,
	}, nil
}

func newCounter(cfg config.MetricsConfig, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	})
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration
func (p *PrometheusRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {
	labels := prometheus.Labels{
		LabelMethod:     method,
		LabelPath:       path,
		LabelStatusCode: statusCode,
	}
	p.httpRequestsTotal.With(labels).Inc()
	p.httpRequestDuration.With(labels).Observe(duration)
}

// IncHTTPRequestsInFlight increments the in-flight HTTP requests counter
func (p *PrometheusRegistry) IncHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight HTTP requests counter
func (p *PrometheusRegistry) DecHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Dec()
}

func (p *PrometheusRegistry) CacheHit()         { p.cacheHitsTotal.Inc() }
func (p *PrometheusRegistry) StaleRead()        { p.staleReadsTotal.Inc() }
func (p *PrometheusRegistry) EntrySeeded()      { p.entriesSeededTotal.Inc() }
func (p *PrometheusRegistry) EntryRefreshed()   { p.entriesRefreshedTotal.Inc() }
func (p *PrometheusRegistry) ProactiveRefresh() { p.proactiveRefreshesTotal.Inc() }
func (p *PrometheusRegistry) RefreshRetried()   { p.refreshRetriesTotal.Inc() }
func (p *PrometheusRegistry) RefreshFailed()    { p.refreshFailuresTotal.Inc() }

func (p *PrometheusRegistry) BatchDispatched(size int) {
	p.batchesDispatchedTotal.Inc()
	p.batchSize.Observe(float64(size))
}

func (p *PrometheusRegistry) PendingKeys(count int) {
	p.pendingKeys.Set(float64(count))
}

// GetRegistry returns the underlying Prometheus registry
func (p *PrometheusRegistry) GetRegistry() *prometheus.Registry {
	return p.registry
}

// GetHandler returns an HTTP handler for the metrics endpoint
func (p *PrometheusRegistry) GetHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
