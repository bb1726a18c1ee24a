// Package metrics exposes the tracker's Prometheus collectors. All methods
// are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	recordMutations *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheExpired    prometheus.Counter
	eventsPublished *prometheus.CounterVec
	sheetsExports   *prometheus.CounterVec
	rateLimited     prometheus.Counter
	storeDegraded   prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),

		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"route"}),

		recordMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_record_mutations_total",
			Help: "Successful record mutations by collection and operation",
		}, []string{"kind", "operation"}),

		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_view_cache_lookups_total",
			Help: "View cache lookups by collection and result",
		}, []string{"kind", "result"}),

		cacheExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "tracker_view_cache_expired_total",
			Help: "View cache entries removed by TTL sweeps",
		}),

		eventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_events_published_total",
			Help: "Record change events published, by result",
		}, []string{"result"}),

		sheetsExports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_sheets_exports_total",
			Help: "Spreadsheet exports by collection and result",
		}, []string{"kind", "result"}),

		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "tracker_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),

		storeDegraded: f.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_store_degraded",
			Help: "1 when the durable store was unavailable and the memory store is serving",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests and for registering extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RecordMutation(kind, op string) {
	if m == nil {
		return
	}
	m.recordMutations.WithLabelValues(kind, op).Inc()
}

func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) CacheExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheExpired.Add(float64(n))
}

func (m *Metrics) EventPublished(err error) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) SheetsExport(kind string, err error) {
	if m == nil {
		return
	}
	m.sheetsExports.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) SetStoreDegraded(degraded bool) {
	if m == nil {
		return
	}
	v := 0.0
	if degraded {
		v = 1
	}
	m.storeDegraded.Set(v)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
