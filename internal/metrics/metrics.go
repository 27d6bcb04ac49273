// Package metrics defines the Prometheus collectors for index builds, queries
// and the HTTP surface, registered on a private registry.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query operations used as label values.
const (
	OpSuggest  = "suggest"
	OpLookup   = "lookup"
	OpDescribe = "describe"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	EntitiesIngestedTotal prometheus.Counter
	EntitiesRejectedTotal prometheus.Counter
	IndexBuildsTotal      *prometheus.CounterVec
	IndexBuildDuration    prometheus.Histogram
	IndexWords            prometheus.Gauge
	IndexTokens           prometheus.Gauge
	IndexPaths            prometheus.Gauge
	QueriesTotal          *prometheus.CounterVec
	QueryLatency          *prometheus.HistogramVec
	SuggestCacheHitsTotal prometheus.Counter
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EntitiesIngestedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docsearch_entities_ingested_total",
			Help: "Total catalog entities ingested into an index.",
		}),
		EntitiesRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docsearch_entities_rejected_total",
			Help: "Total catalog entities rejected by validation.",
		}),
		IndexBuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docsearch_index_builds_total",
			Help: "Index builds by status (success, failed).",
		}, []string{"status"}),
		IndexBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docsearch_index_build_duration_seconds",
			Help:    "Time to build an index from a catalog.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		IndexWords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsearch_index_words",
			Help: "Distinct suggestion words in the active index.",
		}),
		IndexTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsearch_index_tokens",
			Help: "Distinct lookup tokens in the active index.",
		}),
		IndexPaths: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsearch_index_paths",
			Help: "Documentation paths with metadata in the active index.",
		}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docsearch_queries_total",
			Help: "Queries by operation and outcome (hit, empty).",
		}, []string{"op", "outcome"}),
		QueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docsearch_query_latency_seconds",
			Help:    "Query latency in seconds by operation.",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"op"}),
		SuggestCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docsearch_suggest_cache_hits_total",
			Help: "Suggestions served from the per-index cache.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docsearch_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docsearch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1},
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EntitiesIngestedTotal,
		m.EntitiesRejectedTotal,
		m.IndexBuildsTotal,
		m.IndexBuildDuration,
		m.IndexWords,
		m.IndexTokens,
		m.IndexPaths,
		m.QueriesTotal,
		m.QueryLatency,
		m.SuggestCacheHitsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveQuery records one query. A nil receiver is a no-op so callers can
// run without metrics.
func (m *Metrics) ObserveQuery(op string, hit bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "empty"
	if hit {
		outcome = "hit"
	}
	m.QueriesTotal.WithLabelValues(op, outcome).Inc()
	m.QueryLatency.WithLabelValues(op).Observe(seconds)
}

// ObserveIngest records the outcome of ingesting one entity.
func (m *Metrics) ObserveIngest(accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.EntitiesIngestedTotal.Inc()
		return
	}
	m.EntitiesRejectedTotal.Inc()
}

// ObserveBuild records a finished build attempt.
func (m *Metrics) ObserveBuild(success bool, seconds float64) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.IndexBuildsTotal.WithLabelValues(status).Inc()
	m.IndexBuildDuration.Observe(seconds)
}

// SetIndexSize publishes the sizes of the active index.
func (m *Metrics) SetIndexSize(words, tokens, paths int) {
	if m == nil {
		return
	}
	m.IndexWords.Set(float64(words))
	m.IndexTokens.Set(float64(tokens))
	m.IndexPaths.Set(float64(paths))
}

// ObserveSuggestCacheHit counts a suggestion served from cache.
func (m *Metrics) ObserveSuggestCacheHit() {
	if m == nil {
		return
	}
	m.SuggestCacheHitsTotal.Inc()
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}
