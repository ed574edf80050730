// Package metrics exposes link and HTTP counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tinylink"

// unmatchedRoute labels requests the mux did not route, keeping label
// cardinality independent of client input.
const unmatchedRoute = "unmatched"

// Metrics owns a private registry and every collector registered on it.
// It is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	linksCreated   *prometheus.CounterVec
	codeCollisions prometheus.Counter
	resolutions    *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New builds the collectors. Process and Go runtime collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		linksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Links created, by code origin.",
		}, []string{"mode"}),
		codeCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Generated codes discarded because they were already taken.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Redirect lookups, by outcome.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.linksCreated,
		m.codeCollisions,
		m.resolutions,
		m.httpDuration,
	)

	return m
}

// LinkCreated counts a stored link.
func (m *Metrics) LinkCreated(custom bool) {
	mode := "generated"
	if custom {
		mode = "custom"
	}
	m.linksCreated.WithLabelValues(mode).Inc()
}

// CodeCollision counts a generated code that had to be re-sampled.
func (m *Metrics) CodeCollision() {
	m.codeCollisions.Inc()
}

// LinkResolved counts a redirect lookup.
func (m *Metrics) LinkResolved(outcome string) {
	m.resolutions.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request. It matches httpx.ObserveFunc.
func (m *Metrics) ObserveHTTP(r *http.Request, status int, d time.Duration) {
	route := r.Pattern
	if route == "" {
		route = unmatchedRoute
	}
	m.httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
