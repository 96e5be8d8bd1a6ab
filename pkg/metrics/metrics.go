// Package metrics registers the service's Prometheus collectors and exposes
// them over HTTP.
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

// Metrics owns a private registry and the collectors recorded by domain systems.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	// Assignments counts product-to-PUC links written, by method code.
	Assignments *prometheus.CounterVec
	// Recomputes counts products whose uberpuc was recomputed.
	Recomputes prometheus.Counter
	// RuleMatches counts products matched by a classification rule.
	RuleMatches prometheus.Counter
	// QASampled counts extracted texts placed into QA groups.
	QASampled prometheus.Counter
	// QAApprovals counts approved extracted texts.
	QAApprovals prometheus.Counter
	// CacheLookups counts PUC tree cache lookups by result (hit or miss).
	CacheLookups *prometheus.CounterVec
}

// New creates the collectors under namespace in a fresh registry, along with
// the Go runtime and process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Assignments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifications",
			Name:      "assignments_total",
			Help:      "Product to PUC links written, by classification method.",
		}, []string{"method"}),
		Recomputes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifications",
			Name:      "uberpuc_recomputes_total",
			Help:      "Products whose uberpuc flag was recomputed.",
		}),
		RuleMatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "matches_total",
			Help:      "Products matched by a classification rule.",
		}),
		QASampled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qa",
			Name:      "sampled_texts_total",
			Help:      "Extracted texts placed into QA groups.",
		}),
		QAApprovals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qa",
			Name:      "approvals_total",
			Help:      "Extracted texts approved by a reviewer.",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pucs",
			Name:      "tree_cache_lookups_total",
			Help:      "PUC tree cache lookups by result.",
		}, []string{"result"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency. Routes are labeled with the
// ServeMux pattern so path parameters do not explode label cardinality.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}

			m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
