// Package metrics holds the Prometheus collectors for the approval workflow
// and the HTTP surface. Every method is nil-safe so callers can run without
// metrics configured.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ptw"

// Approval outcomes.
const (
	OutcomeApproved        = "approved"
	OutcomeAlreadyApproved = "already_approved"
	OutcomeForbidden       = "forbidden"
	OutcomeNotFound        = "not_found"
	OutcomeError           = "error"
)

type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	approvals         *prometheus.CounterVec
	denials           *prometheus.CounterVec
	workStatusChanges *prometheus.CounterVec
	resetRuns         *prometheus.CounterVec
	resetPermits      *prometheus.CounterVec
	resetDuration     prometheus.Histogram
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_total",
			Help:      "Approval attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_denials_total",
			Help:      "Refused requests by action and internal reason.",
		}, []string{"action", "reason"}),
		workStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_status_changes_total",
			Help:      "Work status transitions by target day status.",
		}, []string{"status_dag"}),
		resetRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_reset_runs_total",
			Help:      "Daily reset sweeps by trigger source and result.",
		}, []string{"source", "result"}),
		resetPermits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_reset_permits_total",
			Help:      "Permits touched by the daily reset, by result.",
		}, []string{"result"}),
		resetDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "daily_reset_duration_seconds",
			Help:      "Wall time of one daily reset sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.approvals,
		m.denials,
		m.workStatusChanges,
		m.resetRuns,
		m.resetPermits,
		m.resetDuration,
		m.requestsTotal,
		m.requestDuration,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ApprovalAttempt(role, outcome string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(role, outcome).Inc()
}

func (m *Metrics) AuthorizationDenied(action, reason string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(action, reason).Inc()
}

func (m *Metrics) WorkStatusChanged(statusDag string) {
	if m == nil {
		return
	}
	m.workStatusChanges.WithLabelValues(statusDag).Inc()
}

// ResetCompleted records one sweep. result is "ok" when no write failed.
func (m *Metrics) ResetCompleted(source string, reset, failed int, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if failed > 0 {
		result = "partial"
	}
	m.resetRuns.WithLabelValues(source, result).Inc()
	m.resetPermits.WithLabelValues("reset").Add(float64(reset))
	m.resetPermits.WithLabelValues("failed").Add(float64(failed))
	m.resetDuration.Observe(took.Seconds())
}

func (m *Metrics) ResetFailed(source string) {
	if m == nil {
		return
	}
	m.resetRuns.WithLabelValues(source, "error").Inc()
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
