// Package metrics defines the Prometheus instruments reviewapp exports in
// serve mode. One-shot CLI runs record into a private registry that is
// never scraped.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the instruments. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	invocations  *prometheus.CounterVec
	stepFailures *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New registers the instruments on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		invocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewapp_invocations_total",
				Help: "Total number of deploy and stop invocations",
			},
			[]string{"operation", "status"},
		),
		stepFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewapp_step_failures_total",
				Help: "Total number of failed invocation steps, fatal or soft",
			},
			[]string{"step"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reviewapp_invocation_duration_seconds",
				Help:    "Invocation duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1.7 minutes
			},
			[]string{"operation"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewapp_http_requests_total",
				Help: "Total number of serve-mode HTTP requests",
			},
			[]string{"route", "code"},
		),
	}
}

// Registry returns the registry to expose on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveInvocation records a finished invocation.
func (m *Metrics) ObserveInvocation(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// StepFailed records a failed step.
func (m *Metrics) StepFailed(step string) {
	if m == nil {
		return
	}
	m.stepFailures.WithLabelValues(step).Inc()
}

// HTTPRequest records a served request.
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
