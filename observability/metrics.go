package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const unknownLabel = "unknown"

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics
)

func newModuleMetrics() *moduleMetrics {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frac",
			Subsystem: "rpc",
			Name:      name,
			Help:      help,
		}, labels)
	}
	return &moduleMetrics{
		requests:  counter("requests_total", "JSON-RPC calls by reward module, method and outcome.", "module", "method", "outcome"),
		errors:    counter("errors_total", "Failed JSON-RPC calls by reward module, method and error code.", "module", "method", "code"),
		throttles: counter("throttles_total", "Requests refused before dispatch, by reason.", "module", "reason"),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frac",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Handler latency by reward module and method.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"module", "method"}),
	}
}

// ModuleMetrics returns the process-wide JSON-RPC collectors, registering
// them on first use.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = newModuleMetrics()
		prometheus.MustRegister(moduleRegistry.requests, moduleRegistry.errors, moduleRegistry.latency, moduleRegistry.throttles)
	})
	return moduleRegistry
}

func labelOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Observe records one handled call. Code 0 is success; anything else is
// the JSON-RPC error code returned.
func (m *moduleMetrics) Observe(module, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	module, method = labelOr(module, unknownLabel), labelOr(method, unknownLabel)
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, strconv.Itoa(code)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle counts a refused request.
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(labelOr(module, unknownLabel), labelOr(reason, "unspecified")).Inc()
}
