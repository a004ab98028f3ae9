package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the toolkit. A nil *Metrics or
// a disabled configuration is a valid no-op collector.
type Metrics struct {
	config MetricsConfig

	// Tool surface metrics
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec

	// Backend metrics
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	fallbacks       *prometheus.CounterVec

	// Dispatch metrics
	dispatches *prometheus.CounterVec

	// Work request tracking metrics
	workRequestPolls *prometheus.CounterVec
	workRequestWait  prometheus.Histogram

	registry *prometheus.Registry
	server   *http.Server
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool invocations",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Duration of tool invocations in seconds",
				Buckets:   buckets,
			},
			[]string{"tool"},
		),

		backendCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_calls_total",
				Help:      "Total number of execution backend calls",
			},
			[]string{"backend", "op", "outcome"},
		),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_call_duration_seconds",
				Help:      "Duration of execution backend calls in seconds",
				Buckets:   buckets,
			},
			[]string{"backend", "op"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_fallbacks_total",
				Help:      "Total number of calls served by the fallback backend",
			},
			[]string{"op"},
		),

		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Total number of lifecycle action dispatches",
			},
			[]string{"kind", "action", "outcome"},
		),

		workRequestPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "work_request_polls_total",
				Help:      "Total number of work request polls by observed status",
			},
			[]string{"status"},
		),
		workRequestWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "work_request_wait_seconds",
				Help:      "Total time spent waiting on work requests in seconds",
				Buckets:   buckets,
			},
		),
	}

	registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.backendCalls,
		m.backendDuration,
		m.fallbacks,
		m.dispatches,
		m.workRequestPolls,
		m.workRequestWait,
	)

	return m, nil
}

// enabled reports whether this collector records anything.
func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// RecordToolCall records one tool invocation.
func (m *Metrics) RecordToolCall(tool string, duration time.Duration, success bool) {
	if !m.enabled() {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordBackendCall records one execution backend call.
func (m *Metrics) RecordBackendCall(backend, op string, duration time.Duration, err error) {
	if !m.enabled() {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.backendCalls.WithLabelValues(backend, op, outcome).Inc()
	m.backendDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
}

// RecordFallback records a call served by the fallback backend.
func (m *Metrics) RecordFallback(op string) {
	if !m.enabled() {
		return
	}
	m.fallbacks.WithLabelValues(op).Inc()
}

// RecordDispatch records one lifecycle action dispatch.
func (m *Metrics) RecordDispatch(kind, action, outcome string) {
	if !m.enabled() {
		return
	}
	m.dispatches.WithLabelValues(kind, action, outcome).Inc()
}

// RecordPoll records one work request poll with its observed status.
func (m *Metrics) RecordPoll(status string) {
	if !m.enabled() {
		return
	}
	m.workRequestPolls.WithLabelValues(status).Inc()
}

// RecordWorkRequestWait records the total wait on one work request.
func (m *Metrics) RecordWorkRequestWait(duration time.Duration) {
	if !m.enabled() {
		return
	}
	m.workRequestWait.Observe(duration.Seconds())
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer() error {
	if !m.enabled() {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	m.server = &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// The metrics endpoint is best-effort; tool calls keep working.
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Shutdown stops the metrics HTTP server if one is running.
func (m *Metrics) Shutdown() error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Close()
}
