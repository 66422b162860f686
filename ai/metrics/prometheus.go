// Package metrics provides Prometheus metrics export for the decision engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "contextsense"
	subsystem = "engine"
)

// PrometheusExporter exports engine metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Decision metrics
	decisions       *prometheus.CounterVec
	decisionLatency *prometheus.HistogramVec
	urgency         prometheus.Histogram

	// Call metrics
	callTransitions *prometheus.CounterVec

	// Learn loop
	learnSignals *prometheus.CounterVec

	// Collaborator metrics
	fallbacks     *prometheus.CounterVec
	remoteCalls   *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "decisions_total",
			Help:      "Total number of engine decisions",
		},
		[]string{"operation", "strategy", "outcome"},
	)

	e.decisionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "decision_latency_seconds",
			Help:      "Engine decision latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"operation", "strategy"},
	)

	e.urgency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "urgency",
			Help:      "Urgency of analysed stimuli",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	e.callTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "call_transitions_total",
			Help:      "Total number of call state transitions",
		},
		[]string{"from", "to"},
	)

	e.learnSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "learn_signals_total",
			Help:      "Learn signals by outcome",
		},
		[]string{"outcome"},
	)

	e.fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fallbacks_total",
			Help:      "Collaborator results replaced by conservative defaults",
		},
		[]string{"collaborator", "reason"},
	)

	e.remoteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remote_calls_total",
			Help:      "Total number of remote model calls",
		},
		[]string{"model", "status"},
	)

	e.remoteLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remote_latency_seconds",
			Help:      "Remote model call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model"},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	registry.MustRegister(
		e.decisions,
		e.decisionLatency,
		e.urgency,
		e.callTransitions,
		e.learnSignals,
		e.fallbacks,
		e.remoteCalls,
		e.remoteLatency,
		e.cacheHits,
		e.cacheMisses,
	)

	return e
}

// RecordDecision records one facade operation.
func (e *PrometheusExporter) RecordDecision(operation, strategy, outcome string, latency time.Duration) {
	e.decisions.WithLabelValues(operation, strategy, outcome).Inc()
	e.decisionLatency.WithLabelValues(operation, strategy).Observe(latency.Seconds())
}

// ObserveUrgency records the urgency of an analysed stimulus.
func (e *PrometheusExporter) ObserveUrgency(urgency float64) {
	e.urgency.Observe(urgency)
}

// RecordCallTransition records a call state change.
func (e *PrometheusExporter) RecordCallTransition(from, to string) {
	e.callTransitions.WithLabelValues(from, to).Inc()
}

// RecordLearnSignal records a learn signal outcome.
func (e *PrometheusExporter) RecordLearnSignal(outcome string) {
	e.learnSignals.WithLabelValues(outcome).Inc()
}

// RecordFallback records a collaborator default.
func (e *PrometheusExporter) RecordFallback(collaborator, reason string) {
	e.fallbacks.WithLabelValues(collaborator, reason).Inc()
}

// RecordRemoteCall records a remote model call.
func (e *PrometheusExporter) RecordRemoteCall(model string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.remoteCalls.WithLabelValues(model, status).Inc()
	e.remoteLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// Registry returns the Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

var _ Recorder = (*PrometheusExporter)(nil)
