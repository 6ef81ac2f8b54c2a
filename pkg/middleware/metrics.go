package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/cellui/pkg/reactive"
)

// MetricsConfig configures the Prometheus metrics observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "cellui").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for turn and flush durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "cellui",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that exports runtime activity as
// Prometheus metrics. One Metrics can observe any number of runtimes.
//
// Metrics collected:
//   - cellui_turns_total: Counter of top-level turns by kind and status
//   - cellui_turn_duration_seconds: Histogram of turn duration by kind
//   - cellui_hook_runs_total: Counter of hook re-runs by kind
//   - cellui_flush_duration_seconds: Histogram of flush pass duration
//   - cellui_messages_delivered_total: Counter of delivered messages
//   - cellui_messages_dropped_total: Counter of dropped messages by reason
//   - cellui_violations_total: Counter of contract violations by code
//   - cellui_panics_total: Counter of runtimes frozen by a panic
//   - cellui_active_sessions: Gauge of open live sessions
//   - cellui_frames_sent_total: Counter of live frames written
type Metrics struct {
	reactive.NopObserver

	turnsTotal     *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
	hookRuns       *prometheus.CounterVec
	flushDuration  prometheus.Histogram
	delivered      prometheus.Counter
	dropped        *prometheus.CounterVec
	violations     *prometheus.CounterVec
	panics         prometheus.Counter
	activeSessions prometheus.Gauge
	framesSent     prometheus.Counter
}

// defaultMetrics is shared by every NewMetrics call that targets the
// default registerer, which rejects duplicate registration.
var (
	defaultMetrics   *Metrics
	defaultMetricsMu sync.Mutex
)

// NewMetrics creates the metrics observer and registers its collectors.
//
// Example:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("myapp"))
//	rt := reactive.NewRuntime(doc, reactive.WithObserver(m))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry != prometheus.DefaultRegisterer {
		return initMetrics(config)
	}

	defaultMetricsMu.Lock()
	defer defaultMetricsMu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = initMetrics(config)
	}
	return defaultMetrics
}

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "turns_total",
			Help:        "Total number of top-level runtime turns",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "turn_duration_seconds",
			Help:        "Turn duration including the final flush, in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		hookRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_runs_total",
			Help:        "Total number of hook re-runs during flushes",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		delivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_delivered_total",
			Help:        "Total number of messages handed to a handler",
			ConstLabels: config.ConstLabels,
		}),

		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_dropped_total",
			Help:        "Total number of discarded messages by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "violations_total",
			Help:        "Total number of contract violations by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "panics_total",
			Help:        "Total number of runtimes frozen by a panic",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of open live sessions",
			ConstLabels: config.ConstLabels,
		}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of live frames written to clients",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// TurnFinished implements reactive.Observer.
func (m *Metrics) TurnFinished(_ context.Context, kind string, d time.Duration, err error) {
	m.turnDuration.WithLabelValues(kind).Observe(d.Seconds())
	m.turnsTotal.WithLabelValues(kind, turnStatus(err)).Inc()
}

// HookRan implements reactive.Observer.
func (m *Metrics) HookRan(kind string) {
	m.hookRuns.WithLabelValues(kind).Inc()
}

// Flushed implements reactive.Observer.
func (m *Metrics) Flushed(_ int, d time.Duration) {
	m.flushDuration.Observe(d.Seconds())
}

// MessageDelivered implements reactive.Observer.
func (m *Metrics) MessageDelivered() {
	m.delivered.Inc()
}

// MessageDropped implements reactive.Observer.
func (m *Metrics) MessageDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

// Violation implements reactive.Observer.
func (m *Metrics) Violation(code string) {
	m.violations.WithLabelValues(code).Inc()
}

// Panicked implements reactive.Observer.
func (m *Metrics) Panicked() {
	m.panics.Inc()
}

// SessionOpened records a new live session.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Inc()
}

// SessionClosed records a closed live session.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

// FrameSent records a frame written to a live client.
func (m *Metrics) FrameSent() {
	m.framesSent.Inc()
}

// turnStatus returns a low-cardinality status label for a turn result.
func turnStatus(err error) string {
	var pe *reactive.PanicError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &pe):
		return "panic"
	default:
		return "error"
	}
}
