package middleware

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/cellui/pkg/reactive"
)

// Default tracer name for cellui runtimes.
const defaultTracerName = "cellui"

// OTelConfig configures the OpenTelemetry tracing observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "cellui").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Filter determines which turns to trace by kind.
	// Return true to trace the turn, false to skip.
	// If nil, all turns are traced.
	Filter func(kind string) bool

	// Attributes are added to every span, e.g. a session id.
	Attributes []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry tracing observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(p trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.Provider = p
	}
}

// WithTurnFilter sets a filter function for turns.
func WithTurnFilter(filter func(kind string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracing is a reactive.Observer that records one span per top-level turn.
// Flushes, dropped messages and violations that happen during the turn are
// added to the span as events.
//
// A Tracing tracks the turn in progress, so create one per runtime.
//
// Example:
//
//	rt := reactive.NewRuntime(doc, reactive.WithObserver(
//	    middleware.NewTracing(
//	        middleware.WithTracerName("my-app"),
//	        middleware.WithAttributes(attribute.String("cellui.session_id", id)),
//	    ),
//	))
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// set with WithTracerProvider. Configure it in main() before starting:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracing struct {
	reactive.NopObserver

	config OTelConfig
	tracer trace.Tracer

	mu      sync.Mutex
	current trace.Span
}

// NewTracing creates the tracing observer.
func NewTracing(opts ...OTelOption) *Tracing {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracing{
		config: config,
		tracer: provider.Tracer(config.TracerName),
	}
}

// TurnStarted implements reactive.Observer.
func (t *Tracing) TurnStarted(ctx context.Context, kind, component string) context.Context {
	if t.config.Filter != nil && !t.config.Filter(kind) {
		return ctx
	}
	attrs := append([]attribute.KeyValue{
		attribute.String("cellui.turn_kind", kind),
	}, t.config.Attributes...)
	if component != "" {
		attrs = append(attrs, attribute.String("cellui.component", component))
	}

	spanCtx, span := t.tracer.Start(ctx, "cellui."+kind,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	t.mu.Lock()
	t.current = span
	t.mu.Unlock()
	return spanCtx
}

// TurnFinished implements reactive.Observer.
func (t *Tracing) TurnFinished(ctx context.Context, _ string, d time.Duration, err error) {
	t.mu.Lock()
	span := t.current
	t.current = nil
	t.mu.Unlock()
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.Int64("cellui.turn_duration_us", d.Microseconds()))
	span.End()
}

// Flushed implements reactive.Observer.
func (t *Tracing) Flushed(hooks int, d time.Duration) {
	t.event("flush",
		attribute.Int("cellui.hooks", hooks),
		attribute.Int64("cellui.flush_duration_us", d.Microseconds()),
	)
}

// MessageDropped implements reactive.Observer.
func (t *Tracing) MessageDropped(reason string) {
	t.event("message.dropped", attribute.String("cellui.reason", reason))
}

// Violation implements reactive.Observer.
func (t *Tracing) Violation(code string) {
	t.event("violation", attribute.String("cellui.code", code))
}

// Panicked implements reactive.Observer.
func (t *Tracing) Panicked() {
	t.event("panic")
}

func (t *Tracing) event(name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		t.current.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// SpanFromContext retrieves the turn span from a context returned by
// TurnStarted. Returns nil if the context carries no recording span.
func SpanFromContext(ctx context.Context) trace.Span {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() && !span.IsRecording() {
		return nil
	}
	return span
}
