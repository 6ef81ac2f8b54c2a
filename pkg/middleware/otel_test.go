package middleware

import (
	"context"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/cellui/pkg/reactive"
	"github.com/vango-dev/cellui/pkg/rtest"
)

// recordedSpan wraps a no-op span and keeps what was recorded on it.
type recordedSpan struct {
	trace.Span
	name   string
	attrs  []attribute.KeyValue
	events []string
	status codes.Code
	ended  bool
}

func (s *recordedSpan) AddEvent(name string, _ ...trace.EventOption) { s.events = append(s.events, name) }
func (s *recordedSpan) SetStatus(code codes.Code, _ string)          { s.status = code }
func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue)       { s.attrs = append(s.attrs, kv...) }
func (s *recordedSpan) End(...trace.SpanEndOption)                   { s.ended = true }
func (s *recordedSpan) IsRecording() bool                            { return !s.ended }

type recordingTracer struct {
	trace.Tracer
	mu    sync.Mutex
	spans []*recordedSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx, base := r.Tracer.Start(ctx, name, opts...)
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordedSpan{Span: base, name: name, attrs: cfg.Attributes()}
	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()
	return trace.ContextWithSpan(ctx, span), span
}

type recordingProvider struct {
	trace.TracerProvider
	tracer *recordingTracer
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

func newRecordingProvider() *recordingProvider {
	np := noop.NewTracerProvider()
	return &recordingProvider{TracerProvider: np, tracer: &recordingTracer{Tracer: np.Tracer("test")}}
}

func hasAttr(attrs []attribute.KeyValue, key, value string) bool {
	for _, kv := range attrs {
		if string(kv.Key) == key && kv.Value.AsString() == value {
			return true
		}
	}
	return false
}

func TestTracingRecordsTurnSpans(t *testing.T) {
	p := newRecordingProvider()
	tr := NewTracing(WithTracerProvider(p), WithAttributes(attribute.String("cellui.session_id", "s1")))
	h := rtest.Mount(t, counterView, &counter{Count: reactive.NewCell(0)}, reactive.WithObserver(tr))
	h.Click("inc")

	spans := p.tracer.spans
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	mount, click := spans[0], spans[1]
	if mount.name != "cellui.mount" || click.name != "cellui.event" {
		t.Errorf("unexpected span names %q, %q", mount.name, click.name)
	}
	if !hasAttr(mount.attrs, "cellui.component", "counter") || !hasAttr(mount.attrs, "cellui.session_id", "s1") {
		t.Errorf("missing attributes on mount span: %v", mount.attrs)
	}
	if !click.ended || click.status != codes.Ok {
		t.Errorf("expected ended ok span, got ended=%v status=%v", click.ended, click.status)
	}
	if len(click.events) != 1 || click.events[0] != "flush" {
		t.Errorf("expected a flush event, got %v", click.events)
	}
}

func TestTracingRecordsPanic(t *testing.T) {
	p := newRecordingProvider()
	tr := NewTracing(WithTracerProvider(p))
	h := rtest.Mount(t, counterView, &counter{Count: reactive.NewCell(0)}, reactive.WithObserver(tr))
	h.Click("boom")

	span := p.tracer.spans[len(p.tracer.spans)-1]
	if span.status != codes.Error {
		t.Errorf("expected error status, got %v", span.status)
	}
	if len(span.events) == 0 || span.events[0] != "panic" {
		t.Errorf("expected a panic event, got %v", span.events)
	}
}

func TestTracingFilterSkipsTurns(t *testing.T) {
	p := newRecordingProvider()
	tr := NewTracing(WithTracerProvider(p), WithTurnFilter(func(kind string) bool {
		return kind != reactive.TurnMount
	}))
	h := rtest.Mount(t, counterView, &counter{Count: reactive.NewCell(0)}, reactive.WithObserver(tr))
	if len(p.tracer.spans) != 0 {
		t.Fatalf("expected mount turn to be skipped, got %d spans", len(p.tracer.spans))
	}
	h.Click("inc")
	if len(p.tracer.spans) != 1 {
		t.Errorf("expected 1 span, got %d", len(p.tracer.spans))
	}
}

func TestSpanFromContext(t *testing.T) {
	if SpanFromContext(context.Background()) != nil {
		t.Error("expected nil span for a bare context")
	}
	p := newRecordingProvider()
	ctx := NewTracing(WithTracerProvider(p)).TurnStarted(context.Background(), reactive.TurnEvent, "x")
	if SpanFromContext(ctx) == nil {
		t.Error("expected the turn span")
	}
}
