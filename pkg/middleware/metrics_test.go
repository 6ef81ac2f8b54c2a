package middleware

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/cellui/pkg/reactive"
	"github.com/vango-dev/cellui/pkg/rtest"
)

type counter struct {
	Count *reactive.Cell[int]
}

var counterView = &reactive.Component[counter]{
	Name: "counter",
	Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
		return reactive.Tag[counter]("div").Child(
			reactive.Tag[counter]("button").ID("inc").OnClick(func(e *reactive.EventCtx[counter]) {
				e.State().Count.Update(func(n int) int { return n + 1 })
			}),
			reactive.Tag[counter]("button").ID("boom").OnClick(func(e *reactive.EventCtx[counter]) {
				panic("boom")
			}),
			reactive.TextFunc(func(r *reactive.RenderCtx[counter]) string {
				if r.State().Count.Get() > 0 {
					return "clicked"
				}
				return "idle"
			}),
		)
	},
}

func TestMetricsObserveTurns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	h := rtest.Mount(t, counterView, &counter{Count: reactive.NewCell(0)}, reactive.WithObserver(m))

	h.Click("inc")
	h.Click("inc")

	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues(reactive.TurnMount, "ok")); got != 1 {
		t.Errorf("turns_total(mount, ok)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues(reactive.TurnEvent, "ok")); got != 2 {
		t.Errorf("turns_total(event, ok)=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.hookRuns.WithLabelValues(reactive.HookRender)); got != 2 {
		t.Errorf("hook_runs_total(render)=%v, want 2", got)
	}
	if n := testutil.CollectAndCount(reg, "cellui_flush_duration_seconds"); n != 1 {
		t.Errorf("expected flush histogram to be registered, got %d series", n)
	}
}

func TestMetricsObservePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("app"))
	h := rtest.Mount(t, counterView, &counter{Count: reactive.NewCell(0)}, reactive.WithObserver(m))

	h.Click("boom")

	if got := testutil.ToFloat64(m.panics); got != 1 {
		t.Errorf("panics_total=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues(reactive.TurnEvent, "panic")); got != 1 {
		t.Errorf("turns_total(event, panic)=%v, want 1", got)
	}

	expected := `
# HELP app_panics_total Total number of runtimes frozen by a panic
# TYPE app_panics_total counter
app_panics_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "app_panics_total"); err != nil {
		t.Error(err)
	}
}

func TestMetricsObserveViolationsAndMessages(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	m.Violation("R001")
	m.MessageDropped(reactive.DropGone)
	m.MessageDelivered()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.FrameSent()

	if got := testutil.ToFloat64(m.violations.WithLabelValues("R001")); got != 1 {
		t.Errorf("violations_total(R001)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.dropped.WithLabelValues(reactive.DropGone)); got != 1 {
		t.Errorf("messages_dropped_total(gone)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.delivered); got != 1 {
		t.Errorf("messages_delivered_total=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Errorf("active_sessions=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.framesSent); got != 1 {
		t.Errorf("frames_sent_total=%v, want 1", got)
	}
}

func TestNewMetricsSharesDefaultRegistry(t *testing.T) {
	if NewMetrics() != NewMetrics() {
		t.Fatal("expected metrics on the default registerer to be shared")
	}
}

func TestTurnStatus(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&reactive.PanicError{Value: "x"}, "panic"},
		{reactive.ErrGone, "error"},
	}
	for _, tc := range cases {
		if got := turnStatus(tc.err); got != tc.want {
			t.Errorf("turnStatus(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
