package reactive_test

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	errs "github.com/vango-dev/cellui/internal/errors"
	"github.com/vango-dev/cellui/pkg/dom"
	"github.com/vango-dev/cellui/pkg/reactive"
	"github.com/vango-dev/cellui/pkg/rtest"
)

type counter struct {
	Count *reactive.Cell[int]
	Step  *reactive.Cell[int]
}

func newCounter() *counter {
	return &counter{Count: reactive.NewCell(0), Step: reactive.NewCell(1)}
}

// counterView renders the count in a TextFunc and reports every run of that
// closure through renders.
func counterView(renders *int, onClick func(e *reactive.EventCtx[counter])) *reactive.Component[counter] {
	return &reactive.Component[counter]{
		Name: "counter",
		Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
			return reactive.Tag[counter]("div").Child(
				reactive.Tag[counter]("button").ID("inc").OnClick(onClick),
				reactive.Tag[counter]("span").ID("count").Child(
					reactive.TextFunc(func(r *reactive.RenderCtx[counter]) string {
						*renders++
						s := r.State()
						return strconv.Itoa(s.Count.Get() * s.Step.Get())
					}),
				),
			)
		},
	}
}

func TestWritesInOneTurnFlushOnce(t *testing.T) {
	renders := 0
	def := counterView(&renders, func(e *reactive.EventCtx[counter]) {
		c := e.State().Count
		c.Set(c.Peek() + 1)
		c.Set(c.Peek() + 1)
	})
	h := rtest.Mount(t, def, newCounter())

	if renders != 1 {
		t.Fatalf("expected 1 render after mount, got %d", renders)
	}
	h.Click("inc")
	if renders != 2 {
		t.Errorf("expected 1 re-render for two writes, got %d", renders-1)
	}
	h.ExpectText("count", "2")
}

func TestHookRunsOncePerFlushForSeveralCells(t *testing.T) {
	renders := 0
	def := counterView(&renders, func(e *reactive.EventCtx[counter]) {
		e.State().Count.Set(3)
		e.State().Step.Set(2)
	})
	h := rtest.Mount(t, def, newCounter())
	h.Click("inc")

	if renders != 2 {
		t.Errorf("expected 2 renders, got %d", renders)
	}
	h.ExpectText("count", "6")
}

func TestTextFastPathKeepsNode(t *testing.T) {
	renders := 0
	def := counterView(&renders, func(e *reactive.EventCtx[counter]) {
		e.State().Count.Update(func(n int) int { return n + 1 })
	})
	h := rtest.Mount(t, def, newCounter())
	before := h.Get("count").Children()[0]
	h.Click("inc")
	after := h.Get("count").Children()[0]

	if before != after {
		t.Error("expected the text node to be updated in place")
	}
	if after.Data() != "1" {
		t.Errorf("expected text 1, got %q", after.Data())
	}
}

func TestWriteOutsideTurnFlushesImmediately(t *testing.T) {
	renders := 0
	h := rtest.Mount(t, counterView(&renders, func(*reactive.EventCtx[counter]) {}), newCounter())
	h.State().Count.Set(7)
	h.ExpectText("count", "7")
	if renders != 2 {
		t.Errorf("expected 2 renders, got %d", renders)
	}
}

func TestPeekDoesNotTrack(t *testing.T) {
	renders := 0
	def := &reactive.Component[counter]{
		Name: "peek",
		Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
			return reactive.Tag[counter]("p").ID("out").Child(
				reactive.TextFunc(func(r *reactive.RenderCtx[counter]) string {
					renders++
					return strconv.Itoa(r.State().Count.Peek())
				}),
			)
		},
	}
	h := rtest.Mount(t, def, newCounter())
	h.State().Count.Set(5)
	if renders != 1 {
		t.Errorf("expected no re-render for a peeked cell, got %d renders", renders)
	}
	h.ExpectText("out", "0")
}

type threshold struct {
	Value *reactive.Cell[int]
}

func TestWatchSkipsUnchangedValue(t *testing.T) {
	outer := 0
	def := &reactive.Component[threshold]{
		Name: "threshold",
		Render: func(r *reactive.RenderCtx[threshold]) reactive.Element {
			outer++
			big := reactive.Watch(r, func(s *threshold) bool { return s.Value.Get() > 10 })
			return reactive.Tag[threshold]("p").ID("big").Text(strconv.FormatBool(big))
		},
	}
	h := rtest.Mount(t, def, &threshold{Value: reactive.NewCell(9)})

	set := func(v int) {
		h.Handle.Update(func(e *reactive.EventCtx[threshold]) { e.State().Value.Set(v) })
	}

	set(10)
	if outer != 1 {
		t.Errorf("expected no outer re-run for 9->10, got %d runs", outer)
	}
	set(11)
	if outer != 2 {
		t.Errorf("expected one outer re-run for 10->11, got %d runs", outer)
	}
	h.ExpectText("big", "true")
	set(12)
	if outer != 2 {
		t.Errorf("expected no outer re-run for 11->12, got %d runs", outer)
	}
}

func TestWatchEqCustomEquality(t *testing.T) {
	outer := 0
	def := &reactive.Component[threshold]{
		Name: "bucket",
		Render: func(r *reactive.RenderCtx[threshold]) reactive.Element {
			outer++
			v := reactive.WatchEq(r,
				func(s *threshold) []int { return []int{s.Value.Get() / 10} },
				func(a, b []int) bool { return a[0] == b[0] },
			)
			return reactive.Text(strconv.Itoa(v[0]))
		},
	}
	h := rtest.Mount(t, def, &threshold{Value: reactive.NewCell(1)})
	h.State().Value.Set(5)
	h.State().Value.Set(15)
	if outer != 2 {
		t.Errorf("expected 2 runs, got %d", outer)
	}
	h.ExpectContains("1")
}

func TestOnChangeCallback(t *testing.T) {
	var seen []int
	def := &reactive.Component[threshold]{
		Name: "change",
		Render: func(r *reactive.RenderCtx[threshold]) reactive.Element {
			reactive.OnChange(r, func(s *threshold) int { return s.Value.Get() / 10 },
				func(e *reactive.EventCtx[threshold], v int) { seen = append(seen, v) })
			return reactive.Empty()
		},
	}
	h := rtest.Mount(t, def, &threshold{Value: reactive.NewCell(0)})
	h.State().Value.Set(3)
	h.State().Value.Set(12)
	h.State().Value.Set(25)

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("expected [1 2], got %v", seen)
	}
}

func TestMountPointMissing(t *testing.T) {
	h := rtest.New[counter](t)
	_, err := reactive.Mount(h.RT, &reactive.Component[counter]{Name: "x"}, newCounter(), "nope")
	if !errors.Is(err, reactive.ErrMountPoint) {
		t.Errorf("expected ErrMountPoint, got %v", err)
	}
}

func TestMountReplacesMountPoint(t *testing.T) {
	h := rtest.Mount(t, &reactive.Component[counter]{
		Name: "static",
		Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
			return reactive.Tag[counter]("main").ID("app").Text("hi")
		},
	}, newCounter())
	if h.Exists(rtest.RootID) {
		t.Error("expected mount point to be replaced")
	}
	if got := h.HTML(); got != `<main id="app">hi</main>` {
		t.Errorf("unexpected document %s", got)
	}
}

func TestDisposeRemovesNodesAndRunsCleanups(t *testing.T) {
	var order []string
	def := &reactive.Component[counter]{
		Name: "cleanup",
		OnMount: func(e *reactive.EventCtx[counter]) {
			e.OnCleanup(func() { order = append(order, "first") })
			e.OnCleanup(func() { order = append(order, "second") })
		},
		Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
			return reactive.Tag[counter]("p").ID("p").Text("x")
		},
	}
	h := rtest.Mount(t, def, newCounter())
	h.Handle.Dispose()
	h.Handle.Dispose()

	if h.Exists("p") {
		t.Error("expected nodes to be removed")
	}
	if h.Handle.Alive() {
		t.Error("expected handle to report disposed")
	}
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("expected cleanups in reverse order once, got %v", order)
	}
}

func TestWriteInRenderPanicsInDevelopment(t *testing.T) {
	h := rtest.New[counter](t)
	def := &reactive.Component[counter]{
		Name: "bad",
		Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
			r.State().Count.Set(1)
			return reactive.Empty()
		},
	}
	_, err := reactive.Mount(h.RT, def, newCounter(), rtest.RootID)
	if !errors.Is(err, reactive.ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	perr, _ := h.RT.PanicValue().(error)
	if errs.CodeOf(perr) != errs.CodeWriteInRender {
		t.Errorf("expected %s, got %v", errs.CodeWriteInRender, h.RT.PanicValue())
	}
}

func TestWriteInRenderIgnoredInRelease(t *testing.T) {
	state := newCounter()
	def := &reactive.Component[counter]{
		Name: "bad",
		Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
			r.State().Count.Set(1)
			return reactive.Text("ok")
		},
	}
	h := rtest.Mount(t, def, state, reactive.WithMode(reactive.Release))

	if state.Count.Peek() != 0 {
		t.Errorf("expected write to be ignored, got %d", state.Count.Peek())
	}
	if !strings.Contains(h.Logs(), "Cell written during render") {
		t.Errorf("expected violation to be logged, got:\n%s", h.Logs())
	}
	if h.RT.Frozen() {
		t.Error("expected runtime to keep running")
	}
}

func TestStaleEventCtx(t *testing.T) {
	var kept *reactive.EventCtx[counter]
	renders := 0
	def := counterView(&renders, func(e *reactive.EventCtx[counter]) { kept = e })

	dev := rtest.Mount(t, def, newCounter())
	dev.Click("inc")
	v := rtest.ExpectPanic(t, func() { kept.State() })
	if err, _ := v.(error); errs.CodeOf(err) != errs.CodeStaleView {
		t.Errorf("expected %s, got %v", errs.CodeStaleView, v)
	}

	rel := rtest.Mount(t, def, newCounter(), reactive.WithMode(reactive.Release))
	rel.Click("inc")
	kept.State()
	if !strings.Contains(rel.Logs(), "Context view used after its turn") {
		t.Errorf("expected stale view to be logged, got:\n%s", rel.Logs())
	}
}

func TestPanicFreezesRuntime(t *testing.T) {
	var (
		mu       sync.Mutex
		messages []string
	)
	onPanic := func(m string) {
		mu.Lock()
		defer mu.Unlock()
		messages = append(messages, m)
	}
	clicks := 0
	renders := 0
	def := counterView(&renders, func(e *reactive.EventCtx[counter]) {
		clicks++
		e.State().Count.Set(clicks)
		if clicks == 2 {
			panic("boom")
		}
	})
	h := rtest.Mount(t, def, newCounter(), reactive.WithOnPanic(onPanic))
	h.Click("inc")
	h.ExpectText("count", "1")

	h.Click("inc")
	if !h.RT.Frozen() {
		t.Fatal("expected runtime to freeze")
	}
	h.ExpectText("count", "1")

	h.Click("inc")
	if clicks != 2 {
		t.Errorf("expected handler not to run after freeze, ran %d times", clicks)
	}
	if h.Handle.Update(func(*reactive.EventCtx[counter]) { t.Error("unexpected update") }) {
		t.Error("expected Update to report false after freeze")
	}
	if h.Handle.Deferred().Alive() {
		t.Error("expected deferred handle to report not alive")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(messages) != 1 || messages[0] != reactive.DevelopmentPanicMessage {
		t.Errorf("expected one development message, got %v", messages)
	}
	if !strings.Contains(h.Logs(), "panic in component callback") {
		t.Errorf("expected panic to be logged, got:\n%s", h.Logs())
	}
}

func TestReentrantBorrowAlwaysPanics(t *testing.T) {
	renders := 0
	def := counterView(&renders, func(e *reactive.EventCtx[counter]) {
		d := e.Deferred()
		d.Update(func(*reactive.EventCtx[counter]) {})
	})
	h := rtest.Mount(t, def, newCounter(), reactive.WithMode(reactive.Release))
	h.Click("inc")

	if !h.RT.Frozen() {
		t.Fatal("expected re-entrant borrow to panic even in release mode")
	}
	perr, _ := h.RT.PanicValue().(error)
	if errs.CodeOf(perr) != errs.CodeReentrantBorrow {
		t.Errorf("expected %s, got %v", errs.CodeReentrantBorrow, h.RT.PanicValue())
	}
}

type other struct{}

func TestForeignElementRejected(t *testing.T) {
	def := &reactive.Component[counter]{
		Name: "foreign",
		Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
			return reactive.Tag[counter]("div").ID("wrap").Child(reactive.Tag[other]("span").Text("x"))
		},
	}
	h := rtest.Mount(t, def, newCounter(), reactive.WithMode(reactive.Release))
	if got := h.Get("wrap").Children(); len(got) != 0 {
		t.Errorf("expected foreign element to be skipped, got %d children", len(got))
	}
	if !strings.Contains(h.Logs(), errs.CodeForeignElement) {
		t.Errorf("expected violation to be logged, got:\n%s", h.Logs())
	}
}

func TestDispatchRunsOnLoop(t *testing.T) {
	renders := 0
	h := rtest.Mount(t, counterView(&renders, func(*reactive.EventCtx[counter]) {}), newCounter())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := h.RT.Dispatch(func() { h.State().Count.Set(4) }); err != nil {
			t.Errorf("dispatch: %v", err)
		}
	}()
	<-done
	h.Settle()
	h.ExpectText("count", "4")

	_ = h.RT.Close()
	if err := h.RT.Dispatch(func() {}); !errors.Is(err, reactive.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestEventValueReachesHandler(t *testing.T) {
	type form struct {
		Name *reactive.Cell[string]
	}
	def := &reactive.Component[form]{
		Name: "form",
		Render: func(r *reactive.RenderCtx[form]) reactive.Element {
			return reactive.Tag[form]("div").Child(
				reactive.Tag[form]("input").ID("name").OnInput(func(e *reactive.EventCtx[form], v string) {
					e.State().Name.Set(v)
				}),
				reactive.Tag[form]("p").ID("echo").Child(reactive.TextFunc(func(r *reactive.RenderCtx[form]) string {
					return "hello " + r.State().Name.Get()
				})),
			)
		},
	}
	h := rtest.Mount(t, def, &form{Name: reactive.NewCell("")})
	h.Input("name", "ada")
	h.ExpectText("echo", "hello ada")
	h.Fire("name", dom.Event{Kind: "input", Value: "bob"})
	h.ExpectText("echo", "hello bob")
}

type deepState struct {
	In     *deepInner
	hidden *reactive.Cell[int]
	Late   *reactive.Cell[string]
}

type deepInner struct {
	N *reactive.Cell[int]
}

func TestCellsOutsideExportedFieldsStayReactive(t *testing.T) {
	def := &reactive.Component[deepState]{
		Name: "deep",
		OnMount: func(e *reactive.EventCtx[deepState]) {
			e.State().Late = reactive.NewCell("a")
		},
		Render: func(r *reactive.RenderCtx[deepState]) reactive.Element {
			return reactive.Tag[deepState]("div").Child(
				reactive.Tag[deepState]("button").ID("bump").OnClick(func(e *reactive.EventCtx[deepState]) {
					s := e.State()
					s.In.N.Update(func(n int) int { return n + 1 })
					s.hidden.Update(func(n int) int { return n + 10 })
					s.Late.Update(func(v string) string { return v + "b" })
				}),
				reactive.Tag[deepState]("span").ID("nested").Child(reactive.TextFunc(func(r *reactive.RenderCtx[deepState]) string {
					return strconv.Itoa(r.State().In.N.Get())
				})),
				reactive.Tag[deepState]("span").ID("hidden").Child(reactive.TextFunc(func(r *reactive.RenderCtx[deepState]) string {
					return strconv.Itoa(r.State().hidden.Get())
				})),
				reactive.Tag[deepState]("span").ID("late").Child(reactive.TextFunc(func(r *reactive.RenderCtx[deepState]) string {
					return r.State().Late.Get()
				})),
			)
		},
	}
	h := rtest.Mount(t, def, &deepState{In: &deepInner{N: reactive.NewCell(1)}, hidden: reactive.NewCell(0)})
	h.ExpectText("nested", "1")
	h.ExpectText("hidden", "0")
	h.ExpectText("late", "a")

	h.Click("bump")
	h.ExpectText("nested", "2")
	h.ExpectText("hidden", "10")
	h.ExpectText("late", "ab")

	h.Handle.Dispose()
	h.State().In.N.Set(5)
	if h.Exists("nested") {
		t.Error("expected disposed component to stay removed")
	}
}
