// Package rtest mounts components into a detached in-memory document for
// tests.
//
//	h := rtest.Mount(t, counterView, &Counter{Count: reactive.NewCell(0)})
//	h.Click("inc")
//	h.ExpectText("count", "1")
//
// The harness runs the runtime in Development mode so contract violations
// panic, and captures the runtime's logs.
package rtest

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/cellui/pkg/dom"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// RootID is the id of the element components are mounted into.
const RootID = "rtest-root"

// SettleTimeout bounds how long Settle waits for async tasks.
var SettleTimeout = 5 * time.Second

// Harness drives one mounted root component.
type Harness[S any] struct {
	t      testing.TB
	Doc    *dom.Memory
	RT     *reactive.Runtime
	Handle *reactive.Handle[S]
	logs   *syncBuffer
}

// Mount mounts def with state into a fresh document. Options are applied
// after the harness defaults.
func Mount[S any](t testing.TB, def *reactive.Component[S], state *S, opts ...reactive.Option) *Harness[S] {
	t.Helper()
	h := New[S](t, opts...)
	handle, err := reactive.Mount(h.RT, def, state, RootID)
	if err != nil {
		t.Fatalf("mount %s: %v", def.Name, err)
	}
	h.Handle = handle
	return h
}

// New creates a harness with an empty mount point and no component, for
// tests that call reactive.Mount themselves.
func New[S any](t testing.TB, opts ...reactive.Option) *Harness[S] {
	t.Helper()
	doc := dom.NewMemory()
	root, err := doc.CreateElement("div")
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	if err := doc.SetAttribute(root, "id", RootID); err != nil {
		t.Fatalf("set root id: %v", err)
	}
	if err := doc.AppendChild(doc.Root(), root); err != nil {
		t.Fatalf("attach root: %v", err)
	}

	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	base := []reactive.Option{
		reactive.WithMode(reactive.Development),
		reactive.WithLogger(logger),
	}
	rt := reactive.NewRuntime(doc, append(base, opts...)...)
	t.Cleanup(func() { _ = rt.Close() })
	return &Harness[S]{t: t, Doc: doc, RT: rt, logs: logs}
}

// State returns the root component's state.
func (h *Harness[S]) State() *S { return h.Handle.State() }

// Get returns the attached element with the given id, failing the test if
// there is none.
func (h *Harness[S]) Get(id string) *dom.MemNode {
	h.t.Helper()
	n := h.Doc.ByID(id)
	if n == nil {
		h.t.Fatalf("no element with id %q in:\n%s", id, truncate(h.HTML(), 500))
		return nil
	}
	return n.(*dom.MemNode)
}

// Exists reports whether an element with the given id is attached.
func (h *Harness[S]) Exists(id string) bool {
	return h.Doc.ByID(id) != nil
}

// Text returns the text content of the element with the given id.
func (h *Harness[S]) Text(id string) string {
	h.t.Helper()
	return h.Get(id).TextContent()
}

// Fire dispatches ev on the element with the given id.
func (h *Harness[S]) Fire(id string, ev dom.Event) {
	h.t.Helper()
	if !h.Doc.Fire(h.Get(id), ev) {
		h.t.Fatalf("no %q listener on #%s", ev.Kind, id)
	}
}

// Click fires a click on the element with the given id.
func (h *Harness[S]) Click(id string) {
	h.t.Helper()
	h.Fire(id, dom.Event{Kind: "click"})
}

// Input fires an input event carrying value.
func (h *Harness[S]) Input(id, value string) {
	h.t.Helper()
	h.Fire(id, dom.Event{Kind: "input", Value: value})
}

// Settle runs the loop until every async task finished and every deferred
// update was applied.
func (h *Harness[S]) Settle() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), SettleTimeout)
	defer cancel()
	if err := h.RT.RunUntilIdle(ctx); err != nil {
		h.t.Fatalf("settle: %v", err)
	}
}

// HTML returns the serialized document body.
func (h *Harness[S]) HTML() string { return h.Doc.HTML() }

// Logs returns everything the runtime logged so far.
func (h *Harness[S]) Logs() string { return h.logs.String() }

// ExpectText fails the test if the element's text differs from want.
func (h *Harness[S]) ExpectText(id, want string) {
	h.t.Helper()
	if got := h.Text(id); got != want {
		h.t.Errorf("expected #%s text %q, got %q", id, want, got)
	}
}

// ExpectContains fails the test if the document does not contain s.
func (h *Harness[S]) ExpectContains(s string) {
	h.t.Helper()
	if html := h.HTML(); !strings.Contains(html, s) {
		h.t.Errorf("expected document to contain %q, got:\n%s", s, truncate(html, 500))
	}
}

// ExpectNotContains fails the test if the document contains s.
func (h *Harness[S]) ExpectNotContains(s string) {
	h.t.Helper()
	if html := h.HTML(); strings.Contains(html, s) {
		h.t.Errorf("expected document to NOT contain %q, got:\n%s", s, truncate(html, 500))
	}
}

// ExpectAttr fails the test if the element's attribute differs from want.
func (h *Harness[S]) ExpectAttr(id, name, want string) {
	h.t.Helper()
	got, ok := h.Get(id).Attr(name)
	if !ok {
		h.t.Errorf("expected #%s to have attribute %s", id, name)
		return
	}
	if got != want {
		h.t.Errorf("expected #%s %s=%q, got %q", id, name, want, got)
	}
}

// ExpectPanic runs fn and fails the test unless it panics. It returns the
// recovered value.
func ExpectPanic(t testing.TB, fn func()) (v any) {
	t.Helper()
	defer func() {
		v = recover()
		if v == nil {
			t.Errorf("expected panic")
		}
	}()
	fn()
	return nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
