package reactive

import (
	"context"
	"runtime/debug"
	"weak"

	errs "github.com/vango-dev/cellui/internal/errors"
)

// Token proves that a call originates inside an active turn of a runtime.
// Tokens expire when the turn that issued them ends.
type Token struct {
	rt   *Runtime
	turn uint64
}

// Valid reports whether the token belongs to the current turn of its runtime.
// Only meaningful on the loop goroutine.
func (t Token) Valid() bool {
	return t.rt != nil && t.rt.validToken(t)
}

// RenderCtx is the read-only view handed to render, watch and attribute
// closures. It is valid only while the closure runs.
type RenderCtx[S any] struct {
	inst *instance[S]
	hook *hook
	live bool
}

func (r *RenderCtx[S]) expire() { r.live = false }

func (r *RenderCtx[S]) check(op string) bool {
	if r.live {
		return true
	}
	r.inst.rt.violate(errs.New(errs.CodeStaleView).WithOp(op).WithComponent(r.inst.name))
	return false
}

// State returns the component state. Reads through cells subscribe the
// running closure.
func (r *RenderCtx[S]) State() *S {
	r.check("RenderCtx.State")
	return r.inst.state
}

// Token returns a token for the current turn.
func (r *RenderCtx[S]) Token() Token {
	r.check("RenderCtx.Token")
	return r.inst.rt.token()
}

// EventCtx is the read-write view handed to event handlers, message
// handlers and deferred updates. It is valid only while the callback runs.
type EventCtx[S any] struct {
	inst *instance[S]
	live bool
}

func (e *EventCtx[S]) expire() { e.live = false }

func (e *EventCtx[S]) check(op string) bool {
	if e.live {
		return true
	}
	e.inst.rt.violate(errs.New(errs.CodeStaleView).WithOp(op).WithComponent(e.inst.name))
	return false
}

// State returns the component state for reading and writing.
func (e *EventCtx[S]) State() *S {
	e.check("EventCtx.State")
	return e.inst.state
}

// Token returns a token for the current turn.
func (e *EventCtx[S]) Token() Token {
	e.check("EventCtx.Token")
	return e.inst.rt.token()
}

// OnCleanup registers fn to run when the component is disposed.
func (e *EventCtx[S]) OnCleanup(fn func()) {
	if e.check("EventCtx.OnCleanup") {
		e.inst.onUnmount(fn)
	}
}

// Deferred returns a weak handle to the component that can be used from
// other goroutines. A Deferred taken from a stale view reports the
// component as gone.
func (e *EventCtx[S]) Deferred() *Deferred[S] {
	if !e.check("EventCtx.Deferred") {
		return &Deferred[S]{rt: e.inst.rt}
	}
	return &Deferred[S]{rt: e.inst.rt, ref: weak.Make(e.inst)}
}

// UseAsync starts task on a new goroutine. The task gets a context that is
// cancelled when the component is disposed or the runtime closes, and a
// Deferred handle for every access to state. A panic in the task freezes
// the runtime.
func (e *EventCtx[S]) UseAsync(task func(ctx context.Context, d *Deferred[S])) {
	if !e.check("EventCtx.UseAsync") {
		return
	}
	rt := e.inst.rt
	d := &Deferred[S]{rt: rt, ref: weak.Make(e.inst)}
	ctx := e.inst.ctx
	rt.taskStarted()
	go func() {
		defer rt.taskDone()
		defer func() {
			if r := recover(); r != nil {
				rt.freeze(r, debug.Stack())
			}
		}()
		if rt.refuse("UseAsync") {
			return
		}
		task(ctx, d)
	}()
}
