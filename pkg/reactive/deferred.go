package reactive

import (
	"weak"

	errs "github.com/vango-dev/cellui/internal/errors"
)

// Deferred is a non-owning handle to a component, safe to hold across
// blocking calls and to use from any goroutine. It never keeps the
// component alive.
type Deferred[S any] struct {
	rt  *Runtime
	ref weak.Pointer[instance[S]]
}

// Alive reports whether the component is still mounted and the runtime can
// still run callbacks. A true result can be stale by the time Update runs.
func (d *Deferred[S]) Alive() bool {
	if d.rt.panics.Frozen() || d.rt.isClosed() {
		return false
	}
	inst := d.ref.Value()
	return inst != nil && !inst.disposed.Load()
}

// Update runs fn on the loop goroutine with exclusive access to the
// component, then flushes. It blocks until fn has run and reports false,
// without running fn, when the component is gone or the runtime is frozen
// or closed.
//
// The EventCtx passed to fn expires when fn returns. Calling Update from the
// loop goroutine while the same component is already borrowed panics.
func (d *Deferred[S]) Update(fn func(e *EventCtx[S])) bool {
	rt := d.rt
	if rt.refuse("Deferred.Update") || rt.isClosed() {
		return false
	}
	inst := d.ref.Value()
	if inst == nil || inst.disposed.Load() {
		return false
	}

	if goroutineID() == rt.loopGID.Load() {
		if inst.borrowed {
			rt.fatal(errs.New(errs.CodeReentrantBorrow).WithOp("Deferred.Update").WithComponent(inst.name))
		}
		return d.apply(fn)
	}

	done := make(chan bool, 1)
	req := func() { done <- d.apply(fn) }
	select {
	case rt.inbox <- req:
	case <-rt.closed:
		return false
	}
	select {
	case ok := <-done:
		return ok
	case <-rt.closed:
		return false
	}
}

// apply runs on the loop and re-checks liveness: the component may have
// been disposed while the request was queued.
func (d *Deferred[S]) apply(fn func(e *EventCtx[S])) bool {
	inst := d.ref.Value()
	if inst == nil || inst.disposed.Load() {
		return false
	}
	return inst.handle(TurnDeferred, fn)
}

// LookupDeferred reads a projection of the state through d. A gone
// component and an absent value produce the same (zero, false) result.
func LookupDeferred[S, T any](d *Deferred[S], fn func(s *S) (T, bool)) (T, bool) {
	var (
		v  T
		ok bool
	)
	if !d.Update(func(e *EventCtx[S]) { v, ok = fn(e.State()) }) {
		var zero T
		return zero, false
	}
	return v, ok
}
