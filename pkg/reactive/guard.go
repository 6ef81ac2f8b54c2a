package reactive

import errs "github.com/vango-dev/cellui/internal/errors"

// Guard is an accessor for a value whose existence was established by a
// watch in an enclosing closure. While the enclosing closure's condition
// holds, every hook below it can dereference the guard; when the condition
// flips, the enclosing closure re-runs and drops those hooks first.
//
// Render closures dereference a guard with Get or Lookup. Watch and guard
// closures, which receive the state directly, use Of or Value.
type Guard[S, T any] struct {
	get  func(s *S) (T, bool)
	rt   *Runtime
	comp string
}

func newGuard[S, T any](r *RenderCtx[S], get func(s *S) (T, bool)) Guard[S, T] {
	return Guard[S, T]{get: get, rt: r.inst.rt, comp: r.inst.name}
}

// Get returns the guarded value. Dereferencing a guard whose value is gone
// is a contract violation: it panics in Development mode and returns the
// zero value in Release mode.
func (g Guard[S, T]) Get(r *RenderCtx[S]) T {
	return g.must(r.State(), "Guard.Get")
}

// Lookup returns the guarded value and whether it is still present.
func (g Guard[S, T]) Lookup(r *RenderCtx[S]) (T, bool) {
	return g.Value(r.State())
}

// Of is Get for closures that receive the state instead of a RenderCtx.
func (g Guard[S, T]) Of(s *S) T {
	return g.must(s, "Guard.Of")
}

// Value is Lookup for closures that receive the state instead of a
// RenderCtx.
func (g Guard[S, T]) Value(s *S) (T, bool) {
	if g.get == nil {
		var zero T
		return zero, false
	}
	return g.get(s)
}

func (g Guard[S, T]) must(s *S, op string) T {
	v, ok := g.Value(s)
	if !ok && g.rt != nil {
		g.rt.violate(errs.New(errs.CodeGuardOutOfScope).WithOp(op).WithComponent(g.comp))
	}
	return v
}

// GuardOption watches whether fn reports a value. When it does, it returns a
// guard that re-evaluates fn and unwraps it. The calling closure re-runs
// only when presence flips, not when the value behind it changes.
func GuardOption[S, T any](r *RenderCtx[S], fn func(s *S) (T, bool)) (Guard[S, T], bool) {
	present := Watch(r, func(s *S) bool {
		_, ok := fn(s)
		return ok
	})
	if !present {
		return newGuard[S, T](r, nil), false
	}
	return newGuard(r, fn), true
}

// GuardResult watches whether fn succeeds. Exactly one of the returned
// guards is usable: the value guard when ok is true, the error guard
// otherwise.
func GuardResult[S, T any](r *RenderCtx[S], fn func(s *S) (T, error)) (val Guard[S, T], errGuard Guard[S, error], ok bool) {
	ok = Watch(r, func(s *S) bool {
		_, err := fn(s)
		return err == nil
	})
	val = newGuard[S, T](r, nil)
	errGuard = newGuard[S, error](r, nil)
	if ok {
		val = newGuard(r, func(s *S) (T, bool) {
			v, err := fn(s)
			return v, err == nil
		})
		return val, errGuard, true
	}
	errGuard = newGuard(r, func(s *S) (error, bool) {
		_, err := fn(s)
		return err, err != nil
	})
	return val, errGuard, false
}
