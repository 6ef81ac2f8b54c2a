package reactive

// Watch runs fn in a tracking scope of its own and returns the result. The
// closure that called Watch does not subscribe to fn's reads; it re-runs
// only when a change to one of them makes fn return a different value.
func Watch[S any, T comparable](r *RenderCtx[S], fn func(s *S) T) T {
	return WatchEq(r, fn, func(a, b T) bool { return a == b })
}

// WatchEq is Watch with a custom equality.
func WatchEq[S, T any](r *RenderCtx[S], fn func(s *S) T, eq func(a, b T) bool) T {
	if !r.check("Watch") {
		return fn(r.inst.state)
	}
	inst := r.inst
	rt := inst.rt
	w := rt.newHook(HookWatch, &inst.core, r.hook)

	var last T
	rt.scoped(w, func() { last = fn(inst.state) })
	w.update = func() action {
		w.clearDeps()
		var next T
		rt.scoped(w, func() { next = fn(inst.state) })
		if eq(last, next) {
			return actionNone
		}
		last = next
		return actionRunParent
	}
	return last
}

// OnChange calls cb with an EventCtx each time the value selected by sel
// changes. The closure that called OnChange does not subscribe to sel's
// reads. Callbacks run after the flush that observed the change, as part of
// the same turn.
func OnChange[S any, T comparable](r *RenderCtx[S], sel func(s *S) T, cb func(e *EventCtx[S], v T)) {
	if !r.check("OnChange") {
		return
	}
	inst := r.inst
	rt := inst.rt
	h := rt.newHook(HookChange, &inst.core, r.hook)

	var last T
	rt.scoped(h, func() { last = sel(inst.state) })
	h.update = func() action {
		h.clearDeps()
		var next T
		rt.scoped(h, func() { next = sel(inst.state) })
		if next == last {
			return actionNone
		}
		last = next
		rt.callbacks = append(rt.callbacks, func() {
			if !h.dropped {
				inst.handle(TurnEvent, func(e *EventCtx[S]) { cb(e, next) })
			}
		})
		return actionNone
	}
}
