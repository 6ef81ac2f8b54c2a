// Package reactive is a fine-grained reactive UI runtime.
//
// Component state is a plain struct whose fields are *Cell values. Render
// closures read cells through a RenderCtx; every read inside a closure is
// recorded against that closure's hook. Writing a cell marks its subscribers
// dirty, and at the end of the current turn the runtime re-runs exactly those
// hooks, replacing the document nodes each one owns. There is no virtual tree
// and no diffing.
//
// # Turns
//
// All state access happens on the runtime loop, one turn at a time. A turn is
// an event callback, a message delivery, a deferred update or a dispatched
// function. Writes within a turn coalesce into a single flush when the turn
// settles:
//
//	type Counter struct {
//	    Count *reactive.Cell[int]
//	}
//
//	var counterView = &reactive.Component[Counter]{
//	    Name: "counter",
//	    Render: func(r *reactive.RenderCtx[Counter]) reactive.Element {
//	        return reactive.Tag[Counter]("button").
//	            OnClick(func(e *reactive.EventCtx[Counter]) {
//	                e.State().Count.Update(func(n int) int { return n + 1 })
//	            }).
//	            Child(reactive.TextFunc(func(r *reactive.RenderCtx[Counter]) string {
//	                return strconv.Itoa(r.State().Count.Get())
//	            }))
//	    },
//	}
//
// # Views
//
// RenderCtx grants read access and the Watch/Guard helpers. EventCtx grants
// read-write access and is handed to event handlers, message handlers and
// deferred updates. Deferred is a weak handle that async tasks use to get back
// onto the loop; its Update reports false once the component is gone.
//
// # Failure policy
//
// Contract violations (writing in render, using a view after its turn,
// dereferencing a stale guard, sending with a stale token) panic in
// Development mode and are logged and skipped in Release mode. A panic in
// user code is recovered at the turn boundary and freezes the runtime: the
// document is left as it was and no further callbacks run.
package reactive
