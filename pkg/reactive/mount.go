package reactive

import (
	"fmt"
	"weak"

	errs "github.com/vango-dev/cellui/internal/errors"
	"github.com/vango-dev/cellui/pkg/dom"
)

// Handle is the owning reference to a root component.
type Handle[S any] struct {
	inst *instance[S]
}

// Mount mounts def with state into the element whose id is target,
// replacing it. It must be called on the loop goroutine.
func Mount[S any](rt *Runtime, def *Component[S], state *S, target string) (*Handle[S], error) {
	if rt.isClosed() {
		return nil, ErrClosed
	}
	if rt.refuse("Mount") {
		return nil, ErrFrozen
	}
	var (
		h   *Handle[S]
		err error
	)
	rt.turn(TurnMount, def.Name, func() {
		mp := rt.doc.ByID(target)
		if mp == nil {
			err = fmt.Errorf("%w: %q", ErrMountPoint, target)
			return
		}
		inst := newInstance(rt, def, state, nil)
		nodes := inst.mount(nil)
		if !rt.attach(mp, nodes) {
			inst.dispose()
			err = errs.New(errs.CodeMountPoint).WithOp("Mount").WithComponent(inst.name)
			return
		}
		h = &Handle[S]{inst: inst}
	})
	if rt.panics.Frozen() {
		return nil, ErrFrozen
	}
	return h, err
}

// attach replaces the mount point with the root nodes.
func (rt *Runtime) attach(mp dom.Node, nodes []dom.Node) bool {
	parent := rt.doc.Parent(mp)
	if parent == nil {
		rt.docFailed("Mount", dom.ErrDetached)
		return false
	}
	for _, n := range nodes {
		if err := rt.doc.InsertBefore(parent, n, mp); err != nil {
			rt.docFailed("InsertBefore", err)
			return false
		}
	}
	if err := rt.doc.Remove(mp); err != nil {
		rt.docFailed("Remove", err)
		return false
	}
	return true
}

// State returns the component state without tracking. Writes through it
// outside a turn flush immediately.
func (h *Handle[S]) State() *S { return h.inst.state }

// Nodes returns the top-level nodes the component currently owns.
func (h *Handle[S]) Nodes() []dom.Node {
	if h.inst.root == nil {
		return nil
	}
	return append([]dom.Node(nil), h.inst.root.nodes...)
}

// Alive reports whether the component is still mounted.
func (h *Handle[S]) Alive() bool { return !h.inst.disposed.Load() }

// Update runs fn as an event turn on the component. It must be called on
// the loop goroutine and reports false if the component is gone or the
// runtime is frozen.
func (h *Handle[S]) Update(fn func(e *EventCtx[S])) bool {
	return h.inst.handle(TurnEvent, fn)
}

// Deferred returns a weak handle to the component.
func (h *Handle[S]) Deferred() *Deferred[S] {
	return &Deferred[S]{rt: h.inst.rt, ref: weak.Make(h.inst)}
}

// Dispose removes the component's nodes from the document and unmounts it.
func (h *Handle[S]) Dispose() {
	inst := h.inst
	if inst.disposed.Load() {
		return
	}
	if inst.root != nil {
		for _, n := range inst.root.nodes {
			if err := inst.rt.doc.Remove(n); err != nil {
				inst.rt.docFailed("Remove", err)
			}
		}
	}
	inst.dispose()
}

// Sub is a child component waiting to be placed in a parent's tree. It can
// be placed once.
type Sub[C any] struct {
	def      *Component[C]
	state    *C
	bindings []func(b *builder) func(any) bool
	ref      weak.Pointer[instance[C]]
	placed   bool
}

// Child creates a child component element. The child is owned by the
// closure that renders it and is disposed when that closure re-runs.
func Child[C any](def *Component[C], state *C) *Sub[C] {
	return &Sub[C]{def: def, state: state}
}

func (s *Sub[C]) build(b *builder) []dom.Node {
	if s.placed {
		b.rt.violate(errs.New(errs.CodeSubMountedTwice).WithOp("Child").WithComponent(s.def.Name))
		return nil
	}
	s.placed = true

	inst := newInstance(b.rt, s.def, s.state, b.core)
	for _, bind := range s.bindings {
		if em := bind(b); em != nil {
			inst.emitters = append(inst.emitters, em)
		}
	}
	s.ref = weak.Make(inst)
	if b.hook != nil {
		b.hook.comps = append(b.hook.comps, &inst.core)
	}
	return inst.mount(b.hook)
}
