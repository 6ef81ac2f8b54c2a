package reactive

import (
	"context"
	"sync/atomic"

	errs "github.com/vango-dev/cellui/internal/errors"
	"github.com/vango-dev/cellui/pkg/dom"
)

// Component defines a component over state type S.
type Component[S any] struct {
	// Name identifies the component in logs and metrics.
	Name string

	// Render produces the component's root element. It runs as the root
	// render hook: cells it reads re-render the whole component, so put
	// fine-grained reads in Dynamic, TextFunc and AttrFunc closures.
	Render func(r *RenderCtx[S]) Element

	// OnMount runs once before the first render.
	OnMount func(e *EventCtx[S])

	// Receive handles messages sent by the parent through a Sender.
	Receive func(e *EventCtx[S], msg any)
}

// core is the state-type independent part of a mounted component.
type core struct {
	id    uint64
	name  string
	depth int
	rt    *Runtime

	root  *hook
	cells []Tracked

	pending hookHeap
	dirty   bool

	inbox      []func()
	mailQueued bool

	// emitters are the parent handlers bound with OnEmit.
	emitters []func(msg any) bool

	cleanups []func()
	borrowed bool
	disposed atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// instance is a mounted component with state of type S.
type instance[S any] struct {
	core
	state *S
	def   *Component[S]
}

func newInstance[S any](rt *Runtime, def *Component[S], state *S, parent *core) *instance[S] {
	i := &instance[S]{state: state, def: def}
	i.id = nextID()
	i.name = def.Name
	if i.name == "" {
		i.name = "component"
	}
	i.rt = rt
	var base context.Context = rt.base
	if parent != nil {
		i.depth = parent.depth + 1
		base = parent.ctx
	}
	i.ctx, i.cancel = context.WithCancel(base)
	i.cells = collectCells(state)
	for _, c := range i.cells {
		c.bindTo(&i.core)
	}
	return i
}

// borrow takes exclusive access to the component. A second borrow while
// the first is live is a re-entrancy bug and always panics.
func (c *core) borrow(op string) {
	if c.borrowed {
		c.rt.fatal(errs.New(errs.CodeReentrantBorrow).WithOp(op).WithComponent(c.name))
	}
	c.borrowed = true
}

func (c *core) unborrow() { c.borrowed = false }

// onUnmount registers fn to run when the component is disposed.
func (c *core) onUnmount(fn func()) {
	c.cleanups = append(c.cleanups, fn)
}

// dispose unmounts the component: child hooks and child components are
// dropped, async tasks see their context cancelled, cleanups run in reverse
// registration order and the cells are unbound. It is idempotent.
func (c *core) dispose() {
	if c.disposed.Swap(true) {
		return
	}
	c.cancel()
	if c.root != nil {
		c.root.drop()
	}
	c.rt.scoped(nil, func() {
		for i := len(c.cleanups) - 1; i >= 0; i-- {
			c.cleanups[i]()
		}
	})
	c.cleanups = nil
	for _, cell := range c.cells {
		cell.release(c)
	}
	c.pending = nil
	// Queued envelopes stay; the next delivery pass drops them as gone.
	c.emitters = nil
	c.rt.log.Debug("reactive: component disposed", "component", c.name, "id", c.id)
}

// handle runs fn as an event turn with exclusive access. It reports whether
// fn ran to completion.
func (i *instance[S]) handle(kind string, fn func(e *EventCtx[S])) bool {
	rt := i.rt
	if rt.refuse(kind) || i.disposed.Load() {
		return false
	}
	ok := false
	rt.turn(kind, i.name, func() {
		i.withEvent(kind, fn)
		ok = true
	})
	return ok && !rt.panics.Frozen()
}

// withEvent borrows the component and hands fn an EventCtx that expires
// when fn returns.
func (i *instance[S]) withEvent(op string, fn func(e *EventCtx[S])) {
	i.borrow(op)
	defer i.unborrow()
	e := &EventCtx[S]{inst: i, live: true}
	defer e.expire()
	i.rt.scoped(nil, func() { fn(e) })
}

// mount runs OnMount and the first render, returning the root nodes.
func (i *instance[S]) mount(outer *hook) []dom.Node {
	if i.def.OnMount != nil {
		i.withEvent("mount", i.def.OnMount)
	}
	i.borrow("render")
	defer i.unborrow()

	root := i.rt.newHook(HookRender, &i.core, nil)
	root.outer = outer
	render := i.def.Render
	if render == nil {
		render = func(*RenderCtx[S]) Element { return Empty() }
	}
	root.update = func() action {
		i.rerender(root, render)
		return actionNone
	}
	i.root = root
	root.nodes = i.produce(root, render)
	return root.nodes
}

// produce runs fn in h's tracking scope and builds the element it returns.
// An empty result is replaced by a placeholder comment so the hook always
// owns at least one node to anchor later replacements.
func (i *instance[S]) produce(h *hook, fn func(*RenderCtx[S]) Element) []dom.Node {
	el := i.evaluate(h, fn)
	return i.build(h, el)
}

func (i *instance[S]) evaluate(h *hook, fn func(*RenderCtx[S]) Element) Element {
	r := &RenderCtx[S]{inst: i, hook: h, live: true}
	defer r.expire()
	var el Element
	i.rt.scoped(h, func() { el = fn(r) })
	return el
}

func (i *instance[S]) build(h *hook, el Element) []dom.Node {
	var nodes []dom.Node
	if el != nil {
		b := &builder{rt: i.rt, core: &i.core, inst: i, hook: h}
		i.rt.scoped(nil, func() { nodes = el.build(b) })
	}
	if len(nodes) == 0 {
		n, err := i.rt.doc.CreateComment("")
		if err != nil {
			i.rt.docFailed("CreateComment", err)
			return nil
		}
		nodes = []dom.Node{n}
	}
	return nodes
}

// rerender re-runs a render hook: the previous run's child hooks and child
// components are dropped after the new nodes have replaced the old ones.
func (i *instance[S]) rerender(h *hook, fn func(*RenderCtx[S]) Element) {
	oldHooks, oldComps := h.takeChildren()
	defer dropAll(oldHooks, oldComps)
	h.clearDeps()

	el := i.evaluate(h, fn)
	old := h.nodes
	if t, ok := el.(textElement); ok && len(old) == 1 && old[0].Kind() == dom.KindText {
		if err := i.rt.doc.SetText(old[0], string(t)); err != nil {
			i.rt.docFailed("SetText", err)
		}
		return
	}
	i.rt.replaceNodes(h, old, i.build(h, el))
}

// replaceNodes swaps h's nodes in the document and propagates the change to
// every outer hook whose output started with them.
func (rt *Runtime) replaceNodes(h *hook, old, repl []dom.Node) {
	if len(old) == 0 || len(repl) == 0 {
		return
	}
	parent := rt.doc.Parent(old[0])
	if parent == nil {
		rt.violate(errs.New(errs.CodeNodeMissing).WithOp("replace").WithComponent(h.owner.name))
		return
	}
	if len(old) == 1 && len(repl) == 1 {
		if err := rt.doc.Replace(old[0], repl[0]); err != nil {
			rt.docFailed("Replace", err)
			return
		}
	} else {
		for _, n := range repl {
			if err := rt.doc.InsertBefore(parent, n, old[0]); err != nil {
				rt.docFailed("InsertBefore", err)
				return
			}
		}
		for _, n := range old {
			if err := rt.doc.Remove(n); err != nil {
				rt.docFailed("Remove", err)
				return
			}
		}
	}
	h.nodes = repl
	for p := h.outer; p != nil; p = p.outer {
		if !p.swapNodes(old, repl) {
			break
		}
	}
}
