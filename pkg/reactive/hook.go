package reactive

import (
	"slices"

	"github.com/vango-dev/cellui/pkg/dom"
)

// action is what a re-run hook asks of the scheduler.
type action uint8

const (
	actionNone action = iota
	// actionRunParent re-runs the enclosing hook ahead of everything else.
	actionRunParent
)

// hook is one re-runnable unit: a render closure, a reactive attribute, a
// watch cache or a change listener.
//
// Hooks form a tree per component. A hook's children are the hooks created
// during its last run; re-running or dropping a hook drops all of them,
// together with the child components mounted during that run.
type hook struct {
	id    uint64
	kind  string
	owner *core

	// parent is the enclosing hook of the same component, nil for a root.
	parent *hook

	// outer is the hook whose run produced this hook's nodes. For a
	// component root it belongs to the parent component.
	outer *hook

	update func() action

	deps     []Tracked
	children []*hook
	comps    []*core

	// nodes are the top-level document nodes a render hook owns.
	nodes []dom.Node

	queued  bool
	pass    uint64
	dropped bool
}

func (rt *Runtime) newHook(kind string, owner *core, parent *hook) *hook {
	h := &hook{
		id:     nextID(),
		kind:   kind,
		owner:  owner,
		parent: parent,
	}
	if parent != nil {
		parent.children = append(parent.children, h)
	}
	return h
}

// clearDeps removes h from every source it subscribed to on its last run.
func (h *hook) clearDeps() {
	for _, d := range h.deps {
		d.removeSub(h)
	}
	h.deps = nil
}

// takeChildren detaches the hooks and components created by the last run.
func (h *hook) takeChildren() ([]*hook, []*core) {
	hooks, comps := h.children, h.comps
	h.children, h.comps = nil, nil
	return hooks, comps
}

// drop permanently retires h and everything created beneath it.
func (h *hook) drop() {
	if h.dropped {
		return
	}
	h.dropped = true
	h.clearDeps()
	dropAll(h.takeChildren())
	h.nodes = nil
	h.update = nil
}

func dropAll(hooks []*hook, comps []*core) {
	for _, c := range hooks {
		c.drop()
	}
	for i := len(comps) - 1; i >= 0; i-- {
		comps[i].dispose()
	}
}

// swapNodes replaces the run old inside h.nodes with repl. It reports
// whether old was found, which means h's own output changed as well.
func (h *hook) swapNodes(old, repl []dom.Node) bool {
	if len(old) == 0 {
		return false
	}
	i := slices.Index(h.nodes, old[0])
	if i < 0 || i+len(old) > len(h.nodes) {
		return false
	}
	h.nodes = slices.Replace(slices.Clone(h.nodes), i, i+len(old), repl...)
	return true
}
