package reactive

import (
	"slices"

	errs "github.com/vango-dev/cellui/internal/errors"
)

// Tracked is implemented by reactive sources that can be bound to a
// component. *Cell[T] implements it for every T.
type Tracked interface {
	bindTo(c *core)
	release(c *core)
	addSub(h *hook) bool
	removeSub(h *hook)
}

// CellSource lets a state type list its cells explicitly. Without it the
// runtime discovers cells by reflection at mount. A cell that neither finds
// is bound to the first component that reads it in a render, watch or
// attribute closure.
type CellSource interface {
	Cells() []Tracked
}

// Cell is a tracked value. Reads inside a render, watch or attribute
// closure subscribe that closure; writes mark every subscriber dirty.
//
// A Cell must only be used from its runtime's loop goroutine.
type Cell[T any] struct {
	value T
	subs  []*hook
	owner *core
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value, subscribing the running hook if any.
func (c *Cell[T]) Get() T {
	if c.owner == nil {
		adopt(c)
	}
	if c.owner != nil {
		c.owner.rt.track(c)
	}
	return c.value
}

// Peek returns the current value without subscribing.
func (c *Cell[T]) Peek() T {
	return c.value
}

// Set replaces the value and schedules a flush of the subscribers.
// There is no equality check: every Set notifies.
func (c *Cell[T]) Set(v T) {
	if !c.writable("Cell.Set") {
		return
	}
	c.value = v
	c.notify()
}

// Update replaces the value with fn applied to it.
func (c *Cell[T]) Update(fn func(T) T) {
	if !c.writable("Cell.Update") {
		return
	}
	c.value = fn(c.value)
	c.notify()
}

// Mutate changes the value in place.
func (c *Cell[T]) Mutate(fn func(*T)) {
	if !c.writable("Cell.Mutate") {
		return
	}
	fn(&c.value)
	c.notify()
}

func (c *Cell[T]) writable(op string) bool {
	if c.owner == nil {
		return true
	}
	rt := c.owner.rt
	if rt.current == nil {
		return true
	}
	rt.violate(errs.New(errs.CodeWriteInRender).WithOp(op).WithComponent(c.owner.name))
	return false
}

func (c *Cell[T]) notify() {
	if c.owner == nil || len(c.subs) == 0 {
		return
	}
	subs := c.subs
	c.subs = nil
	c.owner.rt.markDirty(subs)
}

func (c *Cell[T]) bindTo(owner *core) {
	if c.owner == nil {
		c.owner = owner
	}
}

func (c *Cell[T]) release(owner *core) {
	if c.owner == owner {
		c.owner = nil
		c.subs = nil
	}
}

func (c *Cell[T]) addSub(h *hook) bool {
	if slices.Contains(c.subs, h) {
		return false
	}
	c.subs = append(c.subs, h)
	return true
}

func (c *Cell[T]) removeSub(h *hook) {
	if i := slices.Index(c.subs, h); i >= 0 {
		c.subs = slices.Delete(c.subs, i, i+1)
	}
}
