package reactive

import (
	"cmp"
	"container/heap"
	"slices"
	"time"

	errs "github.com/vango-dev/cellui/internal/errors"
)

// pendingHook is a heap entry. Lower prio pops first; ties pop in creation
// order so a parent always runs before hooks it created.
type pendingHook struct {
	prio uint64
	h    *hook
}

type hookHeap []pendingHook

func (q hookHeap) Len() int { return len(q) }

func (q hookHeap) Less(i, j int) bool {
	if q[i].prio != q[j].prio {
		return q[i].prio < q[j].prio
	}
	return q[i].h.id < q[j].h.id
}

func (q hookHeap) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *hookHeap) Push(x any) { *q = append(*q, x.(pendingHook)) }

func (q *hookHeap) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = pendingHook{}
	*q = old[:n-1]
	return it
}

// schedule queues h for the next flush of its component.
func (c *core) schedule(h *hook) {
	if h.queued || c.disposed.Load() {
		return
	}
	h.queued = true
	heap.Push(&c.pending, pendingHook{prio: h.id, h: h})
	if !c.dirty {
		c.dirty = true
		c.rt.dirty = append(c.rt.dirty, c)
	}
}

// flush pops pending hooks in creation order until none are left. Hooks
// dropped by an ancestor's re-run are skipped and no hook runs twice in the
// same pass. It returns the number of hooks that ran.
func (c *core) flush(pass uint64) int {
	c.dirty = false
	ran := 0
	for c.pending.Len() > 0 {
		it := heap.Pop(&c.pending).(pendingHook)
		h := it.h
		h.queued = false
		if h.dropped || h.pass == pass || h.update == nil {
			continue
		}
		h.pass = pass
		ran++
		act := h.update()
		c.rt.obs.HookRan(h.kind)
		if act == actionRunParent && h.parent != nil && !h.parent.dropped {
			h.parent.queued = true
			heap.Push(&c.pending, pendingHook{prio: 0, h: h.parent})
		}
	}
	return ran
}

// flushAll flushes every dirty component, parents before children, each
// under an exclusive borrow. It reports whether anything was dirty.
func (rt *Runtime) flushAll() bool {
	if len(rt.dirty) == 0 {
		return false
	}
	rt.pass++
	pass := rt.pass
	start := time.Now()

	cores := rt.dirty
	rt.dirty = nil
	slices.SortStableFunc(cores, func(a, b *core) int {
		return cmp.Compare(a.depth, b.depth)
	})

	total := 0
	for _, c := range cores {
		if c.disposed.Load() {
			c.pending, c.dirty = nil, false
			continue
		}
		total += c.flushBorrowed(pass)
	}
	if total > 0 {
		d := time.Since(start)
		rt.obs.Flushed(total, d)
		rt.log.Debug("reactive: flush", "hooks", total, "components", len(cores), "duration", d)
	}
	return true
}

func (c *core) flushBorrowed(pass uint64) int {
	c.borrow("flush")
	defer c.unborrow()
	return c.flush(pass)
}

// settle runs message deliveries, flushes and change callbacks until no
// more work is produced.
func (rt *Runtime) settle() {
	for range maxSettlePasses {
		if rt.panics.Frozen() {
			rt.reset()
			return
		}
		worked := rt.deliver()
		if rt.flushAll() {
			worked = true
		}
		if rt.runCallbacks() {
			worked = true
		}
		if !worked {
			return
		}
	}
	rt.violate(errs.New(errs.CodeUnsettled).WithOp("settle"))
	rt.reset()
}

// runCallbacks runs the change callbacks queued by the last flush.
func (rt *Runtime) runCallbacks() bool {
	if len(rt.callbacks) == 0 {
		return false
	}
	cbs := rt.callbacks
	rt.callbacks = nil
	for _, cb := range cbs {
		cb()
	}
	return true
}

// reset discards all queued work. Used after a panic or a runaway settle.
func (rt *Runtime) reset() {
	for _, c := range rt.dirty {
		for _, it := range c.pending {
			it.h.queued = false
		}
		c.pending, c.dirty = nil, false
	}
	for _, c := range rt.mail {
		c.inbox, c.mailQueued = nil, false
	}
	rt.dirty, rt.mail, rt.callbacks = nil, nil, nil
	rt.current = nil
}
