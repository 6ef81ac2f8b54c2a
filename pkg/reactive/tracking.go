package reactive

import (
	"reflect"
	"sync"
)

// track subscribes the running hook to src. Subscriptions are deduplicated
// so a hook depends on each source at most once per run.
func (rt *Runtime) track(src Tracked) {
	h := rt.current
	if h == nil {
		return
	}
	if src.addSub(h) {
		h.deps = append(h.deps, src)
	}
}

// scoped runs fn with h as the tracking scope, restoring the previous scope
// afterwards. A nil h runs fn untracked.
func (rt *Runtime) scoped(h *hook, fn func()) {
	old := rt.current
	rt.current = h
	if h != nil && old == nil {
		scopes.Store(rt.loopGID.Load(), rt)
	}
	defer func() { rt.current = old }()
	fn()
}

// markDirty schedules every live hook in subs and flushes right away when
// the write happened outside any turn.
func (rt *Runtime) markDirty(subs []*hook) {
	for _, h := range subs {
		if !h.dropped {
			h.owner.schedule(h)
		}
	}
	if rt.depth == 0 && !rt.panics.Frozen() {
		rt.turn(TurnDispatch, "", func() {})
	}
}

// scopes maps a loop goroutine id to the runtime that last entered a
// tracking scope on it. It lets a cell that was not discovered at mount
// bind to the component reading it.
var scopes sync.Map

// setLoop records gid as the loop goroutine.
func (rt *Runtime) setLoop(gid uint64) {
	if old := rt.loopGID.Swap(gid); old != gid {
		scopes.CompareAndDelete(old, rt)
	}
}

// leaveLoop forgets the runtime's loop goroutine.
func (rt *Runtime) leaveLoop() {
	scopes.CompareAndDelete(rt.loopGID.Load(), rt)
}

// adopt binds an unowned source to the component whose hook is running on
// the calling goroutine, if any.
func adopt(src Tracked) {
	v, ok := scopes.Load(goroutineID())
	if !ok {
		return
	}
	h := v.(*Runtime).current
	if h == nil || h.owner == nil || h.owner.disposed.Load() {
		return
	}
	h.owner.cells = append(h.owner.cells, src)
	src.bindTo(h.owner)
}

// maxCellDepth bounds the reflective walk over nested state structs.
const maxCellDepth = 8

var trackedType = reflect.TypeFor[Tracked]()

// collectCells returns the cells of a state value.
func collectCells(state any) []Tracked {
	if cs, ok := state.(CellSource); ok {
		return cs.Cells()
	}
	v := reflect.ValueOf(state)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil
	}
	w := cellWalker{seen: map[uintptr]bool{v.Pointer(): true}}
	w.walk(v.Elem(), 0)
	return w.out
}

// cellWalker finds cells in exported fields, nested structs and pointers
// to them, slices, arrays, maps and interfaces. Cells in unexported fields
// are bound on their first tracked read instead.
type cellWalker struct {
	out  []Tracked
	seen map[uintptr]bool
}

func (w *cellWalker) walk(v reflect.Value, depth int) {
	if depth > maxCellDepth || !mayHoldCells(v.Type()) {
		return
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || w.seen[v.Pointer()] {
			return
		}
		w.seen[v.Pointer()] = true
		if v.Type().Implements(trackedType) {
			w.out = append(w.out, v.Interface().(Tracked))
			return
		}
		w.walk(v.Elem(), depth+1)
	case reflect.Interface:
		if !v.IsNil() {
			w.walk(v.Elem(), depth+1)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			w.walk(v.Field(i), depth+1)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			w.walk(v.Index(i), depth+1)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			w.walk(iter.Value(), depth+1)
		}
	}
}

// mayHoldCells reports whether a value of type t can reach a cell.
func mayHoldCells(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Struct, reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		return mayHoldCells(t.Elem())
	}
	return false
}
