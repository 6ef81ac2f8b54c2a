package reactive

import (
	"strings"

	"github.com/vango-dev/cellui/pkg/dom"
)

type listener[S any] struct {
	kind string
	fn   func(e *EventCtx[S], ev dom.Event)
}

type attrFunc[S any] struct {
	name string
	fn   func(r *RenderCtx[S]) (string, bool)
}

// HTML is an element node for components with state S. Methods mutate and
// return the receiver so calls chain.
type HTML[S any] struct {
	tag       string
	attrs     []dom.Attr
	classes   []string
	children  []Element
	listeners []listener[S]
	attrFns   []attrFunc[S]
	classFns  []func(r *RenderCtx[S]) string
}

// Tag creates an element with the given tag name.
func Tag[S any](name string) *HTML[S] {
	return &HTML[S]{tag: name}
}

// ID sets the id attribute.
func (h *HTML[S]) ID(id string) *HTML[S] { return h.Attr("id", id) }

// Attr sets a static attribute.
func (h *HTML[S]) Attr(name, value string) *HTML[S] {
	h.attrs = append(h.attrs, dom.Attr{Name: name, Value: value})
	return h
}

// Class adds static classes.
func (h *HTML[S]) Class(names ...string) *HTML[S] {
	h.classes = append(h.classes, names...)
	return h
}

// AttrFunc binds an attribute to fn. The attribute is set when fn reports
// true and removed otherwise, and is updated whenever a cell fn read
// changes.
func (h *HTML[S]) AttrFunc(name string, fn func(r *RenderCtx[S]) (string, bool)) *HTML[S] {
	h.attrFns = append(h.attrFns, attrFunc[S]{name: name, fn: fn})
	return h
}

// ClassFunc binds a class to fn. The class fn returned last time is removed
// and the new one added whenever a cell fn read changes. "" means no class.
func (h *HTML[S]) ClassFunc(fn func(r *RenderCtx[S]) string) *HTML[S] {
	h.classFns = append(h.classFns, fn)
	return h
}

// Child appends child elements.
func (h *HTML[S]) Child(children ...Element) *HTML[S] {
	h.children = append(h.children, children...)
	return h
}

// Text appends a static text child.
func (h *HTML[S]) Text(s string) *HTML[S] {
	return h.Child(Text(s))
}

// On registers a handler for events of the given kind. The handler runs as
// an event turn with exclusive access to the component.
func (h *HTML[S]) On(kind string, fn func(e *EventCtx[S], ev dom.Event)) *HTML[S] {
	h.listeners = append(h.listeners, listener[S]{kind: kind, fn: fn})
	return h
}

// OnClick registers a click handler.
func (h *HTML[S]) OnClick(fn func(e *EventCtx[S])) *HTML[S] {
	return h.On("click", func(e *EventCtx[S], _ dom.Event) { fn(e) })
}

// OnInput registers an input handler receiving the control's value.
func (h *HTML[S]) OnInput(fn func(e *EventCtx[S], value string)) *HTML[S] {
	return h.On("input", func(e *EventCtx[S], ev dom.Event) { fn(e, ev.Value) })
}

func (h *HTML[S]) build(b *builder) []dom.Node {
	inst := instanceFor[S](b, "HTML."+h.tag)
	if inst == nil {
		return nil
	}
	rt := b.rt
	doc := rt.doc

	node, err := doc.CreateElement(h.tag)
	if err != nil {
		rt.docFailed("CreateElement", err)
		return nil
	}
	for _, a := range h.attrs {
		if err := doc.SetAttribute(node, a.Name, a.Value); err != nil {
			rt.docFailed("SetAttribute", err)
		}
	}
	if len(h.classes) > 0 {
		if err := doc.SetAttribute(node, "class", strings.Join(h.classes, " ")); err != nil {
			rt.docFailed("SetAttribute", err)
		}
	}
	for _, af := range h.attrFns {
		bindAttr(b, inst, node, af)
	}
	for _, fn := range h.classFns {
		bindClass(b, inst, node, fn)
	}
	for _, l := range h.listeners {
		fn := l.fn
		err := doc.Listen(node, l.kind, func(ev dom.Event) {
			inst.handle(TurnEvent, func(e *EventCtx[S]) { fn(e, ev) })
		})
		if err != nil {
			rt.docFailed("Listen", err)
		}
	}
	for _, c := range h.children {
		if c == nil {
			continue
		}
		for _, n := range c.build(b) {
			if err := doc.AppendChild(node, n); err != nil {
				rt.docFailed("AppendChild", err)
			}
		}
	}
	return []dom.Node{node}
}

// bindAttr creates the hook that keeps one attribute in sync with fn.
func bindAttr[S any](b *builder, inst *instance[S], node dom.Node, af attrFunc[S]) {
	rt := b.rt
	h := rt.newHook(HookAttr, b.core, b.hook)
	apply := func() {
		r := &RenderCtx[S]{inst: inst, hook: h, live: true}
		var (
			v  string
			ok bool
		)
		rt.scoped(h, func() { v, ok = af.fn(r) })
		r.expire()
		var err error
		if ok {
			err = rt.doc.SetAttribute(node, af.name, v)
		} else {
			err = rt.doc.RemoveAttribute(node, af.name)
		}
		if err != nil {
			rt.docFailed("AttrFunc", err)
		}
	}
	h.update = func() action {
		h.clearDeps()
		dropAll(h.takeChildren())
		apply()
		return actionNone
	}
	apply()
}

// bindClass creates the hook that keeps one class in sync with fn.
func bindClass[S any](b *builder, inst *instance[S], node dom.Node, fn func(r *RenderCtx[S]) string) {
	rt := b.rt
	h := rt.newHook(HookAttr, b.core, b.hook)
	var current string
	apply := func() {
		r := &RenderCtx[S]{inst: inst, hook: h, live: true}
		var next string
		rt.scoped(h, func() { next = fn(r) })
		r.expire()
		if next == current {
			return
		}
		if current != "" {
			if err := rt.doc.RemoveClass(node, current); err != nil {
				rt.docFailed("RemoveClass", err)
			}
		}
		if next != "" {
			if err := rt.doc.AddClass(node, next); err != nil {
				rt.docFailed("AddClass", err)
			}
		}
		current = next
	}
	h.update = func() action {
		h.clearDeps()
		dropAll(h.takeChildren())
		apply()
		return actionNone
	}
	apply()
}
