package reactive

import (
	"fmt"

	errs "github.com/vango-dev/cellui/internal/errors"
	"github.com/vango-dev/cellui/pkg/dom"
)

// Element is a renderable value. Elements are built into document nodes by
// the runtime; they are descriptions, not nodes, until then.
type Element interface {
	build(b *builder) []dom.Node
}

// builder carries the component and enclosing hook an element is built for.
type builder struct {
	rt   *Runtime
	core *core
	inst any
	hook *hook
}

// instanceFor returns the typed instance an element is being built for.
func instanceFor[S any](b *builder, op string) *instance[S] {
	inst, ok := b.inst.(*instance[S])
	if !ok {
		b.rt.violate(errs.New(errs.CodeForeignElement).WithOp(op).WithComponent(b.core.name))
		return nil
	}
	return inst
}

type textElement string

func (t textElement) build(b *builder) []dom.Node {
	n, err := b.rt.doc.CreateText(string(t))
	if err != nil {
		b.rt.docFailed("CreateText", err)
		return nil
	}
	return []dom.Node{n}
}

// Text is a static text node.
func Text(s string) Element { return textElement(s) }

// Textf is a static text node formatted with fmt.Sprintf.
func Textf(format string, args ...any) Element {
	return textElement(fmt.Sprintf(format, args...))
}

type emptyElement struct{}

func (emptyElement) build(b *builder) []dom.Node {
	n, err := b.rt.doc.CreateComment("")
	if err != nil {
		b.rt.docFailed("CreateComment", err)
		return nil
	}
	return []dom.Node{n}
}

// Empty renders a placeholder comment node.
func Empty() Element { return emptyElement{} }

// Maybe renders el when cond holds and a placeholder otherwise.
func Maybe(cond bool, el Element) Element {
	if cond && el != nil {
		return el
	}
	return Empty()
}

type listElement []Element

func (l listElement) build(b *builder) []dom.Node {
	var nodes []dom.Node
	for _, el := range l {
		if el != nil {
			nodes = append(nodes, el.build(b)...)
		}
	}
	return nodes
}

// List renders elements one after another without a wrapper.
func List(items ...Element) Element { return listElement(items) }

// Map renders one element per item.
func Map[T any](items []T, fn func(i int, item T) Element) Element {
	out := make(listElement, 0, len(items))
	for i, it := range items {
		out = append(out, fn(i, it))
	}
	return out
}

type dynamicElement[S any] struct {
	fn func(r *RenderCtx[S]) Element
}

func (d dynamicElement[S]) build(b *builder) []dom.Node {
	inst := instanceFor[S](b, "Dynamic")
	if inst == nil {
		return nil
	}
	h := b.rt.newHook(HookRender, b.core, b.hook)
	h.outer = b.hook
	h.update = func() action {
		inst.rerender(h, d.fn)
		return actionNone
	}
	h.nodes = inst.produce(h, d.fn)
	return h.nodes
}

// Dynamic renders the element returned by fn and re-renders it, replacing
// its nodes, whenever a cell fn read changes.
func Dynamic[S any](fn func(r *RenderCtx[S]) Element) Element {
	return dynamicElement[S]{fn: fn}
}

// TextFunc renders a text node whose content is re-computed when a cell fn
// read changes. The node is updated in place.
func TextFunc[S any](fn func(r *RenderCtx[S]) string) Element {
	return dynamicElement[S]{fn: func(r *RenderCtx[S]) Element {
		return textElement(fn(r))
	}}
}
