package el

import (
	"github.com/vango-dev/cellui/pkg/dom"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// Handler is an event listener argument for components with state S.
type Handler[S any] struct {
	Kind string
	Fn   func(e *reactive.EventCtx[S], ev dom.Event)
}

// On creates a listener for events of the given kind.
func On[S any](kind string, fn func(e *reactive.EventCtx[S], ev dom.Event)) Handler[S] {
	return Handler[S]{Kind: kind, Fn: fn}
}

// OnClick creates a click listener.
func OnClick[S any](fn func(e *reactive.EventCtx[S])) Handler[S] {
	return On("click", func(e *reactive.EventCtx[S], _ dom.Event) { fn(e) })
}

// OnInput creates an input listener receiving the control's value.
func OnInput[S any](fn func(e *reactive.EventCtx[S], value string)) Handler[S] {
	return On("input", func(e *reactive.EventCtx[S], ev dom.Event) { fn(e, ev.Value) })
}

// OnChange creates a change listener receiving the control's value.
func OnChange[S any](fn func(e *reactive.EventCtx[S], value string)) Handler[S] {
	return On("change", func(e *reactive.EventCtx[S], ev dom.Event) { fn(e, ev.Value) })
}

// OnSubmit creates a submit listener.
func OnSubmit[S any](fn func(e *reactive.EventCtx[S])) Handler[S] {
	return On("submit", func(e *reactive.EventCtx[S], _ dom.Event) { fn(e) })
}

// OnKeyDown creates a keydown listener receiving the key name.
func OnKeyDown[S any](fn func(e *reactive.EventCtx[S], key string)) Handler[S] {
	return On("keydown", func(e *reactive.EventCtx[S], ev dom.Event) { fn(e, ev.Key) })
}

// OnEnter creates a keydown listener that only fires for the Enter key.
func OnEnter[S any](fn func(e *reactive.EventCtx[S])) Handler[S] {
	return OnKeyDown(func(e *reactive.EventCtx[S], key string) {
		if key == "Enter" {
			fn(e)
		}
	})
}
