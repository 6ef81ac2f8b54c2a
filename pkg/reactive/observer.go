package reactive

import (
	"context"
	"time"
)

// Turn kinds reported to observers.
const (
	TurnMount    = "mount"
	TurnEvent    = "event"
	TurnDeferred = "deferred"
	TurnDispatch = "dispatch"
)

// Hook kinds reported to observers.
const (
	HookRender = "render"
	HookAttr   = "attr"
	HookWatch  = "watch"
	HookChange = "change"
)

// Reasons a message was dropped.
const (
	DropGone      = "gone"
	DropNoHandler = "no_handler"
	DropFrozen    = "frozen"
)

// Observer receives runtime instrumentation callbacks. All methods run on
// the loop goroutine except Panicked, which runs on the goroutine that
// recovered the panic.
type Observer interface {
	// TurnStarted is called when a top-level turn begins. The returned
	// context is passed back to TurnFinished.
	TurnStarted(ctx context.Context, kind, component string) context.Context

	// TurnFinished is called when the turn has settled. err is non-nil
	// when the turn panicked.
	TurnFinished(ctx context.Context, kind string, d time.Duration, err error)

	// HookRan is called after a hook re-ran during a flush.
	HookRan(kind string)

	// Flushed is called after each flush pass that ran at least one hook.
	Flushed(hooks int, d time.Duration)

	// MessageDelivered is called for every envelope handed to a handler.
	MessageDelivered()

	// MessageDropped is called for every envelope that was discarded.
	MessageDropped(reason string)

	// Violation is called for every contract violation or invariant breach.
	Violation(code string)

	// Panicked is called once when the runtime freezes.
	Panicked()
}

// NopObserver implements Observer with no-ops. Embed it to implement a
// subset of the methods.
type NopObserver struct{}

func (NopObserver) TurnStarted(ctx context.Context, _, _ string) context.Context { return ctx }
func (NopObserver) TurnFinished(context.Context, string, time.Duration, error)   {}
func (NopObserver) HookRan(string)                                               {}
func (NopObserver) Flushed(int, time.Duration)                                   {}
func (NopObserver) MessageDelivered()                                            {}
func (NopObserver) MessageDropped(string)                                        {}
func (NopObserver) Violation(string)                                             {}
func (NopObserver) Panicked()                                                    {}

// Observers fans callbacks out to every observer in order.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}

type multiObserver []Observer

func (m multiObserver) TurnStarted(ctx context.Context, kind, component string) context.Context {
	for _, o := range m {
		ctx = o.TurnStarted(ctx, kind, component)
	}
	return ctx
}

func (m multiObserver) TurnFinished(ctx context.Context, kind string, d time.Duration, err error) {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].TurnFinished(ctx, kind, d, err)
	}
}

func (m multiObserver) HookRan(kind string) {
	for _, o := range m {
		o.HookRan(kind)
	}
}

func (m multiObserver) Flushed(hooks int, d time.Duration) {
	for _, o := range m {
		o.Flushed(hooks, d)
	}
}

func (m multiObserver) MessageDelivered() {
	for _, o := range m {
		o.MessageDelivered()
	}
}

func (m multiObserver) MessageDropped(reason string) {
	for _, o := range m {
		o.MessageDropped(reason)
	}
}

func (m multiObserver) Violation(code string) {
	for _, o := range m {
		o.Violation(code)
	}
}

func (m multiObserver) Panicked() {
	for _, o := range m {
		o.Panicked()
	}
}
