package reactive

import (
	"fmt"
	"sync"
	"sync/atomic"

	errs "github.com/vango-dev/cellui/internal/errors"
)

// Messages handed to the OnPanic callback.
const (
	DevelopmentPanicMessage = "A component callback panicked. Check the logs for details."
	ReleasePanicMessage     = "Something went wrong. Please reload the page."
)

// PanicMessage returns the user-facing message for m.
func PanicMessage(m Mode) string {
	if m == Development {
		return DevelopmentPanicMessage
	}
	return ReleasePanicMessage
}

// PanicState records whether a user callback panicked. Once set it is never
// cleared: the runtime stops instead of trying to heal corrupted state.
type PanicState struct {
	frozen atomic.Bool
	mu     sync.Mutex
	value  any
}

// Frozen reports whether a panic has been recorded.
func (p *PanicState) Frozen() bool {
	return p.frozen.Load()
}

// Value returns the first recovered panic value, or nil.
func (p *PanicState) Value() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// record stores v and reports whether it was the first panic.
func (p *PanicState) record(v any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen.Load() {
		return false
	}
	p.value = v
	p.frozen.Store(true)
	return true
}

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("reactive: panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// freeze records a recovered panic. It can run on any goroutine.
func (rt *Runtime) freeze(v any, stack []byte) error {
	pe := &PanicError{Value: v, Stack: stack}
	if !rt.panics.record(v) {
		rt.log.Error("reactive: panic after freeze", "panic", v)
		return pe
	}
	rt.log.Error("reactive: panic in component callback",
		"panic", v,
		"stack", string(stack),
	)
	rt.obs.Panicked()
	rt.cancel()
	if rt.opts.onPanic != nil {
		rt.opts.onPanic(PanicMessage(rt.opts.mode))
	}
	return pe
}

// refuse reports whether the runtime is frozen, warning about the attempt.
func (rt *Runtime) refuse(op string) bool {
	if !rt.panics.Frozen() {
		return false
	}
	rt.log.Warn("reactive: access after panic", "op", op)
	return true
}

// violate reports a contract violation or invariant breach. Development mode
// panics with err; Release mode logs it and the caller skips the operation.
func (rt *Runtime) violate(err *errs.CellError) {
	rt.obs.Violation(err.Code)
	if rt.opts.mode == Development {
		panic(err)
	}
	rt.log.Error("reactive: "+err.Message,
		"code", err.Code,
		"component", err.Component,
		"op", err.Op,
		"error", err.Wrapped,
	)
}

// fatal reports a violation that panics in every mode.
func (rt *Runtime) fatal(err *errs.CellError) {
	rt.obs.Violation(err.Code)
	panic(err)
}

// docFailed reports a failing document primitive as an environment error.
func (rt *Runtime) docFailed(op string, err error) {
	rt.violate(errs.New(errs.CodeDocument).WithOp(op).Wrap(err))
}
