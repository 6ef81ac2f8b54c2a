package reactive

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/cellui/pkg/dom"
)

// Runtime owns a document and every component mounted into it. All state
// access happens on a single loop goroutine: the one that calls Run, or the
// goroutine that created the runtime when it is driven manually with
// RunUntilIdle.
type Runtime struct {
	doc    dom.Document
	opts   options
	log    *slog.Logger
	obs    Observer
	panics PanicState

	// Loop-only state.
	current   *hook
	depth     int
	turnID    uint64
	pass      uint64
	dirty     []*core
	mail      []*core
	callbacks []func()

	// Shared with other goroutines.
	inbox   chan func()
	wake    chan struct{}
	tasks   atomic.Int64
	loopGID atomic.Uint64

	base      context.Context
	cancel    context.CancelFunc
	closed    chan struct{}
	closeOnce sync.Once
}

// NewRuntime creates a runtime driving doc. The calling goroutine becomes
// the loop goroutine until Run or RunUntilIdle is called elsewhere.
func NewRuntime(doc dom.Document, opts ...Option) *Runtime {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	base, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		doc:    doc,
		opts:   o,
		log:    o.logger,
		obs:    o.observer,
		inbox:  make(chan func(), o.inboxSize),
		wake:   make(chan struct{}, 1),
		base:   base,
		cancel: cancel,
		closed: make(chan struct{}),
	}
	rt.setLoop(goroutineID())
	return rt
}

// Document returns the document the runtime mutates.
func (rt *Runtime) Document() dom.Document { return rt.doc }

// Mode returns the violation policy in effect.
func (rt *Runtime) Mode() Mode { return rt.opts.mode }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.log }

// Frozen reports whether a user callback panicked.
func (rt *Runtime) Frozen() bool { return rt.panics.Frozen() }

// PanicValue returns the value of the panic that froze the runtime, or nil.
func (rt *Runtime) PanicValue() any { return rt.panics.Value() }

// Tasks returns the number of async tasks still running.
func (rt *Runtime) Tasks() int { return int(rt.tasks.Load()) }

// Dispatch queues fn to run as a turn on the loop goroutine. It is safe to
// call from any goroutine and blocks while the inbox is full.
func (rt *Runtime) Dispatch(fn func()) error {
	req := func() {
		if rt.refuse("Dispatch") {
			return
		}
		rt.turn(TurnDispatch, "", fn)
	}
	select {
	case <-rt.closed:
		return ErrClosed
	default:
	}
	select {
	case rt.inbox <- req:
		return nil
	case <-rt.closed:
		return ErrClosed
	}
}

// Run processes queued requests on the calling goroutine until ctx is done
// or the runtime is closed.
func (rt *Runtime) Run(ctx context.Context) error {
	rt.setLoop(goroutineID())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rt.closed:
			return nil
		case req := <-rt.inbox:
			req()
		}
	}
}

// RunUntilIdle processes queued requests on the calling goroutine until no
// async task is running and the inbox is empty.
func (rt *Runtime) RunUntilIdle(ctx context.Context) error {
	rt.setLoop(goroutineID())
	for {
		select {
		case req := <-rt.inbox:
			req()
			continue
		default:
		}
		if rt.tasks.Load() == 0 {
			select {
			case req := <-rt.inbox:
				req()
				continue
			default:
				return nil
			}
		}
		select {
		case req := <-rt.inbox:
			req()
		case <-rt.wake:
		case <-ctx.Done():
			return ctx.Err()
		case <-rt.closed:
			return ErrClosed
		}
	}
}

// Close stops the runtime. Running tasks see their context cancelled and
// every later Deferred.Update reports false. Close does not dispose mounted
// components.
func (rt *Runtime) Close() error {
	rt.closeOnce.Do(func() {
		rt.cancel()
		close(rt.closed)
		rt.leaveLoop()
	})
	return nil
}

func (rt *Runtime) isClosed() bool {
	select {
	case <-rt.closed:
		return true
	default:
		return false
	}
}

func (rt *Runtime) taskStarted() { rt.tasks.Add(1) }

func (rt *Runtime) taskDone() {
	rt.tasks.Add(-1)
	select {
	case rt.wake <- struct{}{}:
	default:
	}
}

// token returns a token valid for the current turn.
func (rt *Runtime) token() Token {
	return Token{rt: rt, turn: rt.turnID}
}

func (rt *Runtime) validToken(t Token) bool {
	return t.rt == rt && rt.depth > 0 && t.turn == rt.turnID
}

// turn runs fn as a unit of work. The outermost turn settles all deliveries
// and flushes before returning and recovers panics from user code, freezing
// the runtime. Nested turns simply run fn.
func (rt *Runtime) turn(kind, component string, fn func()) {
	if rt.depth > 0 {
		rt.depth++
		defer func() { rt.depth-- }()
		fn()
		return
	}

	rt.turnID++
	rt.depth = 1
	start := time.Now()
	ctx := rt.obs.TurnStarted(rt.base, kind, component)
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = rt.freeze(r, debug.Stack())
			rt.reset()
		}
		rt.depth = 0
		rt.obs.TurnFinished(ctx, kind, time.Since(start), err)
	}()

	old := rt.current
	rt.current = nil
	fn()
	rt.settle()
	rt.current = old
}
