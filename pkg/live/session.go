package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"

	errs "github.com/vango-dev/cellui/internal/errors"
	"github.com/vango-dev/cellui/pkg/dom"
	"github.com/vango-dev/cellui/pkg/middleware"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// Session is one WebSocket connection driving its own runtime.
//
// The runtime loop runs on the goroutine that called serve; a second
// goroutine reads event frames and dispatches them onto the loop. Frames
// are written from the loop after every turn, and from any goroutine when
// a panic freezes the runtime.
type Session struct {
	ID        string
	CreatedAt time.Time

	conn    *websocket.Conn
	doc     *Document
	rt      *reactive.Runtime
	config  *Config
	logger  *slog.Logger
	metrics *middleware.Metrics

	// Loop-only.
	streaming bool
	dispose   func()

	seq       atomic.Uint64
	writeMu   sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// generateSessionID creates a random session id.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// frameWriter sends the ops recorded during a turn once it finishes.
type frameWriter struct {
	reactive.NopObserver
	s *Session
}

func (w frameWriter) TurnFinished(context.Context, string, time.Duration, error) {
	w.s.flush()
}

// newSession creates a session for conn whose loop stops when ctx is done.
// It must be called on the goroutine that will later call serve.
func newSession(ctx context.Context, conn *websocket.Conn, srv *Server) *Session {
	id := generateSessionID()
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ctx:       ctx,
		cancel:    cancel,
		ID:        id,
		CreatedAt: time.Now(),
		conn:      conn,
		doc:       NewDocument(),
		config:    srv.config,
		logger:    srv.logger.With("session_id", id),
		metrics:   srv.metrics,
		done:      make(chan struct{}),
	}

	obs := []reactive.Observer{frameWriter{s: s}}
	if srv.metrics != nil {
		obs = append(obs, srv.metrics)
	}
	if srv.traced {
		obs = append(obs, middleware.NewTracing(srv.tracing...))
	}
	s.rt = reactive.NewRuntime(s.doc,
		reactive.WithMode(srv.config.Mode),
		reactive.WithLogger(s.logger),
		reactive.WithInboxSize(srv.config.InboxSize),
		reactive.WithObserver(reactive.Observers(obs...)),
		reactive.WithOnPanic(s.sendPanic),
	)
	return s
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// Runtime returns the session runtime.
func (s *Session) Runtime() *reactive.Runtime { return s.rt }

// serve mounts app, sends the snapshot and runs the loop until the client
// disconnects, the session context is done or Close is called.
func (s *Session) serve(app App) error {
	defer s.cancel()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}

	if err := s.mount(app); err != nil {
		s.logger.Error("mount failed", "error", err)
		s.write(&Frame{Seq: s.seq.Add(1), Error: err.Error()})
		return multierr.Append(err, s.Close())
	}

	go s.readLoop()

	err := s.rt.Run(s.ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	s.streaming = false
	if s.dispose != nil && !s.rt.Frozen() {
		s.dispose()
	}
	return multierr.Append(err, s.Close())
}

// mount builds the mount point and the root component, then sends the
// snapshot frame.
func (s *Session) mount(app App) error {
	mirror := s.doc.Mirror()
	if err := mountPoint(s.doc, mirror.Root(), s.config.MountID); err != nil {
		return err
	}
	dispose, err := app(s.rt, s.config.MountID)
	if err != nil {
		return err
	}
	s.dispose = dispose
	s.doc.Take()

	s.streaming = true
	return s.write(&Frame{
		Seq:  0,
		HTML: mirror.HTML(),
		Ops:  s.doc.Snapshot(),
	})
}

// readLoop reads event frames until the connection fails, then stops the
// loop.
func (s *Session) readLoop() {
	defer s.cancel()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		ev, err := DecodeEvent(msg)
		if err != nil {
			s.logger.Warn("event decode error", "error", err)
			continue
		}

		if err := s.rt.Dispatch(func() { s.fire(ev) }); err != nil {
			s.logger.Debug("dispatch refused", "error", err)
			return
		}
	}
}

// fire delivers an event frame to the mirror node. Runs on the loop.
func (s *Session) fire(ev *EventFrame) {
	fired := s.doc.Fire(ev.Node, dom.Event{Kind: ev.Kind, Value: ev.Value, Key: ev.Key})
	if !fired {
		err := errs.New(errs.CodeUnknownNode).WithOp(ev.Kind)
		s.logger.Warn("event for unknown node", "node", ev.Node, "kind", ev.Kind, "error", err)
	}
}

// flush sends the ops of the finished turn. Runs on the loop.
func (s *Session) flush() {
	if !s.streaming || s.doc.Pending() == 0 {
		return
	}
	ops := s.doc.Take()
	if err := s.write(&Frame{Seq: s.seq.Add(1), Ops: ops}); err != nil {
		s.logger.Error("write error", "error", err)
		s.cancel()
	}
}

// sendPanic reports a frozen runtime to the client. It runs on the
// goroutine that panicked.
func (s *Session) sendPanic(message string) {
	if err := s.write(&Frame{Seq: s.seq.Add(1), Error: message}); err != nil {
		s.logger.Debug("panic frame not sent", "error", err)
	}
}

func (s *Session) write(f *Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return reactive.ErrClosed
	default:
	}

	if s.metrics != nil {
		s.metrics.FrameSent()
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close stops the runtime and closes the connection. It is safe to call
// from any goroutine and more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()

		s.writeMu.Lock()
		close(s.done)
		var err error
		err = multierr.Append(err, s.rt.Close())
		werr := s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
			s.logger.Debug("close message not sent", "error", werr)
		}
		err = multierr.Append(err, s.conn.Close())
		s.writeMu.Unlock()

		s.closeErr = err
		if s.metrics != nil {
			s.metrics.SessionClosed()
		}
		s.logger.Info("session closed", "duration", time.Since(s.CreatedAt))
	})
	return s.closeErr
}
