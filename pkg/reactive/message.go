package reactive

import (
	"weak"

	errs "github.com/vango-dev/cellui/internal/errors"
)

// Emit queues msg for the parent handlers bound with OnEmit whose message
// type matches. Delivery happens after the current turn's callbacks return,
// in emission order; the parent flushes once for the whole batch.
func (e *EventCtx[S]) Emit(msg any) {
	if !e.check("EventCtx.Emit") {
		return
	}
	handled := false
	for _, em := range e.inst.emitters {
		if em(msg) {
			handled = true
		}
	}
	if !handled {
		e.inst.rt.dropped(DropNoHandler, e.inst.name)
	}
}

// OnEmit binds a parent handler for messages of type M emitted by the
// child. P is the parent's state type; the binding is checked when the
// child is placed in the parent's tree.
func OnEmit[P, C, M any](sub *Sub[C], fn func(e *EventCtx[P], msg M)) *Sub[C] {
	sub.bindings = append(sub.bindings, func(b *builder) func(any) bool {
		parent := instanceFor[P](b, "OnEmit")
		if parent == nil {
			return nil
		}
		ref := weak.Make(parent)
		rt := b.rt
		return func(msg any) bool {
			m, ok := msg.(M)
			if !ok {
				return false
			}
			p := ref.Value()
			if p == nil || p.disposed.Load() {
				rt.dropped(DropGone, "")
				return true
			}
			p.enqueue(func() {
				p.withEvent("message", func(e *EventCtx[P]) { fn(e, m) })
			})
			return true
		}
	})
	return sub
}

// Sender sends messages of type M from a parent to a child's Receive
// handler. It holds the child weakly.
type Sender[M any] struct {
	send func(tok Token, msg any)
}

// SenderOf returns a Sender targeting sub. It can be created before sub is
// placed in the tree; messages sent before then are dropped.
func SenderOf[M, C any](sub *Sub[C]) Sender[M] {
	return Sender[M]{send: func(tok Token, msg any) {
		rt := tok.rt
		inst := sub.ref.Value()
		if inst != nil {
			rt = inst.rt
		}
		if rt == nil {
			return
		}
		if !rt.validToken(tok) {
			rt.violate(errs.New(errs.CodeInvalidToken).WithOp("Sender.Send"))
			return
		}
		if inst == nil || inst.disposed.Load() {
			rt.dropped(DropGone, "")
			return
		}
		if inst.def.Receive == nil {
			rt.violate(errs.New(errs.CodeWrongMessageType).WithOp("Sender.Send").WithComponent(inst.name))
			return
		}
		inst.enqueue(func() {
			inst.withEvent("message", func(e *EventCtx[C]) { inst.def.Receive(e, msg) })
		})
	}}
}

// Send queues msg for the child. tok must come from the current turn.
func (s Sender[M]) Send(tok Token, msg M) {
	if s.send != nil {
		s.send(tok, msg)
	}
}

// enqueue appends an envelope to the component's inbox.
func (c *core) enqueue(deliver func()) {
	c.inbox = append(c.inbox, deliver)
	if !c.mailQueued {
		c.mailQueued = true
		c.rt.mail = append(c.rt.mail, c)
	}
}

// deliver drains every queued inbox in FIFO order. Envelopes sent during
// delivery are picked up by the next settle pass.
func (rt *Runtime) deliver() bool {
	if len(rt.mail) == 0 {
		return false
	}
	boxes := rt.mail
	rt.mail = nil
	for _, c := range boxes {
		c.mailQueued = false
		msgs := c.inbox
		c.inbox = nil
		for _, m := range msgs {
			switch {
			case rt.panics.Frozen():
				rt.dropped(DropFrozen, c.name)
			case c.disposed.Load():
				rt.dropped(DropGone, c.name)
			default:
				m()
				rt.obs.MessageDelivered()
			}
		}
	}
	return true
}

func (rt *Runtime) dropped(reason, component string) {
	rt.obs.MessageDropped(reason)
	rt.log.Debug("reactive: message dropped", "reason", reason, "component", component)
}
