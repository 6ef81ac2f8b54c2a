package demo

import (
	"strconv"

	"github.com/vango-dev/cellui/el"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// BigCount is the count above which the counter shows a note.
const BigCount = 10

// Counter is the state of CounterView.
type Counter struct {
	Count *reactive.Cell[int]
}

// NewCounter returns a counter starting at n.
func NewCounter(n int) *Counter {
	return &Counter{Count: reactive.NewCell(n)}
}

var ch el.Builder[Counter]

func add(d int) func(int) int { return func(n int) int { return n + d } }

// CounterView renders a count with buttons to change it.
var CounterView = &reactive.Component[Counter]{
	Name: "counter",
	Render: func(r *reactive.RenderCtx[Counter]) reactive.Element {
		return ch.Section(el.ID("counter"), el.Class("card"),
			ch.H2("Counter"),
			ch.Button(el.ID("dec"), "-", el.OnClick(func(e *reactive.EventCtx[Counter]) {
				e.State().Count.Update(add(-1))
			})),
			ch.Span(el.ID("count"), reactive.TextFunc(func(r *reactive.RenderCtx[Counter]) string {
				return strconv.Itoa(r.State().Count.Get())
			})),
			ch.Button(el.ID("inc"), "+", el.OnClick(func(e *reactive.EventCtx[Counter]) {
				e.State().Count.Update(add(1))
			})),
			ch.Button(el.ID("inc-twice"), "+2", el.OnClick(func(e *reactive.EventCtx[Counter]) {
				c := e.State().Count
				c.Update(add(1))
				c.Update(add(1))
			})),
			reactive.Dynamic(func(r *reactive.RenderCtx[Counter]) reactive.Element {
				big := reactive.Watch(r, func(s *Counter) bool { return s.Count.Get() > BigCount })
				return el.If(big, ch.P(el.ID("big"), el.Class("note"), "That is a big number."))
			}),
		).ClassFunc(func(r *reactive.RenderCtx[Counter]) string {
			if r.State().Count.Get() < 0 {
				return "negative"
			}
			return ""
		})
	},
}
