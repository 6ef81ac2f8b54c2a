package demo

import (
	"strconv"

	"github.com/vango-dev/cellui/el"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// Step is emitted by a Stepper for every unit it advances.
type Step struct {
	Delta int
}

// Reset is sent by the board to its steppers.
type Reset struct{}

// JumpSize is the number of Step messages a jump emits in one click.
const JumpSize = 5

// Stepper is the state of StepperView.
type Stepper struct {
	Label string
	Steps *reactive.Cell[int]
}

var sh el.Builder[Stepper]

// StepperView counts its own steps and reports each one to its parent.
var StepperView = &reactive.Component[Stepper]{
	Name: "stepper",
	Receive: func(e *reactive.EventCtx[Stepper], msg any) {
		if _, ok := msg.(Reset); ok {
			e.State().Steps.Set(0)
		}
	},
	Render: func(r *reactive.RenderCtx[Stepper]) reactive.Element {
		label := r.State().Label
		return sh.Div(el.ID(label), el.Class("stepper"),
			sh.Strong(label),
			sh.Button(el.ID(label+"-up"), "+1", el.OnClick(func(e *reactive.EventCtx[Stepper]) {
				e.State().Steps.Update(add(1))
				e.Emit(Step{Delta: 1})
			})),
			sh.Button(el.ID(label+"-jump"), "+"+strconv.Itoa(JumpSize), el.OnClick(func(e *reactive.EventCtx[Stepper]) {
				e.State().Steps.Update(add(JumpSize))
				for range JumpSize {
					e.Emit(Step{Delta: 1})
				}
			})),
			sh.Span(el.ID(label+"-steps"), reactive.TextFunc(func(r *reactive.RenderCtx[Stepper]) string {
				return strconv.Itoa(r.State().Steps.Get())
			})),
		)
	},
}

// Board is the state of BoardView.
type Board struct {
	Total *reactive.Cell[int]
}

// NewBoard returns a board with a zero total.
func NewBoard() *Board {
	return &Board{Total: reactive.NewCell(0)}
}

var bh el.Builder[Board]

// BoardView sums the steps of two steppers and can reset them.
var BoardView = &reactive.Component[Board]{
	Name: "board",
	Render: func(r *reactive.RenderCtx[Board]) reactive.Element {
		onStep := func(e *reactive.EventCtx[Board], m Step) {
			e.State().Total.Update(add(m.Delta))
		}
		left := reactive.Child(StepperView, &Stepper{Label: "left", Steps: reactive.NewCell(0)})
		right := reactive.Child(StepperView, &Stepper{Label: "right", Steps: reactive.NewCell(0)})
		resets := []reactive.Sender[Reset]{
			reactive.SenderOf[Reset](left),
			reactive.SenderOf[Reset](right),
		}

		return bh.Section(el.ID("board"), el.Class("card"),
			bh.H2("Board"),
			reactive.OnEmit(left, onStep),
			reactive.OnEmit(right, onStep),
			bh.P("Total: ", bh.Span(el.ID("total"), reactive.TextFunc(func(r *reactive.RenderCtx[Board]) string {
				return strconv.Itoa(r.State().Total.Get())
			}))),
			bh.Button(el.ID("reset"), "Reset", el.OnClick(func(e *reactive.EventCtx[Board]) {
				e.State().Total.Set(0)
				tok := e.Token()
				for _, s := range resets {
					s.Send(tok, Reset{})
				}
			})),
		)
	},
}
