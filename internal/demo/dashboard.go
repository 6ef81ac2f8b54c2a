package demo

import (
	"time"

	"github.com/vango-dev/cellui/el"
	"github.com/vango-dev/cellui/pkg/live"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// DefaultQuoteDelay is the latency of the built-in quote source.
const DefaultQuoteDelay = 300 * time.Millisecond

// Dashboard is the state of the root component. Children own their state.
type Dashboard struct{}

var dh el.Builder[Dashboard]

// DashboardView places the demo components side by side.
func DashboardView(fetch Fetcher) *reactive.Component[Dashboard] {
	quote := QuoteView(fetch)
	return &reactive.Component[Dashboard]{
		Name: "dashboard",
		Render: func(r *reactive.RenderCtx[Dashboard]) reactive.Element {
			return dh.Main(el.ID("dashboard"),
				dh.H1("cellui"),
				reactive.Child(CounterView, NewCounter(0)),
				reactive.Child(BoardView, NewBoard()),
				reactive.Child(quote, NewQuote()),
			)
		},
	}
}

// App returns the dashboard as a live application. A nil fetch uses
// SlowQuotes with DefaultQuoteDelay.
func App(fetch Fetcher) live.App {
	if fetch == nil {
		fetch = SlowQuotes(DefaultQuoteDelay)
	}
	return live.Root(DashboardView(fetch), func() *Dashboard { return &Dashboard{} })
}
