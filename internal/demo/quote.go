package demo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vango-dev/cellui/el"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// Fetcher loads a quote. It runs off the loop goroutine.
type Fetcher func(ctx context.Context) (string, error)

// QuoteResult is the outcome of one fetch.
type QuoteResult struct {
	Text string
	Err  error
}

// Quote is the state of a quote view. Result is nil while loading.
type Quote struct {
	Result *reactive.Cell[*QuoteResult]
}

// NewQuote returns a quote in the loading state.
func NewQuote() *Quote {
	return &Quote{Result: reactive.NewCell[*QuoteResult](nil)}
}

var quotes = []string{
	"Simplicity is prerequisite for reliability.",
	"Make it work, make it right, make it fast.",
	"Clear is better than clever.",
}

// SlowQuotes returns a Fetcher cycling through built-in quotes after delay.
func SlowQuotes(delay time.Duration) Fetcher {
	var n atomic.Uint64
	return func(ctx context.Context) (string, error) {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return quotes[(n.Add(1)-1)%uint64(len(quotes))], nil
	}
}

var qh el.Builder[Quote]

// QuoteView fetches a quote on mount and on every reload.
func QuoteView(fetch Fetcher) *reactive.Component[Quote] {
	load := func(e *reactive.EventCtx[Quote]) {
		e.UseAsync(func(ctx context.Context, d *reactive.Deferred[Quote]) {
			text, err := fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			d.Update(func(e *reactive.EventCtx[Quote]) {
				e.State().Result.Set(&QuoteResult{Text: text, Err: err})
			})
		})
	}

	return &reactive.Component[Quote]{
		Name:    "quote",
		OnMount: load,
		Render: func(r *reactive.RenderCtx[Quote]) reactive.Element {
			return qh.Section(el.ID("quote"), el.Class("card"), el.AriaLive("polite"),
				qh.H2("Quote"),
				reactive.Dynamic(quoteBody),
				qh.Button(el.ID("reload"), "Reload", el.OnClick(func(e *reactive.EventCtx[Quote]) {
					e.State().Result.Set(nil)
					load(e)
				})),
			)
		},
	}
}

// quoteBody re-runs only when the quote goes between loading and loaded.
func quoteBody(r *reactive.RenderCtx[Quote]) reactive.Element {
	res, ok := reactive.GuardOption(r, func(s *Quote) (*QuoteResult, bool) {
		p := s.Result.Get()
		return p, p != nil
	})
	if !ok {
		return qh.P(el.ID("quote-status"), "Loading quote...")
	}
	return reactive.Dynamic(func(r *reactive.RenderCtx[Quote]) reactive.Element {
		text, failed, ok := reactive.GuardResult(r, func(s *Quote) (string, error) {
			q := res.Of(s)
			return q.Text, q.Err
		})
		if !ok {
			return qh.P(el.ID("quote-error"), el.Class("error"),
				reactive.TextFunc(func(r *reactive.RenderCtx[Quote]) string {
					return "Could not load a quote: " + failed.Get(r).Error()
				}),
			)
		}
		return qh.Element("blockquote", el.ID("quote-text"),
			reactive.TextFunc(func(r *reactive.RenderCtx[Quote]) string { return text.Get(r) }),
		)
	})
}
