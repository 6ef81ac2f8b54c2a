// Package el provides a small HTML DSL over the reactive runtime.
//
// Element constructors are methods on Builder[S] so that the state type of
// the component is fixed once per render function:
//
//	var h el.Builder[Counter]
//
//	func render(r *reactive.RenderCtx[Counter]) reactive.Element {
//	    return h.Div(el.ID("counter"),
//	        h.Button(el.ID("inc"), el.OnClick(increment), "+"),
//	        h.Span(reactive.TextFunc(count)),
//	    )
//	}
//
// Arguments can be nil, Attr, []Attr, string (a text child), reactive.Element,
// []reactive.Element or a Handler.
package el
