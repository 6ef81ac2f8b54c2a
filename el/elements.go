package el

import (
	"strings"

	"github.com/vango-dev/cellui/pkg/reactive"
)

// Builder creates elements for components with state S. The zero value is
// ready to use.
type Builder[S any] struct{}

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

// createElement builds an element from the DSL arguments. Unknown argument
// types are ignored. Children of void elements are dropped.
func createElement[S any](tag string, args []any) *reactive.HTML[S] {
	node := reactive.Tag[S](tag)
	void := voidElements[tag]
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue

		case Attr:
			applyAttr(node, v)

		case []Attr:
			for _, a := range v {
				applyAttr(node, a)
			}

		case string:
			if !void {
				node.Text(v)
			}

		case reactive.Element:
			if !void && v != nil {
				node.Child(v)
			}

		case []reactive.Element:
			if !void {
				node.Child(v...)
			}

		case Handler[S]:
			node.On(v.Kind, v.Fn)
		}
	}
	return node
}

// Element creates an element with an arbitrary tag.
func (Builder[S]) Element(tag string, args ...any) *reactive.HTML[S] {
	return createElement[S](tag, args)
}

// Content sectioning elements

func (Builder[S]) Header(args ...any) *reactive.HTML[S]  { return createElement[S]("header", args) }
func (Builder[S]) Footer(args ...any) *reactive.HTML[S]  { return createElement[S]("footer", args) }
func (Builder[S]) Main(args ...any) *reactive.HTML[S]    { return createElement[S]("main", args) }
func (Builder[S]) Nav(args ...any) *reactive.HTML[S]     { return createElement[S]("nav", args) }
func (Builder[S]) Section(args ...any) *reactive.HTML[S] { return createElement[S]("section", args) }
func (Builder[S]) Article(args ...any) *reactive.HTML[S] { return createElement[S]("article", args) }
func (Builder[S]) Aside(args ...any) *reactive.HTML[S]   { return createElement[S]("aside", args) }
func (Builder[S]) H1(args ...any) *reactive.HTML[S]      { return createElement[S]("h1", args) }
func (Builder[S]) H2(args ...any) *reactive.HTML[S]      { return createElement[S]("h2", args) }
func (Builder[S]) H3(args ...any) *reactive.HTML[S]      { return createElement[S]("h3", args) }

// Text content elements

func (Builder[S]) Div(args ...any) *reactive.HTML[S]  { return createElement[S]("div", args) }
func (Builder[S]) P(args ...any) *reactive.HTML[S]    { return createElement[S]("p", args) }
func (Builder[S]) Span(args ...any) *reactive.HTML[S] { return createElement[S]("span", args) }
func (Builder[S]) Pre(args ...any) *reactive.HTML[S]  { return createElement[S]("pre", args) }
func (Builder[S]) Ul(args ...any) *reactive.HTML[S]   { return createElement[S]("ul", args) }
func (Builder[S]) Ol(args ...any) *reactive.HTML[S]   { return createElement[S]("ol", args) }
func (Builder[S]) Li(args ...any) *reactive.HTML[S]   { return createElement[S]("li", args) }
func (Builder[S]) Hr(args ...any) *reactive.HTML[S]   { return createElement[S]("hr", args) }

// Inline text semantics

func (Builder[S]) A(args ...any) *reactive.HTML[S]      { return createElement[S]("a", args) }
func (Builder[S]) Strong(args ...any) *reactive.HTML[S] { return createElement[S]("strong", args) }
func (Builder[S]) Em(args ...any) *reactive.HTML[S]     { return createElement[S]("em", args) }
func (Builder[S]) Code(args ...any) *reactive.HTML[S]   { return createElement[S]("code", args) }
func (Builder[S]) Small(args ...any) *reactive.HTML[S]  { return createElement[S]("small", args) }
func (Builder[S]) Br(args ...any) *reactive.HTML[S]     { return createElement[S]("br", args) }

// Forms

func (Builder[S]) Form(args ...any) *reactive.HTML[S]     { return createElement[S]("form", args) }
func (Builder[S]) Label(args ...any) *reactive.HTML[S]    { return createElement[S]("label", args) }
func (Builder[S]) Input(args ...any) *reactive.HTML[S]    { return createElement[S]("input", args) }
func (Builder[S]) Button(args ...any) *reactive.HTML[S]   { return createElement[S]("button", args) }
func (Builder[S]) Select(args ...any) *reactive.HTML[S]   { return createElement[S]("select", args) }
func (Builder[S]) Option(args ...any) *reactive.HTML[S]   { return createElement[S]("option", args) }
func (Builder[S]) Textarea(args ...any) *reactive.HTML[S] { return createElement[S]("textarea", args) }

// Embedded content

func (Builder[S]) Img(args ...any) *reactive.HTML[S] { return createElement[S]("img", args) }
