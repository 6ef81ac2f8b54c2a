package el

import (
	"strconv"
	"strings"

	"github.com/vango-dev/cellui/pkg/dom"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// Attr is a static attribute argument. Class attributes accumulate.
type Attr struct {
	Name  string
	Value string
}

func applyAttr[S any](node *reactive.HTML[S], a Attr) {
	switch a.Name {
	case "":
	case "class":
		node.Class(strings.Fields(a.Value)...)
	default:
		node.Attr(a.Name, a.Value)
	}
}

func ID(id string) Attr             { return Attr{Name: "id", Value: id} }
func Class(classes ...string) Attr  { return Attr{Name: "class", Value: strings.Join(classes, " ")} }
func Href(url string) Attr          { return Attr{Name: "href", Value: url} }
func Type(t string) Attr            { return Attr{Name: "type", Value: t} }
func Name(name string) Attr         { return Attr{Name: "name", Value: name} }
func Value(v string) Attr           { return Attr{Name: "value", Value: v} }
func Placeholder(text string) Attr  { return Attr{Name: "placeholder", Value: text} }
func Role(role string) Attr         { return Attr{Name: "role", Value: role} }
func AriaLabel(label string) Attr   { return Attr{Name: "aria-label", Value: label} }
func AriaLive(mode string) Attr     { return Attr{Name: "aria-live", Value: mode} }
func Data(key, value string) Attr   { return Attr{Name: "data-" + key, Value: value} }
func Attribute(name, v string) Attr { return Attr{Name: name, Value: v} }
func TabIndex(i int) Attr           { return Attr{Name: "tabindex", Value: strconv.Itoa(i)} }
func Src(path dom.AssetPath) Attr   { return Attr{Name: "src", Value: path} }
func ClassOf(c dom.ClassName) Attr  { return Attr{Name: "class", Value: c} }

// Disabled adds the disabled attribute when disabled is true.
func Disabled(disabled bool) Attr {
	if !disabled {
		return Attr{}
	}
	return Attr{Name: "disabled", Value: ""}
}

// AriaHidden sets aria-hidden to "true" or "false".
func AriaHidden(hidden bool) Attr {
	return Attr{Name: "aria-hidden", Value: strconv.FormatBool(hidden)}
}
