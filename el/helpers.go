package el

import "github.com/vango-dev/cellui/pkg/reactive"

func Text(content string) reactive.Element                   { return reactive.Text(content) }
func Textf(format string, args ...any) reactive.Element      { return reactive.Textf(format, args...) }
func Fragment(children ...reactive.Element) reactive.Element { return reactive.List(children...) }
func Nothing() reactive.Element                              { return reactive.Empty() }

// If returns el when condition is true and a placeholder otherwise.
func If(condition bool, el reactive.Element) reactive.Element {
	return reactive.Maybe(condition, el)
}

// IfElse returns ifTrue or ifFalse depending on condition.
func IfElse(condition bool, ifTrue, ifFalse reactive.Element) reactive.Element {
	if condition {
		return ifTrue
	}
	return ifFalse
}

// When calls fn only when condition is true.
func When(condition bool, fn func() reactive.Element) reactive.Element {
	if !condition {
		return reactive.Empty()
	}
	return fn()
}

// Range renders one element per item.
func Range[T any](items []T, fn func(item T, index int) reactive.Element) reactive.Element {
	return reactive.Map(items, func(i int, item T) reactive.Element { return fn(item, i) })
}

// Repeat renders fn n times.
func Repeat(n int, fn func(i int) reactive.Element) reactive.Element {
	out := make([]reactive.Element, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, fn(i))
	}
	return reactive.List(out...)
}
