package dom

import (
	"errors"
	"testing"
)

func mustElement(t *testing.T, m *Memory, tag string) *MemNode {
	t.Helper()
	n, err := m.CreateElement(tag)
	if err != nil {
		t.Fatalf("CreateElement(%q): %v", tag, err)
	}
	return n.(*MemNode)
}

func mustText(t *testing.T, m *Memory, text string) *MemNode {
	t.Helper()
	n, err := m.CreateText(text)
	if err != nil {
		t.Fatalf("CreateText(%q): %v", text, err)
	}
	return n.(*MemNode)
}

func TestAppendAndSerialize(t *testing.T) {
	m := NewMemory()
	div := mustElement(t, m, "div")
	if err := m.SetAttribute(div, "id", "app"); err != nil {
		t.Fatal(err)
	}
	if err := m.AppendChild(div, mustText(t, m, "a < b")); err != nil {
		t.Fatal(err)
	}
	br := mustElement(t, m, "br")
	if err := m.AppendChild(div, br); err != nil {
		t.Fatal(err)
	}
	if err := m.AppendChild(m.Root(), div); err != nil {
		t.Fatal(err)
	}

	want := `<div id="app">a &lt; b<br></div>`
	if got := m.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if m.ByID("app") != Node(div) {
		t.Error("expected ByID to find the attached element")
	}
}

func TestByIDIgnoresDetached(t *testing.T) {
	m := NewMemory()
	div := mustElement(t, m, "div")
	_ = m.SetAttribute(div, "id", "x")
	if m.ByID("x") != nil {
		t.Error("expected detached element not to be found")
	}
}

func TestInsertBeforeAndReplace(t *testing.T) {
	m := NewMemory()
	ul := mustElement(t, m, "ul")
	_ = m.AppendChild(m.Root(), ul)
	a := mustText(t, m, "a")
	c := mustText(t, m, "c")
	_ = m.AppendChild(ul, a)
	_ = m.AppendChild(ul, c)

	b := mustText(t, m, "b")
	if err := m.InsertBefore(ul, b, c); err != nil {
		t.Fatal(err)
	}
	if got := ul.TextContent(); got != "abc" {
		t.Errorf("expected abc, got %s", got)
	}

	z := mustText(t, m, "z")
	if err := m.Replace(a, z); err != nil {
		t.Fatal(err)
	}
	if got := ul.TextContent(); got != "zbc" {
		t.Errorf("expected zbc, got %s", got)
	}
	if _, ok := m.Node(a.NodeID()); ok {
		t.Error("expected replaced node to be forgotten")
	}
	if m.Parent(a) != nil {
		t.Error("expected replaced node to be detached")
	}
}

func TestInsertBeforeNotChild(t *testing.T) {
	m := NewMemory()
	p := mustElement(t, m, "div")
	other := mustElement(t, m, "div")
	ref := mustText(t, m, "r")
	_ = m.AppendChild(other, ref)

	err := m.InsertBefore(p, mustText(t, m, "x"), ref)
	if !errors.Is(err, ErrNotChild) {
		t.Errorf("expected ErrNotChild, got %v", err)
	}
}

func TestCycleRejected(t *testing.T) {
	m := NewMemory()
	outer := mustElement(t, m, "div")
	inner := mustElement(t, m, "div")
	_ = m.AppendChild(outer, inner)
	if err := m.AppendChild(inner, outer); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
}

func TestReplaceDetached(t *testing.T) {
	m := NewMemory()
	a := mustText(t, m, "a")
	if err := m.Replace(a, mustText(t, m, "b")); !errors.Is(err, ErrDetached) {
		t.Errorf("expected ErrDetached, got %v", err)
	}
}

func TestForeignNode(t *testing.T) {
	m1, m2 := NewMemory(), NewMemory()
	n := mustElement(t, m1, "p")
	if err := m2.AppendChild(m2.Root(), n); !errors.Is(err, ErrForeignNode) {
		t.Errorf("expected ErrForeignNode, got %v", err)
	}
}

func TestSetTextOnElement(t *testing.T) {
	m := NewMemory()
	if err := m.SetText(mustElement(t, m, "p"), "x"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("expected ErrWrongKind, got %v", err)
	}
}

func TestClasses(t *testing.T) {
	m := NewMemory()
	el := mustElement(t, m, "div")
	_ = m.AddClass(el, "a")
	_ = m.AddClass(el, "b")
	_ = m.AddClass(el, "a")
	if v, _ := el.Attr("class"); v != "a b" {
		t.Errorf("expected 'a b', got %q", v)
	}
	_ = m.RemoveClass(el, "a")
	if el.HasClass("a") || !el.HasClass("b") {
		t.Errorf("unexpected classes %v", el.Classes())
	}
}

func TestFireDoesNotBubble(t *testing.T) {
	m := NewMemory()
	outer := mustElement(t, m, "div")
	inner := mustElement(t, m, "button")
	_ = m.AppendChild(outer, inner)

	var outerHits, innerHits int
	_ = m.Listen(outer, "click", func(Event) { outerHits++ })
	_ = m.Listen(inner, "click", func(ev Event) {
		innerHits++
		if ev.Target != Node(inner) {
			t.Error("expected target to be the fired node")
		}
	})

	if !m.Fire(inner, Event{Kind: "click"}) {
		t.Error("expected a listener to run")
	}
	if innerHits != 1 || outerHits != 0 {
		t.Errorf("expected 1/0 hits, got %d/%d", innerHits, outerHits)
	}
	if m.Fire(inner, Event{Kind: "input"}) {
		t.Error("expected no listener for input")
	}
}

func TestEscape(t *testing.T) {
	m := NewMemory()
	el := mustElement(t, m, "a")
	_ = m.SetAttribute(el, "title", "say \"hi\"\n")
	_ = m.AppendChild(m.Root(), el)
	c, _ := m.CreateComment("x--y")
	_ = m.AppendChild(m.Root(), c)
	want := `<a title="say &quot;hi&quot;&#10;"></a><!--x- -y-->`
	if got := m.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
