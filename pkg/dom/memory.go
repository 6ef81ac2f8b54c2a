package dom

import (
	"fmt"
	"slices"
	"strings"
)

// Attr is a single attribute of an element.
type Attr struct {
	Name  string
	Value string
}

// MemNode is a node of a Memory document.
type MemNode struct {
	id        uint64
	kind      Kind
	tag       string
	text      string
	attrs     []Attr
	parent    *MemNode
	children  []*MemNode
	listeners map[string][]Listener
	doc       *Memory
}

// NodeID implements Node.
func (n *MemNode) NodeID() uint64 { return n.id }

// Kind implements Node.
func (n *MemNode) Kind() Kind { return n.kind }

// Tag returns the element tag, or "" for text and comment nodes.
func (n *MemNode) Tag() string { return n.tag }

// Data returns the content of a text or comment node.
func (n *MemNode) Data() string { return n.text }

// Attr returns the value of the named attribute.
func (n *MemNode) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns a copy of the element attributes in insertion order.
func (n *MemNode) Attrs() []Attr { return slices.Clone(n.attrs) }

// Classes returns the entries of the class attribute.
func (n *MemNode) Classes() []string {
	v, _ := n.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether class is present in the class attribute.
func (n *MemNode) HasClass(class string) bool {
	return slices.Contains(n.Classes(), class)
}

// Parent returns the parent node, or nil.
func (n *MemNode) Parent() *MemNode { return n.parent }

// Children returns a copy of the child list.
func (n *MemNode) Children() []*MemNode { return slices.Clone(n.children) }

// TextContent returns the concatenated text of all descendant text nodes.
func (n *MemNode) TextContent() string {
	var b strings.Builder
	n.walk(func(c *MemNode) bool {
		if c.kind == KindText {
			b.WriteString(c.text)
		}
		return true
	})
	return b.String()
}

// HasListener reports whether a listener for kind is registered.
func (n *MemNode) HasListener(kind string) bool {
	return len(n.listeners[kind]) > 0
}

// ListenerKinds returns the sorted event kinds that have listeners.
func (n *MemNode) ListenerKinds() []string {
	kinds := make([]string, 0, len(n.listeners))
	for k, ls := range n.listeners {
		if len(ls) > 0 {
			kinds = append(kinds, k)
		}
	}
	slices.Sort(kinds)
	return kinds
}

func (n *MemNode) String() string {
	switch n.kind {
	case KindElement:
		return fmt.Sprintf("<%s#%d>", n.tag, n.id)
	case KindText:
		return fmt.Sprintf("%q#%d", n.text, n.id)
	default:
		return fmt.Sprintf("<!--%s-->#%d", n.text, n.id)
	}
}

// walk visits n and its descendants depth first until fn returns false.
func (n *MemNode) walk(fn func(*MemNode) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

func (n *MemNode) setAttr(name, value string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

func (n *MemNode) removeAttr(name string) {
	n.attrs = slices.DeleteFunc(n.attrs, func(a Attr) bool { return a.Name == name })
}

func (n *MemNode) detach() {
	p := n.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

func (n *MemNode) isAncestorOf(other *MemNode) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Memory is a detached in-memory Document rooted at a <body> element.
//
// Memory is not safe for concurrent use. The reactive runtime only touches
// its document from the loop goroutine.
type Memory struct {
	root   *MemNode
	nodes  map[uint64]*MemNode
	nextID uint64
}

var _ Document = (*Memory)(nil)

// NewMemory creates an empty document.
func NewMemory() *Memory {
	m := &Memory{nodes: make(map[uint64]*MemNode)}
	m.root = m.newNode(KindElement, "body", "")
	return m
}

// Root returns the <body> element every attached node descends from.
func (m *Memory) Root() *MemNode { return m.root }

// Node looks up a live node by id. Nodes removed from the tree are forgotten.
func (m *Memory) Node(id uint64) (*MemNode, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Len returns the number of live nodes, including the root.
func (m *Memory) Len() int { return len(m.nodes) }

func (m *Memory) newNode(kind Kind, tag, text string) *MemNode {
	m.nextID++
	n := &MemNode{id: m.nextID, kind: kind, tag: tag, text: text, doc: m}
	m.nodes[n.id] = n
	return n
}

func (m *Memory) own(n Node) (*MemNode, error) {
	mn, ok := n.(*MemNode)
	if !ok || mn == nil || mn.doc != m {
		return nil, ErrForeignNode
	}
	return mn, nil
}

func (m *Memory) element(n Node) (*MemNode, error) {
	mn, err := m.own(n)
	if err != nil {
		return nil, err
	}
	if mn.kind != KindElement {
		return nil, fmt.Errorf("%w: %s", ErrWrongKind, mn.kind)
	}
	return mn, nil
}

func (m *Memory) forget(n *MemNode) {
	n.walk(func(c *MemNode) bool {
		delete(m.nodes, c.id)
		return true
	})
}

// CreateElement implements Document.
func (m *Memory) CreateElement(tag string) (Node, error) {
	if tag == "" {
		return nil, fmt.Errorf("dom: empty tag name")
	}
	return m.newNode(KindElement, strings.ToLower(tag), ""), nil
}

// CreateText implements Document.
func (m *Memory) CreateText(text string) (Node, error) {
	return m.newNode(KindText, "", text), nil
}

// CreateComment implements Document.
func (m *Memory) CreateComment(text string) (Node, error) {
	return m.newNode(KindComment, "", text), nil
}

// SetAttribute implements Document.
func (m *Memory) SetAttribute(n Node, name, value string) error {
	el, err := m.element(n)
	if err != nil {
		return err
	}
	el.setAttr(name, value)
	return nil
}

// RemoveAttribute implements Document.
func (m *Memory) RemoveAttribute(n Node, name string) error {
	el, err := m.element(n)
	if err != nil {
		return err
	}
	el.removeAttr(name)
	return nil
}

// AddClass implements Document.
func (m *Memory) AddClass(n Node, class string) error {
	el, err := m.element(n)
	if err != nil {
		return err
	}
	classes := el.Classes()
	if slices.Contains(classes, class) {
		return nil
	}
	el.setAttr("class", strings.Join(append(classes, class), " "))
	return nil
}

// RemoveClass implements Document.
func (m *Memory) RemoveClass(n Node, class string) error {
	el, err := m.element(n)
	if err != nil {
		return err
	}
	classes := el.Classes()
	if !slices.Contains(classes, class) {
		return nil
	}
	classes = slices.DeleteFunc(classes, func(c string) bool { return c == class })
	el.setAttr("class", strings.Join(classes, " "))
	return nil
}

// SetText implements Document.
func (m *Memory) SetText(n Node, text string) error {
	mn, err := m.own(n)
	if err != nil {
		return err
	}
	if mn.kind == KindElement {
		return fmt.Errorf("%w: %s", ErrWrongKind, mn.kind)
	}
	mn.text = text
	return nil
}

// AppendChild implements Document. A child that already has a parent is moved.
func (m *Memory) AppendChild(parent, child Node) error {
	p, err := m.element(parent)
	if err != nil {
		return err
	}
	c, err := m.own(child)
	if err != nil {
		return err
	}
	if c.isAncestorOf(p) {
		return ErrCycle
	}
	c.detach()
	c.parent = p
	p.children = append(p.children, c)
	return nil
}

// InsertBefore implements Document.
func (m *Memory) InsertBefore(parent, child, ref Node) error {
	p, err := m.element(parent)
	if err != nil {
		return err
	}
	c, err := m.own(child)
	if err != nil {
		return err
	}
	r, err := m.own(ref)
	if err != nil {
		return err
	}
	if r.parent != p {
		return ErrNotChild
	}
	if c.isAncestorOf(p) {
		return ErrCycle
	}
	if c == r {
		return nil
	}
	c.detach()
	i := slices.Index(p.children, r)
	p.children = slices.Insert(p.children, i, c)
	c.parent = p
	return nil
}

// Replace implements Document. The old node and its subtree are forgotten.
func (m *Memory) Replace(old, replacement Node) error {
	o, err := m.own(old)
	if err != nil {
		return err
	}
	r, err := m.own(replacement)
	if err != nil {
		return err
	}
	if o == r {
		return nil
	}
	p := o.parent
	if p == nil {
		return ErrDetached
	}
	if r.isAncestorOf(p) {
		return ErrCycle
	}
	r.detach()
	i := slices.Index(p.children, o)
	p.children[i] = r
	r.parent = p
	o.parent = nil
	m.forget(o)
	return nil
}

// Remove implements Document. The node and its subtree are forgotten.
func (m *Memory) Remove(n Node) error {
	mn, err := m.own(n)
	if err != nil {
		return err
	}
	if mn == m.root {
		return fmt.Errorf("dom: cannot remove document root")
	}
	mn.detach()
	m.forget(mn)
	return nil
}

// Parent implements Document.
func (m *Memory) Parent(n Node) Node {
	mn, err := m.own(n)
	if err != nil || mn.parent == nil {
		return nil
	}
	return mn.parent
}

// ByID implements Document.
func (m *Memory) ByID(id string) Node {
	var found *MemNode
	m.root.walk(func(c *MemNode) bool {
		if c.kind == KindElement {
			if v, ok := c.Attr("id"); ok && v == id {
				found = c
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil
	}
	return found
}

// Listen implements Document.
func (m *Memory) Listen(n Node, kind string, l Listener) error {
	el, err := m.element(n)
	if err != nil {
		return err
	}
	if el.listeners == nil {
		el.listeners = make(map[string][]Listener)
	}
	el.listeners[kind] = append(el.listeners[kind], l)
	return nil
}

// Fire dispatches ev to the listeners registered on n for ev.Kind. Events
// do not bubble. It reports whether any listener ran.
func (m *Memory) Fire(n Node, ev Event) bool {
	mn, err := m.own(n)
	if err != nil {
		return false
	}
	ev.Target = mn
	ls := slices.Clone(mn.listeners[ev.Kind])
	for _, l := range ls {
		l(ev)
	}
	return len(ls) > 0
}

// HTML serializes the document body's children.
func (m *Memory) HTML() string {
	var b strings.Builder
	for _, c := range m.root.children {
		writeNode(&b, c)
	}
	return b.String()
}
