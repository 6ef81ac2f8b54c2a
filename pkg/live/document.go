package live

import (
	"github.com/vango-dev/cellui/pkg/dom"
)

// Document is a dom.Document that applies every mutation to an in-memory
// mirror and records it as an Op. Only mutations that succeed on the mirror
// are recorded.
//
// Like dom.Memory, Document is only used from the runtime loop goroutine.
type Document struct {
	mem *dom.Memory
	ops []Op
}

var _ dom.Document = (*Document)(nil)

// NewDocument creates an empty mirrored document.
func NewDocument() *Document {
	return &Document{mem: dom.NewMemory()}
}

// Mirror returns the in-memory tree.
func (d *Document) Mirror() *dom.Memory { return d.mem }

// Pending returns the number of recorded ops not yet taken.
func (d *Document) Pending() int { return len(d.ops) }

// Take returns the recorded ops and starts a new batch.
func (d *Document) Take() []Op {
	ops := d.ops
	d.ops = nil
	return ops
}

// Snapshot returns the ops that rebuild the current tree under the body,
// including listener registrations.
func (d *Document) Snapshot() []Op {
	var ops []Op
	for _, c := range d.mem.Root().Children() {
		ops = appendTree(ops, c)
		ops = append(ops, Op{Kind: OpAppend, Node: c.NodeID(), Parent: d.mem.Root().NodeID()})
	}
	return ops
}

func appendTree(ops []Op, n *dom.MemNode) []Op {
	id := n.NodeID()
	switch n.Kind() {
	case dom.KindText:
		return append(ops, Op{Kind: OpCreateText, Node: id, Value: n.Data()})
	case dom.KindComment:
		return append(ops, Op{Kind: OpCreateComment, Node: id, Value: n.Data()})
	}
	ops = append(ops, Op{Kind: OpCreateElement, Node: id, Name: n.Tag()})
	for _, a := range n.Attrs() {
		ops = append(ops, Op{Kind: OpSetAttr, Node: id, Name: a.Name, Value: a.Value})
	}
	for _, kind := range n.ListenerKinds() {
		ops = append(ops, Op{Kind: OpListen, Node: id, Name: kind})
	}
	for _, c := range n.Children() {
		ops = appendTree(ops, c)
		ops = append(ops, Op{Kind: OpAppend, Node: c.NodeID(), Parent: id})
	}
	return ops
}

// Fire dispatches a client event to the mirror node with the given id. It
// reports whether the node exists and had listeners for the event kind.
func (d *Document) Fire(id uint64, ev dom.Event) bool {
	n, ok := d.mem.Node(id)
	if !ok {
		return false
	}
	return d.mem.Fire(n, ev)
}

func (d *Document) record(op Op) { d.ops = append(d.ops, op) }

func (d *Document) create(kind OpKind, n dom.Node, name, value string, err error) (dom.Node, error) {
	if err != nil {
		return nil, err
	}
	d.record(Op{Kind: kind, Node: n.NodeID(), Name: name, Value: value})
	return n, nil
}

// CreateElement implements dom.Document.
func (d *Document) CreateElement(tag string) (dom.Node, error) {
	n, err := d.mem.CreateElement(tag)
	if err != nil {
		return nil, err
	}
	el := n.(*dom.MemNode)
	return d.create(OpCreateElement, n, el.Tag(), "", nil)
}

// CreateText implements dom.Document.
func (d *Document) CreateText(text string) (dom.Node, error) {
	n, err := d.mem.CreateText(text)
	return d.create(OpCreateText, n, "", text, err)
}

// CreateComment implements dom.Document.
func (d *Document) CreateComment(text string) (dom.Node, error) {
	n, err := d.mem.CreateComment(text)
	return d.create(OpCreateComment, n, "", text, err)
}

// SetAttribute implements dom.Document.
func (d *Document) SetAttribute(n dom.Node, name, value string) error {
	if err := d.mem.SetAttribute(n, name, value); err != nil {
		return err
	}
	d.record(Op{Kind: OpSetAttr, Node: n.NodeID(), Name: name, Value: value})
	return nil
}

// RemoveAttribute implements dom.Document.
func (d *Document) RemoveAttribute(n dom.Node, name string) error {
	if err := d.mem.RemoveAttribute(n, name); err != nil {
		return err
	}
	d.record(Op{Kind: OpRemoveAttr, Node: n.NodeID(), Name: name})
	return nil
}

// AddClass implements dom.Document.
func (d *Document) AddClass(n dom.Node, class string) error {
	if err := d.mem.AddClass(n, class); err != nil {
		return err
	}
	d.record(Op{Kind: OpAddClass, Node: n.NodeID(), Value: class})
	return nil
}

// RemoveClass implements dom.Document.
func (d *Document) RemoveClass(n dom.Node, class string) error {
	if err := d.mem.RemoveClass(n, class); err != nil {
		return err
	}
	d.record(Op{Kind: OpRemoveClass, Node: n.NodeID(), Value: class})
	return nil
}

// SetText implements dom.Document.
func (d *Document) SetText(n dom.Node, text string) error {
	if err := d.mem.SetText(n, text); err != nil {
		return err
	}
	d.record(Op{Kind: OpSetText, Node: n.NodeID(), Value: text})
	return nil
}

// AppendChild implements dom.Document.
func (d *Document) AppendChild(parent, child dom.Node) error {
	if err := d.mem.AppendChild(parent, child); err != nil {
		return err
	}
	d.record(Op{Kind: OpAppend, Node: child.NodeID(), Parent: parent.NodeID()})
	return nil
}

// InsertBefore implements dom.Document.
func (d *Document) InsertBefore(parent, child, ref dom.Node) error {
	if err := d.mem.InsertBefore(parent, child, ref); err != nil {
		return err
	}
	d.record(Op{Kind: OpInsertBefore, Node: child.NodeID(), Parent: parent.NodeID(), Ref: ref.NodeID()})
	return nil
}

// Replace implements dom.Document.
func (d *Document) Replace(old, replacement dom.Node) error {
	if err := d.mem.Replace(old, replacement); err != nil {
		return err
	}
	d.record(Op{Kind: OpReplace, Node: replacement.NodeID(), Ref: old.NodeID()})
	return nil
}

// Remove implements dom.Document.
func (d *Document) Remove(n dom.Node) error {
	if err := d.mem.Remove(n); err != nil {
		return err
	}
	d.record(Op{Kind: OpRemove, Node: n.NodeID()})
	return nil
}

// Parent implements dom.Document.
func (d *Document) Parent(n dom.Node) dom.Node { return d.mem.Parent(n) }

// ByID implements dom.Document.
func (d *Document) ByID(id string) dom.Node { return d.mem.ByID(id) }

// Listen implements dom.Document.
func (d *Document) Listen(n dom.Node, kind string, l dom.Listener) error {
	if err := d.mem.Listen(n, kind, l); err != nil {
		return err
	}
	d.record(Op{Kind: OpListen, Node: n.NodeID(), Name: kind})
	return nil
}
