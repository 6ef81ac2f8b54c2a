package live

import (
	"slices"
	"testing"

	"github.com/vango-dev/cellui/pkg/dom"
)

// replay applies ops to mem the way a client applies frames. nodes maps
// server ids to replayed nodes and must contain the body as id 1.
func replay(t *testing.T, mem *dom.Memory, nodes map[uint64]dom.Node, ops []Op) {
	t.Helper()
	get := func(id uint64) dom.Node {
		n, ok := nodes[id]
		if !ok {
			t.Fatalf("op references unknown node %d", id)
		}
		return n
	}
	for _, op := range ops {
		var err error
		switch op.Kind {
		case OpCreateElement:
			nodes[op.Node], err = mem.CreateElement(op.Name)
		case OpCreateText:
			nodes[op.Node], err = mem.CreateText(op.Value)
		case OpCreateComment:
			nodes[op.Node], err = mem.CreateComment(op.Value)
		case OpSetAttr:
			err = mem.SetAttribute(get(op.Node), op.Name, op.Value)
		case OpRemoveAttr:
			err = mem.RemoveAttribute(get(op.Node), op.Name)
		case OpAddClass:
			err = mem.AddClass(get(op.Node), op.Value)
		case OpRemoveClass:
			err = mem.RemoveClass(get(op.Node), op.Value)
		case OpSetText:
			err = mem.SetText(get(op.Node), op.Value)
		case OpAppend:
			err = mem.AppendChild(get(op.Parent), get(op.Node))
		case OpInsertBefore:
			err = mem.InsertBefore(get(op.Parent), get(op.Node), get(op.Ref))
		case OpReplace:
			err = mem.Replace(get(op.Ref), get(op.Node))
			delete(nodes, op.Ref)
		case OpRemove:
			err = mem.Remove(get(op.Node))
			delete(nodes, op.Node)
		case OpListen:
		default:
			t.Fatalf("unknown op %v", op.Kind)
		}
		if err != nil {
			t.Fatalf("replay %v on %d: %v", op.Kind, op.Node, err)
		}
	}
}

func newReplica() (*dom.Memory, map[uint64]dom.Node) {
	mem := dom.NewMemory()
	return mem, map[uint64]dom.Node{1: mem.Root()}
}

func kinds(ops []Op) []OpKind {
	out := make([]OpKind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}

func TestDocumentRecordsMutations(t *testing.T) {
	d := NewDocument()
	div, _ := d.CreateElement("DIV")
	_ = d.SetAttribute(div, "id", "box")
	txt, _ := d.CreateText("hi")
	_ = d.AppendChild(div, txt)
	_ = d.AppendChild(d.Mirror().Root(), div)

	ops := d.Take()
	want := []OpKind{OpCreateElement, OpSetAttr, OpCreateText, OpAppend, OpAppend}
	if !slices.Equal(kinds(ops), want) {
		t.Fatalf("ops = %v, want %v", kinds(ops), want)
	}
	if ops[0].Name != "div" {
		t.Errorf("tag = %q, want lowercased div", ops[0].Name)
	}
	if ops[4].Parent != 1 || ops[4].Node != div.NodeID() {
		t.Errorf("append to body = %+v", ops[4])
	}
	if d.Pending() != 0 {
		t.Errorf("Take should reset the batch, %d pending", d.Pending())
	}

	if err := d.SetText(div, "nope"); err == nil {
		t.Fatal("SetText on an element should fail")
	}
	if d.Pending() != 0 {
		t.Error("failed mutations must not be recorded")
	}

	_ = d.SetText(txt, "bye")
	ops = d.Take()
	if len(ops) != 1 || ops[0].Kind != OpSetText || ops[0].Value != "bye" {
		t.Errorf("ops = %+v", ops)
	}
}

func TestDocumentOpsReplay(t *testing.T) {
	d := NewDocument()
	mem, nodes := newReplica()

	ul, _ := d.CreateElement("ul")
	a, _ := d.CreateElement("li")
	b, _ := d.CreateElement("li")
	ta, _ := d.CreateText("a")
	tb, _ := d.CreateText("b")
	_ = d.AppendChild(a, ta)
	_ = d.AppendChild(b, tb)
	_ = d.AppendChild(ul, b)
	_ = d.InsertBefore(ul, a, b)
	_ = d.AppendChild(d.Mirror().Root(), ul)
	_ = d.AddClass(ul, "list")
	replay(t, mem, nodes, d.Take())

	c, _ := d.CreateComment("gone")
	_ = d.Replace(b, c)
	_ = d.RemoveClass(ul, "list")
	_ = d.SetAttribute(ul, "role", "list")
	_ = d.RemoveAttribute(ul, "role")
	_ = d.Remove(a)
	replay(t, mem, nodes, d.Take())

	if got, want := mem.HTML(), d.Mirror().HTML(); got != want {
		t.Errorf("replayed %q, mirror %q", got, want)
	}
}

func TestDocumentSnapshot(t *testing.T) {
	d := NewDocument()
	btn, _ := d.CreateElement("button")
	_ = d.SetAttribute(btn, "id", "go")
	label, _ := d.CreateText("Go")
	_ = d.AppendChild(btn, label)
	_ = d.Listen(btn, "click", func(dom.Event) {})
	_ = d.AppendChild(d.Mirror().Root(), btn)
	d.Take()

	snap := d.Snapshot()
	want := []OpKind{OpCreateElement, OpSetAttr, OpListen, OpCreateText, OpAppend, OpAppend}
	if !slices.Equal(kinds(snap), want) {
		t.Fatalf("snapshot = %v, want %v", kinds(snap), want)
	}

	mem, nodes := newReplica()
	replay(t, mem, nodes, snap)
	if got, want := mem.HTML(), d.Mirror().HTML(); got != want {
		t.Errorf("replayed %q, mirror %q", got, want)
	}
}

func TestDocumentFire(t *testing.T) {
	d := NewDocument()
	btn, _ := d.CreateElement("button")
	var got string
	_ = d.Listen(btn, "input", func(ev dom.Event) { got = ev.Value })

	if !d.Fire(btn.NodeID(), dom.Event{Kind: "input", Value: "x"}) || got != "x" {
		t.Errorf("Fire did not reach the listener, got %q", got)
	}
	if d.Fire(btn.NodeID(), dom.Event{Kind: "click"}) {
		t.Error("Fire without listeners should report false")
	}
	if d.Fire(999, dom.Event{Kind: "input"}) {
		t.Error("Fire on an unknown node should report false")
	}
}

func TestDecodeEventRejectsIncompleteFrames(t *testing.T) {
	data, err := EncodeEvent(&EventFrame{Kind: "click"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeEvent(data); err == nil {
		t.Error("expected an error for a frame without a node")
	}
	if _, err := DecodeEvent([]byte{0xc1}); err == nil {
		t.Error("expected an error for invalid msgpack")
	}

	data, _ = EncodeEvent(&EventFrame{Node: 7, Kind: "input", Value: "v"})
	ev, err := DecodeEvent(data)
	if err != nil || ev.Node != 7 || ev.Value != "v" {
		t.Errorf("DecodeEvent = %+v, %v", ev, err)
	}
}
