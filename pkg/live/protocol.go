package live

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vango-dev/cellui/internal/errors"
)

// OpKind is the type of a document mutation.
type OpKind uint8

// Document mutation kinds. Values are part of the wire format.
const (
	OpCreateElement OpKind = 0x01 // Node = new id, Name = tag
	OpCreateText    OpKind = 0x02 // Node = new id, Value = text
	OpCreateComment OpKind = 0x03 // Node = new id, Value = text
	OpSetAttr       OpKind = 0x04 // Name = attribute, Value = value
	OpRemoveAttr    OpKind = 0x05 // Name = attribute
	OpAddClass      OpKind = 0x06 // Value = class
	OpRemoveClass   OpKind = 0x07 // Value = class
	OpSetText       OpKind = 0x08 // Value = text
	OpAppend        OpKind = 0x09 // Parent gains Node as its last child
	OpInsertBefore  OpKind = 0x0A // Parent gains Node before Ref
	OpReplace       OpKind = 0x0B // Ref is replaced by Node
	OpRemove        OpKind = 0x0C // Node is removed
	OpListen        OpKind = 0x0D // Name = event kind forwarded for Node
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpCreateComment:
		return "CreateComment"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpAddClass:
		return "AddClass"
	case OpRemoveClass:
		return "RemoveClass"
	case OpSetText:
		return "SetText"
	case OpAppend:
		return "Append"
	case OpInsertBefore:
		return "InsertBefore"
	case OpReplace:
		return "Replace"
	case OpRemove:
		return "Remove"
	case OpListen:
		return "Listen"
	default:
		return "Unknown"
	}
}

// Op is one recorded document mutation. Node ids refer to the server mirror;
// id 0 never names a node and 1 is always the document body.
type Op struct {
	Kind   OpKind `msgpack:"k"`
	Node   uint64 `msgpack:"n"`
	Parent uint64 `msgpack:"p,omitempty"`
	Ref    uint64 `msgpack:"r,omitempty"`
	Name   string `msgpack:"a,omitempty"`
	Value  string `msgpack:"v,omitempty"`
}

// Frame is a server to client message. The first frame of a session has
// Seq 0 and carries the HTML snapshot together with the ops that rebuild
// it; every later frame carries the ops of one turn.
type Frame struct {
	Seq   uint64 `msgpack:"s"`
	HTML  string `msgpack:"h,omitempty"`
	Ops   []Op   `msgpack:"o,omitempty"`
	Error string `msgpack:"e,omitempty"`
}

// EventFrame is a client to server message reporting a host event on a
// mirror node.
type EventFrame struct {
	Node  uint64 `msgpack:"n"`
	Kind  string `msgpack:"k"`
	Value string `msgpack:"v,omitempty"`
	Key   string `msgpack:"y,omitempty"`
}

// EncodeFrame serializes a frame.
func EncodeFrame(f *Frame) ([]byte, error) {
	return msgpack.Marshal(f)
}

// DecodeFrame parses a frame.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.CodeBadFrame).Wrap(err)
	}
	return &f, nil
}

// EncodeEvent serializes an event frame.
func EncodeEvent(ev *EventFrame) ([]byte, error) {
	return msgpack.Marshal(ev)
}

// DecodeEvent parses an event frame. Frames without a node or kind are
// rejected.
func DecodeEvent(data []byte) (*EventFrame, error) {
	var ev EventFrame
	if err := msgpack.Unmarshal(data, &ev); err != nil {
		return nil, errors.New(errors.CodeBadFrame).Wrap(err)
	}
	if ev.Node == 0 || ev.Kind == "" {
		return nil, errors.New(errors.CodeBadFrame).WithDetail("event frame needs a node and a kind")
	}
	return &ev, nil
}
