// Package dom defines the document layer the reactive runtime mutates.
//
// The runtime never inspects nodes: it creates them, wires them together,
// sets attributes and text, and registers listeners through Document. Any
// host that can perform those primitives can be driven by the runtime. Memory
// is a detached in-memory implementation used by tests, server-side
// rendering and the live transport's mirror.
package dom

import "errors"

// Kind identifies the type of a node.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Node is an opaque handle to a document node.
type Node interface {
	// NodeID returns an identifier unique within the node's document.
	NodeID() uint64

	// Kind returns the node type.
	Kind() Kind
}

// Event is a host event delivered to a listener.
type Event struct {
	// Kind is the event name ("click", "input", ...).
	Kind string

	// Target is the node the event was fired on.
	Target Node

	// Value carries the current value of form controls.
	Value string

	// Key carries the key for keyboard events.
	Key string
}

// Listener receives events registered with Document.Listen.
type Listener func(Event)

// Document is the set of host primitives the runtime relies on.
//
// Errors indicate a corrupted or failing host. Callers treat them as
// environment failures rather than recoverable conditions.
type Document interface {
	CreateElement(tag string) (Node, error)
	CreateText(text string) (Node, error)
	CreateComment(text string) (Node, error)

	SetAttribute(n Node, name, value string) error
	RemoveAttribute(n Node, name string) error
	AddClass(n Node, class string) error
	RemoveClass(n Node, class string) error
	SetText(n Node, text string) error

	AppendChild(parent, child Node) error
	InsertBefore(parent, child, ref Node) error
	Replace(old, replacement Node) error
	Remove(n Node) error

	// Parent returns the parent of n, or nil if n is detached.
	Parent(n Node) Node

	// ByID returns the attached element whose id attribute equals id, or nil.
	ByID(id string) Node

	Listen(n Node, kind string, l Listener) error
}

// ClassName is a stable class identifier produced by a build pipeline.
type ClassName = string

// AssetPath is a stable asset path produced by a build pipeline.
type AssetPath = string

var (
	// ErrForeignNode is returned when a node from another document is passed in.
	ErrForeignNode = errors.New("dom: node does not belong to this document")

	// ErrNotChild is returned when a reference node is not a child of the parent.
	ErrNotChild = errors.New("dom: reference node is not a child of parent")

	// ErrDetached is returned when an operation needs an attached node.
	ErrDetached = errors.New("dom: node has no parent")

	// ErrWrongKind is returned when an operation does not apply to the node kind.
	ErrWrongKind = errors.New("dom: operation not valid for node kind")

	// ErrCycle is returned when a node would become its own ancestor.
	ErrCycle = errors.New("dom: node is an ancestor of the new parent")
)
