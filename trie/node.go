package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Node is the tagged sum of the three node kinds spec.md's data model
// defines: Leaf, Extension and Branch. This replaces the teacher's
// dynamic node interface (fullNode/shortNode/hashNode/valueNode) with
// the closed sum type spec.md's Design Notes ask for in a statically
// typed target.
type Node interface {
	isNode()
	fstring(indent string) string
}

// LeafNode is an RLP list of two items: a compact-encoded path with the
// terminator flag set, and the value bytes (invariant 4: Value is never
// empty — a zero-length value means "delete").
type LeafNode struct {
	Path  []byte // nibbles, no terminator marker (implicit)
	Value []byte
}

// ExtensionNode is an RLP list of two items: a compact-encoded path
// with the terminator flag clear, and a reference to a branch. The
// insert and delete rules merge a leaf or extension child into its
// parent's path, so no extension is built over one.
type ExtensionNode struct {
	Path  []byte
	Child NodeRef
}

// BranchNode is an RLP list of 17 items: Children[0..15] keyed by the
// next nibble, Value holding an optional value attached to the key that
// terminates at this branch (nil if none).
type BranchNode struct {
	Children [16]NodeRef
	Value    []byte
}

func (*LeafNode) isNode()      {}
func (*ExtensionNode) isNode() {}
func (*BranchNode) isNode()    {}

func (n *LeafNode) copy() *LeafNode {
	cp := *n
	return &cp
}

func (n *ExtensionNode) copy() *ExtensionNode {
	cp := *n
	return &cp
}

func (n *BranchNode) copy() *BranchNode {
	cp := *n
	return &cp
}

// NodeRef is the NodeRef algebra from spec.md §3: either inline (the
// decoded item of a node whose encoding is under 32 bytes), a 32-byte
// hash pointing at a cache/store entry, or the empty sentinel meaning
// "no child".
type NodeRef struct {
	hash   common.Hash
	inline Node
}

// emptyRef is the zero value of NodeRef and represents "no child".
var emptyRef = NodeRef{}

func hashRef(h common.Hash) NodeRef { return NodeRef{hash: h} }

func inlineRef(n Node) NodeRef { return NodeRef{inline: n} }

// IsEmpty reports whether the ref is the empty sentinel.
func (r NodeRef) IsEmpty() bool { return r.hash == (common.Hash{}) && r.inline == nil }

// IsHash reports whether the ref is a 32-byte hash reference.
func (r NodeRef) IsHash() bool { return r.hash != (common.Hash{}) }

// Hash returns the referenced hash; valid only when IsHash is true.
func (r NodeRef) Hash() common.Hash { return r.hash }

var indices = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f", "[val]"}

func (n *LeafNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %x} ", n.Path, n.Value)
}

func (n *ExtensionNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Path, n.Child.fstring(ind+"  "))
}

func (n *BranchNode) fstring(ind string) string {
	resp := fmt.Sprintf("[\n%s  ", ind)
	for i, child := range n.Children {
		if child.IsEmpty() {
			resp += fmt.Sprintf("%s: <nil> ", indices[i])
		} else {
			resp += fmt.Sprintf("%s: %v", indices[i], child.fstring(ind+"  "))
		}
	}
	if len(n.Value) > 0 {
		resp += fmt.Sprintf("%s: %x ", indices[16], n.Value)
	}
	return resp + fmt.Sprintf("\n%s] ", ind)
}

func (r NodeRef) fstring(ind string) string {
	switch {
	case r.IsEmpty():
		return "<nil> "
	case r.IsHash():
		return fmt.Sprintf("<%x> ", r.hash[:])
	default:
		return r.inline.fstring(ind)
	}
}

func (n *LeafNode) String() string      { return n.fstring("") }
func (n *ExtensionNode) String() string { return n.fstring("") }
func (n *BranchNode) String() string    { return n.fstring("") }
