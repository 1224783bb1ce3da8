package trie

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// hashLen is the byte length of a node hash reference.
const hashLen = len(common.Hash{})

// encodeNode produces the canonical RLP encoding of n. This is the
// "encode()" operation of spec.md's node value view (§4.2), rebuilt
// against the typed Node sum instead of the teacher's dynamic node
// interface, using rlp.RawValue to splice already-encoded children
// (inline or hash) into the parent list without re-decoding them.
func encodeNode(n Node) ([]byte, error) {
	switch n := n.(type) {
	case *LeafNode:
		pathRLP, err := rlp.EncodeToBytes(PackNibbles(n.Path, true))
		if err != nil {
			return nil, err
		}
		valRLP, err := rlp.EncodeToBytes(n.Value)
		if err != nil {
			return nil, err
		}
		return rlp.EncodeToBytes([]rlp.RawValue{pathRLP, valRLP})
	case *ExtensionNode:
		pathRLP, err := rlp.EncodeToBytes(PackNibbles(n.Path, false))
		if err != nil {
			return nil, err
		}
		childRLP, err := encodeRef(n.Child)
		if err != nil {
			return nil, err
		}
		return rlp.EncodeToBytes([]rlp.RawValue{pathRLP, childRLP})
	case *BranchNode:
		items := make([]rlp.RawValue, 17)
		for i := 0; i < 16; i++ {
			ref, err := encodeRef(n.Children[i])
			if err != nil {
				return nil, err
			}
			items[i] = ref
		}
		valRLP, err := rlp.EncodeToBytes(n.Value)
		if err != nil {
			return nil, err
		}
		items[16] = valRLP
		return rlp.EncodeToBytes(items)
	default:
		return nil, fmt.Errorf("trie: unsupported node type %T", n)
	}
}

// encodeRef encodes a NodeRef the way it must appear as a child slot:
// the empty string for the empty sentinel, the 32-byte hash string for
// a hash reference, or the raw (already valid) RLP encoding of the
// inline node spliced in verbatim (invariant 2: inline children are
// strictly shorter than 32 bytes, so embedding is always legal RLP).
func encodeRef(ref NodeRef) (rlp.RawValue, error) {
	switch {
	case ref.IsEmpty():
		return rlp.EncodeToBytes([]byte(nil))
	case ref.IsHash():
		h := ref.hash
		return rlp.EncodeToBytes(h[:])
	default:
		return encodeNode(ref.inline)
	}
}

// decodeNode parses the RLP encoding of a cached node blob.
func decodeNode(buf []byte) (Node, error) {
	if len(buf) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	elems, _, err := rlp.SplitList(buf)
	if err != nil {
		return nil, fmt.Errorf("trie: decode error: %v", err)
	}
	switch c, _ := rlp.CountValues(elems); c {
	case 2:
		return decodeTwoItem(elems)
	case 17:
		return decodeBranch(elems)
	default:
		return nil, fmt.Errorf("trie: invalid number of list elements: %v", c)
	}
}

func decodeTwoItem(elems []byte) (Node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, err
	}
	path, isLeaf := UnpackNibbles(kbuf)
	if isLeaf {
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("trie: invalid leaf value: %v", err)
		}
		return &LeafNode{Path: path, Value: append([]byte(nil), val...)}, nil
	}
	ref, _, err := decodeRef(rest)
	if err != nil {
		return nil, fmt.Errorf("trie: invalid extension child: %v", err)
	}
	return &ExtensionNode{Path: path, Child: ref}, nil
}

func decodeBranch(elems []byte) (*BranchNode, error) {
	n := &BranchNode{}
	for i := 0; i < 16; i++ {
		ref, rest, err := decodeRef(elems)
		if err != nil {
			return nil, fmt.Errorf("trie: invalid branch child [%d]: %v", i, err)
		}
		n.Children[i] = ref
		elems = rest
	}
	val, _, err := rlp.SplitString(elems)
	if err != nil {
		return nil, fmt.Errorf("trie: invalid branch value: %v", err)
	}
	if len(val) > 0 {
		n.Value = append([]byte(nil), val...)
	}
	return n, nil
}

// decodeRef parses a child slot: a list (embedded node), an empty
// string (no child) or a 32-byte string (hash reference).
func decodeRef(buf []byte) (NodeRef, []byte, error) {
	kind, val, rest, err := rlp.Split(buf)
	if err != nil {
		return NodeRef{}, buf, err
	}
	switch {
	case kind == rlp.List:
		size := len(buf) - len(rest)
		if size >= hashLen {
			return NodeRef{}, buf, fmt.Errorf("oversized embedded node (%d bytes, want < %d)", size, hashLen)
		}
		n, err := decodeNode(buf[:size])
		if err != nil {
			return NodeRef{}, buf, err
		}
		return inlineRef(n), rest, nil
	case kind == rlp.String && len(val) == 0:
		return NodeRef{}, rest, nil
	case kind == rlp.String && len(val) == hashLen:
		return hashRef(common.BytesToHash(val)), rest, nil
	default:
		return NodeRef{}, buf, fmt.Errorf("invalid RLP string size %d (want 0 or %d)", len(val), hashLen)
	}
}
