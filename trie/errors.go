package trie

import "fmt"

// ErrMalformedKey is raised when a trie operation is given a nil key.
// A key of zero bytes is legal (it addresses the root-only path); a
// nil key is not.
var ErrMalformedKey = fmt.Errorf("trie: key must not be nil")

// MissingNodeError is returned when a node hash cannot be resolved from
// either the in-memory cache or the backing store. It signals trie
// corruption: a dangling reference.
type MissingNodeError struct {
	NodeHash [32]byte // hash of the missing node
	Path     []byte   // nibble path at which the reference was followed
	err      error    // wrapped store error, if any
}

func (e *MissingNodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("missing trie node %x (path %x): %v", e.NodeHash, e.Path, e.err)
	}
	return fmt.Sprintf("missing trie node %x (path %x)", e.NodeHash, e.Path)
}

func (e *MissingNodeError) Unwrap() error { return e.err }

// DecodeError wraps an RLP/compact decoding failure with the path that
// led to the offending node, for debugging encoding issues.
type DecodeError struct {
	What error
	Path []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("trie: decode failure at path %x: %v", e.Path, e.What)
}

func (e *DecodeError) Unwrap() error { return e.What }
