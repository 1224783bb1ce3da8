// Package trie implements a Modified Merkle Patricia Trie: a
// persistent, content-addressed mapping from byte keys to byte values
// that reduces to a single 32-byte root hash.
//
// Trie is not safe for concurrent mutation; see the package-level
// README/spec for the single-writer contract.
package trie

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/mpt-trie/kvstore"
)

// Trie is a Merkle Patricia Trie rooted at root, backed by a cache that
// reads through to a kvstore.KeyValueStore. The recursive get/insert/
// delete shape below is grounded on the teacher's trie.go
// (tryGet/insert/delete), adapted from its dynamic node interface to
// the typed Node/NodeRef sum and from its deferred-hash-at-commit model
// to immediate content-addressing on every insert/delete, per
// spec.md's cache contract (see SPEC_FULL.md §4.4).
type Trie struct {
	root     NodeRef
	prevRoot NodeRef
	c        *cache
}

// New opens a trie rooted at root. If root is the zero hash or
// emptyTrieHash the trie starts empty; otherwise root must already be
// resolvable through store, or a *MissingNodeError is returned.
func New(store kvstore.KeyValueStore, root common.Hash) (*Trie, error) {
	t := &Trie{c: newCache(store)}
	if root != (common.Hash{}) && root != emptyTrieHash {
		if _, err := t.c.get(root, nil); err != nil {
			return nil, err
		}
		t.root = hashRef(root)
	}
	t.prevRoot = t.root
	return t, nil
}

// NewEmpty creates an empty trie over store. It's mostly used in tests.
func NewEmpty(store kvstore.KeyValueStore) *Trie {
	t, _ := New(store, common.Hash{})
	return t
}

// resolve returns the decoded Node a ref points to. path is the nibble
// path accumulated so far, used only to annotate MissingNodeError.
func (t *Trie) resolve(ref NodeRef, path []byte) (Node, error) {
	if ref.inline != nil {
		return ref.inline, nil
	}
	return t.c.get(ref.hash, path)
}

// Get returns the value stored for key, or nil if key is absent.
// Absence is not an error (LogicalMiss per spec.md §7).
func (t *Trie) Get(key []byte) ([]byte, error) {
	if key == nil {
		return nil, ErrMalformedKey
	}
	return t.getNode(t.root, BytesToNibbles(key), nil)
}

func (t *Trie) getNode(ref NodeRef, path, fullpath []byte) ([]byte, error) {
	if ref.IsEmpty() {
		return nil, nil
	}
	n, err := t.resolve(ref, fullpath)
	if err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case *LeafNode:
		if bytes.Equal(n.Path, path) {
			return n.Value, nil
		}
		return nil, nil
	case *ExtensionNode:
		if len(path) < len(n.Path) || !bytes.Equal(path[:len(n.Path)], n.Path) {
			return nil, nil
		}
		return t.getNode(n.Child, path[len(n.Path):], concatNibbles(fullpath, n.Path))
	case *BranchNode:
		if len(path) == 0 {
			return n.Value, nil
		}
		return t.getNode(n.Children[path[0]], path[1:], concatNibbles(fullpath, path[:1]))
	default:
		return nil, nil
	}
}

// Update sets key to value. An empty value deletes key (spec.md §4.4).
func (t *Trie) Update(key, value []byte) error {
	if key == nil {
		return ErrMalformedKey
	}
	if len(value) == 0 {
		return t.Delete(key)
	}
	newRoot, err := t.insertNode(t.root, BytesToNibbles(key), append([]byte(nil), value...), nil)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func (t *Trie) insertNode(ref NodeRef, path, value, fullpath []byte) (NodeRef, error) {
	if ref.IsEmpty() {
		return t.c.put(&LeafNode{Path: append([]byte(nil), path...), Value: value})
	}
	n, err := t.resolve(ref, fullpath)
	if err != nil {
		return NodeRef{}, err
	}
	switch n := n.(type) {
	case *LeafNode:
		return t.insertLeaf(n, path, value)
	case *ExtensionNode:
		return t.insertExtension(n, path, value, fullpath)
	case *BranchNode:
		return t.insertBranch(n, path, value, fullpath)
	default:
		return NodeRef{}, &DecodeError{What: ErrMalformedKey, Path: fullpath}
	}
}

// insertLeaf implements spec.md §4.4 insert rule 2 for a leaf: exact
// match replaces the value in place; otherwise the leaf splits into a
// branch (possibly wrapped in a prefix extension).
func (t *Trie) insertLeaf(n *LeafNode, path, value []byte) (NodeRef, error) {
	k := n.Path
	if bytes.Equal(k, path) {
		return t.c.put(&LeafNode{Path: k, Value: value})
	}
	m := MatchingPrefixLength(path, k)

	branch := &BranchNode{}
	if m == len(k) {
		branch.Value = n.Value
	} else {
		oldRef, err := t.c.put(&LeafNode{Path: k[m+1:], Value: n.Value})
		if err != nil {
			return NodeRef{}, err
		}
		branch.Children[k[m]] = oldRef
	}
	if m == len(path) {
		branch.Value = value
	} else {
		newRef, err := t.c.put(&LeafNode{Path: path[m+1:], Value: value})
		if err != nil {
			return NodeRef{}, err
		}
		branch.Children[path[m]] = newRef
	}
	branchRef, err := t.c.put(branch)
	if err != nil {
		return NodeRef{}, err
	}
	if m == 0 {
		return branchRef, nil
	}
	return t.c.put(&ExtensionNode{Path: path[:m], Child: branchRef})
}

// insertExtension implements spec.md §4.4 insert rule 2 for an
// extension: a full prefix match recurses into the child, a partial
// match splits into a branch.
func (t *Trie) insertExtension(n *ExtensionNode, path, value, fullpath []byte) (NodeRef, error) {
	k := n.Path
	m := MatchingPrefixLength(path, k)

	if m == len(k) {
		childRef, err := t.insertNode(n.Child, path[m:], value, concatNibbles(fullpath, k))
		if err != nil {
			return NodeRef{}, err
		}
		return t.c.put(&ExtensionNode{Path: k, Child: childRef})
	}

	branch := &BranchNode{}
	if m+1 == len(k) {
		branch.Children[k[m]] = n.Child
	} else {
		oldRef, err := t.c.put(&ExtensionNode{Path: k[m+1:], Child: n.Child})
		if err != nil {
			return NodeRef{}, err
		}
		branch.Children[k[m]] = oldRef
	}
	if m == len(path) {
		branch.Value = value
	} else {
		newRef, err := t.c.put(&LeafNode{Path: path[m+1:], Value: value})
		if err != nil {
			return NodeRef{}, err
		}
		branch.Children[path[m]] = newRef
	}
	branchRef, err := t.c.put(branch)
	if err != nil {
		return NodeRef{}, err
	}
	if m == 0 {
		return branchRef, nil
	}
	return t.c.put(&ExtensionNode{Path: path[:m], Child: branchRef})
}

// insertBranch implements spec.md §4.4 insert rule 3.
func (t *Trie) insertBranch(n *BranchNode, path, value, fullpath []byte) (NodeRef, error) {
	cp := n.copy()
	if len(path) == 0 {
		cp.Value = value
		return t.c.put(cp)
	}
	childRef, err := t.insertNode(n.Children[path[0]], path[1:], value, concatNibbles(fullpath, path[:1]))
	if err != nil {
		return NodeRef{}, err
	}
	cp.Children[path[0]] = childRef
	return t.c.put(cp)
}

// Delete removes key from the trie. It is a no-op if key is absent.
func (t *Trie) Delete(key []byte) error {
	if key == nil {
		return ErrMalformedKey
	}
	newRoot, _, err := t.deleteNode(t.root, BytesToNibbles(key), nil)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

// deleteNode implements spec.md §4.4 delete, including the collapse
// rules that keep the tree canonical (invariant 7). changed reports
// whether the subtree actually differs from ref, so callers avoid
// needlessly re-caching unchanged ancestors.
func (t *Trie) deleteNode(ref NodeRef, path, fullpath []byte) (_ NodeRef, changed bool, _ error) {
	if ref.IsEmpty() {
		return ref, false, nil
	}
	n, err := t.resolve(ref, fullpath)
	if err != nil {
		return NodeRef{}, false, err
	}
	switch n := n.(type) {
	case *LeafNode:
		if bytes.Equal(n.Path, path) {
			return emptyRef, true, nil
		}
		return ref, false, nil

	case *ExtensionNode:
		k := n.Path
		if len(path) < len(k) || !bytes.Equal(path[:len(k)], k) {
			return ref, false, nil
		}
		childRef, dirty, err := t.deleteNode(n.Child, path[len(k):], concatNibbles(fullpath, k))
		if err != nil {
			return NodeRef{}, false, err
		}
		if !dirty {
			return ref, false, nil
		}
		if childRef.IsEmpty() {
			return emptyRef, true, nil
		}
		childNode, err := t.resolve(childRef, concatNibbles(fullpath, k))
		if err != nil {
			return NodeRef{}, false, err
		}
		switch cn := childNode.(type) {
		case *LeafNode:
			newRef, err := t.c.put(&LeafNode{Path: concatNibbles(k, cn.Path), Value: cn.Value})
			return newRef, true, err
		case *ExtensionNode:
			newRef, err := t.c.put(&ExtensionNode{Path: concatNibbles(k, cn.Path), Child: cn.Child})
			return newRef, true, err
		default:
			newRef, err := t.c.put(&ExtensionNode{Path: k, Child: childRef})
			return newRef, true, err
		}

	case *BranchNode:
		if len(path) == 0 {
			if len(n.Value) == 0 {
				return ref, false, nil
			}
			cp := n.copy()
			cp.Value = nil
			return t.collapseBranch(cp, fullpath)
		}
		idx := path[0]
		childRef, dirty, err := t.deleteNode(n.Children[idx], path[1:], concatNibbles(fullpath, path[:1]))
		if err != nil {
			return NodeRef{}, false, err
		}
		if !dirty {
			return ref, false, nil
		}
		cp := n.copy()
		cp.Children[idx] = childRef
		return t.collapseBranch(cp, fullpath)

	default:
		return ref, false, nil
	}
}

// collapseBranch applies spec.md §4.4's branch-reduction rule after a
// child (or the branch's own value) has been removed.
func (t *Trie) collapseBranch(n *BranchNode, fullpath []byte) (NodeRef, bool, error) {
	count, idx := 0, -1
	for i, c := range n.Children {
		if !c.IsEmpty() {
			count++
			idx = i
		}
	}
	hasValue := len(n.Value) > 0

	switch {
	case count == 0 && !hasValue:
		return emptyRef, true, nil

	case count == 0 && hasValue:
		ref, err := t.c.put(&LeafNode{Path: nil, Value: n.Value})
		return ref, true, err

	case count == 1 && !hasValue:
		childRef := n.Children[idx]
		childNode, err := t.resolve(childRef, concatNibbles(fullpath, []byte{byte(idx)}))
		if err != nil {
			return NodeRef{}, false, err
		}
		switch cn := childNode.(type) {
		case *LeafNode:
			ref, err := t.c.put(&LeafNode{Path: concatNibbles([]byte{byte(idx)}, cn.Path), Value: cn.Value})
			return ref, true, err
		case *ExtensionNode:
			ref, err := t.c.put(&ExtensionNode{Path: concatNibbles([]byte{byte(idx)}, cn.Path), Child: cn.Child})
			return ref, true, err
		default:
			ref, err := t.c.put(&ExtensionNode{Path: []byte{byte(idx)}, Child: childRef})
			return ref, true, err
		}

	default:
		ref, err := t.c.put(n)
		return ref, true, err
	}
}

// RootHash returns the root hash: EMPTY_TRIE_HASH for an empty trie,
// H(rlp(root)) for an inline root, or the hash reference itself.
func (t *Trie) RootHash() (common.Hash, error) {
	switch {
	case t.root.IsEmpty():
		return emptyTrieHash, nil
	case t.root.IsHash():
		return t.root.hash, nil
	default:
		enc, err := encodeNode(t.root.inline)
		if err != nil {
			return common.Hash{}, err
		}
		return H(enc), nil
	}
}

// SetRoot switches the working root. An empty/nil hash selects the
// empty trie.
func (t *Trie) SetRoot(root []byte) error {
	if len(root) == 0 {
		t.root = emptyRef
		return nil
	}
	h := common.BytesToHash(root)
	if h == emptyTrieHash {
		t.root = emptyRef
		return nil
	}
	if _, err := t.c.get(h, nil); err != nil {
		return err
	}
	t.root = hashRef(h)
	return nil
}

// Sync commits dirty cache entries to the backing store and advances
// prevRoot to the current root. An inline root has no cache entry of its
// own, so its encoding is also written to the store under its root hash,
// letting New reopen the trie from RootHash.
func (t *Trie) Sync() error {
	if t.root.inline != nil {
		enc, err := encodeNode(t.root.inline)
		if err != nil {
			return err
		}
		h := H(enc)
		if err := t.c.store.Put(h[:], enc); err != nil {
			return err
		}
	}
	if err := t.c.commit(); err != nil {
		return err
	}
	t.prevRoot = t.root
	return nil
}

// Undo discards uncommitted mutations, reverting root to prevRoot.
func (t *Trie) Undo() {
	t.c.undo()
	t.root = t.prevRoot
}

// Copy returns an independent trie sharing the backing store but
// owning its own cache contents.
func (t *Trie) Copy() *Trie {
	return &Trie{root: t.root, prevRoot: t.prevRoot, c: t.c.clone()}
}

// Equals reports whether t and other have the same root hash.
func (t *Trie) Equals(other *Trie) bool {
	h1, err1 := t.RootHash()
	h2, err2 := other.RootHash()
	return err1 == nil && err2 == nil && h1 == h2
}

// Validate reports whether the current root is resolvable, reading
// through the cache to the backing store if necessary. This is the
// stricter of the two interpretations spec.md's Design Notes raise as
// an open question (root-resolvable-in-store, not merely in-memory).
func (t *Trie) Validate() bool {
	if t.root.IsEmpty() || t.root.inline != nil {
		return true
	}
	_, err := t.c.get(t.root.hash, nil)
	return err == nil
}

func concatNibbles(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}
