package trie

import "github.com/ethereum/go-ethereum/common"

// CleanCache implements spec.md §4.5's clean_cache: mark every node
// reachable from the current root, then sweep every cache entry not in
// that set. It is reachability-from-root mark-and-sweep, not the
// teacher's reference-counted TrieDB.dereference, since spec.md's GC
// contract is a scan, not a refcount decrement.
//
// Not safe to run concurrently with a mutation on the same trie; the
// caller must quiesce writers (spec.md §5).
func (t *Trie) CleanCache() error {
	reachable := make(map[common.Hash]struct{})
	if err := t.scanTree(t.root, reachable); err != nil {
		return err
	}

	for h := range t.c.nodes() {
		if _, ok := reachable[h]; !ok {
			t.c.delete(h)
		}
	}
	return nil
}

// scanTree walks ref and every descendant hash reference, recording
// each visited hash in reachable. Inline children need no visit: they
// carry no separate cache entry, being embedded in their parent's
// encoding (spec.md §4.5).
func (t *Trie) scanTree(ref NodeRef, reachable map[common.Hash]struct{}) error {
	if ref.IsEmpty() {
		return nil
	}
	if ref.IsHash() {
		h := ref.Hash()
		if _, seen := reachable[h]; seen {
			return nil
		}
		reachable[h] = struct{}{}
	}

	n, err := t.resolve(ref, nil)
	if err != nil {
		return err
	}
	switch n := n.(type) {
	case *LeafNode:
		return nil
	case *ExtensionNode:
		return t.scanTree(n.Child, reachable)
	case *BranchNode:
		for _, c := range n.Children {
			if err := t.scanTree(c, reachable); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
