package trie

// Iterator yields (key, value) pairs in ascending lexicographic order
// over the nibble sequence, per spec.md §4.6. It collects every pair
// through the trie's cache when it is created, so mutations of the
// owning Trie made afterwards are not reflected: the teacher has no equivalent iterator, so
// this is built fresh from the in-order walk spec.md describes,
// following the same recursive descend-and-visit shape as Get/Delete.
type Iterator struct {
	t       *Trie
	entries []kv
	pos     int
	err     error
}

type kv struct {
	key   []byte
	value []byte
}

// Iterator returns an iterator over every (key, value) pair currently
// reachable from the trie's root. The whole traversal is materialized
// up front, matching the "must not observe in-progress mutations"
// requirement without needing a resumable cursor into the recursive
// walk.
func (t *Trie) Iterator() *Iterator {
	it := &Iterator{t: t}
	it.err = t.walk(t.root, nil, func(path, value []byte) error {
		it.entries = append(it.entries, kv{key: NibblesToBytes(path), value: value})
		return nil
	})
	it.pos = -1
	return it
}

// Next advances the iterator. It returns false once exhausted or on
// error; check Err after a false return.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.pos++
	return it.pos < len(it.entries)
}

// Key returns the current entry's key. Valid only after Next returns true.
func (it *Iterator) Key() []byte { return it.entries[it.pos].key }

// Value returns the current entry's value. Valid only after Next returns true.
func (it *Iterator) Value() []byte { return it.entries[it.pos].value }

// Err returns the first error encountered while walking the trie, if any.
func (it *Iterator) Err() error { return it.err }

// walk performs the in-order descent: branches visit their own value
// (slot 16) before slots 0..15, so a key is yielded before every longer
// key it prefixes; leaf/extension append their stored path and recurse
// or yield.
func (t *Trie) walk(ref NodeRef, path []byte, visit func(path, value []byte) error) error {
	if ref.IsEmpty() {
		return nil
	}
	n, err := t.resolve(ref, path)
	if err != nil {
		return err
	}
	switch n := n.(type) {
	case *LeafNode:
		return visit(concatNibbles(path, n.Path), n.Value)
	case *ExtensionNode:
		return t.walk(n.Child, concatNibbles(path, n.Path), visit)
	case *BranchNode:
		if len(n.Value) > 0 {
			if err := visit(path, n.Value); err != nil {
				return err
			}
		}
		for i, c := range n.Children {
			if err := t.walk(c, concatNibbles(path, []byte{byte(i)}), visit); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
