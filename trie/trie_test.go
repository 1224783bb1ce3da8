package trie

import (
	"bytes"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/chainsafe/mpt-trie/kvstore/memdb"
)

func TestEmptyTrie(t *testing.T) {
	tr := NewEmpty(memdb.New())
	root, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}
	if root != emptyTrieHash {
		t.Errorf("expected %x got %x", emptyTrieHash, root)
	}
}

func TestMemoryUpdate(t *testing.T) {
	tr := NewEmpty(memdb.New())

	key := make([]byte, 32)
	value := []byte("test")
	if err := tr.Update(key, value); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, value) {
		t.Fatal("wrong value")
	}
}

// TestE1KnownRoot is scenario E1: a fixed key/value set must reduce to
// the documented root hash.
func TestE1KnownRoot(t *testing.T) {
	tr := NewEmpty(memdb.New())
	pairs := []struct{ k, v string }{
		{"do", "verb"},
		{"dog", "puppy"},
		{"doge", "coin"},
		{"horse", "stallion"},
	}
	for _, p := range pairs {
		if err := tr.Update([]byte(p.k), []byte(p.v)); err != nil {
			t.Fatal(err)
		}
	}
	root, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}
	want := "5991bb8c6514148a29db676a14ac506cd2cd5775ace63c30a4fe457715e9ac84"
	if hex.EncodeToString(root[:]) != want {
		t.Errorf("expected root %s got %x", want, root)
	}
}

// TestE2DeleteRestoresEmptyRoot is scenario E2: insert then delete the
// same key restores EMPTY_TRIE_HASH.
func TestE2DeleteRestoresEmptyRoot(t *testing.T) {
	tr := NewEmpty(memdb.New())
	if err := tr.Update([]byte("foo"), []byte("bar")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Delete([]byte("foo")); err != nil {
		t.Fatal(err)
	}
	root, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}
	if root != emptyTrieHash {
		t.Errorf("expected empty root %x got %x", emptyTrieHash, root)
	}
}

// TestE3OverwriteTakesSecondValue is scenario E3.
func TestE3OverwriteTakesSecondValue(t *testing.T) {
	tr := NewEmpty(memdb.New())
	if err := tr.Update([]byte("foo"), []byte("bar")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Update([]byte("foo"), []byte("baz")); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Get([]byte("foo"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("baz")) {
		t.Fatalf("expected baz got %s", got)
	}

	fresh := NewEmpty(memdb.New())
	if err := fresh.Update([]byte("foo"), []byte("baz")); err != nil {
		t.Fatal(err)
	}
	if !tr.Equals(fresh) {
		t.Error("overwritten trie root differs from a fresh trie holding only the final value")
	}
}

// TestE4OrderIndependence is scenario E4 / testable property 2: every
// permutation of an insert order produces the same root.
func TestE4OrderIndependence(t *testing.T) {
	perms := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	keys := []string{"a", "b", "c"}
	values := []string{"1", "2", "3"}

	var want [32]byte
	for i, perm := range perms {
		tr := NewEmpty(memdb.New())
		for _, idx := range perm {
			if err := tr.Update([]byte(keys[idx]), []byte(values[idx])); err != nil {
				t.Fatal(err)
			}
		}
		root, err := tr.RootHash()
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			want = root
			continue
		}
		if root != want {
			t.Errorf("permutation %v produced root %x, want %x", perm, root, want)
		}
	}
}

// TestE5Undo is scenario E5 / testable property 10.
func TestE5Undo(t *testing.T) {
	tr := NewEmpty(memdb.New())
	if err := tr.Update([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Sync(); err != nil {
		t.Fatal(err)
	}
	rootAfterSync, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}

	tr.Undo()
	rootAfterNoopUndo, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}
	if rootAfterNoopUndo != rootAfterSync {
		t.Errorf("undo after sync changed the root: got %x want %x", rootAfterNoopUndo, rootAfterSync)
	}

	if err := tr.Update([]byte("k"), []byte("w")); err != nil {
		t.Fatal(err)
	}
	tr.Undo()

	got, err := tr.Get([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("v")) {
		t.Errorf("undo did not restore prior value: got %s want v", got)
	}
}

// TestE6GCPreservesReachableNodes is scenario E6: clean_cache must not
// disturb any key still reachable from root.
func TestE6GCPreservesReachableNodes(t *testing.T) {
	tr := NewEmpty(memdb.New())
	r := rand.New(rand.NewSource(1))

	type pair struct{ k, v []byte }
	pairs := make([]pair, 1000)
	for i := range pairs {
		k := make([]byte, 20)
		v := make([]byte, 32)
		r.Read(k)
		r.Read(v)
		pairs[i] = pair{k, v}
		if err := tr.Update(k, v); err != nil {
			t.Fatal(err)
		}
	}

	if err := tr.CleanCache(); err != nil {
		t.Fatal(err)
	}

	for _, p := range pairs {
		got, err := tr.Get(p.k)
		if err != nil {
			t.Fatalf("lookup after GC failed: %v", err)
		}
		if !bytes.Equal(got, p.v) {
			t.Fatalf("value lost after GC for key %x", p.k)
		}
	}
}

// TestDeleteCollapsesBranch is testable property 7: after a delete, no
// branch may remain with exactly one non-empty slot and no value.
func TestDeleteCollapsesBranch(t *testing.T) {
	tr := NewEmpty(memdb.New())
	for _, k := range []string{"do", "dog", "doge", "horse"} {
		if err := tr.Update([]byte(k), []byte(k)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Delete([]byte("horse")); err != nil {
		t.Fatal(err)
	}

	root, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}
	n, err := tr.resolve(tr.root, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertNoSingleChildBranch(t, tr, n, root)
}

func assertNoSingleChildBranch(t *testing.T, tr *Trie, n Node, root [32]byte) {
	t.Helper()
	switch n := n.(type) {
	case *BranchNode:
		count := 0
		for _, c := range n.Children {
			if !c.IsEmpty() {
				count++
			}
		}
		if count == 1 && len(n.Value) == 0 {
			t.Errorf("branch with a single child and no value survived a delete (root %x)", root)
		}
		for _, c := range n.Children {
			if c.IsEmpty() {
				continue
			}
			child, err := tr.resolve(c, nil)
			if err != nil {
				t.Fatal(err)
			}
			assertNoSingleChildBranch(t, tr, child, root)
		}
	case *ExtensionNode:
		child, err := tr.resolve(n.Child, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := child.(*ExtensionNode); ok {
			t.Errorf("extension points directly to another extension (root %x)", root)
		}
		if _, ok := child.(*LeafNode); ok {
			t.Errorf("extension points directly to a leaf without merging (root %x)", root)
		}
		assertNoSingleChildBranch(t, tr, child, root)
	}
}

// TestIteratorOrder is testable property for §4.6: keys come out in
// ascending lexicographic order.
func TestIteratorOrder(t *testing.T) {
	tr := NewEmpty(memdb.New())
	keys := []string{"doge", "dog", "do", "horse"}
	for _, k := range keys {
		if err := tr.Update([]byte(k), []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	it := tr.Iterator()
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	if it.Err() != nil {
		t.Fatal(it.Err())
	}

	want := []string{"do", "dog", "doge", "horse"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %s got %s", i, want[i], got[i])
		}
	}
}

func TestMalformedKeyRejected(t *testing.T) {
	tr := NewEmpty(memdb.New())
	if _, err := tr.Get(nil); err != ErrMalformedKey {
		t.Errorf("expected ErrMalformedKey, got %v", err)
	}
	if err := tr.Update(nil, []byte("v")); err != ErrMalformedKey {
		t.Errorf("expected ErrMalformedKey, got %v", err)
	}
	if err := tr.Delete(nil); err != ErrMalformedKey {
		t.Errorf("expected ErrMalformedKey, got %v", err)
	}
}

func TestValidateAfterSyncAndReopen(t *testing.T) {
	store := memdb.New()
	tr := NewEmpty(store)
	if err := tr.Update([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Sync(); err != nil {
		t.Fatal(err)
	}
	root, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}

	reopened, err := New(store, root)
	if err != nil {
		t.Fatal(err)
	}
	if !reopened.Validate() {
		t.Error("expected reopened trie's root to validate")
	}
	got, err := reopened.Get([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("v")) {
		t.Errorf("expected v, got %s", got)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	tr := NewEmpty(memdb.New())
	if err := tr.Update([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	cp := tr.Copy()
	if err := cp.Update([]byte("k2"), []byte("v2")); err != nil {
		t.Fatal(err)
	}

	if _, err := tr.Get([]byte("k2")); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Get([]byte("k2"))
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("mutation on copy leaked into original trie")
	}
}
