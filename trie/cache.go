package trie

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/crypto/sha3"

	"github.com/chainsafe/mpt-trie/kvstore"
)

// H is the Keccak-256 digest function spec.md names as a consumed
// primitive. Grounded on the teacher module's own golang.org/x/crypto
// dependency (its local hasher package, filtered out of the retrieval
// pack, clearly built on the same library).
func H(data []byte) common.Hash {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	var h common.Hash
	d.Sum(h[:0])
	return h
}

// emptyTrieHash is H(rlp("")), the canonical empty-trie root.
var emptyTrieHash = H([]byte{0x80})

// cacheEntry is a single cached node: its RLP encoding and whether it
// has been written to the backing store yet.
type cacheEntry struct {
	encoded []byte
	dirty   bool
}

// cache is the in-memory map from node hash to (encoded, dirty) spec.md
// §4.3 describes, with read-through to the backing store on miss. It
// is adapted from (and considerably simpler than) the teacher's TrieDB:
// no parent/child reference counting or flush-list bookkeeping, since
// spec.md's GC (§4.5) is reachability-from-root mark-and-sweep, not
// refcounting, and commit/undo act on the whole dirty set at once.
type cache struct {
	store   kvstore.KeyValueStore
	entries map[common.Hash]*cacheEntry
	lock    sync.RWMutex
}

func newCache(store kvstore.KeyValueStore) *cache {
	return &cache{
		store:   store,
		entries: make(map[common.Hash]*cacheEntry),
	}
}

// put RLP-encodes n. If the encoding is shorter than a hash it is
// returned inline; otherwise it is content-addressed by H(encoding) and
// inserted into the cache as dirty (unless an identical entry already
// exists, making put idempotent on equal items).
func (c *cache) put(n Node) (NodeRef, error) {
	enc, err := encodeNode(n)
	if err != nil {
		return NodeRef{}, err
	}
	if len(enc) < hashLen {
		return inlineRef(n), nil
	}
	h := H(enc)

	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.entries[h]; !ok {
		c.entries[h] = &cacheEntry{encoded: enc, dirty: true}
	}
	return hashRef(h), nil
}

// get resolves a cache/store entry into its decoded Node. A hash that
// resolves to nothing in either the cache or the store is a hard error
// (dangling reference, invariant violation / corruption).
func (c *cache) get(h common.Hash, path []byte) (Node, error) {
	c.lock.RLock()
	entry, ok := c.entries[h]
	c.lock.RUnlock()

	if ok {
		return decodeNode(entry.encoded)
	}

	blob, err := c.store.Get(h[:])
	if err != nil || len(blob) == 0 {
		return nil, &MissingNodeError{NodeHash: h, Path: path, err: err}
	}

	c.lock.Lock()
	c.entries[h] = &cacheEntry{encoded: blob, dirty: false}
	c.lock.Unlock()

	n, err := decodeNode(blob)
	if err != nil {
		return nil, &DecodeError{What: err, Path: path}
	}
	return n, nil
}

// delete removes an entry from the cache outright (used by clean_cache
// sweeps).
func (c *cache) delete(h common.Hash) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.entries, h)
}

// commit flushes every dirty entry to the backing store and clears the
// dirty flags.
func (c *cache) commit() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	batch := c.store.NewBatch()
	var dirtyHashes []common.Hash
	for h, entry := range c.entries {
		if !entry.dirty {
			continue
		}
		if err := batch.Put(h[:], entry.encoded); err != nil {
			log.Error("trie: failed to stage trie node for commit", "hash", h, "err", err)
			return err
		}
		dirtyHashes = append(dirtyHashes, h)
		if batch.ValueSize() >= kvstore.IdealBatchSize {
			if err := batch.Write(); err != nil {
				log.Error("trie: failed to flush trie node batch", "err", err)
				return err
			}
			batch.Reset()
		}
	}
	if err := batch.Write(); err != nil {
		log.Error("trie: failed to flush trie node batch", "err", err)
		return err
	}
	for _, h := range dirtyHashes {
		c.entries[h].dirty = false
	}
	return nil
}

// undo discards every dirty entry, reverting the cache to the set of
// nodes known to be persisted.
func (c *cache) undo() {
	c.lock.Lock()
	defer c.lock.Unlock()

	for h, entry := range c.entries {
		if entry.dirty {
			delete(c.entries, h)
		}
	}
}

// nodes iterates the (hash, entry) pairs currently cached, used only by
// clean_cache's sweep phase.
func (c *cache) nodes() map[common.Hash]*cacheEntry {
	c.lock.RLock()
	defer c.lock.RUnlock()

	out := make(map[common.Hash]*cacheEntry, len(c.entries))
	for h, e := range c.entries {
		out[h] = e
	}
	return out
}

// clone returns a cache with its own copy of the entry map, sharing the
// same backing store, used by Trie.Copy.
func (c *cache) clone() *cache {
	c.lock.RLock()
	defer c.lock.RUnlock()

	out := newCache(c.store)
	for h, e := range c.entries {
		out.entries[h] = &cacheEntry{encoded: e.encoded, dirty: e.dirty}
	}
	return out
}
