// Package memdb implements an ephemeral, in-memory kvstore.KeyValueStore.
// It is adapted from the teacher's accdb/memorydb package, filled out
// with the Get/Put/Delete/Has/Batch behavior the teacher's stub left
// unimplemented.
package memdb

import (
	"errors"
	"sync"

	"github.com/chainsafe/mpt-trie/kvstore"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("memdb: key not found")

// Database is an ephemeral key-value store. Apart from basic data
// storage it supports batched writes.
type Database struct {
	db   map[string][]byte
	lock sync.RWMutex
}

// New returns an empty in-memory store.
func New() *Database {
	return &Database{db: make(map[string][]byte)}
}

func (d *Database) Has(key []byte) (bool, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	_, ok := d.db[string(key)]
	return ok, nil
}

func (d *Database) Get(key []byte) ([]byte, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if entry, ok := d.db[string(key)]; ok {
		return append([]byte(nil), entry...), nil
	}
	return nil, ErrNotFound
}

func (d *Database) Put(key, value []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.db[string(key)] = append([]byte(nil), value...)
	return nil
}

func (d *Database) Delete(key []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	delete(d.db, string(key))
	return nil
}

func (d *Database) Close() error { return nil }

func (d *Database) NewBatch() kvstore.Batch {
	return &batch{db: d}
}

// Len returns the number of keys currently stored.
func (d *Database) Len() int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return len(d.db)
}

type keyvalue struct {
	key    []byte
	value  []byte
	delete bool
}

// batch is a write-only database that commits changes to its host
// database when Write is called.
type batch struct {
	db     *Database
	writes []keyvalue
	size   int
}

func (b *batch) Put(key, value []byte) error {
	b.writes = append(b.writes, keyvalue{append([]byte(nil), key...), append([]byte(nil), value...), false})
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.writes = append(b.writes, keyvalue{append([]byte(nil), key...), nil, true})
	b.size += len(key)
	return nil
}

func (b *batch) ValueSize() int { return b.size }

func (b *batch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	for _, kv := range b.writes {
		if kv.delete {
			delete(b.db.db, string(kv.key))
			continue
		}
		b.db.db[string(kv.key)] = kv.value
	}
	return nil
}

func (b *batch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}
