// Command mpt is a small CLI over a leveldb-backed Merkle Patricia
// Trie, used to exercise the trie package end to end without writing a
// Go program: put/get a key, print the root hash, iterate every
// entry, or garbage-collect orphaned cache nodes.
package main

import (
	"fmt"
	"os"

	"github.com/chainsafe/mpt-trie/cmd/mpt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
