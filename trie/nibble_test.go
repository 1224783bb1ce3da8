package trie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNibbleRoundTrip(t *testing.T) {
	key := []byte("doge")
	nibbles := BytesToNibbles(key)
	require.Equal(t, 2*len(key), len(nibbles))
	require.Equal(t, key, NibblesToBytes(nibbles))
}

// TestCompactCodecRoundTrip is testable property 9: unpack(pack(n, t))
// == (n, t) for every nibble sequence and terminator flag.
func TestCompactCodecRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x1},
		{0x1, 0x2},
		{0xa, 0xb, 0xc},
		{0x0, 0xf, 0x0, 0xf, 0x1},
	}
	for _, nibbles := range cases {
		for _, isLeaf := range []bool{true, false} {
			packed := PackNibbles(nibbles, isLeaf)
			gotNibbles, gotLeaf := UnpackNibbles(packed)
			require.Equal(t, nibbles, gotNibbles, "nibbles for %v leaf=%v", nibbles, isLeaf)
			require.Equal(t, isLeaf, gotLeaf, "leaf flag for %v", nibbles)
		}
	}
}

func TestMatchingPrefixLength(t *testing.T) {
	require.Equal(t, 0, MatchingPrefixLength(nil, nil))
	require.Equal(t, 2, MatchingPrefixLength([]byte{1, 2, 3}, []byte{1, 2, 9}))
	require.Equal(t, 3, MatchingPrefixLength([]byte{1, 2, 3}, []byte{1, 2, 3}))
}
