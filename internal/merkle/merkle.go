// Package merkle computes the duplicate-last pairwise Merkle root used
// by both shard blocks and main blocks. Concatenation is over hex
// digest strings, not raw bytes — non-canonical, but required to keep
// hash compatibility with the reference model (spec.md §9).
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

// Root computes the Merkle root over an ordered sequence of hex
// digests. An empty input yields the empty string. A single input
// passes through unchanged. Otherwise the sequence is repeatedly
// paired off (duplicating the last element when the level has odd
// length) and hashed until one digest remains.
func Root(hashes []string) string {
	if len(hashes) == 0 {
		return ""
	}

	level := make([]string, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}

func hashPair(a, b string) string {
	sum := sha256.Sum256([]byte(a + b))
	return hex.EncodeToString(sum[:])
}
