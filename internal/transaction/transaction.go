// Package transaction holds the canonical transaction record and the
// insertion-ordered pool miners partition their work from.
package transaction

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ssamchain/ssam/internal/canonichash"
)

// Transaction is the canonical record shared by the transaction pool,
// shard miners and stakers. Two transactions that differ only in
// Signature hash identically, since Signature is forced to null before
// hashing.
type Transaction struct {
	Sender    string                 `json:"sender"`
	Recipient string                 `json:"recipient"`
	Amount    int64                  `json:"amount"`
	Timestamp string                 `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata"`
	Signature string                 `json:"signature"`
}

// Hash returns the hex SHA-256 digest of the transaction's canonical
// JSON form, with Signature forced to null regardless of its current
// value.
func (tx Transaction) Hash() string {
	return canonichash.Of(map[string]interface{}{
		"sender":    tx.Sender,
		"recipient": tx.Recipient,
		"amount":    tx.Amount,
		"timestamp": tx.Timestamp,
		"metadata":  tx.Metadata,
		"signature": nil,
	})
}

// SignWithHash sets Signature to the transaction's own hash, matching
// the source's self-hashing "signature" scheme (not a cryptographic
// signature — the pool is trusted input per the Non-goals).
func (tx *Transaction) SignWithHash() {
	tx.Signature = tx.Hash()
}

// randomHex returns n random bytes hex-encoded, used for staker
// signatures and any other place that wants an opaque unique suffix.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("transaction: read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RandomHex128 returns a random 128-bit value hex-encoded, used by the
// staker role to mint its process-lifetime signature
// (node_name + ":" + RandomHex128()).
func RandomHex128() (string, error) {
	return randomHex(16)
}
