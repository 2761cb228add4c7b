// Package canonichash centralizes the canonical-JSON-then-SHA-256
// hashing idiom every hashed record in this module shares:
// transactions, shard blocks and main blocks all hash a plain
// map[string]interface{} of their header fields. encoding/json already
// sorts map keys when marshaling, which is what makes this canonical —
// no third-party canonical-JSON encoder is used anywhere in the corpus
// this module is grounded on, so the stdlib encoder is the right tool
// here rather than a gap to fill.
package canonichash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Of marshals fields as canonical JSON and returns the hex SHA-256
// digest. It panics if fields contains a value encoding/json cannot
// marshal, which indicates a caller bug, not a runtime condition.
func Of(fields map[string]interface{}) string {
	encoded, err := json.Marshal(fields)
	if err != nil {
		panic(fmt.Sprintf("canonichash: encode failed: %v", err))
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
