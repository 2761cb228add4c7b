// Package blockmodel defines the two block shapes SSAM moves over the
// wire and hashes: ShardBlock (a miner's partition of the pool) and
// MainBlock (a staker's aggregation of one shard block per miner).
package blockmodel

import (
	"encoding/json"

	"github.com/ssamchain/ssam/internal/canonichash"
	"github.com/ssamchain/ssam/internal/transaction"
)

// ShardBlock is produced by a single shard miner over its assigned
// partition of the transaction pool.
type ShardBlock struct {
	MinerNumericID int                       `json:"miner_numeric_id"`
	MinerNodeName  string                    `json:"miner_node_name"`
	Timestamp      string                    `json:"timestamp"`
	MerkleRoot     string                    `json:"merkle_root"`
	Nonce          int                       `json:"nonce"`
	NBits          string                    `json:"nbits"`
	Transactions   []transaction.Transaction `json:"transactions"`
}

// ComputeHash hashes the canonical JSON of the header fields only —
// transactions are carried as payload and excluded from the hash.
func (b *ShardBlock) ComputeHash() string {
	return canonichash.Of(map[string]interface{}{
		"miner_numeric_id": b.MinerNumericID,
		"miner_node_name":  b.MinerNodeName,
		"timestamp":        b.Timestamp,
		"merkle_root":      b.MerkleRoot,
		"nonce":            b.Nonce,
		"nbits":            b.NBits,
	})
}

// GetNonce and SetNonce satisfy internal/pow.Block.
func (b *ShardBlock) GetNonce() int  { return b.Nonce }
func (b *ShardBlock) SetNonce(n int) { b.Nonce = n }

// Summary captures the fields a staker folds into a MainBlock's
// shard_data map when it accepts this shard block.
type Summary struct {
	BlockHash      string `json:"block_hash"`
	MinerNumericID int    `json:"miner_numeric_id"`
	Timestamp      string `json:"timestamp"`
	MerkleRoot     string `json:"merkle_root"`
	Nonce          int    `json:"nonce"`
	NBits          string `json:"nbits"`
}

// Summarize builds the Summary a staker stores under this block's
// miner node name in a MainBlock's shard_data.
func (b *ShardBlock) Summarize() Summary {
	return Summary{
		BlockHash:      b.ComputeHash(),
		MinerNumericID: b.MinerNumericID,
		Timestamp:      b.Timestamp,
		MerkleRoot:     b.MerkleRoot,
		Nonce:          b.Nonce,
		NBits:          b.NBits,
	}
}

// MarshalForWire returns the SHARD_BLOCK message content: all header
// fields plus the transaction payload.
func (b *ShardBlock) MarshalForWire() ([]byte, error) {
	return json.Marshal(b)
}

// ShardBlockFromWire decodes a SHARD_BLOCK message content payload.
func ShardBlockFromWire(data []byte) (*ShardBlock, error) {
	var b ShardBlock
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
