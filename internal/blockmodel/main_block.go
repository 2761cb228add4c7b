package blockmodel

import (
	"encoding/json"

	"github.com/ssamchain/ssam/internal/canonichash"
	"github.com/ssamchain/ssam/internal/transaction"
)

// MainBlock is a staker's aggregation of one accepted shard block per
// miner for an epoch. ShardData is keyed by miner node name.
type MainBlock struct {
	Index           int                `json:"index"`
	Timestamp       string             `json:"timestamp"`
	PreviousHash    string             `json:"previous_hash"`
	TxRoot          string             `json:"tx_root"`
	StakerSignature string             `json:"staker_signature"`
	NBits           string             `json:"nbits"`
	Nonce           int                `json:"nonce"`
	ShardData       map[string]Summary `json:"shard_data"`

	Transactions []transaction.Transaction `json:"transactions"`
	BlockHash    string                    `json:"block_hash"`
}

// NewMainBlock builds a MainBlock and eagerly computes BlockHash,
// mirroring the source's constructor-time compute_hash call.
func NewMainBlock(index int, timestamp, txRoot, previousHash, stakerSignature, nbits string, nonce int, shardData map[string]Summary, txs []transaction.Transaction) *MainBlock {
	if shardData == nil {
		shardData = map[string]Summary{}
	}
	if txs == nil {
		txs = []transaction.Transaction{}
	}
	b := &MainBlock{
		Index:           index,
		Timestamp:       timestamp,
		PreviousHash:    previousHash,
		TxRoot:          txRoot,
		StakerSignature: stakerSignature,
		NBits:           nbits,
		Nonce:           nonce,
		ShardData:       shardData,
		Transactions:    txs,
	}
	b.BlockHash = b.ComputeHash()
	return b
}

// ComputeHash hashes the canonical JSON of every header field except
// BlockHash and Transactions — the same fields the genesis block is
// pinned against in internal/chain.
func (b *MainBlock) ComputeHash() string {
	return canonichash.Of(map[string]interface{}{
		"index":            b.Index,
		"timestamp":        b.Timestamp,
		"previous_hash":    b.PreviousHash,
		"tx_root":          b.TxRoot,
		"staker_signature": b.StakerSignature,
		"nbits":            b.NBits,
		"nonce":            b.Nonce,
		"shard_data":       b.ShardData,
	})
}

// GetNonce and SetNonce satisfy internal/pow.Block, for deployments
// that choose to require PoW on main blocks as well as shard blocks
// (spec.md §9 leaves this an open per-deployment choice).
func (b *MainBlock) GetNonce() int  { return b.Nonce }
func (b *MainBlock) SetNonce(n int) { b.Nonce = n }

// Refresh recomputes and stores BlockHash, for callers that mutate a
// MainBlock's fields after construction (e.g. setting Nonce during an
// optional PoW pass).
func (b *MainBlock) Refresh() {
	b.BlockHash = b.ComputeHash()
}

// MarshalForWire returns the MAIN_BLOCK message content.
func (b *MainBlock) MarshalForWire() ([]byte, error) {
	return json.Marshal(b)
}

// MainBlockFromWire decodes a MAIN_BLOCK message content payload.
func MainBlockFromWire(data []byte) (*MainBlock, error) {
	var b MainBlock
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
