// Package miner implements the shard-miner role: partition a slice of
// the transaction pool, compute its Merkle root, and do proof-of-work
// over a shard block header.
package miner

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/blockmodel"
	"github.com/ssamchain/ssam/internal/merkle"
	"github.com/ssamchain/ssam/internal/pow"
	"github.com/ssamchain/ssam/internal/transaction"
)

// ShardMiner mines shard blocks over a fixed partition of a shared
// transaction pool.
type ShardMiner struct {
	NumericID   int
	NodeName    string
	TotalMiners int
	NBits       string

	pool *transaction.Pool
	log  *zap.Logger
}

// New builds a ShardMiner assigned partition NumericID of TotalMiners
// over pool.
func New(numericID int, nodeName string, totalMiners int, nbits string, pool *transaction.Pool, log *zap.Logger) *ShardMiner {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShardMiner{
		NumericID:   numericID,
		NodeName:    nodeName,
		TotalMiners: totalMiners,
		NBits:       nbits,
		pool:        pool,
		log:         log,
	}
}

// AllocatedTransactions returns this miner's current partition of the
// pool, recomputed against the pool's present contents.
func (m *ShardMiner) AllocatedTransactions() []transaction.Transaction {
	return m.pool.ForMiner(m.NumericID, m.TotalMiners)
}

// MerkleRoot hashes this miner's allocated transactions and returns
// the Merkle root over their hashes.
func (m *ShardMiner) MerkleRoot(txs []transaction.Transaction) string {
	hashes := make([]string, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash()
	}
	return merkle.Root(hashes)
}

// MineShardBlock builds a shard block over this miner's current
// partition, then searches for a valid nonce under NBits.
func (m *ShardMiner) MineShardBlock(now time.Time) (*blockmodel.ShardBlock, error) {
	txs := m.AllocatedTransactions()
	root := m.MerkleRoot(txs)

	block := &blockmodel.ShardBlock{
		MinerNumericID: m.NumericID,
		MinerNodeName:  m.NodeName,
		Timestamp:      strconv.FormatInt(now.Unix(), 10),
		MerkleRoot:     root,
		Nonce:          0,
		NBits:          m.NBits,
		Transactions:   txs,
	}

	nonce, err := pow.FindValidNonce(block, m.NBits)
	if err != nil {
		m.log.Warn("nonce search exhausted", zap.String("miner", m.NodeName), zap.Error(err))
		return nil, fmt.Errorf("miner %s: %w", m.NodeName, err)
	}
	block.Nonce = nonce

	m.log.Info("mined shard block",
		zap.String("miner", m.NodeName),
		zap.Int("nonce", nonce),
		zap.Int("tx_count", len(txs)),
		zap.String("merkle_root", root),
	)
	return block, nil
}
