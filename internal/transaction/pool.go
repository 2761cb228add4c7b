package transaction

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Pool is an insertion-ordered, read-mostly sequence of transactions.
// It is loaded once (from configuration or a genesis fixture) and read
// by every shard miner; nothing in the core mutates it after load,
// matching spec.md §5's "transaction pool is read-only after load".
type Pool struct {
	mu  sync.RWMutex
	txs []Transaction
}

// NewPool builds a pool from an ordered slice of transactions.
func NewPool(txs []Transaction) *Pool {
	cp := make([]Transaction, len(txs))
	copy(cp, txs)
	return &Pool{txs: cp}
}

// Len returns the number of transactions in the pool.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// All returns a copy of the full ordered transaction sequence.
func (p *Pool) All() []Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Transaction, len(p.txs))
	copy(out, p.txs)
	return out
}

// ForMiner returns the transactions assigned to miner m out of M total
// miners: index i belongs to miner i mod M, in pool order. The
// partition is total and disjoint: the union over m=0..M-1 reconstructs
// the pool with its original relative order, and no transaction is
// assigned to two miners.
func (p *Pool) ForMiner(m, totalMiners int) []Transaction {
	if totalMiners <= 0 {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	var assigned []Transaction
	for i, tx := range p.txs {
		if i%totalMiners == m {
			assigned = append(assigned, tx)
		}
	}
	return assigned
}

// LoadPoolFile reads a JSON array of transactions from path, matching
// TransactionManager.load_transactions. A missing file yields an empty
// pool rather than an error, since an empty shared pool is a valid
// (if uninteresting) starting state for a freshly provisioned fleet.
func LoadPoolFile(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewPool(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("transaction: read pool file %s: %w", path, err)
	}

	var txs []Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("transaction: decode pool file %s: %w", path, err)
	}
	return NewPool(txs), nil
}
