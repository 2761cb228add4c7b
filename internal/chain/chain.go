// Package chain holds the single global main chain: genesis anchoring,
// previous-hash validation, and the length-based replace check.
package chain

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/blockmodel"
)

// Genesis field values. These are this network's pinned parameters —
// spec.md notes two different pinned hashes appear across source
// variants and leaves the choice to the implementation (see DESIGN.md).
const (
	GenesisTimestamp       = "1735689600"
	GenesisPreviousHash    = "0"
	GenesisTxRoot          = ""
	GenesisStakerSignature = "genesis"
	GenesisNBits           = "0x1e0ffff0"
	GenesisNonce           = 0

	// GenesisHash is the pinned hash of the genesis block computed over
	// its canonical header: {"index":0,"nbits":"0x1e0ffff0","nonce":0,
	// "previous_hash":"0","shard_data":{},"staker_signature":"genesis",
	// "timestamp":"1735689600","tx_root":""}.
	GenesisHash = "910917f1cd99a5ad0149d6808b80aaf3885bb4693c278eea0195feb63913572d"
)

// ErrInvalidBlock is wrapped by Append when a candidate block fails
// validation.
var ErrInvalidBlock = errors.New("chain: invalid block")

// ValidationError carries the specific reason a block was rejected,
// matching arejula27-p2pool-go/internal/sharechain.ValidationError's
// shape (a Reason field plus an Error() string method) rather than
// only a comparable sentinel.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("chain: block rejected: %s", e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidBlock) keep working for callers
// that only care about the sentinel, not the structured reason.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidBlock
}

// Genesis constructs this network's pinned genesis block.
func Genesis() *blockmodel.MainBlock {
	return blockmodel.NewMainBlock(
		0,
		GenesisTimestamp,
		GenesisTxRoot,
		GenesisPreviousHash,
		GenesisStakerSignature,
		GenesisNBits,
		GenesisNonce,
		map[string]blockmodel.Summary{},
		nil,
	)
}

// Chain is the ordered main chain plus a hash-keyed lookup table, the
// same shape the reference model uses for O(1) previous-block lookup.
type Chain struct {
	mu     sync.RWMutex
	blocks []*blockmodel.MainBlock
	lookup map[string]*blockmodel.MainBlock
	log    *zap.Logger
}

// New creates a chain seeded with the pinned genesis block.
func New(log *zap.Logger) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Chain{lookup: make(map[string]*blockmodel.MainBlock), log: log}
	genesis := Genesis()
	c.blocks = append(c.blocks, genesis)
	c.lookup[genesis.BlockHash] = genesis
	return c
}

// Head returns the most recently appended block.
func (c *Chain) Head() *blockmodel.MainBlock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// Len returns the number of blocks in the chain, including genesis.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Blocks returns a snapshot copy of the chain in index order.
func (c *Chain) Blocks() []*blockmodel.MainBlock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*blockmodel.MainBlock, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Lookup returns the block with the given hash, if present.
func (c *Chain) Lookup(hash string) (*blockmodel.MainBlock, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.lookup[hash]
	return b, ok
}

// Previous returns the block preceding the given one, or nil if block
// is the genesis block or its predecessor is unknown. Supplements the
// source's get_previous_block, which the distilled spec omits but
// which §6's chain-consumer surface (the JSON viewer, re-org checks)
// needs to walk the chain backward without an index.
func (c *Chain) Previous(block *blockmodel.MainBlock) *blockmodel.MainBlock {
	if block.PreviousHash == GenesisPreviousHash {
		return nil
	}
	b, _ := c.Lookup(block.PreviousHash)
	return b
}

// IsValid reports whether block may extend this chain: the genesis
// block must match the pinned hash and previous_hash "0"; any other
// block's previous_hash must resolve to a known block whose own hash
// matches.
func (c *Chain) IsValid(block *blockmodel.MainBlock) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validateLocked(block) == nil
}

// IsChainValid walks every block in the chain, validating each against
// a freshly rebuilt lookup table so a later block's previous_hash must
// resolve to an earlier block actually present (and valid) in the
// chain, not merely one currently in the live lookup table.
func (c *Chain) IsChainValid() bool {
	blocks := c.Blocks()
	tmp := &Chain{lookup: make(map[string]*blockmodel.MainBlock), log: c.log}
	for _, b := range blocks {
		if tmp.validateLocked(b) != nil {
			return false
		}
		tmp.blocks = append(tmp.blocks, b)
		tmp.lookup[b.ComputeHash()] = b
	}
	return true
}

// Append validates and appends a block, updating the lookup table.
func (c *Chain) Append(block *blockmodel.MainBlock) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validateLocked(block); err != nil {
		return err
	}
	c.blocks = append(c.blocks, block)
	c.lookup[block.ComputeHash()] = block
	return nil
}

// validateLocked reports why block may not extend this chain, wrapped
// as a *ValidationError carrying the specific reason, or nil if it
// may. Callers hold c.mu (or own an unshared candidate chain).
func (c *Chain) validateLocked(block *blockmodel.MainBlock) error {
	if block.Index == 0 {
		if block.PreviousHash != GenesisPreviousHash {
			return &ValidationError{Reason: fmt.Sprintf("genesis previous_hash = %q, want %q", block.PreviousHash, GenesisPreviousHash)}
		}
		if block.ComputeHash() != GenesisHash {
			return &ValidationError{Reason: fmt.Sprintf("genesis hash = %s, want pinned %s", block.ComputeHash(), GenesisHash)}
		}
		return nil
	}
	previous, ok := c.lookup[block.PreviousHash]
	if !ok {
		return &ValidationError{Reason: fmt.Sprintf("index=%d: previous_hash %s not found", block.Index, block.PreviousHash)}
	}
	if block.PreviousHash != previous.ComputeHash() {
		return &ValidationError{Reason: fmt.Sprintf("index=%d: previous_hash %s does not match predecessor's current hash %s", block.Index, block.PreviousHash, previous.ComputeHash())}
	}
	return nil
}

// Replace swaps in newChain if it is longer than the current chain and
// newChain itself validates end to end.
//
// The reference implementation validates the *current* chain here
// instead of the incoming one, which accepts any longer chain once the
// local chain happens to be valid — almost certainly a bug (spec.md
// §9). This implementation validates the incoming chain instead, which
// is the only choice that makes replace_chain a meaningful safety
// check; see DESIGN.md for the full reasoning.
func (c *Chain) Replace(newChain []*blockmodel.MainBlock) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(newChain) <= len(c.blocks) {
		return false
	}

	candidate := &Chain{lookup: make(map[string]*blockmodel.MainBlock), log: c.log}
	for _, b := range newChain {
		if err := candidate.validateLocked(b); err != nil {
			c.log.Warn("rejected chain replacement: invalid block", zap.Int("index", b.Index), zap.Error(err))
			return false
		}
		candidate.blocks = append(candidate.blocks, b)
		candidate.lookup[b.ComputeHash()] = b
	}

	c.blocks = candidate.blocks
	c.lookup = candidate.lookup
	c.log.Info("replaced chain", zap.Int("new_length", len(c.blocks)))
	return true
}
