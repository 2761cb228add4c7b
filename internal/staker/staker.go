// Package staker implements the staker role: deterministic
// stake-weighted election, shard-block validation, and main-block
// proposal/acceptance.
package staker

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/blockmodel"
	"github.com/ssamchain/ssam/internal/chain"
	"github.com/ssamchain/ssam/internal/merkle"
	"github.com/ssamchain/ssam/internal/transaction"
)

// ErrNoStake is returned by SelectStaker when the stake table carries
// no weight to run the election against.
var ErrNoStake = errors.New("staker: no stake configured")

// Staker aggregates shard blocks into main blocks and participates in
// deterministic stake-weighted proposer election.
type Staker struct {
	mu sync.Mutex

	NodeName  string
	Signature string

	stakes map[string]int64
	chain  *chain.Chain
	log    *zap.Logger
}

// New builds a Staker for nodeName, owning chain c. Signature is
// "<node_name>:<random-128-bit-hex>", matching the reference model's
// uuid4-based signature scheme (see GLOSSARY).
func New(nodeName string, c *chain.Chain, log *zap.Logger) (*Staker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	suffix, err := transaction.RandomHex128()
	if err != nil {
		return nil, fmt.Errorf("staker %s: mint signature: %w", nodeName, err)
	}
	return &Staker{
		NodeName:  nodeName,
		Signature: nodeName + ":" + suffix,
		stakes:    make(map[string]int64),
		chain:     c,
		log:       log,
	}, nil
}

// InitializeStakes replaces the stake table wholesale.
func (s *Staker) InitializeStakes(stakeInfo map[string]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stakes = make(map[string]int64, len(stakeInfo))
	for id, amount := range stakeInfo {
		s.stakes[id] = amount
	}
}

// AddStake credits amount to stakerID's stake, creating the entry if
// absent.
func (s *Staker) AddStake(stakerID string, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stakes[stakerID] += amount
}

// SelectedStaker names the winner of a deterministic election for a
// given epoch.
type SelectedStaker struct {
	StakerID string
	Epoch    int
}

// SelectStaker deterministically elects a staker for the next epoch
// from the current chain head: hash the head's block hash with the
// sorted staker IDs concatenated, reduce modulo total stake, and walk
// the sorted table cumulatively. Returns ErrNoStake if there is no
// stake to weight the election by.
func (s *Staker) SelectStaker() (SelectedStaker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	ids := make([]string, 0, len(s.stakes))
	for id, amount := range s.stakes {
		total += amount
		ids = append(ids, id)
	}
	if total <= 0 {
		return SelectedStaker{}, ErrNoStake
	}
	sort.Strings(ids)

	head := s.chain.Head()
	epoch := head.Index + 1

	combined := head.ComputeHash()
	for _, id := range ids {
		combined += id
	}
	sum := sha256.Sum256([]byte(combined))
	hashNumber := new(big.Int).SetBytes(sum[:])

	mod := new(big.Int).Mod(hashNumber, big.NewInt(total))
	var cumulative int64
	for _, id := range ids {
		cumulative += s.stakes[id]
		if mod.Cmp(big.NewInt(cumulative)) < 0 {
			return SelectedStaker{StakerID: id, Epoch: epoch}, nil
		}
	}
	// Unreachable when total matches the sum of stakes, kept as a safe
	// fallback rather than a panic.
	return SelectedStaker{StakerID: ids[len(ids)-1], Epoch: epoch}, nil
}

// ValidateShardBlock recomputes the Merkle root over the shard block's
// carried transactions and compares it against the block's claimed
// root. Stakers do not re-verify shard-block proof-of-work here — see
// DESIGN.md for why this mirrors the reference model.
func (s *Staker) ValidateShardBlock(block *blockmodel.ShardBlock) bool {
	hashes := make([]string, len(block.Transactions))
	for i, tx := range block.Transactions {
		hashes[i] = tx.Hash()
	}
	return merkle.Root(hashes) == block.MerkleRoot
}

// ProcessShardBlock validates an inbound shard block and reports
// whether it is accepted, returning the block when accepted and nil
// when rejected. This mirrors the source's
// process_shard_block returning a (bool, block) tuple rather than an
// error (spec.md's distillation omits this shape; SPEC_FULL.md
// restores it).
func (s *Staker) ProcessShardBlock(block *blockmodel.ShardBlock) (bool, *blockmodel.ShardBlock) {
	if s.ValidateShardBlock(block) {
		s.log.Info("accepted shard block",
			zap.String("staker", s.NodeName),
			zap.String("miner", block.MinerNodeName),
		)
		return true, block
	}
	s.log.Warn("rejected shard block",
		zap.String("staker", s.NodeName),
		zap.String("miner", block.MinerNodeName),
	)
	return false, nil
}

// ProposeMainBlock aggregates one accepted shard block per miner into
// a new main block, appends it to the chain, and returns the result.
// An empty shardBlocks is rejected outright, matching the source's
// refusal to propose an empty epoch.
func (s *Staker) ProposeMainBlock(shardBlocks []*blockmodel.ShardBlock, now time.Time) (bool, *blockmodel.MainBlock, error) {
	if len(shardBlocks) == 0 {
		return false, nil, fmt.Errorf("staker %s: no shard blocks to propose", s.NodeName)
	}

	shardData := make(map[string]blockmodel.Summary, len(shardBlocks))
	var combined []transaction.Transaction
	for _, sb := range shardBlocks {
		shardData[sb.MinerNodeName] = sb.Summarize()
		combined = append(combined, sb.Transactions...)
	}

	hashes := make([]string, len(combined))
	for i, tx := range combined {
		hashes[i] = tx.Hash()
	}
	txRoot := merkle.Root(hashes)

	head := s.chain.Head()
	newBlock := blockmodel.NewMainBlock(
		head.Index+1,
		strconv.FormatInt(now.Unix(), 10),
		txRoot,
		head.ComputeHash(),
		s.Signature,
		head.NBits,
		0,
		shardData,
		combined,
	)

	if err := s.chain.Append(newBlock); err != nil {
		return false, newBlock, fmt.Errorf("staker %s: propose main block: %w", s.NodeName, err)
	}
	s.log.Info("proposed main block",
		zap.String("staker", s.NodeName),
		zap.Int("index", newBlock.Index),
		zap.Int("shard_count", len(shardBlocks)),
	)
	return true, newBlock, nil
}

// ReceiveMainBlock attempts to append an inbound main block proposed
// by another staker.
func (s *Staker) ReceiveMainBlock(block *blockmodel.MainBlock, proposer string) (bool, error) {
	if err := s.chain.Append(block); err != nil {
		s.log.Info("rejected main block", zap.String("proposer", proposer), zap.Int("index", block.Index))
		return false, err
	}
	s.log.Info("accepted main block", zap.String("proposer", proposer), zap.Int("index", block.Index))
	return true, nil
}
