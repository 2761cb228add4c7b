package node

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/config"
	"github.com/ssamchain/ssam/internal/miner"
	"github.com/ssamchain/ssam/internal/p2p"
	"github.com/ssamchain/ssam/internal/transaction"
)

// epochBackoff is the small fixed sleep between mining iterations
// (spec.md §4.7's "sleep a small fixed backoff").
const epochBackoff = 200 * time.Millisecond

// MinerRole implements the miner state machine of spec.md §4.7: stay
// idle until a CONTROL START names this shard, mine exactly one shard
// block, send it to the shard's staker, and go idle again.
type MinerRole struct {
	n          *Node
	miner      *miner.ShardMiner
	stakerPeer p2p.Peer

	miningAllowed bool
}

func newMinerRole(n *Node, cfg *config.Config) (*MinerRole, error) {
	entry, ok := cfg.Shards[n.Shard]
	if !ok {
		return nil, fmt.Errorf("node: shard %q not present in shard_config", n.Shard)
	}

	numericID := -1
	self := n.Self().Address()
	for i, addr := range entry.Miners {
		if addr == self {
			numericID = i
			break
		}
	}
	if numericID == -1 {
		return nil, fmt.Errorf("node: miner %q not listed in shard_config[%q].miners", n.Name, n.Shard)
	}

	pool, err := transaction.LoadPoolFile(cfg.PoolPath())
	if err != nil {
		return nil, err
	}

	m := miner.New(numericID, n.Name, entry.NumMiners, cfg.Mining.NBits, pool, n.Log)

	// The shard's staker is addressed by the shard name itself: each
	// shard_config entry is keyed by the node name of its one staker
	// (see DESIGN.md's resolution of this otherwise-unspecified
	// mapping).
	stakerPeer := p2p.Peer{Host: n.Shard, Port: ListenPort}

	return &MinerRole{n: n, miner: m, stakerPeer: stakerPeer}, nil
}

// Run blocks on CONTROL messages for this node's shard, mining and
// sending exactly one shard block per START.
func (r *MinerRole) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-r.n.Router.Control():
			if !ok {
				return nil
			}
			r.handleControl(ctx, msg)
		}
	}
}

func (r *MinerRole) handleControl(ctx context.Context, msg p2p.Message) {
	var action p2p.ControlAction
	if err := json.Unmarshal(msg.Content, &action); err != nil {
		r.n.Log.Warn("miner: undecodable CONTROL message", zap.Error(err))
		return
	}
	if action.Shard != r.n.Shard {
		return // CONTROL for a different shard is ignored.
	}

	switch action.Action {
	case "START":
		r.miningAllowed = true
	case "STOP":
		r.miningAllowed = false
		return
	default:
		return
	}

	if !r.miningAllowed {
		return
	}

	block, err := r.miner.MineShardBlock(time.Now())
	if err != nil {
		r.n.Log.Warn("miner: nonce space exhausted", zap.Error(err))
		r.miningAllowed = false
		return
	}

	out, err := p2p.NewMessage(r.n.Name, p2p.ContentShardBlock, block)
	if err != nil {
		r.n.Log.Error("miner: failed to encode shard block", zap.Error(err))
		r.miningAllowed = false
		return
	}
	if err := r.n.Transport.Send(r.stakerPeer, out); err != nil {
		r.n.Log.Warn("miner: failed to send shard block", zap.String("staker", r.stakerPeer.Address()), zap.Error(err))
	}

	r.miningAllowed = false // single-shot per START
	select {
	case <-ctx.Done():
	case <-time.After(epochBackoff):
	}
}
