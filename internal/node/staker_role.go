package node

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/blockmodel"
	"github.com/ssamchain/ssam/internal/config"
	"github.com/ssamchain/ssam/internal/p2p"
	"github.com/ssamchain/ssam/internal/staker"
)

// interEpochSleep is the small fixed interval before the next epoch
// (spec.md §4.8e).
const interEpochSleep = 500 * time.Millisecond

// StakerRole implements the staker epoch loop of spec.md §4.8.
type StakerRole struct {
	n            *Node
	staker       *staker.Staker
	minerPeers   []p2p.Peer
	otherStakers []p2p.Peer
}

func newStakerRole(n *Node, cfg *config.Config) (*StakerRole, error) {
	s, err := staker.New(n.Name, n.Chain, n.Log)
	if err != nil {
		return nil, err
	}
	s.InitializeStakes(cfg.Stakes)

	entry, ok := cfg.Shards[n.Name]
	if !ok {
		return nil, fmt.Errorf("node: staker %q has no shard_config entry (shard_config is keyed by staker node name)", n.Name)
	}
	minerPeers := make([]p2p.Peer, 0, len(entry.Miners))
	for _, addr := range entry.Miners {
		p, err := parsePeer(addr)
		if err != nil {
			return nil, err
		}
		minerPeers = append(minerPeers, p)
	}

	var others []p2p.Peer
	for id := range cfg.Stakes {
		if id != n.Name {
			others = append(others, p2p.Peer{Host: id, Port: ListenPort})
		}
	}

	return &StakerRole{n: n, staker: s, minerPeers: minerPeers, otherStakers: others}, nil
}

// Run executes successive epochs until ctx is canceled.
func (r *StakerRole) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := r.runEpoch(ctx); err != nil {
			r.n.Log.Warn("staker: epoch ended with error", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interEpochSleep):
		}
	}
}

func (r *StakerRole) runEpoch(ctx context.Context) error {
	selected, err := r.staker.SelectStaker()
	if err != nil {
		return err
	}

	if selected.StakerID != r.n.Name {
		return r.awaitMainBlock(ctx, selected)
	}
	return r.proposeEpoch(ctx, selected.Epoch)
}

// awaitMainBlock blocks on the MAIN_BLOCK queue until another staker's
// proposal for this epoch is applied.
func (r *StakerRole) awaitMainBlock(ctx context.Context, selected staker.SelectedStaker) error {
	select {
	case <-ctx.Done():
		return nil
	case msg, ok := <-r.n.Router.MainBlocks():
		if !ok {
			return nil
		}
		block, err := blockmodel.MainBlockFromWire(msg.Content)
		if err != nil {
			return fmt.Errorf("undecodable MAIN_BLOCK from %s: %w", msg.Sender, err)
		}
		accepted, err := r.staker.ReceiveMainBlock(block, msg.Sender)
		if accepted {
			r.n.Snapshot.Write(block)
		}
		return err
	}
}

func (r *StakerRole) proposeEpoch(ctx context.Context, epoch int) error {
	for _, peer := range r.minerPeers {
		start, err := p2p.StartControl(r.n.Name, r.n.Shard, epoch)
		if err != nil {
			return err
		}
		if err := r.n.Transport.Send(peer, start); err != nil {
			r.n.Log.Warn("staker: failed to send START", zap.String("miner", peer.Address()), zap.Error(err))
		}
	}

	shardBlocks, err := r.collectShardBlocks(ctx, len(r.minerPeers))
	if err != nil {
		return err
	}

	for _, peer := range r.minerPeers {
		stop, err := p2p.StopControl(r.n.Name, r.n.Shard, epoch)
		if err == nil {
			_ = r.n.Transport.Send(peer, stop)
		}
	}

	if len(shardBlocks) == 0 {
		return fmt.Errorf("collected no valid shard blocks for epoch %d", epoch)
	}

	accepted, block, err := r.staker.ProposeMainBlock(shardBlocks, time.Now())
	if err != nil || !accepted {
		return err
	}
	r.n.Snapshot.Write(block)

	out, err := p2p.NewMessage(r.n.Name, p2p.ContentMainBlock, block)
	if err != nil {
		return fmt.Errorf("encode main block: %w", err)
	}
	r.n.Transport.Broadcast(r.otherStakers, out)
	return nil
}

// collectShardBlocks waits for exactly want valid SHARD_BLOCK messages,
// dropping invalid ones, per spec.md §4.8b.
func (r *StakerRole) collectShardBlocks(ctx context.Context, want int) ([]*blockmodel.ShardBlock, error) {
	var collected []*blockmodel.ShardBlock
	for len(collected) < want {
		select {
		case <-ctx.Done():
			return collected, nil
		case msg, ok := <-r.n.Router.ShardBlocks():
			if !ok {
				return collected, nil
			}
			block, err := blockmodel.ShardBlockFromWire(msg.Content)
			if err != nil {
				r.n.Log.Warn("staker: undecodable SHARD_BLOCK", zap.Error(err))
				continue
			}
			if accepted, sb := r.staker.ProcessShardBlock(block); accepted {
				collected = append(collected, sb)
			}
		}
	}
	return collected, nil
}
