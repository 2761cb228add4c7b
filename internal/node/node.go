// Package node wires the transport, chain, and one role (miner or
// staker) together and supervises that role's loop until shutdown.
// Chosen from the identifier per spec.md §4.9: "miner*" -> miner,
// "staker*" -> staker.
package node

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/chain"
	"github.com/ssamchain/ssam/internal/config"
	"github.com/ssamchain/ssam/internal/p2p"
)

// ListenPort is the fixed port every node binds and dials, matching
// the source's hardcoded port 5000.
const ListenPort = "5000"

// Role is satisfied by MinerRole and StakerRole.
type Role interface {
	Run(ctx context.Context) error
}

// Node owns the transport and chain shared by whichever role it runs.
type Node struct {
	Name      string
	Shard     string
	Transport *p2p.Transport
	Router    *p2p.Router
	Chain     *chain.Chain
	Snapshot  *chain.JSONSnapshotWriter
	Log       *zap.Logger

	role  Role
	peers []p2p.Peer
}

// Options configures New.
type Options struct {
	NodeName    string
	ShardName   string
	Config      *config.Config
	SnapshotDir string
	Log         *zap.Logger
}

// New builds a Node and its role from cfg, dispatching on NodeName's
// prefix.
func New(opts Options) (*Node, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := p2p.NewRouter(64)
	transport := p2p.NewTransport(opts.NodeName, router, log)
	c := chain.New(log)

	var snapshotPath string
	if opts.SnapshotDir != "" {
		snapshotPath = opts.SnapshotDir + "/" + opts.NodeName + "_blockchain.json"
	}
	snapshot := chain.NewJSONSnapshotWriter(snapshotPath, log)

	self := p2p.Peer{Host: opts.NodeName, Port: ListenPort}
	peers := make([]p2p.Peer, 0, len(opts.Config.Network.Peers))
	for _, addr := range opts.Config.Network.Peers {
		p, err := parsePeer(addr)
		if err != nil {
			return nil, err
		}
		if p == self {
			continue
		}
		peers = append(peers, p)
	}

	n := &Node{
		Name:      opts.NodeName,
		Shard:     opts.ShardName,
		Transport: transport,
		Router:    router,
		Chain:     c,
		Snapshot:  snapshot,
		Log:       log,
		peers:     peers,
	}

	role, err := newRole(n, opts.Config)
	if err != nil {
		return nil, err
	}
	n.role = role
	return n, nil
}

func newRole(n *Node, cfg *config.Config) (Role, error) {
	switch {
	case strings.HasPrefix(n.Name, "miner"):
		return newMinerRole(n, cfg)
	case strings.HasPrefix(n.Name, "staker"):
		return newStakerRole(n, cfg)
	default:
		return nil, fmt.Errorf("node: NODE_NAME %q matches neither \"miner*\" nor \"staker*\"", n.Name)
	}
}

// Self returns this node's own peer address (host:port, fixed port
// ListenPort), consistent with the reference model identifying each
// peer by its node name as the TCP host.
func (n *Node) Self() p2p.Peer {
	return p2p.Peer{Host: n.Name, Port: ListenPort}
}

// Run starts the transport's accept loop, proactively connects to
// every configured peer (spec.md §4.5's start()), and then runs the
// selected role's loop, returning when ctx is canceled or the role
// loop exits with an error.
func (n *Node) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Transport.Listen(ctx, "0.0.0.0:"+ListenPort)
	}()

	n.Transport.ConnectAll(n.peers)

	roleErr := n.role.Run(ctx)

	n.Transport.Close()
	select {
	case err := <-errCh:
		if roleErr != nil {
			return roleErr
		}
		return err
	case <-ctx.Done():
		return roleErr
	}
}

func parsePeer(hostport string) (p2p.Peer, error) {
	parts := strings.SplitN(hostport, ":", 2)
	if len(parts) != 2 {
		return p2p.Peer{}, fmt.Errorf("node: invalid peer address %q", hostport)
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return p2p.Peer{}, fmt.Errorf("node: invalid peer port in %q: %w", hostport, err)
	}
	return p2p.Peer{Host: parts[0], Port: parts[1]}, nil
}
