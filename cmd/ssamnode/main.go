// Command ssamnode runs a single SSAM fleet member as either a shard
// miner or a shard staker, chosen from NODE_NAME.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/config"
	"github.com/ssamchain/ssam/internal/node"
)

func main() {
	configPath := flag.String("config", "_config/config.json", "Path to the node configuration file")
	dataDir := flag.String("data-dir", "", "Directory for the local chain snapshot (empty disables snapshotting)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	nodeName := os.Getenv("NODE_NAME")
	if nodeName == "" {
		log.Fatal("NODE_NAME environment variable is required")
	}
	shard := os.Getenv("SHARD")
	if shard == "" {
		log.Fatal("SHARD environment variable is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	n, err := node.New(node.Options{
		NodeName:    nodeName,
		ShardName:   shard,
		Config:      cfg,
		SnapshotDir: *dataDir,
		Log:         log,
	})
	if err != nil {
		log.Fatal("failed to initialize node", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting node", zap.String("name", nodeName), zap.String("shard", shard))
	if err := n.Run(ctx); err != nil {
		log.Error("node exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("node shut down cleanly")
}
