package blockmodel

import (
	"testing"

	"github.com/ssamchain/ssam/internal/transaction"
)

func TestNewMainBlockComputesHashEagerly(t *testing.T) {
	b := NewMainBlock(1, "1735689601", "txroot", "prevhash", "sig", "0x1e0ffff0", 0, nil, nil)
	if b.BlockHash == "" {
		t.Fatalf("BlockHash was not computed at construction")
	}
	if b.BlockHash != b.ComputeHash() {
		t.Fatalf("BlockHash = %s, want %s", b.BlockHash, b.ComputeHash())
	}
	if b.ShardData == nil || b.Transactions == nil {
		t.Fatalf("NewMainBlock left nil maps/slices instead of empty ones")
	}
}

func TestMainBlockHashIgnoresBlockHashAndTransactions(t *testing.T) {
	b := NewMainBlock(1, "ts", "txroot", "prev", "sig", "0x1e0ffff0", 0, nil, nil)
	want := b.ComputeHash()

	b.Transactions = []transaction.Transaction{{Sender: "x", Recipient: "y", Amount: 1}}
	b.BlockHash = "garbage"

	if b.ComputeHash() != want {
		t.Fatalf("ComputeHash changed when only Transactions/BlockHash changed")
	}
}

func TestMainBlockHashChangesWithShardData(t *testing.T) {
	b := NewMainBlock(1, "ts", "txroot", "prev", "sig", "0x1e0ffff0", 0, nil, nil)
	h1 := b.ComputeHash()

	b.ShardData["miner1"] = Summary{BlockHash: "abc", MinerNumericID: 1}
	h2 := b.ComputeHash()

	if h1 == h2 {
		t.Fatalf("ComputeHash did not change after adding shard data")
	}
}

func TestMainBlockWireRoundTrip(t *testing.T) {
	b := NewMainBlock(2, "ts", "txroot", "prev", "sig", "0x1e0ffff0", 7, map[string]Summary{
		"miner1": {BlockHash: "abc", MinerNumericID: 1, NBits: "0x1e0ffff0"},
	}, []transaction.Transaction{{Sender: "a", Recipient: "b", Amount: 5}})

	data, err := b.MarshalForWire()
	if err != nil {
		t.Fatalf("MarshalForWire: %v", err)
	}
	back, err := MainBlockFromWire(data)
	if err != nil {
		t.Fatalf("MainBlockFromWire: %v", err)
	}
	if back.ComputeHash() != b.ComputeHash() {
		t.Fatalf("round-tripped block hash mismatch")
	}
	if len(back.ShardData) != 1 {
		t.Fatalf("round-tripped shard_data has %d entries, want 1", len(back.ShardData))
	}
}
