package staker

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/blockmodel"
	"github.com/ssamchain/ssam/internal/chain"
	"github.com/ssamchain/ssam/internal/merkle"
	"github.com/ssamchain/ssam/internal/transaction"
)

func newTestStaker(t *testing.T, name string) (*Staker, *chain.Chain) {
	t.Helper()
	c := chain.New(zap.NewNop())
	s, err := New(name, c, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, c
}

func TestSignatureHasNodeNamePrefix(t *testing.T) {
	s, _ := newTestStaker(t, "staker1")
	want := "staker1:"
	if len(s.Signature) <= len(want) || s.Signature[:len(want)] != want {
		t.Fatalf("Signature = %q, want prefix %q", s.Signature, want)
	}
}

func TestSelectStakerNoStakeReturnsErrNoStake(t *testing.T) {
	s, _ := newTestStaker(t, "staker1")
	if _, err := s.SelectStaker(); !errors.Is(err, ErrNoStake) {
		t.Fatalf("SelectStaker err = %v, want ErrNoStake", err)
	}
}

func TestSelectStakerIsDeterministic(t *testing.T) {
	s, _ := newTestStaker(t, "staker1")
	s.InitializeStakes(map[string]int64{"staker1": 10, "staker2": 20, "staker3": 5})

	first, err := s.SelectStaker()
	if err != nil {
		t.Fatalf("SelectStaker failed with nonzero stake: %v", err)
	}
	second, _ := s.SelectStaker()
	if first != second {
		t.Fatalf("SelectStaker is not deterministic: %+v != %+v", first, second)
	}
	if first.Epoch != 1 {
		t.Fatalf("Epoch = %d, want 1 (genesis.index + 1)", first.Epoch)
	}
}

func TestAddStakeAccumulates(t *testing.T) {
	s, _ := newTestStaker(t, "staker1")
	s.AddStake("staker1", 5)
	s.AddStake("staker1", 5)
	s.InitializeStakes(map[string]int64{}) // replaces the table, discarding the 10 added above
	s.AddStake("staker1", 1)
	sel, err := s.SelectStaker()
	if err != nil {
		t.Fatalf("SelectStaker failed after AddStake: %v", err)
	}
	if sel.StakerID != "staker1" {
		t.Fatalf("StakerID = %s, want staker1 (sole staker)", sel.StakerID)
	}
}

func sampleShardBlockFor(miner string, txs []transaction.Transaction) *blockmodel.ShardBlock {
	hashes := make([]string, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash()
	}
	b := &blockmodel.ShardBlock{
		MinerNumericID: 0,
		MinerNodeName:  miner,
		Timestamp:      "1735689601",
		NBits:          "0x1e0ffff0",
		Transactions:   txs,
	}
	b.MerkleRoot = merkle.Root(hashes)
	return b
}

func TestValidateShardBlockAcceptsCorrectMerkleRoot(t *testing.T) {
	s, _ := newTestStaker(t, "staker1")
	txs := []transaction.Transaction{{Sender: "a", Recipient: "b", Amount: 1}}
	block := sampleShardBlockFor("miner1", txs)
	if !s.ValidateShardBlock(block) {
		t.Fatalf("ValidateShardBlock rejected a correctly computed Merkle root")
	}
}

func TestValidateShardBlockRejectsTamperedRoot(t *testing.T) {
	s, _ := newTestStaker(t, "staker1")
	txs := []transaction.Transaction{{Sender: "a", Recipient: "b", Amount: 1}}
	block := sampleShardBlockFor("miner1", txs)
	block.MerkleRoot = "tampered"
	if s.ValidateShardBlock(block) {
		t.Fatalf("ValidateShardBlock accepted a tampered Merkle root")
	}
}

func TestProcessShardBlockReturnsTupleNotError(t *testing.T) {
	s, _ := newTestStaker(t, "staker1")
	txs := []transaction.Transaction{{Sender: "a", Recipient: "b", Amount: 1}}
	good := sampleShardBlockFor("miner1", txs)
	ok, accepted := s.ProcessShardBlock(good)
	if !ok || accepted == nil {
		t.Fatalf("ProcessShardBlock rejected a valid block")
	}

	bad := sampleShardBlockFor("miner1", txs)
	bad.MerkleRoot = "tampered"
	ok, accepted = s.ProcessShardBlock(bad)
	if ok || accepted != nil {
		t.Fatalf("ProcessShardBlock accepted a tampered block")
	}
}

func TestProposeMainBlockRejectsEmptyShardBlocks(t *testing.T) {
	s, _ := newTestStaker(t, "staker1")
	ok, block, err := s.ProposeMainBlock(nil, time.Unix(1735689601, 0))
	if ok || block != nil || err == nil {
		t.Fatalf("ProposeMainBlock accepted an empty shard block list")
	}
}

func TestProposeMainBlockAggregatesAndAppends(t *testing.T) {
	s, c := newTestStaker(t, "staker1")
	txs1 := []transaction.Transaction{{Sender: "a", Recipient: "b", Amount: 1}}
	txs2 := []transaction.Transaction{{Sender: "c", Recipient: "d", Amount: 2}}
	sb1 := sampleShardBlockFor("miner1", txs1)
	sb2 := sampleShardBlockFor("miner2", txs2)

	ok, block, err := s.ProposeMainBlock([]*blockmodel.ShardBlock{sb1, sb2}, time.Unix(1735689601, 0))
	if err != nil {
		t.Fatalf("ProposeMainBlock: %v", err)
	}
	if !ok {
		t.Fatalf("ProposeMainBlock was not accepted by the chain")
	}
	if len(block.ShardData) != 2 {
		t.Fatalf("ShardData has %d entries, want 2", len(block.ShardData))
	}
	if len(block.Transactions) != 2 {
		t.Fatalf("Transactions has %d entries, want 2", len(block.Transactions))
	}
	if c.Head().ComputeHash() != block.ComputeHash() {
		t.Fatalf("proposed block was not appended as chain head")
	}
}

func TestReceiveMainBlockAppendsValidBlock(t *testing.T) {
	sA, _ := newTestStaker(t, "stakerA")

	ok, block, err := sA.ProposeMainBlock([]*blockmodel.ShardBlock{
		sampleShardBlockFor("miner1", []transaction.Transaction{{Sender: "a", Recipient: "b", Amount: 1}}),
	}, time.Unix(1735689601, 0))
	if err != nil || !ok {
		t.Fatalf("ProposeMainBlock: ok=%v err=%v", ok, err)
	}

	otherChain := chain.New(zap.NewNop())
	otherStaker, err := New("stakerC", otherChain, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	accepted, err := otherStaker.ReceiveMainBlock(block, sA.NodeName)
	if err != nil || !accepted {
		t.Fatalf("ReceiveMainBlock rejected a validly chained block: accepted=%v err=%v", accepted, err)
	}
	if otherChain.Head().ComputeHash() != block.ComputeHash() {
		t.Fatalf("other chain did not advance to the received block")
	}
}
