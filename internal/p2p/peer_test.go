package p2p

import "testing"

func TestPeerAddressFormat(t *testing.T) {
	p := Peer{Host: "miner1", Port: "5000"}
	if p.Address() != "miner1:5000" {
		t.Fatalf("Address() = %s, want miner1:5000", p.Address())
	}
}

func TestPeerStructuralEquality(t *testing.T) {
	a := Peer{Host: "miner1", Port: "5000"}
	b := Peer{Host: "miner1", Port: "5000"}
	c := Peer{Host: "miner2", Port: "5000"}
	if a != b {
		t.Fatalf("structurally identical peers compared unequal")
	}
	if a == c {
		t.Fatalf("structurally different peers compared equal")
	}
}
