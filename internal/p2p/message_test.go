package p2p

import (
	"encoding/json"
	"testing"
)

func TestNewMessageMarshalsContent(t *testing.T) {
	msg, err := NewMessage("miner1", ContentShardBlock, map[string]int{"nonce": 7})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(msg.Content, &decoded); err != nil {
		t.Fatalf("Unmarshal content: %v", err)
	}
	if decoded["nonce"] != 7 {
		t.Fatalf("decoded content = %v, want nonce=7", decoded)
	}
}

func TestStartAndStopControlShapes(t *testing.T) {
	start, err := StartControl("staker1", "shardA", 3)
	if err != nil {
		t.Fatalf("StartControl: %v", err)
	}
	if start.ContentType != ContentControl {
		t.Fatalf("StartControl ContentType = %s, want CONTROL", start.ContentType)
	}
	var action ControlAction
	if err := json.Unmarshal(start.Content, &action); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if action.Action != "START" || action.Shard != "shardA" || action.Epoch != 3 {
		t.Fatalf("decoded START action = %+v", action)
	}

	stop, err := StopControl("staker1", "shardA", 3)
	if err != nil {
		t.Fatalf("StopControl: %v", err)
	}
	if err := json.Unmarshal(stop.Content, &action); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if action.Action != "STOP" {
		t.Fatalf("decoded STOP action = %+v", action)
	}
}

func TestMessageWireRoundTrip(t *testing.T) {
	msg, err := NewMessage("staker1", ContentMainBlock, map[string]int{"index": 4})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	encoded, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Message
	if err := json.Unmarshal(encoded, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Sender != msg.Sender || back.ContentType != msg.ContentType {
		t.Fatalf("round-tripped envelope mismatch: %+v != %+v", back, msg)
	}
}
