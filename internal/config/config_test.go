package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"network_config": {"peers": ["miner1:5000", "staker1:5000"]},
		"mining_config": {"nbits": "0x1e0ffff0"},
		"shard_config": {"shardA": {"miners": ["miner1:5000"], "num_miners": 1}},
		"stake_info": {"staker1": 10}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Network.Peers) != 2 {
		t.Fatalf("Peers = %v, want 2 entries", cfg.Network.Peers)
	}
	if cfg.Mining.NBits != "0x1e0ffff0" {
		t.Fatalf("NBits = %s", cfg.Mining.NBits)
	}
	if cfg.Shards["shardA"].NumMiners != 1 {
		t.Fatalf("shardA.NumMiners = %d, want 1", cfg.Shards["shardA"].NumMiners)
	}
	if cfg.Stakes["staker1"] != 10 {
		t.Fatalf("Stakes[staker1] = %d, want 10", cfg.Stakes["staker1"])
	}
}

func TestLoadRejectsMissingKey(t *testing.T) {
	path := writeConfig(t, `{
		"network_config": {"peers": []},
		"mining_config": {"nbits": "0x1e0ffff0"},
		"shard_config": {}
	}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load accepted a config missing stake_info")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("Load accepted a nonexistent file")
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := writeConfig(t, `not json`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load accepted malformed JSON")
	}
}
