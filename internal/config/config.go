// Package config loads and validates the node's static JSON
// configuration file: peer list, mining difficulty, shard membership,
// and the stake table. Configuration is passed into each component as
// a value — nothing here relies on process-wide state (spec.md §9).
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the top-level configuration shape. A loader must reject a
// file missing any of these four top-level keys.
type Config struct {
	Network NetworkConfig         `json:"network_config"`
	Mining  MiningConfig          `json:"mining_config"`
	Shards  map[string]ShardEntry `json:"shard_config"`
	Stakes  map[string]int64      `json:"stake_info"`

	// TransactionPoolPath is optional; the core's required keys don't
	// name it (spec.md §6), but a miner needs some path to the shared
	// pool file. Defaults to defaultPoolPath, mirroring the source's
	// transaction/transaction_pool.json default.
	TransactionPoolPath string `json:"transaction_pool_path,omitempty"`
}

const defaultPoolPath = "transaction_pool.json"

// PoolPath returns the configured transaction pool file path, or the
// default if unset.
func (c *Config) PoolPath() string {
	if c.TransactionPoolPath != "" {
		return c.TransactionPoolPath
	}
	return defaultPoolPath
}

// NetworkConfig lists the static peer set this node dials.
type NetworkConfig struct {
	Peers []string `json:"peers"`
}

// MiningConfig carries the compact difficulty every shard miner uses.
type MiningConfig struct {
	NBits string `json:"nbits"`
}

// ShardEntry names one shard's miner addresses. NumMiners is carried
// alongside the address list (rather than derived from its length) so
// a partial peer list still yields the correct transaction partition.
type ShardEntry struct {
	Miners    []string `json:"miners"`
	NumMiners int      `json:"num_miners"`
}

// Error is a ConfigurationError per spec.md §7: fatal at startup.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Path, e.Reason)
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Reason: err.Error()}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Path: path, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	for _, key := range []string{"network_config", "mining_config", "shard_config", "stake_info"} {
		if _, ok := raw[key]; !ok {
			return nil, &Error{Path: path, Reason: fmt.Sprintf("missing required key %q", key)}
		}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{Path: path, Reason: fmt.Sprintf("decode: %v", err)}
	}
	if cfg.Mining.NBits == "" {
		return nil, &Error{Path: path, Reason: "mining_config.nbits must be set"}
	}
	return &cfg, nil
}
