package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// ChainInfo describes the static metadata for one supported network.
type ChainInfo struct {
	Name           string
	ChainID        int64
	NativeCurrency string
	Explorer       string
	BlockTime      time.Duration
	RPCEndpoint    string
}

// Chains is the built-in chain metadata table. Entries can be overridden
// per deployment with LoadChainOverrides.
var Chains = map[string]ChainInfo{
	"base": {
		Name:           "Base",
		ChainID:        8453,
		NativeCurrency: "ETH",
		Explorer:       "https://basescan.org",
		BlockTime:      2 * time.Second,
		RPCEndpoint:    "https://mainnet.base.org",
	},
	"arbitrum": {
		Name:           "Arbitrum One",
		ChainID:        42161,
		NativeCurrency: "ETH",
		Explorer:       "https://arbiscan.io",
		BlockTime:      250 * time.Millisecond,
		RPCEndpoint:    "https://arb1.arbitrum.io/rpc",
	},
	"optimism": {
		Name:           "Optimism",
		ChainID:        10,
		NativeCurrency: "ETH",
		Explorer:       "https://optimistic.etherscan.io",
		BlockTime:      2 * time.Second,
		RPCEndpoint:    "https://mainnet.optimism.io",
	},
	"polygon": {
		Name:           "Polygon",
		ChainID:        137,
		NativeCurrency: "MATIC",
		Explorer:       "https://polygonscan.com",
		BlockTime:      2 * time.Second,
		RPCEndpoint:    "https://polygon-rpc.com",
	},
}

// ChainByKey looks up a chain by its table key.
func ChainByKey(key string) (ChainInfo, error) {
	info, ok := Chains[key]
	if !ok {
		return ChainInfo{}, fmt.Errorf("unknown chain %q", key)
	}
	return info, nil
}

// chainOverride mirrors ChainInfo with block_time as a duration string,
// which YAML cannot express natively.
type chainOverride struct {
	Name           string `yaml:"name"`
	ChainID        int64  `yaml:"chain_id"`
	NativeCurrency string `yaml:"native_currency"`
	Explorer       string `yaml:"explorer"`
	BlockTime      string `yaml:"block_time"`
	RPCEndpoint    string `yaml:"rpc_endpoint"`
}

// LoadChainOverrides merges a YAML chain table into the built-in one.
// Only the keys present in the file are replaced.
func LoadChainOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read chain overrides: %w", err)
	}

	var raw map[string]chainOverride
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse chain overrides: %w", err)
	}

	overrides := make(map[string]ChainInfo, len(raw))
	for key, o := range raw {
		info := ChainInfo{
			Name:           o.Name,
			ChainID:        o.ChainID,
			NativeCurrency: o.NativeCurrency,
			Explorer:       o.Explorer,
			RPCEndpoint:    o.RPCEndpoint,
		}
		if o.BlockTime != "" {
			blockTime, err := time.ParseDuration(o.BlockTime)
			if err != nil {
				return fmt.Errorf("invalid block_time for chain %q: %w", key, err)
			}
			info.BlockTime = blockTime
		}
		overrides[key] = info
	}

	for key, info := range overrides {
		base, ok := Chains[key]
		if !ok {
			Chains[key] = info
			continue
		}
		if info.Name != "" {
			base.Name = info.Name
		}
		if info.ChainID != 0 {
			base.ChainID = info.ChainID
		}
		if info.NativeCurrency != "" {
			base.NativeCurrency = info.NativeCurrency
		}
		if info.Explorer != "" {
			base.Explorer = info.Explorer
		}
		if info.BlockTime != 0 {
			base.BlockTime = info.BlockTime
		}
		if info.RPCEndpoint != "" {
			base.RPCEndpoint = info.RPCEndpoint
		}
		Chains[key] = base
	}
	return nil
}
