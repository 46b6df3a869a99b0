package config

import (
	"fmt"
	"strings"
)

// Config holds the executor's runtime settings. All percentage and basis
// point values are integers; adjustments are applied via integer
// multiply-then-divide to match on-chain fixed point conventions.
type Config struct {
	// Signing and network
	PrivateKey  string `json:"-"`
	Chain       string `json:"chain"`
	RPCEndpoint string `json:"rpc_endpoint"`

	// Trading parameters
	MaxSlippageBps  int64 `json:"max_slippage_bps"`
	DeadlineSeconds int64 `json:"deadline_seconds"`

	// Gas parameters
	FallbackGasLimit uint64 `json:"fallback_gas_limit"`
	GasBufferPct     int64  `json:"gas_buffer_pct"`
	GasBoostPct      int64  `json:"gas_boost_pct"`

	// RPC write throttling
	RPCRateLimit RateLimitConfig `json:"rpc_rate_limit"`

	// Mode
	DryRun bool `json:"dry_run"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	BurstSize         int     `json:"burst_size"`
}

// DefaultConfig returns a Config with production defaults. The private key
// and chain must still be supplied before use.
func DefaultConfig() *Config {
	return &Config{
		MaxSlippageBps:   50,  // 0.50%
		DeadlineSeconds:  60,
		FallbackGasLimit: 500000,
		GasBufferPct:     120, // +20% over the estimate
		GasBoostPct:      110, // +10% over the sampled gas price
		RPCRateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         100,
		},
	}
}

// NewConfig builds a Config from the environment, falling back to defaults.
// Call LoadEnv first if a .env file should be honored.
func NewConfig() (*Config, error) {
	cfg := DefaultConfig()

	var err error
	cfg.DryRun = getEnvBool(EnvDryRun, false)

	// Dry-run mode never signs anything, so the key is optional there.
	if cfg.DryRun {
		cfg.PrivateKey = GetEnvWithDefault(EnvPrivateKey, "")
	} else {
		privateKey, err := GetRequiredEnv(EnvPrivateKey)
		if err != nil {
			return nil, err
		}
		cfg.PrivateKey = privateKey
	}
	cfg.Chain = GetEnvWithDefault(EnvChain, "base")
	cfg.RPCEndpoint = GetEnvWithDefault(EnvRPCEndpoint, "")

	if cfg.MaxSlippageBps, err = getEnvInt(EnvMaxSlippageBps, cfg.MaxSlippageBps); err != nil {
		return nil, err
	}
	if cfg.DeadlineSeconds, err = getEnvInt(EnvDeadlineSeconds, cfg.DeadlineSeconds); err != nil {
		return nil, err
	}
	fallbackGas, err := getEnvInt(EnvFallbackGasLimit, int64(cfg.FallbackGasLimit))
	if err != nil {
		return nil, err
	}
	cfg.FallbackGasLimit = uint64(fallbackGas)

	if cfg.GasBufferPct, err = getEnvInt(EnvGasBufferPct, cfg.GasBufferPct); err != nil {
		return nil, err
	}
	if cfg.GasBoostPct, err = getEnvInt(EnvGasBoostPct, cfg.GasBoostPct); err != nil {
		return nil, err
	}
	if cfg.RPCRateLimit.RequestsPerSecond, err = getEnvFloat(EnvRPCRateLimit, cfg.RPCRateLimit.RequestsPerSecond); err != nil {
		return nil, err
	}
	burst, err := getEnvInt(EnvRPCBurstSize, int64(cfg.RPCRateLimit.BurstSize))
	if err != nil {
		return nil, err
	}
	cfg.RPCRateLimit.BurstSize = int(burst)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errors []string

	if c.PrivateKey == "" && !c.DryRun {
		errors = append(errors, "private key must be specified")
	}
	if _, ok := Chains[c.Chain]; !ok {
		errors = append(errors, fmt.Sprintf("unknown chain %q", c.Chain))
	}
	if c.MaxSlippageBps < 0 || c.MaxSlippageBps > 10000 {
		errors = append(errors, "max_slippage_bps must be within [0, 10000]")
	}
	if c.DeadlineSeconds <= 0 {
		errors = append(errors, "deadline_seconds must be positive")
	}
	if c.FallbackGasLimit == 0 {
		errors = append(errors, "fallback_gas_limit must be positive")
	}
	if c.GasBufferPct < 100 {
		errors = append(errors, "gas_buffer_pct must be at least 100")
	}
	if c.GasBoostPct < 100 {
		errors = append(errors, "gas_boost_pct must be at least 100")
	}
	if c.RPCRateLimit.RequestsPerSecond <= 0 {
		errors = append(errors, "rpc rate limit requests per second must be positive")
	}
	if c.RPCRateLimit.BurstSize <= 0 {
		errors = append(errors, "rpc rate limit burst size must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}
