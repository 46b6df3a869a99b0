package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvPrivateKey       = "PRIVATE_KEY"
	EnvChain            = "CHAIN" // base, arbitrum, optimism, polygon
	EnvRPCEndpoint      = "RPC_ENDPOINT"
	EnvExecutorAddress  = "EXECUTOR_ADDRESS"
	EnvMaxSlippageBps   = "MAX_SLIPPAGE_BPS"
	EnvDeadlineSeconds  = "DEADLINE_SECONDS"
	EnvFallbackGasLimit = "FALLBACK_GAS_LIMIT"
	EnvGasBufferPct     = "GAS_BUFFER_PCT"
	EnvGasBoostPct      = "GAS_BOOST_PCT"
	EnvRPCRateLimit     = "RPC_RATE_LIMIT" // requests per second
	EnvRPCBurstSize     = "RPC_BURST_SIZE"
	EnvDryRun           = "DRY_RUN"
)

// LoadEnv loads environment variables from .env file
func LoadEnv() error {
	return godotenv.Load()
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetRequiredEnv gets an environment variable or errors if unset
func GetRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s not set", key)
	}
	return value, nil
}

func getEnvInt(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1"
}
