package cmd

import (
	"fmt"

	"github.com/michaelpento.lv/chainarb/config"
	"github.com/michaelpento.lv/chainarb/executor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// buildExecutor wires a TradeExecutor for the selected chain. Dry-run mode
// needs neither an RPC endpoint nor a signing key.
func buildExecutor(cfg *config.Config, log *zap.Logger) (executor.TradeExecutor, error) {
	contractHex := config.GetEnvWithDefault(config.EnvExecutorAddress, "")

	if cfg.DryRun {
		dry := executor.NewDryRun(cfg.Chain, common.Address{}, log)
		if contractHex != "" {
			dry.SetContractAddress(common.HexToAddress(contractHex))
		}
		return dry, nil
	}

	info, err := config.ChainByKey(cfg.Chain)
	if err != nil {
		return nil, err
	}

	endpoint := cfg.RPCEndpoint
	if endpoint == "" {
		endpoint = info.RPCEndpoint
	}

	client, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	exec, err := executor.New(cfg.Chain, client, cfg, log)
	if err != nil {
		return nil, err
	}

	if contractHex == "" {
		return nil, fmt.Errorf("%s must be set", config.EnvExecutorAddress)
	}
	if !common.IsHexAddress(contractHex) {
		return nil, fmt.Errorf("invalid executor address %q", contractHex)
	}
	exec.SetContractAddress(common.HexToAddress(contractHex))

	return exec, nil
}

// buildLiveExecutor is for commands that need the concrete type, such as
// balance queries and withdrawals.
func buildLiveExecutor(cfg *config.Config, log *zap.Logger) (*executor.Executor, error) {
	cfg.DryRun = false
	exec, err := buildExecutor(cfg, log)
	if err != nil {
		return nil, err
	}
	return exec.(*executor.Executor), nil
}
