package executor

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/chainarb/types"
)

// DryRun satisfies TradeExecutor without touching the chain. Every trade is
// logged and reported as a synthetic success with a zero transaction hash,
// so the surrounding pipeline can be exercised end to end with no key and
// no RPC endpoint.
type DryRun struct {
	chain    string
	wallet   common.Address
	logger   *zap.Logger
	contract atomic.Pointer[common.Address]
}

var _ TradeExecutor = (*DryRun)(nil)

// NewDryRun creates a simulation-only executor for the given chain. The
// wallet address is reported verbatim and may be the zero address.
func NewDryRun(chain string, wallet common.Address, logger *zap.Logger) *DryRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRun{chain: chain, wallet: wallet, logger: logger}
}

// SetContractAddress records the address for log context only.
func (d *DryRun) SetContractAddress(address common.Address) {
	addr := address
	d.contract.Store(&addr)
}

// WalletAddress returns the configured wallet address.
func (d *DryRun) WalletAddress() common.Address {
	return d.wallet
}

// ExecuteArbitrage logs the trade that would have been submitted and
// returns success without any network activity.
func (d *DryRun) ExecuteArbitrage(_ context.Context, candidate *types.Candidate) Result {
	if candidate == nil {
		return failure("candidate is nil")
	}

	fields := []zap.Field{
		zap.String("chain", d.chain),
		zap.String("route", candidate.Route.Name),
		zap.String("mode", "dry_run"),
	}
	if contract := d.contract.Load(); contract != nil {
		fields = append(fields, zap.String("executor", contract.Hex()))
	}
	if candidate.AmountIn != nil {
		fields = append(fields, zap.String("amount_in", candidate.AmountIn.String()))
	}
	if candidate.AmountOut != nil {
		fields = append(fields, zap.String("expected_out", candidate.AmountOut.String()))
	}
	fields = append(fields, zap.Float64("profit_net_usd", candidate.ProfitNetUsd))

	d.logger.Info("Would execute arbitrage", fields...)

	return Result{
		Success: true,
		GasUsed: candidate.GasEstimate,
	}
}
