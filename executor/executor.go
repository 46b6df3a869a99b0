// Package executor submits two-hop arbitrage transactions to a deployed
// on-chain executor contract and reports structured outcomes.
package executor

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/chainarb/config"
	"github.com/michaelpento.lv/chainarb/dex/univ3"
	"github.com/michaelpento.lv/chainarb/types"
)

const allowanceCacheSize = 256

// TradeExecutor is the submit-or-simulate seam between the strategy layer
// and the chain. Executor broadcasts real transactions; DryRun logs intent
// and reports synthetic success.
type TradeExecutor interface {
	ExecuteArbitrage(ctx context.Context, candidate *types.Candidate) Result
	SetContractAddress(address common.Address)
	WalletAddress() common.Address
}

// Executor submits arbitrage trades on one chain. An instance owns its
// signing key and RPC connection for the process lifetime. The deployed
// contract address is set once after deployment via SetContractAddress;
// executing before that is rejected without any network I/O.
//
// Concurrent ExecuteArbitrage calls share nothing but the signer's nonce,
// which the connection layer manages; callers wanting strict nonce ordering
// must serialize.
type Executor struct {
	chain   string
	info    config.ChainInfo
	cfg     *config.Config
	backend Backend
	logger  *zap.Logger

	key     *ecdsa.PrivateKey
	address common.Address
	signer  ethtypes.Signer

	contract atomic.Pointer[common.Address]

	executorABI abi.ABI
	erc20ABI    abi.ABI

	// allowances remembers confirmed approval floors per token+spender so
	// hot-path preflight checks can skip the RPC read.
	allowances *lru.Cache

	limiter *rate.Limiter
	metrics *executorMetrics
}

var _ TradeExecutor = (*Executor)(nil)

// New creates an Executor bound to one chain and backend. The signing
// identity is derived from cfg.PrivateKey. No network calls are made.
func New(chain string, backend Backend, cfg *config.Config, logger *zap.Logger) (*Executor, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := config.ChainByKey(chain)
	if err != nil {
		return nil, err
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	executorABI, erc20ABI, err := parseABIs()
	if err != nil {
		return nil, err
	}

	allowances, err := lru.New(allowanceCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create allowance cache: %w", err)
	}

	return &Executor{
		chain:       chain,
		info:        info,
		cfg:         cfg,
		backend:     backend,
		logger:      logger,
		key:         key,
		address:     crypto.PubkeyToAddress(key.PublicKey),
		signer:      ethtypes.LatestSignerForChainID(big.NewInt(info.ChainID)),
		executorABI: executorABI,
		erc20ABI:    erc20ABI,
		allowances:  allowances,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RPCRateLimit.RequestsPerSecond), cfg.RPCRateLimit.BurstSize),
		metrics:     newExecutorMetrics(chain),
	}, nil
}

// SetContractAddress records the deployed executor contract address. Set
// once during initialization; the hot path treats it as immutable.
func (e *Executor) SetContractAddress(address common.Address) {
	addr := address
	e.contract.Store(&addr)
	e.logger.Info("Executor address set",
		zap.String("chain", e.chain),
		zap.String("executor", address.Hex()))
}

// WalletAddress returns the signer's address.
func (e *Executor) WalletAddress() common.Address {
	return e.address
}

// Collectors returns the executor's Prometheus collectors for registration.
func (e *Executor) Collectors() []prometheus.Collector {
	return e.metrics.collectors()
}

// ExecuteArbitrage submits the candidate's two-hop trade and waits for one
// confirmation. It is a total function: every failure is logged and folded
// into the returned Result, never raised.
func (e *Executor) ExecuteArbitrage(ctx context.Context, candidate *types.Candidate) Result {
	contract := e.contract.Load()
	if contract == nil {
		return failure("Executor address not set")
	}

	if err := validateCandidate(candidate); err != nil {
		e.logger.Error("Execution failed",
			zap.String("chain", e.chain),
			zap.Error(err))
		e.metrics.executions.WithLabelValues("failure").Inc()
		return failure(err.Error())
	}

	log := e.logger.With(
		zap.String("chain", e.chain),
		zap.String("route", candidate.Route.Name))

	log.Info("Executing arbitrage",
		zap.String("amount_in", candidate.AmountIn.String()),
		zap.String("expected_out", candidate.AmountOut.String()))

	start := time.Now()
	result := e.execute(ctx, log, *contract, candidate)
	e.metrics.executionLatency.Observe(time.Since(start).Seconds())

	// A broadcast trade may consume the contract's TokenIn allowance via
	// transferFrom, so the cached floor can no longer be trusted. The next
	// approval check must read the chain again.
	if result.Broadcast() {
		e.allowances.Remove(allowanceKey(candidate.Route.TokenIn, *contract))
	}

	if result.Success {
		e.metrics.executions.WithLabelValues("success").Inc()
		e.metrics.gasUsed.Observe(float64(result.GasUsed))
	} else {
		e.metrics.executions.WithLabelValues("failure").Inc()
		log.Error("Execution failed", zap.String("error", result.Err))
	}
	return result
}

func (e *Executor) execute(ctx context.Context, log *zap.Logger, contract common.Address, candidate *types.Candidate) Result {
	route := candidate.Route

	path1, err := univ3.EncodePath([]common.Address{route.TokenIn, route.TokenMid}, []uint32{route.Fee1})
	if err != nil {
		return failure(err.Error())
	}
	path2, err := univ3.EncodePath([]common.Address{route.TokenMid, route.TokenOut}, []uint32{route.Fee2})
	if err != nil {
		return failure(err.Error())
	}

	minOut := discountBps(candidate.AmountOut, e.cfg.MaxSlippageBps)
	deadline := big.NewInt(time.Now().Unix() + e.cfg.DeadlineSeconds)

	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil || gasPrice == nil {
		log.Warn("No gas price reported, using zero", zap.Error(err))
		gasPrice = new(big.Int)
	}

	calldata, err := e.executorABI.Pack("execute", path1, path2, candidate.AmountIn, minOut, deadline)
	if err != nil {
		return failure(fmt.Sprintf("failed to encode execute call: %v", err))
	}

	gasLimit := e.estimateGasWithFallback(ctx, log, contract, calldata)

	tx, err := e.sendTransaction(ctx, contract, calldata, gasLimit, boostPct(gasPrice, e.cfg.GasBoostPct))
	if err != nil {
		return failure(err.Error())
	}

	log.Info("Transaction sent",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("gas_limit", gasLimit),
		zap.String("gas_price", tx.GasPrice().String()))

	receipt, err := waitMined(ctx, e.backend, tx.Hash())
	if err != nil {
		return Result{TxHash: tx.Hash(), Err: err.Error()}
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return Result{TxHash: tx.Hash(), Err: "Transaction reverted", Receipt: receipt}
	}

	log.Info("Transaction confirmed",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("block_number", receipt.BlockNumber.Uint64()),
		zap.Uint64("gas_used", receipt.GasUsed))

	return Result{
		Success:     true,
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Receipt:     receipt,
	}
}

// estimateGasWithFallback estimates gas for the exact call about to be made
// and applies the configured safety buffer. A failed estimate falls back to
// the fixed default instead of aborting: a transient RPC fault should not
// block a time-sensitive trade, and a true revert still surfaces at
// confirmation time.
func (e *Executor) estimateGasWithFallback(ctx context.Context, log *zap.Logger, to common.Address, calldata []byte) uint64 {
	estimate, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: e.address,
		To:   &to,
		Data: calldata,
	})
	if err != nil {
		log.Warn("Gas estimation failed, using default",
			zap.Error(err),
			zap.Uint64("gas_limit", e.cfg.FallbackGasLimit))
		e.metrics.estimateFallbacks.Inc()
		return e.cfg.FallbackGasLimit
	}
	return estimate * uint64(e.cfg.GasBufferPct) / 100
}

func (e *Executor) sendTransaction(ctx context.Context, to common.Address, calldata []byte, gasLimit uint64, gasPrice *big.Int) (*ethtypes.Transaction, error) {
	nonce, err := e.backend.PendingNonceAt(ctx, e.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    new(big.Int),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signed, err := ethtypes.SignTx(tx, e.signer, e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed, nil
}

// EnsureApproval makes sure spender can move at least amount of token on
// the signer's behalf. An already-sufficient allowance is the idempotent
// fast path with no transaction. Errors are logged and folded into false.
func (e *Executor) EnsureApproval(ctx context.Context, token, spender common.Address, amount *big.Int) bool {
	ok, err := e.ensureApproval(ctx, token, spender, amount)
	if err != nil {
		e.logger.Error("Approval failed",
			zap.String("chain", e.chain),
			zap.String("token", token.Hex()),
			zap.String("error", err.Error()))
		return false
	}
	return ok
}

func allowanceKey(token, spender common.Address) string {
	return token.Hex() + ":" + spender.Hex()
}

func (e *Executor) ensureApproval(ctx context.Context, token, spender common.Address, amount *big.Int) (bool, error) {
	if amount == nil || amount.Sign() < 0 {
		return false, fmt.Errorf("invalid approval amount")
	}

	cacheKey := allowanceKey(token, spender)
	if cached, ok := e.allowances.Get(cacheKey); ok {
		if floor, ok := cached.(*big.Int); ok && floor.Cmp(amount) >= 0 {
			return true, nil
		}
	}

	allowance, err := e.allowance(ctx, token, spender)
	if err != nil {
		return false, err
	}
	if allowance.Cmp(amount) >= 0 {
		e.allowances.Add(cacheKey, new(big.Int).Set(allowance))
		return true, nil
	}

	e.logger.Info("Approving token",
		zap.String("chain", e.chain),
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("amount", amount.String()))

	calldata, err := e.erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return false, fmt.Errorf("failed to encode approve call: %w", err)
	}

	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit := e.estimateGasWithFallback(ctx, e.logger, token, calldata)

	tx, err := e.sendTransaction(ctx, token, calldata, gasLimit, gasPrice)
	if err != nil {
		return false, err
	}

	receipt, err := waitMined(ctx, e.backend, tx.Hash())
	if err != nil {
		return false, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return false, fmt.Errorf("approval transaction reverted: %s", tx.Hash().Hex())
	}

	e.logger.Info("Approval confirmed", zap.String("tx_hash", tx.Hash().Hex()))
	e.allowances.Add(cacheKey, new(big.Int).Set(amount))
	e.metrics.approvals.Inc()
	return true, nil
}

// Balance returns the signer's balance of token.
func (e *Executor) Balance(ctx context.Context, token common.Address) (*big.Int, error) {
	return e.callERC20Uint(ctx, token, "balanceOf", e.address)
}

// NativeBalance returns the signer's native currency balance.
func (e *Executor) NativeBalance(ctx context.Context) (*big.Int, error) {
	return e.backend.BalanceAt(ctx, e.address, nil)
}

// Owner returns the owner of the deployed executor contract.
func (e *Executor) Owner(ctx context.Context) (common.Address, error) {
	contract := e.contract.Load()
	if contract == nil {
		return common.Address{}, fmt.Errorf("executor address not set")
	}

	calldata, err := e.executorABI.Pack("owner")
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode owner call: %w", err)
	}

	out, err := e.backend.CallContract(ctx, ethereum.CallMsg{From: e.address, To: contract, Data: calldata}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("owner call failed: %w", err)
	}

	values, err := e.executorABI.Unpack("owner", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode owner result: %w", err)
	}
	owner, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected owner result type")
	}
	return owner, nil
}

// WithdrawFromExecutor reclaims tokens from the deployed contract back to
// the signer. Same precondition and no-throw contract as ExecuteArbitrage.
func (e *Executor) WithdrawFromExecutor(ctx context.Context, token common.Address, amount *big.Int) Result {
	contract := e.contract.Load()
	if contract == nil {
		return failure("Executor address not set")
	}

	result, err := e.withdraw(ctx, *contract, token, amount)
	if err != nil {
		e.logger.Error("Withdrawal failed",
			zap.String("chain", e.chain),
			zap.String("token", token.Hex()),
			zap.String("error", err.Error()))
		return failure(err.Error())
	}
	return result
}

func (e *Executor) withdraw(ctx context.Context, contract, token common.Address, amount *big.Int) (Result, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Result{}, fmt.Errorf("invalid withdrawal amount")
	}

	calldata, err := e.executorABI.Pack("withdraw", token, amount)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode withdraw call: %w", err)
	}

	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit := e.estimateGasWithFallback(ctx, e.logger, contract, calldata)

	tx, err := e.sendTransaction(ctx, contract, calldata, gasLimit, gasPrice)
	if err != nil {
		return Result{}, err
	}

	receipt, err := waitMined(ctx, e.backend, tx.Hash())
	if err != nil {
		return Result{TxHash: tx.Hash(), Err: err.Error()}, nil
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return Result{TxHash: tx.Hash(), Err: "Transaction reverted", Receipt: receipt}, nil
	}

	return Result{
		Success:     true,
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Receipt:     receipt,
	}, nil
}

// ExplorerURL formats the block explorer link for a transaction hash.
func (e *Executor) ExplorerURL(txHash common.Hash) string {
	return fmt.Sprintf("%s/tx/%s", e.info.Explorer, txHash.Hex())
}

func (e *Executor) allowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	return e.callERC20Uint(ctx, token, "allowance", e.address, spender)
}

func (e *Executor) callERC20Uint(ctx context.Context, token common.Address, method string, args ...interface{}) (*big.Int, error) {
	calldata, err := e.erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	out, err := e.backend.CallContract(ctx, ethereum.CallMsg{From: e.address, To: &token, Data: calldata}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	values, err := e.erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type", method)
	}
	return value, nil
}

func validateCandidate(candidate *types.Candidate) error {
	if candidate == nil {
		return fmt.Errorf("candidate is nil")
	}
	if candidate.AmountIn == nil || candidate.AmountIn.Sign() <= 0 {
		return fmt.Errorf("candidate amount in must be positive")
	}
	if candidate.AmountOut == nil || candidate.AmountOut.Sign() <= 0 {
		return fmt.Errorf("candidate amount out must be positive")
	}
	return nil
}

// discountBps subtracts bps basis points from amount using integer
// multiply-then-divide, matching on-chain fixed point conventions.
func discountBps(amount *big.Int, bps int64) *big.Int {
	discount := new(big.Int).Mul(amount, big.NewInt(bps))
	discount.Div(discount, big.NewInt(10000))
	return new(big.Int).Sub(amount, discount)
}

// boostPct scales value by pct/100 via integer multiply-then-divide.
func boostPct(value *big.Int, pct int64) *big.Int {
	boosted := new(big.Int).Mul(value, big.NewInt(pct))
	return boosted.Div(boosted, big.NewInt(100))
}
