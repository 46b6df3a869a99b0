package executor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/michaelpento.lv/chainarb/config"
	"github.com/michaelpento.lv/chainarb/dex/univ3"
	"github.com/michaelpento.lv/chainarb/types"
	"github.com/michaelpento.lv/chainarb/utils/testutils"
)

var (
	testWETH = common.HexToAddress("0x4200000000000000000000000000000000000006")
	testUSDC = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	testDAI  = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb")
)

type mockBackend struct {
	mu sync.Mutex

	callFn      func(ethereum.CallMsg) ([]byte, error)
	estimate    uint64
	estimateErr error
	gasPrice    *big.Int
	gasPriceErr error
	nonce       uint64
	nonceErr    error
	sendErr     error
	receipt     *ethtypes.Receipt
	receiptErr  error
	balance     *big.Int

	callCount     int
	estimateCount int
	suggestCount  int
	nonceCount    int
	sendCount     int
	receiptCount  int

	sentTx      *ethtypes.Transaction
	estimateMsg ethereum.CallMsg
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		estimate: 100000,
		gasPrice: big.NewInt(1000),
		receipt:  testutils.NewReceipt(ethtypes.ReceiptStatusSuccessful, 12345, 87000),
		balance:  big.NewInt(0),
	}
}

func (m *mockBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.callFn != nil {
		return m.callFn(call)
	}
	return nil, errors.New("no call handler")
}

func (m *mockBackend) EstimateGas(_ context.Context, call ethereum.CallMsg) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimateCount++
	m.estimateMsg = call
	return m.estimate, m.estimateErr
}

func (m *mockBackend) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestCount++
	if m.gasPriceErr != nil {
		return nil, m.gasPriceErr
	}
	return new(big.Int).Set(m.gasPrice), nil
}

func (m *mockBackend) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonceCount++
	return m.nonce, m.nonceErr
}

func (m *mockBackend) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCount++
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sentTx = tx
	return nil
}

func (m *mockBackend) TransactionReceipt(_ context.Context, _ common.Hash) (*ethtypes.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receiptCount++
	if m.receiptErr != nil {
		return nil, m.receiptErr
	}
	return m.receipt, nil
}

func (m *mockBackend) BalanceAt(_ context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, nil
}

func (m *mockBackend) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount + m.estimateCount + m.suggestCount + m.nonceCount + m.sendCount + m.receiptCount
}

func newTestExecutor(t *testing.T, backend Backend) *Executor {
	t.Helper()

	_, keyHex := testutils.NewTestKey(t)

	cfg := config.DefaultConfig()
	cfg.PrivateKey = keyHex
	cfg.Chain = "base"

	exec, err := New("base", backend, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return exec
}

func testCandidate() *types.Candidate {
	return &types.Candidate{
		Route: types.Route{
			Name:     "weth-usdc-weth",
			TokenIn:  testWETH,
			TokenMid: testUSDC,
			TokenOut: testWETH,
			Fee1:     500,
			Fee2:     3000,
		},
		AmountIn:  big.NewInt(1000000000000000000),
		AmountOut: big.NewInt(1005000000000000000),
	}
}

func TestExecuteArbitrageRequiresContractAddress(t *testing.T) {
	backend := newMockBackend()
	exec := newTestExecutor(t, backend)

	result := exec.ExecuteArbitrage(context.Background(), testCandidate())

	assert.False(t, result.Success)
	assert.Equal(t, "Executor address not set", result.Err)
	assert.Equal(t, common.Hash{}, result.TxHash)
	assert.Equal(t, 0, backend.totalCalls(), "rejection must not touch the network")
}

func TestExecuteArbitrageSuccess(t *testing.T) {
	backend := newMockBackend()
	exec := newTestExecutor(t, backend)

	contract := common.HexToAddress("0x1111111111111111111111111111111111111111")
	exec.SetContractAddress(contract)

	result := exec.ExecuteArbitrage(context.Background(), testCandidate())

	require.True(t, result.Success, "unexpected error: %s", result.Err)
	assert.Empty(t, result.Err)
	assert.Equal(t, backend.sentTx.Hash(), result.TxHash)
	assert.Equal(t, uint64(12345), result.BlockNumber)
	assert.Equal(t, uint64(87000), result.GasUsed)
	require.NotNil(t, result.Receipt)

	tx := backend.sentTx
	require.NotNil(t, tx)
	assert.Equal(t, contract, *tx.To())
	assert.Equal(t, int64(0), tx.Value().Int64())
	assert.Equal(t, ethtypes.LegacyTxType, int(tx.Type()))

	// 100000 estimate with a 20% buffer, 1000 wei suggestion with a 10% boost.
	assert.Equal(t, uint64(120000), tx.Gas())
	assert.Equal(t, int64(1100), tx.GasPrice().Int64())

	// Gas was estimated for the exact call that was sent.
	assert.Equal(t, tx.Data(), backend.estimateMsg.Data)
	assert.Equal(t, exec.WalletAddress(), backend.estimateMsg.From)
}

func TestExecuteArbitrageCalldata(t *testing.T) {
	backend := newMockBackend()
	exec := newTestExecutor(t, backend)
	exec.cfg.MaxSlippageBps = 100
	exec.SetContractAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))

	candidate := testCandidate()
	candidate.AmountIn = big.NewInt(1000000000)
	candidate.AmountOut = big.NewInt(1005000000)

	before := time.Now().Unix()
	result := exec.ExecuteArbitrage(context.Background(), candidate)
	after := time.Now().Unix()
	require.True(t, result.Success, "unexpected error: %s", result.Err)

	data := backend.sentTx.Data()
	method, err := exec.executorABI.MethodById(data[:4])
	require.NoError(t, err)
	assert.Equal(t, "execute", method.Name)

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 5)

	wantPath1, err := univ3.EncodePath([]common.Address{testWETH, testUSDC}, []uint32{500})
	require.NoError(t, err)
	wantPath2, err := univ3.EncodePath([]common.Address{testUSDC, testWETH}, []uint32{3000})
	require.NoError(t, err)

	assert.Equal(t, wantPath1, args[0].([]byte))
	assert.Equal(t, wantPath2, args[1].([]byte))
	assert.Equal(t, int64(1000000000), args[2].(*big.Int).Int64())

	// 1% of 1005000000 shaved off the expected output.
	assert.Equal(t, int64(994950000), args[3].(*big.Int).Int64())

	deadline := args[4].(*big.Int).Int64()
	assert.GreaterOrEqual(t, deadline, before+exec.cfg.DeadlineSeconds)
	assert.LessOrEqual(t, deadline, after+exec.cfg.DeadlineSeconds)
}

func TestExecuteArbitrageGasEstimateFallback(t *testing.T) {
	backend := newMockBackend()
	backend.estimateErr = errors.New("execution reverted")
	exec := newTestExecutor(t, backend)
	exec.SetContractAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))

	result := exec.ExecuteArbitrage(context.Background(), testCandidate())

	require.True(t, result.Success, "unexpected error: %s", result.Err)
	assert.Equal(t, uint64(500000), backend.sentTx.Gas())
}

func TestExecuteArbitrageGasPriceFallback(t *testing.T) {
	backend := newMockBackend()
	backend.gasPriceErr = errors.New("rpc unavailable")
	exec := newTestExecutor(t, backend)
	exec.SetContractAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))

	result := exec.ExecuteArbitrage(context.Background(), testCandidate())

	require.True(t, result.Success, "unexpected error: %s", result.Err)
	assert.Equal(t, int64(0), backend.sentTx.GasPrice().Int64())
	assert.Equal(t, 1, backend.sendCount, "gas price failure must not abort the trade")
}

func TestExecuteArbitrageReverted(t *testing.T) {
	backend := newMockBackend()
	backend.receipt = testutils.NewReceipt(ethtypes.ReceiptStatusFailed, 12346, 91000)
	exec := newTestExecutor(t, backend)
	exec.SetContractAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))

	result := exec.ExecuteArbitrage(context.Background(), testCandidate())

	assert.False(t, result.Success)
	assert.Equal(t, "Transaction reverted", result.Err)
	assert.Equal(t, backend.sentTx.Hash(), result.TxHash, "reverted trades stay traceable by hash")
	require.NotNil(t, result.Receipt, "reverted trades carry the receipt for inspection")
	assert.Equal(t, ethtypes.ReceiptStatusFailed, result.Receipt.Status)
}

func TestExecuteArbitrageNeverPanics(t *testing.T) {
	tests := []struct {
		name      string
		candidate *types.Candidate
		setup     func(*mockBackend)
		wantErr   string
	}{
		{
			name:      "nil candidate",
			candidate: nil,
			wantErr:   "candidate is nil",
		},
		{
			name: "nil amount in",
			candidate: func() *types.Candidate {
				c := testCandidate()
				c.AmountIn = nil
				return c
			}(),
			wantErr: "candidate amount in must be positive",
		},
		{
			name: "zero amount out",
			candidate: func() *types.Candidate {
				c := testCandidate()
				c.AmountOut = big.NewInt(0)
				return c
			}(),
			wantErr: "candidate amount out must be positive",
		},
		{
			name:      "nonce failure",
			candidate: testCandidate(),
			setup:     func(m *mockBackend) { m.nonceErr = errors.New("nonce unavailable") },
			wantErr:   "failed to get nonce: nonce unavailable",
		},
		{
			name:      "broadcast failure",
			candidate: testCandidate(),
			setup:     func(m *mockBackend) { m.sendErr = errors.New("insufficient funds") },
			wantErr:   "failed to send transaction: insufficient funds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMockBackend()
			if tt.setup != nil {
				tt.setup(backend)
			}
			exec := newTestExecutor(t, backend)
			exec.SetContractAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))

			result := exec.ExecuteArbitrage(context.Background(), tt.candidate)

			assert.False(t, result.Success)
			assert.Equal(t, tt.wantErr, result.Err)
		})
	}
}

func TestExecuteArbitrageReceiptWaitHonorsContext(t *testing.T) {
	backend := newMockBackend()
	backend.receiptErr = ethereum.NotFound
	exec := newTestExecutor(t, backend)
	exec.SetContractAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := exec.ExecuteArbitrage(ctx, testCandidate())

	assert.False(t, result.Success)
	assert.Equal(t, context.DeadlineExceeded.Error(), result.Err)
	assert.True(t, result.Broadcast(), "hash must survive a confirmation timeout")
}

func TestEnsureApproval(t *testing.T) {
	spender := common.HexToAddress("0x2222222222222222222222222222222222222222")

	allowanceResponse := func(t *testing.T, exec *Executor, allowance *big.Int) func(ethereum.CallMsg) ([]byte, error) {
		out, err := exec.erc20ABI.Methods["allowance"].Outputs.Pack(allowance)
		require.NoError(t, err)
		return func(ethereum.CallMsg) ([]byte, error) { return out, nil }
	}

	t.Run("sufficient allowance skips the transaction", func(t *testing.T) {
		backend := newMockBackend()
		exec := newTestExecutor(t, backend)
		backend.callFn = allowanceResponse(t, exec, big.NewInt(2000))

		ok := exec.EnsureApproval(context.Background(), testUSDC, spender, big.NewInt(1000))

		assert.True(t, ok)
		assert.Equal(t, 0, backend.sendCount)
		assert.Equal(t, 1, backend.callCount)
	})

	t.Run("repeated check with no trade in between is served from cache", func(t *testing.T) {
		backend := newMockBackend()
		exec := newTestExecutor(t, backend)
		backend.callFn = allowanceResponse(t, exec, big.NewInt(2000))

		require.True(t, exec.EnsureApproval(context.Background(), testUSDC, spender, big.NewInt(1000)))
		require.True(t, exec.EnsureApproval(context.Background(), testUSDC, spender, big.NewInt(1500)))

		assert.Equal(t, 1, backend.callCount, "second check must be served from cache")
	})

	t.Run("executed trade invalidates the cached floor", func(t *testing.T) {
		backend := newMockBackend()
		exec := newTestExecutor(t, backend)
		contract := common.HexToAddress("0x1111111111111111111111111111111111111111")
		exec.SetContractAddress(contract)

		backend.callFn = allowanceResponse(t, exec, big.NewInt(2000))
		require.True(t, exec.EnsureApproval(context.Background(), testWETH, contract, big.NewInt(1000)))
		require.Equal(t, 1, backend.callCount)
		require.Equal(t, 0, backend.sendCount)

		result := exec.ExecuteArbitrage(context.Background(), testCandidate())
		require.True(t, result.Success, "unexpected error: %s", result.Err)
		require.Equal(t, 1, backend.sendCount)

		// The trade consumed the allowance on-chain.
		backend.callFn = allowanceResponse(t, exec, big.NewInt(0))

		require.True(t, exec.EnsureApproval(context.Background(), testWETH, contract, big.NewInt(1000)))
		assert.Equal(t, 2, backend.callCount, "post-trade check must read the chain again")
		assert.Equal(t, 2, backend.sendCount, "a re-approval must be sent against the drained allowance")

		data := backend.sentTx.Data()
		method, err := exec.erc20ABI.MethodById(data[:4])
		require.NoError(t, err)
		assert.Equal(t, "approve", method.Name)
	})

	t.Run("insufficient allowance sends an approval", func(t *testing.T) {
		backend := newMockBackend()
		exec := newTestExecutor(t, backend)
		backend.callFn = allowanceResponse(t, exec, big.NewInt(10))

		ok := exec.EnsureApproval(context.Background(), testUSDC, spender, big.NewInt(1000))

		require.True(t, ok)
		require.Equal(t, 1, backend.sendCount)
		assert.Equal(t, testUSDC, *backend.sentTx.To())

		data := backend.sentTx.Data()
		method, err := exec.erc20ABI.MethodById(data[:4])
		require.NoError(t, err)
		assert.Equal(t, "approve", method.Name)

		args, err := method.Inputs.Unpack(data[4:])
		require.NoError(t, err)
		assert.Equal(t, spender, args[0].(common.Address))
		assert.Equal(t, int64(1000), args[1].(*big.Int).Int64())
	})

	t.Run("reverted approval reports false", func(t *testing.T) {
		backend := newMockBackend()
		backend.receipt = testutils.NewReceipt(ethtypes.ReceiptStatusFailed, 1, 21000)
		exec := newTestExecutor(t, backend)
		backend.callFn = allowanceResponse(t, exec, big.NewInt(0))

		assert.False(t, exec.EnsureApproval(context.Background(), testUSDC, spender, big.NewInt(1000)))
	})
}

func TestWithdrawFromExecutor(t *testing.T) {
	t.Run("requires contract address", func(t *testing.T) {
		backend := newMockBackend()
		exec := newTestExecutor(t, backend)

		result := exec.WithdrawFromExecutor(context.Background(), testDAI, big.NewInt(500))

		assert.False(t, result.Success)
		assert.Equal(t, "Executor address not set", result.Err)
		assert.Equal(t, 0, backend.totalCalls())
	})

	t.Run("success", func(t *testing.T) {
		backend := newMockBackend()
		exec := newTestExecutor(t, backend)
		contract := common.HexToAddress("0x1111111111111111111111111111111111111111")
		exec.SetContractAddress(contract)

		result := exec.WithdrawFromExecutor(context.Background(), testDAI, big.NewInt(500))

		require.True(t, result.Success, "unexpected error: %s", result.Err)
		assert.Equal(t, contract, *backend.sentTx.To())

		data := backend.sentTx.Data()
		method, err := exec.executorABI.MethodById(data[:4])
		require.NoError(t, err)
		assert.Equal(t, "withdraw", method.Name)
	})
}

func TestOwner(t *testing.T) {
	backend := newMockBackend()
	exec := newTestExecutor(t, backend)
	exec.SetContractAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))

	owner := common.HexToAddress("0x3333333333333333333333333333333333333333")
	out, err := exec.executorABI.Methods["owner"].Outputs.Pack(owner)
	require.NoError(t, err)
	backend.callFn = func(ethereum.CallMsg) ([]byte, error) { return out, nil }

	got, err := exec.Owner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestDiscountBps(t *testing.T) {
	tests := []struct {
		amount int64
		bps    int64
		want   int64
	}{
		{1000000, 50, 995000},
		{1005000000, 100, 994950000},
		{1000000, 0, 1000000},
		{1000000, 10000, 0},
		{3, 50, 3}, // discount rounds down to zero
	}

	for _, tt := range tests {
		got := discountBps(big.NewInt(tt.amount), tt.bps)
		assert.Equal(t, tt.want, got.Int64(), "amount=%d bps=%d", tt.amount, tt.bps)
	}
}

func TestExplorerURL(t *testing.T) {
	exec := newTestExecutor(t, newMockBackend())

	hash := common.HexToHash("0xabcdef")
	assert.Equal(t, "https://basescan.org/tx/"+hash.Hex(), exec.ExplorerURL(hash))
}

func TestDryRun(t *testing.T) {
	wallet := common.HexToAddress("0x4444444444444444444444444444444444444444")
	dry := NewDryRun("base", wallet, zaptest.NewLogger(t))

	t.Run("reports synthetic success", func(t *testing.T) {
		candidate := testCandidate()
		candidate.GasEstimate = 210000

		result := dry.ExecuteArbitrage(context.Background(), candidate)

		assert.True(t, result.Success)
		assert.Equal(t, common.Hash{}, result.TxHash)
		assert.Equal(t, uint64(0), result.BlockNumber)
		assert.Equal(t, uint64(210000), result.GasUsed)
	})

	t.Run("nil candidate is rejected", func(t *testing.T) {
		result := dry.ExecuteArbitrage(context.Background(), nil)
		assert.False(t, result.Success)
	})

	t.Run("contract address appears in the trade log", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		observed := NewDryRun("base", wallet, zap.New(core))

		contract := common.HexToAddress("0x5555555555555555555555555555555555555555")
		observed.SetContractAddress(contract)

		result := observed.ExecuteArbitrage(context.Background(), testCandidate())
		require.True(t, result.Success)

		entries := logs.FilterMessage("Would execute arbitrage").All()
		require.Len(t, entries, 1)
		assert.Equal(t, contract.Hex(), entries[0].ContextMap()["executor"])
	})

	t.Run("wallet address", func(t *testing.T) {
		assert.Equal(t, wallet, dry.WalletAddress())
	})
}
