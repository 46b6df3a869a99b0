package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Route represents a two-hop arbitrage route through an intermediate token.
// Each leg is a single Uniswap V3 pool identified by its fee tier.
type Route struct {
	Name     string
	TokenIn  common.Address
	TokenMid common.Address
	TokenOut common.Address
	Fee1     uint32
	Fee2     uint32
}

// Candidate represents a priced arbitrage opportunity produced by the
// strategy layer. AmountOut is the expected output before slippage; the
// executor derives the minimum acceptable output itself and never trusts
// AmountOut as a floor.
type Candidate struct {
	Route     Route
	AmountIn  *big.Int
	AmountOut *big.Int

	// ProfitNetUsd is informational only, used for logging.
	ProfitNetUsd float64

	// GasEstimate is a pre-computed gas figure consumed by the dry-run path.
	GasEstimate uint64
}
