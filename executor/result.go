package executor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Result is the structured outcome of a single execution attempt. Exactly
// one of the two branches holds: Success with populated block and gas
// fields, or failure with a populated Err. TxHash is set in either branch
// once a transaction has been broadcast, so failures stay traceable
// on-chain.
type Result struct {
	Success     bool
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64

	// ActualProfit is reserved for callers computing realized profit from
	// receipt logs; this package never fills it.
	ActualProfit *big.Int

	Err     string
	Receipt *ethtypes.Receipt
}

// Broadcast reports whether a transaction reached the network, regardless
// of the final outcome.
func (r Result) Broadcast() bool {
	return r.TxHash != (common.Hash{}) || r.Receipt != nil
}

func failure(msg string) Result {
	return Result{Err: msg}
}
