package testutils

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// NewTestKey generates a fresh signing key and returns it with its hex
// encoding, suitable for config.PrivateKey.
func NewTestKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return key, common.Bytes2Hex(crypto.FromECDSA(key))
}

// NewReceipt builds a minimal mined receipt for the given status.
func NewReceipt(status uint64, blockNumber int64, gasUsed uint64) *types.Receipt {
	return &types.Receipt{
		Status:      status,
		BlockNumber: big.NewInt(blockNumber),
		GasUsed:     gasUsed,
	}
}
