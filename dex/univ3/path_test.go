package univ3

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePath(t *testing.T) {
	weth := common.HexToAddress("0x4200000000000000000000000000000000000006")
	usdc := common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")

	path, err := EncodePath([]common.Address{weth, usdc}, []uint32{500})
	require.NoError(t, err)
	require.Len(t, path, 43)

	encoded := hex.EncodeToString(path)
	assert.Equal(t, "4200000000000000000000000000000000000006", encoded[:40])
	assert.Equal(t, "0001f4", encoded[40:46]) // fee 500
	assert.Equal(t, "833589fcd6edb6e08f4c7c32d4f71b54bda02913", encoded[46:])
}

func TestEncodePathMultiHop(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")
	c := common.HexToAddress("0x3333333333333333333333333333333333333333")

	path, err := EncodePath([]common.Address{a, b, c}, []uint32{3000, 10000})
	require.NoError(t, err)
	require.Len(t, path, 20*3+3*2)

	tokens, fees, err := DecodePath(path)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{a, b, c}, tokens)
	assert.Equal(t, []uint32{3000, 10000}, fees)
}

func TestEncodePathMismatchedFees(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")

	_, err := EncodePath([]common.Address{a, b}, []uint32{500, 3000})
	assert.Error(t, err)
}

func TestDecodePathInvalidLength(t *testing.T) {
	_, _, err := DecodePath(make([]byte, 25))
	assert.Error(t, err)
}
