// Package univ3 provides Uniswap V3 path encoding for multi-hop swaps.
package univ3

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	addrLen = 20
	feeLen  = 3
)

// EncodePath packs tokens and pool fee tiers into the byte format Uniswap V3
// routers and quoters expect: token (20 bytes) + fee (3 bytes) repeated,
// terminated by the final token.
func EncodePath(tokens []common.Address, fees []uint32) ([]byte, error) {
	if len(tokens) != len(fees)+1 {
		return nil, fmt.Errorf("invalid path: %d tokens require %d fees, got %d",
			len(tokens), len(tokens)-1, len(fees))
	}

	path := make([]byte, 0, len(tokens)*addrLen+len(fees)*feeLen)
	for i, fee := range fees {
		path = append(path, tokens[i].Bytes()...)
		path = append(path, byte(fee>>16), byte(fee>>8), byte(fee))
	}
	path = append(path, tokens[len(tokens)-1].Bytes()...)

	return path, nil
}

// DecodePath is the inverse of EncodePath.
func DecodePath(path []byte) ([]common.Address, []uint32, error) {
	if len(path) < addrLen || (len(path)-addrLen)%(addrLen+feeLen) != 0 {
		return nil, nil, fmt.Errorf("invalid path length %d", len(path))
	}

	var (
		tokens []common.Address
		fees   []uint32
	)
	offset := 0
	for {
		tokens = append(tokens, common.BytesToAddress(path[offset:offset+addrLen]))
		offset += addrLen
		if offset == len(path) {
			return tokens, fees, nil
		}
		fees = append(fees, uint32(path[offset])<<16|uint32(path[offset+1])<<8|uint32(path[offset+2]))
		offset += feeLen
	}
}
