package executor

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Deployed executor contract surface
const executorABIJson = `[
	{"inputs":[{"internalType":"bytes","name":"path1","type":"bytes"},{"internalType":"bytes","name":"path2","type":"bytes"},{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"minOut","type":"uint256"},{"internalType":"uint256","name":"deadline","type":"uint256"}],"name":"execute","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"token","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

// Minimal ERC20 surface for approvals and balances
const erc20ABIJson = `[
	{"inputs":[{"internalType":"address","name":"spender","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"approve","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"spender","type":"address"}],"name":"allowance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

func parseABIs() (executorABI abi.ABI, erc20ABI abi.ABI, err error) {
	executorABI, err = abi.JSON(strings.NewReader(executorABIJson))
	if err != nil {
		return abi.ABI{}, abi.ABI{}, fmt.Errorf("failed to parse executor ABI: %w", err)
	}
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJson))
	if err != nil {
		return abi.ABI{}, abi.ABI{}, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	return executorABI, erc20ABI, nil
}
