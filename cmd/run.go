package cmd

import (
	"fmt"
	"math/big"

	"github.com/michaelpento.lv/chainarb/config"
	"github.com/michaelpento.lv/chainarb/types"
	"github.com/michaelpento.lv/chainarb/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	routeName string
	tokenIn   string
	tokenMid  string
	tokenOut  string
	fee1      uint32
	fee2      uint32
	amountIn  string
	amountOut string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single two-hop arbitrage trade",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		cfg, err := config.NewConfig()
		if err != nil {
			log.Fatal("Failed to load config", zap.Error(err))
		}
		cfg.Chain = chainKey

		exec, err := buildExecutor(cfg, log)
		if err != nil {
			log.Fatal("Failed to create executor", zap.Error(err))
		}

		candidate, err := candidateFromFlags()
		if err != nil {
			log.Fatal("Invalid trade parameters", zap.Error(err))
		}

		result := exec.ExecuteArbitrage(cmd.Context(), candidate)
		if !result.Success {
			log.Fatal("Trade failed",
				zap.String("error", result.Err),
				zap.String("tx_hash", result.TxHash.Hex()))
		}

		log.Info("Trade confirmed",
			zap.String("tx_hash", result.TxHash.Hex()),
			zap.Uint64("block_number", result.BlockNumber),
			zap.Uint64("gas_used", result.GasUsed))
	},
}

func candidateFromFlags() (*types.Candidate, error) {
	in, ok := new(big.Int).SetString(amountIn, 10)
	if !ok {
		return nil, fmt.Errorf("invalid --amount-in %q", amountIn)
	}
	out, ok := new(big.Int).SetString(amountOut, 10)
	if !ok {
		return nil, fmt.Errorf("invalid --amount-out %q", amountOut)
	}

	for name, value := range map[string]string{
		"--token-in":  tokenIn,
		"--token-mid": tokenMid,
		"--token-out": tokenOut,
	} {
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("invalid %s %q", name, value)
		}
	}

	return &types.Candidate{
		Route: types.Route{
			Name:     routeName,
			TokenIn:  common.HexToAddress(tokenIn),
			TokenMid: common.HexToAddress(tokenMid),
			TokenOut: common.HexToAddress(tokenOut),
			Fee1:     fee1,
			Fee2:     fee2,
		},
		AmountIn:  in,
		AmountOut: out,
	}, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&routeName, "route", "manual", "route label used in logs")
	runCmd.Flags().StringVar(&tokenIn, "token-in", "", "input token address")
	runCmd.Flags().StringVar(&tokenMid, "token-mid", "", "intermediate token address")
	runCmd.Flags().StringVar(&tokenOut, "token-out", "", "output token address")
	runCmd.Flags().Uint32Var(&fee1, "fee1", 500, "first hop fee tier")
	runCmd.Flags().Uint32Var(&fee2, "fee2", 500, "second hop fee tier")
	runCmd.Flags().StringVar(&amountIn, "amount-in", "", "input amount in token base units")
	runCmd.Flags().StringVar(&amountOut, "amount-out", "", "expected output amount in token base units")

	for _, flag := range []string{"token-in", "token-mid", "token-out", "amount-in", "amount-out"} {
		_ = runCmd.MarkFlagRequired(flag)
	}
}
