package cmd

import (
	"math/big"
	"strings"

	"github.com/michaelpento.lv/chainarb/config"
	"github.com/michaelpento.lv/chainarb/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	balanceToken   string
	withdrawToken  string
	withdrawAmount string
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the wallet's native and optional token balance",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		cfg, err := config.NewConfig()
		if err != nil {
			log.Fatal("Failed to load config", zap.Error(err))
		}
		cfg.Chain = chainKey

		exec, err := buildLiveExecutor(cfg, log)
		if err != nil {
			log.Fatal("Failed to create executor", zap.Error(err))
		}

		info, err := config.ChainByKey(cfg.Chain)
		if err != nil {
			log.Fatal("Unknown chain", zap.Error(err))
		}

		native, err := exec.NativeBalance(cmd.Context())
		if err != nil {
			log.Fatal("Failed to read native balance", zap.Error(err))
		}
		log.Info("Wallet balance",
			zap.String("wallet", exec.WalletAddress().Hex()),
			zap.String("currency", info.NativeCurrency),
			zap.String("balance", native.String()))

		if balanceToken != "" {
			if !common.IsHexAddress(balanceToken) {
				log.Fatal("Invalid token address", zap.String("token", balanceToken))
			}
			token := common.HexToAddress(balanceToken)
			balance, err := exec.Balance(cmd.Context(), token)
			if err != nil {
				log.Fatal("Failed to read token balance", zap.Error(err))
			}
			log.Info("Token balance",
				zap.String("token", token.Hex()),
				zap.String("balance", balance.String()))
		}
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw tokens from the executor contract to the wallet",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		cfg, err := config.NewConfig()
		if err != nil {
			log.Fatal("Failed to load config", zap.Error(err))
		}
		cfg.Chain = chainKey

		exec, err := buildLiveExecutor(cfg, log)
		if err != nil {
			log.Fatal("Failed to create executor", zap.Error(err))
		}

		if !common.IsHexAddress(withdrawToken) {
			log.Fatal("Invalid token address", zap.String("token", withdrawToken))
		}
		amount, ok := new(big.Int).SetString(withdrawAmount, 10)
		if !ok {
			log.Fatal("Invalid amount", zap.String("amount", withdrawAmount))
		}

		result := exec.WithdrawFromExecutor(cmd.Context(), common.HexToAddress(withdrawToken), amount)
		if !result.Success {
			log.Fatal("Withdrawal failed",
				zap.String("error", result.Err),
				zap.String("tx_hash", result.TxHash.Hex()))
		}

		log.Info("Withdrawal confirmed",
			zap.String("tx_hash", result.TxHash.Hex()),
			zap.String("explorer", exec.ExplorerURL(result.TxHash)))
	},
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show the wallet address derived from the configured key",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		keyHex, err := config.GetRequiredEnv(config.EnvPrivateKey)
		if err != nil {
			log.Fatal("Failed to load config", zap.Error(err))
		}

		key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
		if err != nil {
			log.Fatal("Invalid private key", zap.Error(err))
		}

		log.Info("Wallet", zap.String("address", crypto.PubkeyToAddress(key.PublicKey).Hex()))
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(walletCmd)

	balanceCmd.Flags().StringVar(&balanceToken, "token", "", "optional ERC-20 token address")

	withdrawCmd.Flags().StringVar(&withdrawToken, "token", "", "ERC-20 token address")
	withdrawCmd.Flags().StringVar(&withdrawAmount, "amount", "", "amount in token base units")
	_ = withdrawCmd.MarkFlagRequired("token")
	_ = withdrawCmd.MarkFlagRequired("amount")
}
