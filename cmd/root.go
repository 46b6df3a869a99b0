package cmd

import (
	"context"

	"github.com/michaelpento.lv/chainarb/config"
	"github.com/michaelpento.lv/chainarb/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	chainKey   string
	chainsFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "chainarb",
	Short: "A CLI arbitrage executor for two-hop swaps on L2 chains",
	Long: `A CLI tool that submits two-hop arbitrage trades through a deployed
executor contract on Base, Arbitrum, Optimism or Polygon.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&chainKey, "chain", "base", "target chain (base, arbitrum, optimism, polygon)")
	rootCmd.PersistentFlags().StringVar(&chainsFile, "chains", "", "optional YAML file with chain overrides")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	log := utils.InitLogger(debug)

	// A missing .env file is fine; variables may come from the environment.
	_ = config.LoadEnv()

	if chainsFile != "" {
		if err := config.LoadChainOverrides(chainsFile); err != nil {
			log.Fatal("Failed to load chain overrides", zap.Error(err))
		}
	}
}
