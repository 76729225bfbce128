package commands

// Root command: loads configuration and logging once for every subcommand.

import (
	"fmt"

	"holder-map/internal/infra/config"
	logging "holder-map/internal/infra/log"

	"github.com/spf13/cobra"
)

var (
	configFile string
	appCfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "holder-map",
	Short: "Holder map - token holder classification for Abstract",
	Long: `Holder map replays a token's transfer history, separates real holders from pools,
vesting contracts and distributors, and reports first buyers, snipers and insiders.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { logging.Sync() },
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
	pf.String("api-key", "", "explorer API key (env: ETHERSCAN_API_KEY)")
	pf.Int64("chain-id", 0, "explorer chain id (default 2741, Abstract)")
	pf.String("explorer-url", "", "explorer API base URL")
	pf.String("dex-chain", "", "DexScreener chain id (default abstract)")
	pf.String("vesting-file", "", "vesting registry file (default data_out/vesting.json)")
	pf.String("out-dir", "", "report output directory (default data_out)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-dir", "", "log directory (default logs)")
	pf.String("chat-id", "", "Telegram chat id (env: TELEGRAM_CHAT_ID)")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(vestingCmd)
	rootCmd.AddCommand(botCmd)
}

// setup binds only flags the user actually set, so unset flags never
// shadow config-file or environment values.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile, changedFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	appCfg = cfg
	if err := logging.Init(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: cfg.Log.Console}); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}
	return nil
}
