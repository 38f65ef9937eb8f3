package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"makhana/internal/config"
	applog "makhana/internal/log"
)

var configFile string

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "makhana",
	Short: "Makhana store backend",
	Long: `Makhana store backend: shopper and admin accounts, the product catalog,
orders with stock tracking, and payment gateway checkout.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
}

// loadConfig resolves configuration and brings up logging for any command.
func loadConfig() (config.Config, func()) {
	if configFile != "" {
		os.Setenv("CONFIG_FILE", configFile)
	}
	cfg := config.Load()
	closer, err := applog.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		applog.Logger().WithError(err).Warnf("could not open log file %s", cfg.LogFile)
	}
	return cfg, func() { _ = closer.Close() }
}
