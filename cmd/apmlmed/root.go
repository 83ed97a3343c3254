package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tomiamao/apmlme/internal/config"
)

// Global flags.
var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "apmlmed",
	Short: "802.11 access point MLME daemon",
	Long: `apmlmed drives a soft-AP capable Linux radio as an infrastructure BSS.
Authentication, association and key decisions are delegated to an external
SME connected over WebSocket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./apmlmed.yaml or /etc/apmlmed/apmlmed.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig loads configuration with command line overrides applied.
func loadConfig(cmd *cobra.Command) (*viper.Viper, *config.Config, error) {
	v, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := v.BindPFlag("logging.level", cmd.Flag("log-level")); err != nil {
		return nil, nil, err
	}

	c, err := config.Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return v, c, nil
}
