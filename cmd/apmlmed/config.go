package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the merged configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		b, err := yaml.Marshal(c.Redacted())
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	configCmd.AddCommand(configPrintCmd)
	rootCmd.AddCommand(configCmd)
}
