package main

import (
	"fmt"

	"loan-ledger/internal/config"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "Loan ledger service",
	Long:          "Tracks loans and their cash flows, derives IRR figures and serves them over HTTP.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.Log.Level = lvl
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = c
		return nil
	},
	// no subcommand means serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (env vars such as APP_PORT and MYSQL_HOST still apply)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	addServeFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(migrateCmd)
}
