package main

import (
	"loan-ledger/internal/infrastructure/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the loans and cash_flows tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		gdb, err := openDB(cfg, log)
		if err != nil {
			return err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}
		log.Info("schema migrated")
		return nil
	},
}
