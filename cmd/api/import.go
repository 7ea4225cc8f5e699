package main

import (
	"encoding/json"
	"fmt"
	"os"

	"loan-ledger/internal/usecase/importer"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:       "import {loans|cashflows} <file>",
	Short:     "Import a CSV file synchronously and print the report",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(importer.KindLoans), string(importer.KindCashFlows)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := importer.ParseKind(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.importer.Import(cmd.Context(), kind, f)
		if err != nil {
			return fmt.Errorf("import %s: %w", args[1], err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}
