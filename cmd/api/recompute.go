package main

import (
	"errors"
	"fmt"

	loanuc "loan-ledger/internal/usecase/loan"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute [identifier]",
	Short: "Re-derive one loan, or every loan with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return errors.New("pass exactly one of an identifier or --all")
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if all {
			n, err := a.engine.RecomputeAll(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d loans\n", n)
			return err
		}

		dto, err := a.loans.Recompute(ctx, args[0])
		if err != nil {
			return err
		}
		return printLoan(cmd, dto)
	},
}

func init() {
	recomputeCmd.Flags().Bool("all", false, "recompute every loan")
}

func printLoan(cmd *cobra.Command, dto *loanuc.LoanDTO) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s closed=%t\n", dto.Identifier, dto.IsClosed)
	if dto.InvestedAmount != nil {
		fmt.Fprintf(out, "  invested_amount:          %s\n", dto.InvestedAmount)
	}
	if dto.ExpectedInterestAmount != nil {
		fmt.Fprintf(out, "  expected_interest_amount: %s\n", dto.ExpectedInterestAmount)
	}
	if dto.ExpectedIRR != nil {
		fmt.Fprintf(out, "  expected_irr:             %s\n", dto.ExpectedIRR)
	}
	if dto.RealizedIRR != nil {
		fmt.Fprintf(out, "  realized_irr:             %s\n", dto.RealizedIRR)
	}
	return nil
}
