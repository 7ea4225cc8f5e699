package uow

import (
	"context"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"
)

type Repos struct {
	Loans     loan.Repository
	CashFlows cashflow.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, identifier string, fn func(r Repos, l *loan.Loan) error) error
}
