package cashflow

import (
	"context"
	"time"

	"loan-ledger/internal/domain/loan"
)

type Filter struct {
	LoanID   uint64
	Type     Type
	DateFrom *time.Time
	DateTo   *time.Time
	Amount   loan.Range
	Ordering string
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, c *CashFlow) error
	GetByID(ctx context.Context, id uint64) (*CashFlow, error)
	Save(ctx context.Context, c *CashFlow) error
	Delete(ctx context.Context, id uint64) error
	DeleteByLoan(ctx context.Context, loanID uint64) error

	// ListByLoan returns the loan's ledger ordered by (reference_date, id).
	// An empty typ returns every type.
	ListByLoan(ctx context.Context, loanID uint64, typ Type) ([]CashFlow, error)
	// FirstByType returns the earliest entry of typ, ErrNotFound if none.
	FirstByType(ctx context.Context, loanID uint64, typ Type) (*CashFlow, error)

	List(ctx context.Context, f Filter) ([]CashFlow, error)
	ListAll(ctx context.Context) ([]CashFlow, error)
}
