package cashflowmock

import (
	"context"

	domain "loan-ledger/internal/domain/cashflow"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to success, reads default to context.Canceled.
type Repo struct {
	CreateFn       func(ctx context.Context, c *domain.CashFlow) error
	GetByIDFn      func(ctx context.Context, id uint64) (*domain.CashFlow, error)
	SaveFn         func(ctx context.Context, c *domain.CashFlow) error
	DeleteFn       func(ctx context.Context, id uint64) error
	DeleteByLoanFn func(ctx context.Context, loanID uint64) error
	ListByLoanFn   func(ctx context.Context, loanID uint64, typ domain.Type) ([]domain.CashFlow, error)
	FirstByTypeFn  func(ctx context.Context, loanID uint64, typ domain.Type) (*domain.CashFlow, error)
	ListFn         func(ctx context.Context, f domain.Filter) ([]domain.CashFlow, error)
	ListAllFn      func(ctx context.Context) ([]domain.CashFlow, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.CashFlow) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.CashFlow, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, c *domain.CashFlow) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, id uint64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *Repo) DeleteByLoan(ctx context.Context, loanID uint64) error {
	if m.DeleteByLoanFn != nil {
		return m.DeleteByLoanFn(ctx, loanID)
	}
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanID uint64, typ domain.Type) ([]domain.CashFlow, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID, typ)
	}
	return nil, context.Canceled
}

func (m *Repo) FirstByType(ctx context.Context, loanID uint64, typ domain.Type) (*domain.CashFlow, error) {
	if m.FirstByTypeFn != nil {
		return m.FirstByTypeFn(ctx, loanID, typ)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.CashFlow, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) ListAll(ctx context.Context) ([]domain.CashFlow, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	return nil, context.Canceled
}
