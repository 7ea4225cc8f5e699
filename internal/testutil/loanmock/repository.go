package loanmock

import (
	"context"

	domain "loan-ledger/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to success, reads default to context.Canceled.
type Repo struct {
	CreateFn                   func(ctx context.Context, l *domain.Loan) error
	GetByIdentifierFn          func(ctx context.Context, identifier string) (*domain.Loan, error)
	GetByIdentifierForUpdateFn func(ctx context.Context, identifier string) (*domain.Loan, error)
	ListFn                     func(ctx context.Context, f domain.Filter) ([]domain.Loan, error)
	ListAllFn                  func(ctx context.Context) ([]domain.Loan, error)
	SaveFn                     func(ctx context.Context, l *domain.Loan) error
	DeleteFn                   func(ctx context.Context, id uint64) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByIdentifier(ctx context.Context, identifier string) (*domain.Loan, error) {
	if m.GetByIdentifierFn != nil {
		return m.GetByIdentifierFn(ctx, identifier)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIdentifierForUpdate(ctx context.Context, identifier string) (*domain.Loan, error) {
	if m.GetByIdentifierForUpdateFn != nil {
		return m.GetByIdentifierForUpdateFn(ctx, identifier)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) ListAll(ctx context.Context) ([]domain.Loan, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, id uint64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}
