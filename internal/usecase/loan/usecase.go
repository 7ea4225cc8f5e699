package loan

import (
	"context"
	"fmt"
	"strings"

	domain "loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/uow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidator drops cached portfolio figures after a loan is added or removed.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Recomputer forces a derivation run for one loan.
type Recomputer interface {
	Recompute(ctx context.Context, identifier string) (*domain.Loan, error)
}

type Usecase struct {
	repo   domain.Repository
	uow    uow.UnitOfWork
	engine Recomputer
	stats  Invalidator
	log    *zap.Logger
}

func NewUsecase(r domain.Repository, u uow.UnitOfWork, engine Recomputer, stats Invalidator, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: r, uow: u, engine: engine, stats: stats, log: log.Named("loan")}
}

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	l := &domain.Loan{
		Identifier:                  strings.TrimSpace(in.Identifier),
		IssueDate:                   in.IssueDate,
		TotalAmount:                 in.TotalAmount,
		Rating:                      in.Rating,
		MaturityDate:                in.MaturityDate,
		TotalExpectedInterestAmount: in.TotalExpectedInterestAmount,
	}
	if l.Identifier == "" {
		l.Identifier = uuid.NewString()
	}
	if err := l.ValidateTerms(); err != nil {
		return nil, err
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	u.invalidate(ctx)

	dto := ToDTO(l)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, identifier string) (*LoanDTO, error) {
	l, err := u.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(l)
	return &dto, nil
}

func (u *Usecase) List(ctx context.Context, in ListLoansInput) ([]LoanDTO, error) {
	loans, err := u.repo.List(ctx, domain.Filter{
		IsClosed:           in.IsClosed,
		Rating:             in.Rating,
		InvestmentDateFrom: in.InvestmentDateFrom,
		InvestmentDateTo:   in.InvestmentDateTo,
		InvestedAmount:     in.InvestedAmount,
		ExpectedIRR:        in.ExpectedIRR,
		RealizedIRR:        in.RealizedIRR,
		Search:             strings.TrimSpace(in.Search),
		Ordering:           in.Ordering,
		Limit:              in.Limit,
		Offset:             in.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, ToDTO(&loans[i]))
	}
	return out, nil
}

// Delete removes the loan together with its ledger.
func (u *Usecase) Delete(ctx context.Context, identifier string) error {
	err := u.uow.WithinLoanTx(ctx, identifier, func(r uow.Repos, l *domain.Loan) error {
		if err := r.CashFlows.DeleteByLoan(ctx, l.ID); err != nil {
			return fmt.Errorf("delete cash flows: %w", err)
		}
		return r.Loans.Delete(ctx, l.ID)
	})
	if err != nil {
		return err
	}
	u.log.Info("loan deleted", zap.String("loan", identifier))
	u.invalidate(ctx)
	return nil
}

func (u *Usecase) Recompute(ctx context.Context, identifier string) (*LoanDTO, error) {
	l, err := u.engine.Recompute(ctx, identifier)
	if err != nil {
		return nil, err
	}
	u.invalidate(ctx)
	dto := ToDTO(l)
	return &dto, nil
}

func (u *Usecase) invalidate(ctx context.Context) {
	if u.stats != nil {
		u.stats.Invalidate(ctx)
	}
}
