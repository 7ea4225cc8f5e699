package cashflow

import (
	"context"
	"errors"
	"fmt"

	domain "loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/uow"

	"go.uber.org/zap"
)

// Usecase owns every ledger mutation. Each write commits on its own and only
// then notifies the listener, so a failed recompute never rolls it back.
type Usecase struct {
	uow      uow.UnitOfWork
	loans    loan.Repository
	flows    domain.Repository
	listener domain.Listener
	log      *zap.Logger
}

func NewUsecase(u uow.UnitOfWork, loans loan.Repository, flows domain.Repository, listener domain.Listener, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if listener == nil {
		listener = domain.Listeners(nil)
	}
	return &Usecase{uow: u, loans: loans, flows: flows, listener: listener, log: log.Named("cashflow")}
}

func (u *Usecase) Create(ctx context.Context, in CreateCashFlowInput) (*CashFlowDTO, error) {
	typ, err := domain.ParseType(string(in.Type))
	if err != nil {
		return nil, err
	}
	c := &domain.CashFlow{Type: typ, ReferenceDate: in.ReferenceDate, Amount: in.Amount}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByIdentifier(ctx, in.LoanIdentifier)
		if err != nil {
			return err
		}
		c.LoanID = l.ID
		return r.CashFlows.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("cash flow recorded",
		zap.String("loan", in.LoanIdentifier),
		zap.String("type", string(c.Type)),
		zap.String("amount", c.Amount.StringFixed(2)))
	u.listener.OnCashFlowCommitted(ctx, in.LoanIdentifier)

	dto := ToDTO(c, in.LoanIdentifier)
	return &dto, nil
}

// CreateRepayment records a REPAYMENT against an existing loan.
func (u *Usecase) CreateRepayment(ctx context.Context, in RepaymentInput) (*CashFlowDTO, error) {
	return u.Create(ctx, CreateCashFlowInput{
		LoanIdentifier: in.LoanIdentifier,
		Type:           domain.TypeRepayment,
		ReferenceDate:  in.ReferenceDate,
		Amount:         in.Amount,
	})
}

func (u *Usecase) Get(ctx context.Context, id uint64) (*CashFlowDTO, error) {
	c, err := u.flows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(c, "")
	return &dto, nil
}

// List resolves the loan identifier filter first; an unknown loan yields an
// empty page rather than an error.
func (u *Usecase) List(ctx context.Context, in ListCashFlowsInput) ([]CashFlowDTO, error) {
	f := domain.Filter{
		DateFrom: in.DateFrom,
		DateTo:   in.DateTo,
		Amount:   in.Amount,
		Ordering: in.Ordering,
		Limit:    in.Limit,
		Offset:   in.Offset,
	}
	if in.Type != "" {
		typ, err := domain.ParseType(string(in.Type))
		if err != nil {
			return nil, err
		}
		f.Type = typ
	}
	if in.LoanIdentifier != "" {
		l, err := u.loans.GetByIdentifier(ctx, in.LoanIdentifier)
		if errors.Is(err, loan.ErrNotFound) {
			return []CashFlowDTO{}, nil
		}
		if err != nil {
			return nil, err
		}
		f.LoanID = l.ID
	}

	flows, err := u.flows.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]CashFlowDTO, 0, len(flows))
	for i := range flows {
		out = append(out, ToDTO(&flows[i], ""))
	}
	return out, nil
}

func (u *Usecase) Update(ctx context.Context, id uint64, in UpdateCashFlowInput) (*CashFlowDTO, error) {
	var (
		c          *domain.CashFlow
		identifier string
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		c, err = r.CashFlows.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Loan == nil {
			return fmt.Errorf("cash flow %d: owning loan not loaded", id)
		}
		identifier = c.Loan.Identifier

		if in.Type != nil {
			typ, err := domain.ParseType(string(*in.Type))
			if err != nil {
				return err
			}
			c.Type = typ
		}
		if in.ReferenceDate != nil {
			c.ReferenceDate = *in.ReferenceDate
		}
		if in.Amount != nil {
			c.Amount = *in.Amount
		}
		if err := c.Validate(); err != nil {
			return err
		}
		return r.CashFlows.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("cash flow updated", zap.Uint64("id", id), zap.String("loan", identifier))
	u.listener.OnCashFlowCommitted(ctx, identifier)

	dto := ToDTO(c, identifier)
	return &dto, nil
}

func (u *Usecase) Delete(ctx context.Context, id uint64) error {
	var identifier string
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.CashFlows.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Loan != nil {
			identifier = c.Loan.Identifier
		}
		return r.CashFlows.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	u.log.Info("cash flow deleted", zap.Uint64("id", id), zap.String("loan", identifier))
	if identifier != "" {
		u.listener.OnCashFlowCommitted(ctx, identifier)
	}
	return nil
}
