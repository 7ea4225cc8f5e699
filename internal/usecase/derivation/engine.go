package derivation

import (
	"context"
	"errors"
	"fmt"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/uow"

	"go.uber.org/zap"
)

// Invalidator drops state computed from loans, such as the statistics
// snapshot.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Engine keeps each loan's derived fields in step with its ledger.
type Engine struct {
	uow   uow.UnitOfWork
	log   *zap.Logger
	locks *keyedMutex
	inv   Invalidator
}

var _ cashflow.Listener = (*Engine)(nil)

func NewEngine(u uow.UnitOfWork, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{uow: u, log: log.Named("derivation"), locks: newKeyedMutex()}
}

// WithInvalidator registers inv to be told after RecomputeAll saved loans.
// Single recomputes leave invalidation to their caller.
func (e *Engine) WithInvalidator(inv Invalidator) *Engine {
	e.inv = inv
	return e
}

// Recompute re-derives one loan from its current ledger and saves it.
// Runs for the same identifier are serialized in-process and, through the
// row lock taken by WithinLoanTx, across processes.
func (e *Engine) Recompute(ctx context.Context, identifier string) (*loan.Loan, error) {
	unlock := e.locks.Lock(identifier)
	defer unlock()

	var out *loan.Loan
	err := e.uow.WithinLoanTx(ctx, identifier, func(r uow.Repos, l *loan.Loan) error {
		funding, err := r.CashFlows.FirstByType(ctx, l.ID, cashflow.TypeFunding)
		if err != nil {
			if !errors.Is(err, cashflow.ErrNotFound) {
				return fmt.Errorf("load funding: %w", err)
			}
			funding = nil
		}
		flows, err := r.CashFlows.ListByLoan(ctx, l.ID, "")
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}

		res := Derive(*l, funding, flows)
		for _, w := range res.Warnings {
			e.log.Warn("irr unavailable",
				zap.String("loan", identifier),
				zap.String("field", w.Field),
				zap.Error(w.Err))
		}
		if res.Derived.IsClosed && !l.IsClosed {
			e.log.Info("loan closed", zap.String("loan", identifier))
		}

		l.Derived = res.Derived
		if err := r.Loans.Save(ctx, l); err != nil {
			return fmt.Errorf("save derived fields: %w", err)
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OnCashFlowCommitted recomputes the loan. Failures are logged, never returned,
// so the ledger write that triggered it stands.
func (e *Engine) OnCashFlowCommitted(ctx context.Context, loanIdentifier string) {
	if _, err := e.Recompute(ctx, loanIdentifier); err != nil {
		e.log.Error("recompute failed", zap.String("loan", loanIdentifier), zap.Error(err))
	}
}

// RecomputeAll walks every loan. It keeps going past failures and returns
// them joined, along with the number of loans that were saved.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	var identifiers []string
	if err := e.uow.WithinTx(ctx, func(r uow.Repos) error {
		loans, err := r.Loans.ListAll(ctx)
		if err != nil {
			return err
		}
		identifiers = make([]string, 0, len(loans))
		for _, l := range loans {
			identifiers = append(identifiers, l.Identifier)
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("list loans: %w", err)
	}

	var (
		done int
		errs []error
	)
	for _, id := range identifiers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := e.Recompute(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("loan %s: %w", id, err))
			continue
		}
		done++
	}
	e.log.Info("recomputed loans", zap.Int("done", done), zap.Int("failed", len(errs)))
	if done > 0 && e.inv != nil {
		e.inv.Invalidate(context.WithoutCancel(ctx))
	}
	return done, errors.Join(errs...)
}
