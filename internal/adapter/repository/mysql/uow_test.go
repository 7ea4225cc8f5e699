package mysql

import (
	"context"
	"errors"
	"testing"

	cfDomain "loan-ledger/internal/domain/cashflow"
	loanDomain "loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/uow"
	"loan-ledger/internal/testutil/testdb"

	"github.com/shopspring/decimal"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	cfRepo := NewCashFlowRepository(db)

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		l := makeLoan("LN-COMMIT")
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if l.ID == 0 {
			t.Fatalf("loan auto ID not set")
		}
		return r.CashFlows.Create(ctx, makeFlow(l.ID, cfDomain.TypeFunding, 0, 100))
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	l, err := loanRepo.GetByIdentifier(ctx, "LN-COMMIT")
	if err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	if flows, _ := cfRepo.ListByLoan(ctx, l.ID, ""); len(flows) != 1 {
		t.Fatalf("cash flow not visible after commit: %v", flows)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	cfRepo := NewCashFlowRepository(db)

	sentinel := errors.New("boom")
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		l := makeLoan("LN-ROLL")
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.CashFlows.Create(ctx, makeFlow(l.ID, cfDomain.TypeFunding, 0, 100)); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}

	if _, err := loanRepo.GetByIdentifier(ctx, "LN-ROLL"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected loan not found after rollback, got %v", err)
	}
	if all, _ := cfRepo.ListAll(ctx); len(all) != 0 {
		t.Fatalf("expected no cash flows after rollback, got %d", len(all))
	}
}

func TestGormUoW_WithinLoanTx_Commit(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	seedLoan(t, db, "LN-TARGET")

	guow := NewGormUoW(db)
	if err := guow.WithinLoanTx(ctx, "LN-TARGET", func(r uow.Repos, l *loanDomain.Loan) error {
		if l == nil || l.Identifier != "LN-TARGET" {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		inv := decimal.NewFromInt(100000)
		l.InvestedAmount = &inv
		return r.Loans.Save(ctx, l)
	}); err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	got, err := NewLoanRepository(db).GetByIdentifier(ctx, "LN-TARGET")
	if err != nil {
		t.Fatalf("GetByIdentifier post-commit: %v", err)
	}
	if got.InvestedAmount == nil || !got.InvestedAmount.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("invested amount not saved: %v", got.InvestedAmount)
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	seedLoan(t, db, "LN-RB")

	sentinel := errors.New("stop")
	_ = NewGormUoW(db).WithinLoanTx(ctx, "LN-RB", func(r uow.Repos, l *loanDomain.Loan) error {
		l.IsClosed = true
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return sentinel
	})

	got, err := NewLoanRepository(db).GetByIdentifier(ctx, "LN-RB")
	if err != nil {
		t.Fatalf("post-rollback GetByIdentifier: %v", err)
	}
	if got.IsClosed {
		t.Fatalf("expected open loan after rollback")
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	db := testdb.Open(t)
	err := NewGormUoW(db).WithinLoanTx(context.Background(), "LN-NOPE", func(uow.Repos, *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
