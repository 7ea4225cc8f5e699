package statistics

import (
	"time"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// Snapshot is the portfolio summary served by the statistics endpoint.
type Snapshot struct {
	TotalInvestments            int             `json:"total_investments"`
	TotalInvestedAmount         decimal.Decimal `json:"total_invested_amount"`
	TotalReturnedAmount         decimal.Decimal `json:"total_returned_amount"`
	TotalExpectedInterestAmount decimal.Decimal `json:"total_expected_interest_amount"`
	TotalRealizedInterestAmount decimal.Decimal `json:"total_realized_interest_amount"`
	ExpectedIRR                 decimal.Decimal `json:"expected_irr"`
	RealizedIRR                 decimal.Decimal `json:"realized_irr"`
	ComputedAt                  time.Time       `json:"computed_at"`
}

type weighted struct {
	sum, weight decimal.Decimal
}

func (w *weighted) add(v *decimal.Decimal, weight decimal.Decimal) {
	if v == nil || weight.Sign() <= 0 {
		return
	}
	w.sum = w.sum.Add(v.Mul(weight))
	w.weight = w.weight.Add(weight)
}

func (w weighted) mean() decimal.Decimal {
	if w.weight.Sign() == 0 {
		return decimal.Zero
	}
	return w.sum.Div(w.weight).Round(6)
}

// Aggregate folds loans and their cash flows into a Snapshot.
//
// Closed loans contribute their derived figures: invested amount, expected
// interest, and realized interest (repayments minus invested amount).
// Cash flows of open loans are summed by type instead, FUNDING into the
// invested total and REPAYMENT into the returned total. Expected interest
// counts only once a loan has closed.
func Aggregate(loans []loan.Loan, flows []cashflow.CashFlow) Snapshot {
	byID := make(map[uint64]*loan.Loan, len(loans))
	for i := range loans {
		byID[loans[i].ID] = &loans[i]
	}
	repaid := make(map[uint64]decimal.Decimal, len(loans))
	for _, f := range flows {
		if f.Type == cashflow.TypeRepayment {
			repaid[f.LoanID] = repaid[f.LoanID].Add(f.Amount)
		}
	}

	var (
		s                     Snapshot
		expectedIRR, realized weighted
	)
	for _, l := range loans {
		if !l.Funded() {
			continue
		}
		s.TotalInvestments++
		invested := *l.InvestedAmount
		expectedIRR.add(l.ExpectedIRR, invested)

		if !l.IsClosed {
			continue
		}
		s.TotalInvestedAmount = s.TotalInvestedAmount.Add(invested)
		s.TotalReturnedAmount = s.TotalReturnedAmount.Add(repaid[l.ID])
		s.TotalRealizedInterestAmount = s.TotalRealizedInterestAmount.Add(repaid[l.ID].Sub(invested))
		if l.ExpectedInterestAmount != nil {
			s.TotalExpectedInterestAmount = s.TotalExpectedInterestAmount.Add(*l.ExpectedInterestAmount)
		}
		realized.add(l.RealizedIRR, invested)
	}

	for _, f := range flows {
		l, ok := byID[f.LoanID]
		if !ok || (l.IsClosed && l.Funded()) {
			continue
		}
		switch f.Type {
		case cashflow.TypeFunding:
			s.TotalInvestedAmount = s.TotalInvestedAmount.Add(f.Amount)
		case cashflow.TypeRepayment:
			s.TotalReturnedAmount = s.TotalReturnedAmount.Add(f.Amount)
		}
	}

	s.ExpectedIRR = expectedIRR.mean()
	s.RealizedIRR = realized.mean()
	return s
}
