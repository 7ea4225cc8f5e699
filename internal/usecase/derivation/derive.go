package derivation

import (
	"time"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/pkg/xirr"

	"github.com/shopspring/decimal"
)

const (
	amountPlaces = 2
	irrPlaces    = 6
)

var hundred = decimal.NewFromInt(100)

// Warning records a derived field that could not be computed.
type Warning struct {
	Field string
	Err   error
}

type Result struct {
	Derived  loan.Derived
	Warnings []Warning
}

func (r *Result) warn(field string, err error) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Err: err})
}

// Derive computes a loan's derived fields from its funding entry and full
// ledger. It reads l.Derived only for the sticky closure state.
func Derive(l loan.Loan, funding *cashflow.CashFlow, flows []cashflow.CashFlow) Result {
	prev := l.Derived
	if funding == nil {
		// a loan never reopens, and its realized IRR stays frozen with it
		return Result{Derived: loan.Derived{IsClosed: prev.IsClosed, RealizedIRR: prev.RealizedIRR}}
	}

	var res Result
	invDate := dateOnly(funding.ReferenceDate)
	invested := funding.Amount.Round(amountPlaces)
	expInterest := ExpectedInterest(l.TotalExpectedInterestAmount, invested, l.TotalAmount)

	d := loan.Derived{
		InvestmentDate:         &invDate,
		InvestedAmount:         &invested,
		ExpectedInterestAmount: &expInterest,
	}

	target := invested.Add(expInterest)
	if irr, err := PercentIRR([]xirr.Flow{
		{Date: invDate, Amount: invested.Neg().InexactFloat64()},
		{Date: dateOnly(l.MaturityDate), Amount: target.InexactFloat64()},
	}); err != nil {
		res.warn("expected_irr", err)
	} else {
		d.ExpectedIRR = &irr
	}

	d.IsClosed = prev.IsClosed || Repaid(flows).GreaterThanOrEqual(target)
	if d.IsClosed {
		if irr, err := PercentIRR(ledgerFlows(flows)); err != nil {
			res.warn("realized_irr", err)
			if prev.IsClosed {
				// the last solvable figure stands for a closed loan
				d.RealizedIRR = prev.RealizedIRR
			}
		} else {
			d.RealizedIRR = &irr
		}
	}

	res.Derived = d
	return res
}

// ExpectedInterest allocates the loan's total expected interest to the
// invested share of its principal, rounded to cents.
func ExpectedInterest(totalInterest, invested, totalAmount decimal.Decimal) decimal.Decimal {
	if totalAmount.Sign() <= 0 {
		return decimal.Zero
	}
	return totalInterest.Mul(invested).Div(totalAmount).Round(amountPlaces)
}

// Repaid sums the REPAYMENT entries of a ledger.
func Repaid(flows []cashflow.CashFlow) decimal.Decimal {
	sum := decimal.Zero
	for _, f := range flows {
		if f.Type == cashflow.TypeRepayment {
			sum = sum.Add(f.Amount)
		}
	}
	return sum
}

// PercentIRR solves flows and returns the rate as a percentage with six
// decimal places.
func PercentIRR(flows []xirr.Flow) (decimal.Decimal, error) {
	r, err := xirr.Solve(flows)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromFloat(r).Mul(hundred).Round(irrPlaces), nil
}

func ledgerFlows(flows []cashflow.CashFlow) []xirr.Flow {
	out := make([]xirr.Flow, 0, len(flows))
	for _, f := range flows {
		out = append(out, xirr.Flow{Date: dateOnly(f.ReferenceDate), Amount: f.Signed().InexactFloat64()})
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
