package cashflow

import (
	"time"

	domain "loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type CreateCashFlowInput struct {
	LoanIdentifier string
	Type           domain.Type
	ReferenceDate  time.Time
	Amount         decimal.Decimal
}

type RepaymentInput struct {
	LoanIdentifier string
	Amount         decimal.Decimal
	ReferenceDate  time.Time
}

// UpdateCashFlowInput changes only the fields that are set. A cash flow
// never moves to another loan.
type UpdateCashFlowInput struct {
	Type          *domain.Type
	ReferenceDate *time.Time
	Amount        *decimal.Decimal
}

type ListCashFlowsInput struct {
	LoanIdentifier string
	Type           domain.Type
	DateFrom       *time.Time
	DateTo         *time.Time
	Amount         loan.Range
	Ordering       string
	Limit          int
	Offset         int
}

type CashFlowDTO struct {
	ID             uint64          `json:"id"`
	LoanIdentifier string          `json:"loan_identifier"`
	Type           domain.Type     `json:"type"`
	ReferenceDate  string          `json:"reference_date"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func ToDTO(c *domain.CashFlow, loanIdentifier string) CashFlowDTO {
	if loanIdentifier == "" && c.Loan != nil {
		loanIdentifier = c.Loan.Identifier
	}
	return CashFlowDTO{
		ID:             c.ID,
		LoanIdentifier: loanIdentifier,
		Type:           c.Type,
		ReferenceDate:  c.ReferenceDate.Format(loan.DateLayout),
		Amount:         c.Amount,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
