package loan

import (
	"time"

	domain "loan-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type CreateLoanInput struct {
	Identifier                  string
	IssueDate                   time.Time
	TotalAmount                 decimal.Decimal
	Rating                      int
	MaturityDate                time.Time
	TotalExpectedInterestAmount decimal.Decimal
}

type ListLoansInput struct {
	IsClosed           *bool
	Rating             int
	InvestmentDateFrom *time.Time
	InvestmentDateTo   *time.Time
	InvestedAmount     domain.Range
	ExpectedIRR        domain.Range
	RealizedIRR        domain.Range
	Search             string
	Ordering           string
	Limit              int
	Offset             int
}

type LoanDTO struct {
	Identifier                  string           `json:"identifier"`
	IssueDate                   string           `json:"issue_date"`
	TotalAmount                 decimal.Decimal  `json:"total_amount"`
	Rating                      int              `json:"rating"`
	MaturityDate                string           `json:"maturity_date"`
	TotalExpectedInterestAmount decimal.Decimal  `json:"total_expected_interest_amount"`
	InvestmentDate              *string          `json:"investment_date"`
	InvestedAmount              *decimal.Decimal `json:"invested_amount"`
	ExpectedInterestAmount      *decimal.Decimal `json:"expected_interest_amount"`
	ExpectedIRR                 *decimal.Decimal `json:"expected_irr"`
	IsClosed                    bool             `json:"is_closed"`
	RealizedIRR                 *decimal.Decimal `json:"realized_irr"`
	CreatedAt                   time.Time        `json:"created_at"`
	UpdatedAt                   time.Time        `json:"updated_at"`
}

func ToDTO(l *domain.Loan) LoanDTO {
	dto := LoanDTO{
		Identifier:                  l.Identifier,
		IssueDate:                   l.IssueDate.Format(domain.DateLayout),
		TotalAmount:                 l.TotalAmount,
		Rating:                      l.Rating,
		MaturityDate:                l.MaturityDate.Format(domain.DateLayout),
		TotalExpectedInterestAmount: l.TotalExpectedInterestAmount,
		InvestedAmount:              l.InvestedAmount,
		ExpectedInterestAmount:      l.ExpectedInterestAmount,
		ExpectedIRR:                 l.ExpectedIRR,
		IsClosed:                    l.IsClosed,
		RealizedIRR:                 l.RealizedIRR,
		CreatedAt:                   l.CreatedAt,
		UpdatedAt:                   l.UpdatedAt,
	}
	if l.InvestmentDate != nil {
		s := l.InvestmentDate.Format(domain.DateLayout)
		dto.InvestmentDate = &s
	}
	return dto
}
