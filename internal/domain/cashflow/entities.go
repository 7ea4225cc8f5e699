package cashflow

import (
	"fmt"
	"strings"
	"time"

	"loan-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeFunding   Type = "FUNDING"
	TypeRepayment Type = "REPAYMENT"
)

// ParseType accepts any casing ("repayment", "Funding").
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeFunding, TypeRepayment:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidCashFlow, s)
}

// CashFlow is a single ledger entry. Amount is always a positive magnitude;
// Type says which way the money moved.
type CashFlow struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"id"`
	LoanID        uint64          `gorm:"not null;index:idx_cash_flows_loan_type,priority:1" json:"-"`
	Loan          *loan.Loan      `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
	Type          Type            `gorm:"size:16;not null;index:idx_cash_flows_loan_type,priority:2" json:"type"`
	ReferenceDate time.Time       `gorm:"type:date;not null" json:"reference_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CashFlow) TableName() string { return "cash_flows" }

func (c *CashFlow) Validate() error {
	if _, err := ParseType(string(c.Type)); err != nil {
		return err
	}
	if c.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidCashFlow)
	}
	if c.ReferenceDate.IsZero() {
		return fmt.Errorf("%w: reference_date is required", ErrInvalidCashFlow)
	}
	return nil
}

// Signed returns the amount from the lender's point of view: funding is an
// outflow, repayments are inflows.
func (c CashFlow) Signed() decimal.Decimal {
	if c.Type == TypeFunding {
		return c.Amount.Neg()
	}
	return c.Amount
}
