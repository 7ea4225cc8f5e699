package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 9

	// DateLayout is the wire and CSV format of every calendar date.
	DateLayout = "2006-01-02"
)

// Loan holds the immutable terms of a loan plus the fields derived from its
// cash flow ledger.
type Loan struct {
	ID                          uint64          `gorm:"primaryKey;column:id" json:"-"`
	Identifier                  string          `gorm:"size:64;not null;uniqueIndex:ux_loans_identifier" json:"identifier"`
	IssueDate                   time.Time       `gorm:"type:date;not null" json:"issue_date"`
	TotalAmount                 decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Rating                      int             `gorm:"not null" json:"rating"`
	MaturityDate                time.Time       `gorm:"type:date;not null" json:"maturity_date"`
	TotalExpectedInterestAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_expected_interest_amount"`
	Derived                     `gorm:"embedded"`
	CreatedAt                   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Derived is written only by the derivation engine. Nil means "not yet known".
type Derived struct {
	InvestmentDate         *time.Time       `gorm:"column:investment_date;type:date" json:"investment_date"`
	InvestedAmount         *decimal.Decimal `gorm:"column:invested_amount;type:decimal(12,2)" json:"invested_amount"`
	ExpectedInterestAmount *decimal.Decimal `gorm:"column:expected_interest_amount;type:decimal(12,2)" json:"expected_interest_amount"`
	ExpectedIRR            *decimal.Decimal `gorm:"column:expected_irr;type:decimal(10,6)" json:"expected_irr"`
	IsClosed               bool             `gorm:"column:is_closed;not null;default:false;index" json:"is_closed"`
	RealizedIRR            *decimal.Decimal `gorm:"column:realized_irr;type:decimal(10,6)" json:"realized_irr"`
}

// Funded reports whether a funding cash flow has been applied.
func (d Derived) Funded() bool { return d.InvestedAmount != nil && d.InvestmentDate != nil }

func (d Derived) Equal(o Derived) bool {
	return d.IsClosed == o.IsClosed &&
		timeEq(d.InvestmentDate, o.InvestmentDate) &&
		decEq(d.InvestedAmount, o.InvestedAmount) &&
		decEq(d.ExpectedInterestAmount, o.ExpectedInterestAmount) &&
		decEq(d.ExpectedIRR, o.ExpectedIRR) &&
		decEq(d.RealizedIRR, o.RealizedIRR)
}

func timeEq(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func decEq(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// ValidateTerms checks the invariants a loan must hold before it is stored.
func (l *Loan) ValidateTerms() error {
	switch {
	case l.TotalAmount.Sign() <= 0:
		return fmt.Errorf("%w: total_amount must be positive", ErrInvalidTerms)
	case l.TotalExpectedInterestAmount.Sign() <= 0:
		return fmt.Errorf("%w: total_expected_interest_amount must be positive", ErrInvalidTerms)
	case l.Rating < MinRating || l.Rating > MaxRating:
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidTerms, MinRating, MaxRating)
	case l.IssueDate.IsZero() || l.MaturityDate.IsZero():
		return fmt.Errorf("%w: issue_date and maturity_date are required", ErrInvalidTerms)
	case l.MaturityDate.Before(l.IssueDate):
		return fmt.Errorf("%w: maturity_date precedes issue_date", ErrInvalidTerms)
	}
	return nil
}
