package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Range bounds a decimal column inclusively. A nil end is open.
type Range struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	IsClosed           *bool
	Rating             int
	InvestmentDateFrom *time.Time
	InvestmentDateTo   *time.Time
	InvestedAmount     Range
	ExpectedIRR        Range
	RealizedIRR        Range // loans without a realized IRR never match a bound
	Search             string // identifier prefix
	Ordering           string // column name, "-" prefix for descending
	Limit              int
	Offset             int
}

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByIdentifier(ctx context.Context, identifier string) (*Loan, error)
	// GetByIdentifierForUpdate locks the row until the surrounding tx ends.
	GetByIdentifierForUpdate(ctx context.Context, identifier string) (*Loan, error)
	List(ctx context.Context, f Filter) ([]Loan, error)
	ListAll(ctx context.Context) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
	Delete(ctx context.Context, id uint64) error
}
