package mysql

import (
	"context"
	"errors"

	loanDomain "loan-ledger/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var loanOrderable = map[string]bool{
	"id":              true,
	"issue_date":      true,
	"maturity_date":   true,
	"rating":          true,
	"investment_date": true,
	"invested_amount": true,
	"expected_irr":    true,
	"realized_irr":    true,
}

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	err := r.db.WithContext(ctx).Create(l).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return loanDomain.ErrDuplicateIdentifier
	}
	return err
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&loanDomain.Loan{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return loanDomain.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) GetByIdentifier(ctx context.Context, identifier string) (*loanDomain.Loan, error) {
	return r.first(r.db.WithContext(ctx), identifier)
}

func (r *LoanRepository) GetByIdentifierForUpdate(ctx context.Context, identifier string) (*loanDomain.Loan, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), identifier)
}

func (r *LoanRepository) first(q *gorm.DB, identifier string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := q.Where("identifier = ?", identifier).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loanDomain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.Filter) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{})
	if f.IsClosed != nil {
		q = q.Where("is_closed = ?", *f.IsClosed)
	}
	if f.Rating > 0 {
		q = q.Where("rating = ?", f.Rating)
	}
	if f.InvestmentDateFrom != nil {
		q = q.Where("investment_date >= ?", *f.InvestmentDateFrom)
	}
	if f.InvestmentDateTo != nil {
		q = q.Where("investment_date <= ?", *f.InvestmentDateTo)
	}
	if f.Search != "" {
		q = q.Where("identifier LIKE ?", f.Search+"%")
	}
	q = within(q, "invested_amount", f.InvestedAmount)
	q = within(q, "expected_irr", f.ExpectedIRR)
	q = within(q, "realized_irr", f.RealizedIRR)
	q = paginate(q.Order(orderBy(f.Ordering, loanOrderable)), f.Limit, f.Offset)

	var out []loanDomain.Loan
	return out, q.Find(&out).Error
}

func (r *LoanRepository) ListAll(ctx context.Context) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	return out, r.db.WithContext(ctx).Order("id").Find(&out).Error
}
