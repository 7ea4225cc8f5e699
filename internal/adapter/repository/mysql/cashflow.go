package mysql

import (
	"context"
	"errors"

	cfDomain "loan-ledger/internal/domain/cashflow"

	"gorm.io/gorm"
)

var cashFlowOrderable = map[string]bool{
	"id":             true,
	"reference_date": true,
	"amount":         true,
	"type":           true,
}

type CashFlowRepository struct{ db *gorm.DB }

func NewCashFlowRepository(db *gorm.DB) *CashFlowRepository { return &CashFlowRepository{db: db} }

func (r *CashFlowRepository) Create(ctx context.Context, c *cfDomain.CashFlow) error {
	return r.db.WithContext(ctx).Omit("Loan").Create(c).Error
}

func (r *CashFlowRepository) Save(ctx context.Context, c *cfDomain.CashFlow) error {
	return r.db.WithContext(ctx).Omit("Loan").Save(c).Error
}

func (r *CashFlowRepository) GetByID(ctx context.Context, id uint64) (*cfDomain.CashFlow, error) {
	var out cfDomain.CashFlow
	if err := r.db.WithContext(ctx).Preload("Loan").First(&out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cfDomain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *CashFlowRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&cfDomain.CashFlow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return cfDomain.ErrNotFound
	}
	return nil
}

func (r *CashFlowRepository) DeleteByLoan(ctx context.Context, loanID uint64) error {
	return r.db.WithContext(ctx).Where("loan_id = ?", loanID).Delete(&cfDomain.CashFlow{}).Error
}

func (r *CashFlowRepository) ListByLoan(ctx context.Context, loanID uint64, typ cfDomain.Type) ([]cfDomain.CashFlow, error) {
	q := r.db.WithContext(ctx).Where("loan_id = ?", loanID)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	var out []cfDomain.CashFlow
	return out, q.Order("reference_date, id").Find(&out).Error
}

func (r *CashFlowRepository) FirstByType(ctx context.Context, loanID uint64, typ cfDomain.Type) (*cfDomain.CashFlow, error) {
	var out cfDomain.CashFlow
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND type = ?", loanID, typ).
		Order("reference_date, id").
		First(&out).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cfDomain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *CashFlowRepository) List(ctx context.Context, f cfDomain.Filter) ([]cfDomain.CashFlow, error) {
	q := r.db.WithContext(ctx).Model(&cfDomain.CashFlow{}).Preload("Loan")
	if f.LoanID != 0 {
		q = q.Where("loan_id = ?", f.LoanID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.DateFrom != nil {
		q = q.Where("reference_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("reference_date <= ?", *f.DateTo)
	}
	q = within(q, "amount", f.Amount)
	q = paginate(q.Order(orderBy(f.Ordering, cashFlowOrderable)), f.Limit, f.Offset)

	var out []cfDomain.CashFlow
	return out, q.Find(&out).Error
}

func (r *CashFlowRepository) ListAll(ctx context.Context) ([]cfDomain.CashFlow, error) {
	var out []cfDomain.CashFlow
	return out, r.db.WithContext(ctx).Order("loan_id, reference_date, id").Find(&out).Error
}
