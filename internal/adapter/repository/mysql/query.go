package mysql

import (
	"strings"

	loanDomain "loan-ledger/internal/domain/loan"

	"gorm.io/gorm"
)

// orderBy turns "col" / "-col" into an ORDER BY clause. Columns outside
// allowed fall back to id order. id is always the tiebreaker.
func orderBy(ordering string, allowed map[string]bool) string {
	col := strings.TrimPrefix(ordering, "-")
	if col == "" || !allowed[col] {
		return "id"
	}
	if strings.HasPrefix(ordering, "-") {
		return col + " DESC, id DESC"
	}
	return col + ", id"
}

func paginate(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

// within applies r to col. col must be a trusted column name.
func within(q *gorm.DB, col string, r loanDomain.Range) *gorm.DB {
	if r.Min != nil {
		q = q.Where(col+" >= ?", *r.Min)
	}
	if r.Max != nil {
		q = q.Where(col+" <= ?", *r.Max)
	}
	return q
}
