package cashflow

import "errors"

var (
	ErrNotFound        = errors.New("cash flow not found")
	ErrInvalidCashFlow = errors.New("invalid cash flow")
)
