// Package importer loads loans and cash flows from CSV batches. Bad rows are
// skipped and reported; they never abort the rest of the batch.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"
	cashflowuc "loan-ledger/internal/usecase/cashflow"
	loanuc "loan-ledger/internal/usecase/loan"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrMalformedBatch = errors.New("malformed csv batch")

type Kind string

const (
	KindLoans     Kind = "loans"
	KindCashFlows Kind = "cashflows"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLoans, KindCashFlows:
		return k, nil
	}
	return "", fmt.Errorf("unknown import kind %q", s)
}

var (
	loanHeader     = []string{"identifier", "issue_date", "total_amount", "rating", "maturity_date", "total_expected_interest_amount"}
	cashFlowHeader = []string{"loan_identifier", "reference_date", "type", "amount"}
)

type LoanCreator interface {
	Create(ctx context.Context, in loanuc.CreateLoanInput) (*loanuc.LoanDTO, error)
}

type CashFlowCreator interface {
	Create(ctx context.Context, in cashflowuc.CreateCashFlowInput) (*cashflowuc.CashFlowDTO, error)
}

type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Result struct {
	Accepted int        `json:"accepted"`
	Skipped  []RowError `json:"skipped"`
}

func (r *Result) skip(line int, format string, args ...any) {
	r.Skipped = append(r.Skipped, RowError{Line: line, Reason: fmt.Sprintf(format, args...)})
}

type Importer struct {
	loans LoanCreator
	flows CashFlowCreator
	log   *zap.Logger
}

func New(loans LoanCreator, flows CashFlowCreator, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{loans: loans, flows: flows, log: log.Named("importer")}
}

func (im *Importer) Import(ctx context.Context, kind Kind, r io.Reader) (Result, error) {
	switch kind {
	case KindLoans:
		return im.ImportLoans(ctx, r)
	case KindCashFlows:
		return im.ImportCashFlows(ctx, r)
	}
	return Result{}, fmt.Errorf("unknown import kind %q", kind)
}

// ImportLoans rejects the whole batch when the header is not exactly the loan
// column set. Rows with unparsable or invalid values are skipped.
func (im *Importer) ImportLoans(ctx context.Context, r io.Reader) (Result, error) {
	res := Result{Skipped: []RowError{}}
	cr, cols, err := open(r)
	if err != nil {
		return res, err
	}
	idx, ok := indexHeader(cols, loanHeader)
	if !ok {
		return res, fmt.Errorf("%w: loan header must be %s, got %s",
			ErrMalformedBatch, strings.Join(loanHeader, ","), strings.Join(cols, ","))
	}

	err = eachRow(ctx, cr, len(cols), &res, func(line int, rec []string) {
		in, err := parseLoanRow(idx, rec)
		if err != nil {
			res.skip(line, "%v", err)
			return
		}
		if _, err := im.loans.Create(ctx, in); err != nil {
			im.rowFailed(line, err)
			res.skip(line, "%v", err)
			return
		}
		res.Accepted++
	})
	im.done(KindLoans, res)
	return res, err
}

// ImportCashFlows checks the header per row: a mismatched header skips every
// row instead of rejecting the batch. Rows for unknown loans are skipped.
func (im *Importer) ImportCashFlows(ctx context.Context, r io.Reader) (Result, error) {
	res := Result{Skipped: []RowError{}}
	cr, cols, err := open(r)
	if err != nil {
		return res, err
	}
	idx, headerOK := indexHeader(cols, cashFlowHeader)
	if !headerOK {
		im.log.Warn("cash flow header mismatch, every row will be skipped",
			zap.Strings("want", cashFlowHeader), zap.Strings("got", cols))
	}

	err = eachRow(ctx, cr, len(cols), &res, func(line int, rec []string) {
		if !headerOK {
			res.skip(line, "columns must be %s", strings.Join(cashFlowHeader, ","))
			return
		}
		in, err := parseCashFlowRow(idx, rec)
		if err != nil {
			res.skip(line, "%v", err)
			return
		}
		if _, err := im.flows.Create(ctx, in); err != nil {
			im.rowFailed(line, err)
			res.skip(line, "%v", err)
			return
		}
		res.Accepted++
	})
	im.done(KindCashFlows, res)
	return res, err
}

func (im *Importer) rowFailed(line int, err error) {
	switch {
	case errors.Is(err, loan.ErrNotFound),
		errors.Is(err, loan.ErrInvalidTerms),
		errors.Is(err, loan.ErrDuplicateIdentifier),
		errors.Is(err, cashflow.ErrInvalidCashFlow):
		im.log.Warn("row skipped", zap.Int("line", line), zap.Error(err))
	default:
		im.log.Error("row failed", zap.Int("line", line), zap.Error(err))
	}
}

func (im *Importer) done(kind Kind, res Result) {
	im.log.Info("batch imported",
		zap.String("kind", string(kind)),
		zap.Int("accepted", res.Accepted),
		zap.Int("skipped", len(res.Skipped)))
}

func open(r io.Reader) (*csv.Reader, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMalformedBatch)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return cr, cols, nil
}

// indexHeader maps each wanted column to its position. ok is false unless
// cols holds exactly the wanted set, in any order.
func indexHeader(cols, want []string) (map[string]int, bool) {
	if len(cols) != len(want) {
		return nil, false
	}
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := idx[c]; dup {
			return nil, false
		}
		idx[c] = i
	}
	for _, w := range want {
		if _, ok := idx[w]; !ok {
			return nil, false
		}
	}
	return idx, true
}

func eachRow(ctx context.Context, cr *csv.Reader, width int, res *Result, fn func(line int, rec []string)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			res.skip(perr.StartLine, "%v", perr.Err)
			continue
		}
		if err != nil {
			return fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		if len(rec) != width {
			res.skip(line, "expected %d fields, got %d", width, len(rec))
			continue
		}
		fn(line, rec)
	}
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseLoanRow(idx map[string]int, rec []string) (loanuc.CreateLoanInput, error) {
	field := func(name string) string { return strings.TrimSpace(rec[idx[name]]) }

	var (
		in  = loanuc.CreateLoanInput{Identifier: field("identifier")}
		err error
	)
	if in.IssueDate, err = parseDate("issue_date", field("issue_date")); err != nil {
		return in, err
	}
	if in.MaturityDate, err = parseDate("maturity_date", field("maturity_date")); err != nil {
		return in, err
	}
	if in.TotalAmount, err = parseAmount("total_amount", field("total_amount")); err != nil {
		return in, err
	}
	if in.TotalExpectedInterestAmount, err = parseAmount("total_expected_interest_amount", field("total_expected_interest_amount")); err != nil {
		return in, err
	}
	if in.Rating, err = strconv.Atoi(field("rating")); err != nil {
		return in, fmt.Errorf("rating: %q is not an integer", field("rating"))
	}
	return in, nil
}

func parseCashFlowRow(idx map[string]int, rec []string) (cashflowuc.CreateCashFlowInput, error) {
	field := func(name string) string { return strings.TrimSpace(rec[idx[name]]) }

	in := cashflowuc.CreateCashFlowInput{LoanIdentifier: field("loan_identifier")}
	if in.LoanIdentifier == "" {
		return in, errors.New("loan_identifier is empty")
	}
	typ, err := cashflow.ParseType(field("type"))
	if err != nil {
		return in, err
	}
	in.Type = typ
	if in.ReferenceDate, err = parseDate("reference_date", field("reference_date")); err != nil {
		return in, err
	}
	if in.Amount, err = parseAmount("amount", field("amount")); err != nil {
		return in, err
	}
	return in, nil
}

func parseDate(name, s string) (time.Time, error) {
	t, err := time.Parse(loan.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q is not a YYYY-MM-DD date", name, s)
	}
	return t, nil
}

func parseAmount(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %q is not a number", name, s)
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Decimal{}, fmt.Errorf("%s: %q has more than 2 decimal places", name, s)
	}
	return d, nil
}
