package importer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"loan-ledger/internal/domain/loan"
	cashflowuc "loan-ledger/internal/usecase/cashflow"
	loanuc "loan-ledger/internal/usecase/loan"
)

type fakeLoans struct {
	mu   sync.Mutex
	got  []loanuc.CreateLoanInput
	seen map[string]bool
}

func (f *fakeLoans) Create(_ context.Context, in loanuc.CreateLoanInput) (*loanuc.LoanDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[in.Identifier] {
		return nil, loan.ErrDuplicateIdentifier
	}
	f.seen[in.Identifier] = true
	f.got = append(f.got, in)
	return &loanuc.LoanDTO{Identifier: in.Identifier}, nil
}

type fakeFlows struct {
	mu    sync.Mutex
	known map[string]bool
	got   []cashflowuc.CreateCashFlowInput
}

func (f *fakeFlows) Create(_ context.Context, in cashflowuc.CreateCashFlowInput) (*cashflowuc.CashFlowDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.known[in.LoanIdentifier] {
		return nil, loan.ErrNotFound
	}
	f.got = append(f.got, in)
	return &cashflowuc.CashFlowDTO{LoanIdentifier: in.LoanIdentifier, Type: in.Type}, nil
}

func newImporter() (*Importer, *fakeLoans, *fakeFlows) {
	l := &fakeLoans{}
	f := &fakeFlows{known: map[string]bool{"L-1": true, "L-2": true}}
	return New(l, f, nil), l, f
}

func TestImportLoans_AcceptsAnyColumnOrder(t *testing.T) {
	imp, loans, _ := newImporter()
	csv := "rating,identifier,issue_date,maturity_date,total_amount,total_expected_interest_amount\n" +
		"3,L-1,2023-01-01,2024-01-01,100000,5000\n" +
		"9,L-2,2023-02-01,2023-08-01,2500.50,125.25\n"

	res, err := imp.ImportLoans(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportLoans err: %v", err)
	}
	if res.Accepted != 2 || len(res.Skipped) != 0 {
		t.Fatalf("res = %+v", res)
	}
	got := loans.got[1]
	if got.Identifier != "L-2" || got.Rating != 9 || got.TotalAmount.String() != "2500.5" || got.MaturityDate.Month() != 8 {
		t.Fatalf("parsed = %+v", got)
	}
}

func TestImportLoans_HeaderMismatchRejectsBatch(t *testing.T) {
	for name, header := range map[string]string{
		"missing column": "identifier,issue_date,total_amount,rating,maturity_date",
		"extra column":   "identifier,issue_date,total_amount,rating,maturity_date,total_expected_interest_amount,notes",
		"renamed column": "id,issue_date,total_amount,rating,maturity_date,total_expected_interest_amount",
		"duplicate":      "identifier,identifier,total_amount,rating,maturity_date,total_expected_interest_amount",
	} {
		t.Run(name, func(t *testing.T) {
			imp, loans, _ := newImporter()
			_, err := imp.ImportLoans(context.Background(), strings.NewReader(header+"\nL-1,2023-01-01,1,1,2024-01-01,1\n"))
			if !errors.Is(err, ErrMalformedBatch) {
				t.Fatalf("want ErrMalformedBatch, got %v", err)
			}
			if len(loans.got) != 0 {
				t.Fatalf("rows imported despite bad header")
			}
		})
	}
}

func TestImportLoans_EmptyFile(t *testing.T) {
	imp, _, _ := newImporter()
	if _, err := imp.ImportLoans(context.Background(), strings.NewReader("")); !errors.Is(err, ErrMalformedBatch) {
		t.Fatalf("want ErrMalformedBatch, got %v", err)
	}
}

func TestImportLoans_SkipsBadRows(t *testing.T) {
	imp, loans, _ := newImporter()
	csv := "\ufeffIdentifier, issue_date,total_amount,rating,maturity_date,total_expected_interest_amount\n" +
		"L-1,2023-01-01,100000,3,2024-01-01,5000\n" + // line 2 ok
		"L-2,01/01/2023,100000,3,2024-01-01,5000\n" + // line 3 bad date
		"L-3,2023-01-01,abc,3,2024-01-01,5000\n" + // line 4 bad amount
		"L-4,2023-01-01,100000,x,2024-01-01,5000\n" + // line 5 bad rating
		"L-1,2023-01-01,100000,3,2024-01-01,5000\n" + // line 6 duplicate
		"L-6,2023-01-01,100000\n" + // line 7 short row
		"\n" +
		"L-7,2023-01-01,100000,3,2024-01-01,5000\n"

	res, err := imp.ImportLoans(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportLoans err: %v", err)
	}
	if res.Accepted != 2 || len(loans.got) != 2 || loans.got[1].Identifier != "L-7" {
		t.Fatalf("res = %+v, got = %+v", res, loans.got)
	}
	wantLines := []int{3, 4, 5, 6, 7}
	if len(res.Skipped) != len(wantLines) {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	for i, l := range wantLines {
		if res.Skipped[i].Line != l {
			t.Fatalf("skipped[%d].Line = %d, want %d (%+v)", i, res.Skipped[i].Line, l, res.Skipped)
		}
	}
	if !strings.Contains(res.Skipped[3].Reason, "already exists") {
		t.Fatalf("duplicate reason = %q", res.Skipped[3].Reason)
	}
}

func TestImportCashFlows_UnknownLoanSkipped(t *testing.T) {
	imp, _, flows := newImporter()
	csv := "loan_identifier,reference_date,type,amount\n" +
		"L-1,2023-01-01,funding,100000\n" +
		"NOPE,2023-01-05,REPAYMENT,10\n" +
		"L-2,2023-02-01,Repayment,50.25\n"

	res, err := imp.ImportCashFlows(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCashFlows err: %v", err)
	}
	if res.Accepted != 2 || len(res.Skipped) != 1 || res.Skipped[0].Line != 3 {
		t.Fatalf("res = %+v", res)
	}
	if flows.got[0].Type != "FUNDING" || flows.got[1].Type != "REPAYMENT" {
		t.Fatalf("types not upper-cased: %+v", flows.got)
	}
}

func TestImportCashFlows_RowLevelFailures(t *testing.T) {
	imp, _, flows := newImporter()
	csv := "type,amount,loan_identifier,reference_date\n" +
		"FUNDING,100,L-1\n" +
		"REFUND,100,L-1,2023-01-01\n" +
		"FUNDING,1.2.3,L-1,2023-01-01\n" +
		",100,L-1,2023-01-01\n" +
		"REPAYMENT,100,,2023-01-01\n" +
		"REPAYMENT,100,L-1,2023-01-01,extra\n" +
		"REPAYMENT,100,L-1,2023-03-01\n"

	res, err := imp.ImportCashFlows(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCashFlows err: %v", err)
	}
	if res.Accepted != 1 || len(flows.got) != 1 || len(res.Skipped) != 6 {
		t.Fatalf("res = %+v", res)
	}
}

func TestImport_RejectsSubCentAmounts(t *testing.T) {
	imp, loans, flows := newImporter()
	ctx := context.Background()

	res, err := imp.ImportLoans(ctx, strings.NewReader(
		"identifier,issue_date,total_amount,rating,maturity_date,total_expected_interest_amount\n"+
			"L-1,2023-01-01,100000.005,3,2024-01-01,5000\n"+
			"L-2,2023-01-01,100000,3,2024-01-01,5000.001\n"+
			"L-3,2023-01-01,100000.50,3,2024-01-01,5000.250\n"))
	if err != nil {
		t.Fatalf("ImportLoans err: %v", err)
	}
	if res.Accepted != 1 || len(res.Skipped) != 2 || loans.got[0].Identifier != "L-3" {
		t.Fatalf("res = %+v, got = %+v", res, loans.got)
	}
	if !strings.Contains(res.Skipped[0].Reason, "decimal places") {
		t.Fatalf("reason = %q", res.Skipped[0].Reason)
	}

	res, err = imp.ImportCashFlows(ctx, strings.NewReader(
		"loan_identifier,reference_date,type,amount\n"+
			"L-1,2023-01-01,FUNDING,100.005\n"+
			"L-1,2023-01-02,FUNDING,100.01\n"))
	if err != nil {
		t.Fatalf("ImportCashFlows err: %v", err)
	}
	if res.Accepted != 1 || len(flows.got) != 1 || len(res.Skipped) != 1 || res.Skipped[0].Line != 2 {
		t.Fatalf("res = %+v", res)
	}
}

func TestImportCashFlows_HeaderMismatchSkipsEveryRow(t *testing.T) {
	imp, _, flows := newImporter()
	csv := "loan,reference_date,type,amount\n" +
		"L-1,2023-01-01,FUNDING,100\n" +
		"L-2,2023-01-01,FUNDING,100\n"

	res, err := imp.ImportCashFlows(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCashFlows err: %v", err)
	}
	if res.Accepted != 0 || len(res.Skipped) != 2 || len(flows.got) != 0 {
		t.Fatalf("res = %+v", res)
	}
}

func TestImport_StopsOnCancelledContext(t *testing.T) {
	imp, _, _ := newImporter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := imp.Import(ctx, KindCashFlows, strings.NewReader("loan_identifier,reference_date,type,amount\nL-1,2023-01-01,FUNDING,1\n"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Loans "); err != nil || k != KindLoans {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("payments"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
