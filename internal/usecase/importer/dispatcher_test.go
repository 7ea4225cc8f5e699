package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"loan-ledger/internal/adapter/cache"
)

func waitFor(t *testing.T, d *Dispatcher, jobID string, want Status) *Report {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r, err := d.Report(context.Background(), jobID)
		if err != nil {
			t.Fatalf("Report: %v", err)
		}
		if r.Status == want {
			return r
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", jobID, want)
	return nil
}

func TestDispatcher_RunsSubmittedBatch(t *testing.T) {
	imp, _, flows := newImporter()
	d := NewDispatcher(imp, NewReportStore(cache.NewMemoryStore(), time.Hour), 2, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	csv := "loan_identifier,reference_date,type,amount\n" +
		"L-1,2023-01-01,FUNDING,100\n" +
		"UNKNOWN,2023-01-02,REPAYMENT,5\n"
	r, err := d.Submit(context.Background(), KindCashFlows, "flows.csv", []byte(csv))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !strings.HasPrefix(r.ID, JobIDPrefix+"_") || r.Status != StatusQueued {
		t.Fatalf("submitted report = %+v", r)
	}

	final := waitFor(t, d, r.ID, StatusDone)
	if final.Accepted != 1 || len(final.Skipped) != 1 || final.FinishedAt == nil || final.Filename != "flows.csv" {
		t.Fatalf("final report = %+v", final)
	}
	if len(flows.got) != 1 {
		t.Fatalf("flows created = %d", len(flows.got))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestDispatcher_MalformedBatchFailsJob(t *testing.T) {
	imp, _, _ := newImporter()
	d := NewDispatcher(imp, NewReportStore(cache.NewMemoryStore(), time.Hour), 1, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	r, err := d.Submit(context.Background(), KindLoans, "loans.csv", []byte("nope\n1\n"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	final := waitFor(t, d, r.ID, StatusFailed)
	if !strings.Contains(final.Error, ErrMalformedBatch.Error()) {
		t.Fatalf("error = %q", final.Error)
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	imp, _, _ := newImporter()
	d := NewDispatcher(imp, NewReportStore(cache.NewMemoryStore(), time.Hour), 1, 1, nil)
	// no Run: the single slot stays occupied

	if _, err := d.Submit(context.Background(), KindLoans, "a.csv", nil); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := d.Submit(context.Background(), KindLoans, "b.csv", nil); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("want ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_UnknownReport(t *testing.T) {
	imp, _, _ := newImporter()
	d := NewDispatcher(imp, NewReportStore(cache.NewMemoryStore(), time.Hour), 1, 1, nil)

	for _, jobID := range []string{"garbage", "imp_" + strings.Repeat("0", 32)} {
		if _, err := d.Report(context.Background(), jobID); !errors.Is(err, ErrReportNotFound) {
			t.Fatalf("%s: want ErrReportNotFound, got %v", jobID, err)
		}
	}
}
