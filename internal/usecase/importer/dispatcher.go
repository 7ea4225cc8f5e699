package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loan-ledger/pkg/id"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const JobIDPrefix = "imp"

var (
	ErrQueueFull      = errors.New("import queue is full")
	ErrReportNotFound = errors.New("import report not found")
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

type Report struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Filename    string     `json:"filename"`
	Status      Status     `json:"status"`
	Accepted    int        `json:"accepted"`
	Skipped     []RowError `json:"skipped"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// KV is the byte store the reports live in.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type ReportStore struct {
	kv  KV
	ttl time.Duration
}

func NewReportStore(kv KV, ttl time.Duration) *ReportStore {
	return &ReportStore{kv: kv, ttl: ttl}
}

func reportKey(id string) string { return "import:" + id }

func (s *ReportStore) Save(ctx context.Context, r *Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, reportKey(r.ID), b, s.ttl)
}

func (s *ReportStore) Get(ctx context.Context, jobID string) (*Report, error) {
	b, ok, err := s.kv.Get(ctx, reportKey(jobID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReportNotFound
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", jobID, err)
	}
	return &r, nil
}

type job struct {
	report *Report
	data   []byte
}

// Dispatcher runs imports in the background on a fixed set of workers fed by
// a bounded queue.
type Dispatcher struct {
	imp     *Importer
	reports *ReportStore
	queue   chan job
	workers int
	log     *zap.Logger
	now     func() time.Time
}

func NewDispatcher(imp *Importer, reports *ReportStore, workers, queueSize int, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		imp:     imp,
		reports: reports,
		queue:   make(chan job, queueSize),
		workers: workers,
		log:     log.Named("dispatcher"),
		now:     time.Now,
	}
}

// Submit records a queued report and hands the batch to the workers without
// blocking. ErrQueueFull is returned when every slot is taken.
func (d *Dispatcher) Submit(ctx context.Context, kind Kind, filename string, data []byte) (*Report, error) {
	r := &Report{
		ID:          id.Prefixed(JobIDPrefix),
		Kind:        kind,
		Filename:    filename,
		Status:      StatusQueued,
		Skipped:     []RowError{},
		SubmittedAt: d.now().UTC(),
	}
	if err := d.reports.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	// the worker owns r once it is queued
	out := *r
	select {
	case d.queue <- job{report: r, data: data}:
		d.log.Info("import queued", zap.String("job", r.ID), zap.String("kind", string(kind)), zap.String("file", filename))
		return &out, nil
	default:
		d.finish(ctx, r, Result{Skipped: []RowError{}}, ErrQueueFull)
		return nil, ErrQueueFull
	}
}

func (d *Dispatcher) Report(ctx context.Context, jobID string) (*Report, error) {
	if !id.Valid(JobIDPrefix, jobID) {
		return nil, ErrReportNotFound
	}
	return d.reports.Get(ctx, jobID)
}

// Run blocks until ctx is cancelled. A batch already being processed is
// finished first, detached from ctx.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case j := <-d.queue:
					d.process(context.WithoutCancel(gctx), j)
				}
			}
		})
	}
	return g.Wait()
}

func (d *Dispatcher) process(ctx context.Context, j job) {
	r := j.report
	r.Status = StatusRunning
	if err := d.reports.Save(ctx, r); err != nil {
		d.log.Warn("save report", zap.String("job", r.ID), zap.Error(err))
	}

	res, err := d.imp.Import(ctx, r.Kind, bytes.NewReader(j.data))
	d.finish(ctx, r, res, err)
}

func (d *Dispatcher) finish(ctx context.Context, r *Report, res Result, err error) {
	now := d.now().UTC()
	r.FinishedAt = &now
	r.Accepted = res.Accepted
	r.Skipped = res.Skipped
	r.Status = StatusDone
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		d.log.Error("import failed", zap.String("job", r.ID), zap.Error(err))
	} else {
		d.log.Info("import finished", zap.String("job", r.ID),
			zap.Int("accepted", res.Accepted), zap.Int("skipped", len(res.Skipped)))
	}
	if err := d.reports.Save(ctx, r); err != nil {
		d.log.Warn("save report", zap.String("job", r.ID), zap.Error(err))
	}
}
