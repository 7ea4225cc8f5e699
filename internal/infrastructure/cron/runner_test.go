package cronrunner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type ctxKey struct{}

func TestRunner_RunsJobWithBaseContext(t *testing.T) {
	base := context.WithValue(context.Background(), ctxKey{}, "base")
	r := New(zap.NewNop(), base)

	var runs atomic.Int32
	var sawBase atomic.Bool
	if _, err := r.Add("* * * * * *", func(ctx context.Context) {
		if ctx.Value(ctxKey{}) == "base" {
			sawBase.Store(true)
		}
		runs.Add(1)
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	r.Start()
	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	r.Stop()

	if runs.Load() == 0 {
		t.Fatalf("job never ran")
	}
	if !sawBase.Load() {
		t.Fatalf("job did not receive base context")
	}
}

func TestRunner_RejectsBadSpec(t *testing.T) {
	r := New(nil, nil)
	if _, err := r.Add("every tuesday", func(context.Context) {}); err == nil {
		t.Fatalf("expected parse error")
	}
}
