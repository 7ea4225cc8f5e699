package statistics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultKey = "investment_statistics"
	DefaultTTL = 300 * time.Second
)

// Cache is a byte-level key/value store with expiry. Get reports a miss with
// ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Options struct {
	Key string
	TTL time.Duration
}

type Service struct {
	loans loan.Repository
	flows cashflow.Repository
	cache Cache
	key   string
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time

	group singleflight.Group
	// bumped on every Invalidate; a compute that started under an older
	// generation does not write its result back
	gen atomic.Uint64
}

var _ cashflow.Listener = (*Service)(nil)

func NewService(loans loan.Repository, flows cashflow.Repository, cache Cache, opts Options, log *zap.Logger) *Service {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		loans: loans,
		flows: flows,
		cache: cache,
		key:   opts.Key,
		ttl:   opts.TTL,
		log:   log.Named("statistics"),
		now:   time.Now,
	}
}

// Get returns the cached snapshot or computes, caches and returns a fresh one.
// Concurrent misses share a single computation.
func (s *Service) Get(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.cached(ctx); ok {
		return snap, nil
	}

	v, err, _ := s.group.Do(s.key, func() (any, error) {
		gen := s.gen.Load()
		snap, err := s.compute(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		s.storeIfCurrent(ctx, gen, snap)
		return snap, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Invalidate drops the cached snapshot. Cache errors are logged only.
func (s *Service) Invalidate(ctx context.Context) {
	s.gen.Add(1)
	if err := s.cache.Delete(ctx, s.key); err != nil {
		s.log.Warn("cache delete failed", zap.String("key", s.key), zap.Error(err))
	}
}

func (s *Service) OnCashFlowCommitted(ctx context.Context, _ string) {
	s.Invalidate(ctx)
}

func (s *Service) cached(ctx context.Context) (Snapshot, bool) {
	b, ok, err := s.cache.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("cache get failed", zap.String("key", s.key), zap.Error(err))
		return Snapshot{}, false
	}
	if !ok {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		s.log.Warn("cached snapshot unreadable", zap.String("key", s.key), zap.Error(err))
		return Snapshot{}, false
	}
	return snap, true
}

// storeIfCurrent caches snap unless an Invalidate happened since gen was
// read. An Invalidate that races the write is caught by the second check,
// which drops the entry again.
func (s *Service) storeIfCurrent(ctx context.Context, gen uint64, snap Snapshot) {
	if gen != s.gen.Load() {
		return
	}
	b, err := json.Marshal(snap)
	if err != nil {
		s.log.Warn("encode snapshot", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, s.key, b, s.ttl); err != nil {
		s.log.Warn("cache set failed", zap.String("key", s.key), zap.Error(err))
		return
	}
	if gen != s.gen.Load() {
		if err := s.cache.Delete(ctx, s.key); err != nil {
			s.log.Warn("cache delete failed", zap.String("key", s.key), zap.Error(err))
		}
	}
}

func (s *Service) compute(ctx context.Context) (Snapshot, error) {
	loans, err := s.loans.ListAll(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list loans: %w", err)
	}
	flows, err := s.flows.ListAll(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list cash flows: %w", err)
	}
	snap := Aggregate(loans, flows)
	snap.ComputedAt = s.now().UTC()
	return snap, nil
}
