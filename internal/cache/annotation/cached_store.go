package annotation

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"codenote/internal/annotate"
	annotationrepo "codenote/internal/gateway/repository/annotation"
)

type Store = annotationrepo.Store

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        10 * time.Minute,
		MaxEntries: 1024,
	}
}

type MetricsSnapshot struct {
	Hits           uint64
	Misses         uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	hits           atomic.Uint64
	misses         atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:           m.hits.Load(),
		Misses:         m.misses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a write-through, read-through cache over an origin Store.
// Records are immutable once stored, so a TTL only bounds memory.
type CachedStore struct {
	origin  Store
	cache   *expirable.LRU[string, annotate.Record]
	metrics Metrics
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &CachedStore{
		origin: origin,
		cache:  expirable.NewLRU[string, annotate.Record](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, rec annotate.Record) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, rec); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.cache.Add(strings.TrimSpace(rec.ID), clone(rec))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (annotate.Record, error) {
	key := strings.TrimSpace(id)
	if rec, ok := s.cache.Get(key); ok {
		s.metrics.hits.Add(1)
		return clone(rec), nil
	}
	s.metrics.misses.Add(1)
	s.metrics.originReads.Add(1)

	rec, err := s.origin.Get(ctx, id)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return annotate.Record{}, err
	}
	s.cache.Add(key, clone(rec))
	return rec, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	return s.metrics.snapshot()
}

func clone(rec annotate.Record) annotate.Record {
	rec.Explanation = append([]string(nil), rec.Explanation...)
	return rec
}
