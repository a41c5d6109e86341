package annotation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codenote/internal/annotate"
	annotationrepo "codenote/internal/gateway/repository/annotation"
)

type fakeOrigin struct {
	mu      sync.Mutex
	data    map[string]annotate.Record
	gets    int
	failPut bool
}

func newFakeOrigin() *fakeOrigin {
	return &fakeOrigin{data: map[string]annotate.Record{}}
}

func (f *fakeOrigin) Put(_ context.Context, rec annotate.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errors.New("put failed")
	}
	f.data[rec.ID] = rec
	return nil
}

func (f *fakeOrigin) Get(_ context.Context, id string) (annotate.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	rec, ok := f.data[id]
	if !ok {
		return annotate.Record{}, annotationrepo.ErrNotFound
	}
	return rec, nil
}

func TestCachedStore_WriteThroughAndReadThrough(t *testing.T) {
	origin := newFakeOrigin()
	origin.data["old"] = annotate.Record{ID: "old", AnnotatedCode: "a"}
	store := NewCachedStore(origin, CacheConfig{TTL: time.Minute, MaxEntries: 8})
	ctx := context.Background()

	if err := store.Put(ctx, annotate.Record{ID: "new", AnnotatedCode: "b", Explanation: []string{"e"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "new")
	if err != nil || got.AnnotatedCode != "b" {
		t.Fatalf("get new: %+v %v", got, err)
	}
	got.Explanation[0] = "mutated"

	for i := 0; i < 3; i++ {
		if _, err := store.Get(ctx, "old"); err != nil {
			t.Fatalf("get old: %v", err)
		}
	}
	again, _ := store.Get(ctx, "new")
	if again.Explanation[0] != "e" {
		t.Fatalf("cache leaked a mutable slice")
	}
	if origin.gets != 1 {
		t.Fatalf("origin reads: got=%d want=1", origin.gets)
	}
	m := store.Metrics()
	if m.Hits != 4 || m.Misses != 1 || m.OriginWrites != 1 {
		t.Fatalf("metrics: %+v", m)
	}
}

func TestCachedStore_ErrorsAreNotCached(t *testing.T) {
	origin := newFakeOrigin()
	store := NewCachedStore(origin, DefaultCacheConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := store.Get(ctx, "nope"); !errors.Is(err, annotationrepo.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if origin.gets != 2 || store.Metrics().OriginReadErr != 2 {
		t.Fatalf("misses must reach the origin: gets=%d", origin.gets)
	}

	origin.failPut = true
	if err := store.Put(ctx, annotate.Record{ID: "x", AnnotatedCode: "c"}); err == nil {
		t.Fatalf("expected put failure")
	}
	if _, err := store.Get(ctx, "x"); !errors.Is(err, annotationrepo.ErrNotFound) {
		t.Fatalf("failed write must not be served from cache: %v", err)
	}
}

func TestCachedStore_ExpiresEntries(t *testing.T) {
	origin := newFakeOrigin()
	store := NewCachedStore(origin, CacheConfig{TTL: 20 * time.Millisecond, MaxEntries: 4})
	ctx := context.Background()
	if err := store.Put(ctx, annotate.Record{ID: "t", AnnotatedCode: "c"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := store.Get(ctx, "t"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if origin.gets != 1 {
		t.Fatalf("expired entry should be re-read from origin, gets=%d", origin.gets)
	}
}
