package annotation

import (
	"context"
	"fmt"
	"sync"

	"codenote/internal/annotate"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]annotate.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]annotate.Record)}
}

func (s *MemoryStore) Put(_ context.Context, rec annotate.Record) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeID(rec.ID)
	if err != nil {
		return err
	}
	rec.ID = id
	rec.Explanation = append([]string(nil), rec.Explanation...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (annotate.Record, error) {
	if s == nil {
		return annotate.Record{}, fmt.Errorf("store is nil")
	}
	id, err := normalizeID(id)
	if err != nil {
		return annotate.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[id]
	if !ok {
		return annotate.Record{}, ErrNotFound
	}
	rec.Explanation = append([]string(nil), rec.Explanation...)
	return rec, nil
}
