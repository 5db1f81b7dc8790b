package store

import (
	"context"
	"sync"
	"time"

	"github.com/genstudio/api/internal/model"
)

// MemoryMediaStore is an in-memory MediaStore with the same transition
// semantics as the Redis implementation. Used in tests and single-node
// development without Redis.
type MemoryMediaStore struct {
	mu    sync.Mutex
	items map[string]*model.MediaItem
}

func NewMemoryMediaStore() *MemoryMediaStore {
	return &MemoryMediaStore{items: make(map[string]*model.MediaItem)}
}

func (s *MemoryMediaStore) Create(ctx context.Context, item *model.MediaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *MemoryMediaStore) Get(ctx context.Context, id string) (*model.MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *MemoryMediaStore) Complete(ctx context.Context, id string, resultURIs []string, generationTime float64) error {
	now := time.Now()
	return s.transition(id, func(item *model.MediaItem) {
		item.Status = model.JobStatusCompleted
		item.ResultURIs = resultURIs
		item.GenerationTime = generationTime
		item.CompletedAt = &now
	})
}

func (s *MemoryMediaStore) Fail(ctx context.Context, id string, errMsg string) error {
	now := time.Now()
	return s.transition(id, func(item *model.MediaItem) {
		item.Status = model.JobStatusFailed
		item.Error = &errMsg
		item.CompletedAt = &now
	})
}

// All returns a snapshot of every stored item, in no particular order.
func (s *MemoryMediaStore) All() []*model.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.MediaItem, 0, len(s.items))
	for _, item := range s.items {
		cp := *item
		out = append(out, &cp)
	}
	return out
}

func (s *MemoryMediaStore) transition(id string, mutate func(*model.MediaItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if item.Status.IsTerminal() {
		return ErrTerminal
	}
	mutate(item)
	return nil
}
