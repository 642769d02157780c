package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store intended for tests, examples and the CLI
// "memory" backend. Nothing survives the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]string{}}
}

func (s *MemoryStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := CheckKey(ctx, key); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	value, ok := s.items[key]
	s.mu.RUnlock()
	return value, ok, nil
}

func (s *MemoryStore) SetItem(ctx context.Context, key, value string) error {
	if err := CheckKey(ctx, key); err != nil {
		return err
	}

	s.mu.Lock()
	if s.items == nil {
		s.items = map[string]string{}
	}
	s.items[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, key string) error {
	if err := CheckKey(ctx, key); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len reports how many keys are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
