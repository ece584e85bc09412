package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a process-local Persister. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.Mutex
	sets   map[string][]string
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string][]string)}
}

func (s *MemoryStore) LoadSet(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	ids := slices.Clone(s.sets[key])
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *MemoryStore) SaveSet(_ context.Context, key string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.sets[key] = normalize(ids)
	return nil
}

func (s *MemoryStore) AddMember(_ context.Context, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.sets[key] = normalize(append(slices.Clone(s.sets[key]), id))
	return nil
}

func (s *MemoryStore) RemoveMember(_ context.Context, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.sets[key] = slices.DeleteFunc(slices.Clone(s.sets[key]), func(v string) bool { return v == id })
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
