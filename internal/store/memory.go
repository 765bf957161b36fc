package store

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore keeps everything in process memory. Data is lost on exit.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, userID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.users[userID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (s *MemoryStore) Set(_ context.Context, userID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.users[userID]
	if !ok {
		bucket = make(map[string][]byte)
		s.users[userID] = bucket
	}
	bucket[key] = bytes.Clone(value)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users[userID], key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
