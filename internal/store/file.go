package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// FileStore keeps one JSON document per user in a directory. Writes
// replace the document atomically.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("file store: create directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.dir, "user-"+url.PathEscape(userID)+".json")
}

func (s *FileStore) load(userID string) (map[string][]byte, error) {
	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read %s: %w", userID, err)
	}

	doc := map[string][]byte{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("file store: decode %s: %w", userID, err)
	}
	return doc, nil
}

func (s *FileStore) save(userID string, doc map[string][]byte) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: encode %s: %w", userID, err)
	}
	if err := atomic.WriteFile(s.path(userID), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("file store: write %s: %w", userID, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, userID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(_ context.Context, userID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(userID)
	if err != nil {
		return err
	}
	doc[key] = bytes.Clone(value)
	return s.save(userID, doc)
}

func (s *FileStore) Delete(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(userID)
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return s.save(userID, doc)
}

func (s *FileStore) Close() error { return nil }
