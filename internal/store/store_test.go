package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behavior every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "alice", "session")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "alice", "session", []byte(`{"v":1}`)))
	got, err := s.Get(ctx, "alice", "session")
	require.NoError(t, err)
	require.Equal(t, `{"v":1}`, string(got))

	// Overwrite.
	require.NoError(t, s.Set(ctx, "alice", "session", []byte(`{"v":2}`)))
	got, err = s.Get(ctx, "alice", "session")
	require.NoError(t, err)
	require.Equal(t, `{"v":2}`, string(got))

	// Users are isolated.
	_, err = s.Get(ctx, "bob", "session")
	require.ErrorIs(t, err, ErrNotFound)

	b := ForUser(s, "alice")
	ok, err := b.Exists(ctx, "session")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Delete(ctx, "session"))
	ok, err = b.Exists(ctx, "session")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting a missing key is fine.
	require.NoError(t, b.Delete(ctx, "session"))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "u", "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "u", "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "me@example.com/phone", "session", []byte("data")))

	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := s2.Get(ctx, "me@example.com/phone", "session")
	require.NoError(t, err)
	require.Equal(t, "data", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "expected a single file inside the store directory")
}

func TestFileStore_RejectsEmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), url)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for _, u := range []string{"alice", "bob"} {
		_ = s.Delete(ctx, u, "session")
	}
	exerciseStore(t, s)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = NewStore(ctx, "memory:")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	dir := t.TempDir()
	s, err = NewStore(ctx, "file://"+dir)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	_, err = NewStore(ctx, "redis://localhost")
	require.Error(t, err)
}
