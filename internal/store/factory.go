package store

import (
	"context"
	"fmt"
	"strings"
)

// NewStore opens the store named by rawURL:
//
//	""  or "memory:"           in-memory
//	"file:<dir>"               one JSON file per user under dir
//	"sqlite:<path>"            SQLite database file
//	"postgres://..."           PostgreSQL
func NewStore(ctx context.Context, rawURL string) (Store, error) {
	rawURL = strings.TrimSpace(rawURL)
	scheme, rest, _ := strings.Cut(rawURL, ":")
	rest = strings.TrimPrefix(rest, "//")

	switch strings.ToLower(scheme) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(rest)
	case "sqlite", "sqlite3":
		return NewSQLiteStore(rest)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported store %q", rawURL)
	}
}
