// Package store holds per-user key/value data for the bot.
//
// Every user has an isolated bucket; values are opaque bytes.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Store is a per-user key/value store. Implementations are safe for
// concurrent use; concurrent writes to the same key are last-write-wins.
type Store interface {
	Get(ctx context.Context, userID, key string) ([]byte, error)
	Set(ctx context.Context, userID, key string, value []byte) error
	Delete(ctx context.Context, userID, key string) error
	Close() error
}

// Bucket scopes a Store to one user.
type Bucket struct {
	store  Store
	userID string
}

// ForUser returns the bucket of userID.
func ForUser(s Store, userID string) Bucket {
	return Bucket{store: s, userID: userID}
}

// UserID returns the owner of the bucket.
func (b Bucket) UserID() string { return b.userID }

func (b Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	return b.store.Get(ctx, b.userID, key)
}

func (b Bucket) Set(ctx context.Context, key string, value []byte) error {
	return b.store.Set(ctx, b.userID, key, value)
}

// Delete is a no-op for missing keys.
func (b Bucket) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, b.userID, key)
}

// Exists reports whether key is set.
func (b Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.store.Get(ctx, b.userID, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
