// Package session persists the per-user conversation state: the
// authorization stage, cached settings and the task context.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rtmbot/internal/service"
	"rtmbot/internal/store"
	"rtmbot/internal/taskctx"
)

// Key is the bucket key holding the session record.
const Key = "session"

// Version of the stored record.
const Version = 1

// DefaultSettingsTTL is how long cached settings stay fresh.
const DefaultSettingsTTL = time.Hour

// Stage is the authorization state of a user.
type Stage int

const (
	Unauthenticated Stage = iota
	FrobPending
	Authenticated
)

func (s Stage) String() string {
	switch s {
	case FrobPending:
		return "frob-pending"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is the stored state of one user.
type Session struct {
	Version           int               `json:"version"`
	PendingFrob       string            `json:"pending_frob,omitempty"`
	AuthToken         string            `json:"auth_token,omitempty"`
	Quiet             bool              `json:"quiet,omitempty"`
	Settings          *service.Settings `json:"settings,omitempty"`
	SettingsFetchedAt time.Time         `json:"settings_fetched_at,omitzero"`
	Context           *taskctx.Context  `json:"context"`
}

// New returns the state of a user never seen before.
func New() *Session {
	return &Session{Version: Version, Context: taskctx.New()}
}

// Stage derives the authorization state from the stored fields.
func (s *Session) Stage() Stage {
	switch {
	case s.AuthToken != "":
		return Authenticated
	case s.PendingFrob != "":
		return FrobPending
	default:
		return Unauthenticated
	}
}

// ConfirmationsEnabled reports whether mutating commands reply with a
// confirmation.
func (s *Session) ConfirmationsEnabled() bool { return !s.Quiet }

// ToggleConfirmations flips the confirmation setting and returns the new
// value.
func (s *Session) ToggleConfirmations() bool {
	s.Quiet = !s.Quiet
	return !s.Quiet
}

// StartAuth records a handshake that waits for the user's approval.
func (s *Session) StartAuth(frob string) {
	s.PendingFrob = frob
	s.AuthToken = ""
}

// FinishAuth stores the token and drops the pending handshake.
func (s *Session) FinishAuth(token string) {
	s.AuthToken = token
	s.PendingFrob = ""
}

// ResetAuth forgets the handshake; the next message starts over.
func (s *Session) ResetAuth() {
	s.PendingFrob = ""
	s.AuthToken = ""
}

// SettingsStale reports whether the cached settings must be refetched.
func (s *Session) SettingsStale(now time.Time, ttl time.Duration) bool {
	if s.Settings == nil || s.SettingsFetchedAt.IsZero() {
		return true
	}
	return now.Sub(s.SettingsFetchedAt) >= ttl
}

// CacheSettings replaces the cached settings.
func (s *Session) CacheSettings(settings service.Settings, now time.Time) {
	s.Settings = &settings
	s.SettingsFetchedAt = now
}

// Load reads the session of the bucket's user. A missing record yields a
// fresh session.
func Load(ctx context.Context, b store.Bucket) (*Session, error) {
	data, err := b.Get(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Version > Version {
		return nil, fmt.Errorf("decode session: unsupported version %d", s.Version)
	}
	if s.Context == nil {
		s.Context = taskctx.New()
	}
	s.Version = Version
	return s, nil
}

// Save writes the session of the bucket's user.
func Save(ctx context.Context, b store.Bucket, s *Session) error {
	s.Version = Version
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := b.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
