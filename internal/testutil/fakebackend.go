package testutil

import (
	"context"
	"fmt"
	"sync"

	"rtmbot/internal/service"
)

// FakeBackend is a service.Backend handing out frobs and tokens in
// sequence and opening Service for every token.
type FakeBackend struct {
	mu       sync.Mutex
	Service  *FakeService
	issued   int
	BackName string

	// Error injection for testing
	BeginAuthErr    error
	CompleteAuthErr error
	OpenErr         error

	// Calls records every method invoked, e.g. "CompleteAuth frob-1".
	Calls []string
}

// NewFakeBackend creates a FakeBackend around svc.
func NewFakeBackend(svc *FakeService) *FakeBackend {
	return &FakeBackend{Service: svc, BackName: "RTM"}
}

// Name implements service.Backend.
func (b *FakeBackend) Name() string { return b.BackName }

// BeginAuth implements service.Authenticator.
func (b *FakeBackend) BeginAuth(ctx context.Context) (service.AuthGrant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, "BeginAuth")
	if b.BeginAuthErr != nil {
		return service.AuthGrant{}, b.BeginAuthErr
	}
	b.issued++
	frob := fmt.Sprintf("frob-%d", b.issued)
	return service.AuthGrant{
		Frob: frob,
		URL:  "https://auth.example.com/?frob=" + frob,
	}, nil
}

// CompleteAuth implements service.Authenticator.
func (b *FakeBackend) CompleteAuth(ctx context.Context, frob, reply string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, "CompleteAuth "+frob)
	if b.CompleteAuthErr != nil {
		return "", b.CompleteAuthErr
	}
	return "token-for-" + frob, nil
}

// Open implements service.Backend.
func (b *FakeBackend) Open(ctx context.Context, token string) (service.Service, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, "Open "+token)
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	return b.Service, nil
}
