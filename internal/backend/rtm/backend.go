package rtm

import (
	"context"
	"errors"
	"net/url"

	"rtmbot/internal/service"
)

// Backend implements service.Backend for Remember The Milk.
type Backend struct {
	client *Client
}

// NewBackend creates a backend from cfg.
func NewBackend(cfg Config) (*Backend, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Backend{client: c}, nil
}

// Name implements service.Backend.
func (b *Backend) Name() string { return "RTM" }

// BeginAuth requests a frob and the URL where the user grants delete
// permissions for it.
func (b *Backend) BeginAuth(ctx context.Context) (service.AuthGrant, error) {
	var rsp struct {
		Frob string `json:"frob"`
	}
	if err := b.client.call(ctx, "rtm.auth.getFrob", "", "", nil, &rsp); err != nil {
		return service.AuthGrant{}, err
	}
	if rsp.Frob == "" {
		return service.AuthGrant{}, errors.New("rtm.auth.getFrob: empty frob")
	}
	return service.AuthGrant{Frob: rsp.Frob, URL: b.client.AuthURL(PermsDelete, rsp.Frob)}, nil
}

// CompleteAuth exchanges frob for a token. The reply text is not used:
// the frob alone identifies the grant.
func (b *Backend) CompleteAuth(ctx context.Context, frob, reply string) (string, error) {
	var rsp struct {
		Auth struct {
			Token string `json:"token"`
			Perms string `json:"perms"`
		} `json:"auth"`
	}
	params := url.Values{"frob": {frob}}
	if err := b.client.call(ctx, "rtm.auth.getToken", "", "", params, &rsp); err != nil {
		return "", err
	}
	if rsp.Auth.Token == "" {
		return "", errors.New("rtm.auth.getToken: empty token")
	}
	return rsp.Auth.Token, nil
}

// Open returns a Service acting with token. No request is made until
// the first call.
func (b *Backend) Open(ctx context.Context, token string) (service.Service, error) {
	if token == "" {
		return nil, errors.New("rtm: missing auth token")
	}
	return &Service{client: b.client, token: token}, nil
}
