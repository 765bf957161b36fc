// Package rtm implements service.Backend using the Remember The Milk REST API.
package rtm

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"rtmbot/internal/service"
)

const (
	// DefaultRESTURL is the REST endpoint of the API.
	DefaultRESTURL = "https://api.rememberthemilk.com/services/rest/"

	// DefaultAuthURL is where users grant access to an application.
	DefaultAuthURL = "https://www.rememberthemilk.com/services/auth/"

	// APITimeout is the default timeout for API calls.
	APITimeout = 30 * time.Second

	// PermsDelete lets the bot read, change and delete tasks.
	PermsDelete = "delete"

	maxResponseBytes = 8 << 20
)

// Methods that require an auth token.
var needsAuth = map[string]bool{
	"rtm.timelines.create":  true,
	"rtm.tasks.add":         true,
	"rtm.tasks.delete":      true,
	"rtm.tasks.notes.add":   true,
	"rtm.tasks.getList":     true,
	"rtm.lists.getList":     true,
	"rtm.tasks.complete":    true,
	"rtm.tasks.postpone":    true,
	"rtm.tasks.addTags":     true,
	"rtm.tasks.removeTags":  true,
	"rtm.tasks.moveTo":      true,
	"rtm.settings.getList":  true,
	"rtm.timezones.getList": true,
}

// Methods that must run inside a timeline.
var needsTimeline = map[string]bool{
	"rtm.tasks.add":        true,
	"rtm.tasks.delete":     true,
	"rtm.tasks.notes.add":  true,
	"rtm.tasks.complete":   true,
	"rtm.tasks.postpone":   true,
	"rtm.tasks.addTags":    true,
	"rtm.tasks.removeTags": true,
	"rtm.tasks.moveTo":     true,
}

// Config holds the application credentials and endpoints.
type Config struct {
	APIKey       string
	SharedSecret string

	// RESTURL and AuthURL default to the public endpoints.
	RESTURL string
	AuthURL string

	// Timeout bounds every API call. Defaults to APITimeout.
	Timeout time.Duration

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client signs and sends API requests. It holds no per-user state and is
// safe for concurrent use.
type Client struct {
	apiKey  string
	secret  string
	restURL string
	authURL string
	timeout time.Duration
	http    *http.Client
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("rtm: api key is required")
	}
	if cfg.SharedSecret == "" {
		return nil, errors.New("rtm: shared secret is required")
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		secret:  cfg.SharedSecret,
		restURL: cfg.RESTURL,
		authURL: cfg.AuthURL,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
	}
	if c.restURL == "" {
		c.restURL = DefaultRESTURL
	}
	if c.authURL == "" {
		c.authURL = DefaultAuthURL
	}
	if c.timeout <= 0 {
		c.timeout = APITimeout
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	return c, nil
}

// sign returns the api_sig of params: the md5 of the shared secret
// followed by every key and value in key order.
func (c *Client) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.secret)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params.Get(k))
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// AuthURL returns the signed desktop authorization URL for frob.
func (c *Client) AuthURL(perms, frob string) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("perms", perms)
	params.Set("frob", frob)
	params.Set("api_sig", c.sign(params))
	return c.authURL + "?" + params.Encode()
}

// call invokes method and decodes the "rsp" member of the reply into out.
// token and timeline are only sent to methods that take them.
func (c *Client) call(ctx context.Context, method, token, timeline string, params url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	for k, v := range params {
		if len(v) > 0 && v[0] != "" {
			form.Set(k, v[0])
		}
	}
	form.Set("api_key", c.apiKey)
	form.Set("method", method)
	form.Set("format", "json")
	if token != "" && needsAuth[method] {
		form.Set("auth_token", token)
	}
	if timeline != "" && needsTimeline[method] {
		form.Set("timeline", timeline)
	}
	form.Set("api_sig", c.sign(form))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return wrapError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected HTTP status %s", method, resp.Status)
	}

	var env struct {
		Rsp json.RawMessage `json:"rsp"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: invalid response: %w", method, err)
	}

	var status struct {
		Stat string `json:"stat"`
		Err  struct {
			Code string `json:"code"`
			Msg  string `json:"msg"`
		} `json:"err"`
	}
	if err := json.Unmarshal(env.Rsp, &status); err != nil {
		return fmt.Errorf("%s: invalid response: %w", method, err)
	}
	if status.Stat == "fail" {
		code, _ := strconv.Atoi(status.Err.Code)
		return &service.Error{Message: status.Err.Msg, Code: code}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Rsp, out); err != nil {
		return fmt.Errorf("%s: invalid response: %w", method, err)
	}
	return nil
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("request timed out")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("cannot reach Remember The Milk: %w", urlErr.Err)
	}
	return err
}
