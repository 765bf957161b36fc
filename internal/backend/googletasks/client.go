// Package googletasks implements service.Backend using the Google Tasks API.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"rtmbot/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the default timeout for API calls.
	APITimeout = 30 * time.Second

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"

	authHint = "Then send me the code shown after granting access, or the whole URL you were redirected to."

	noteSeparator = "\n\n"
)

// Backend implements service.Backend. The frob of the handshake is the
// PKCE verifier; the user pastes the authorization code back in chat.
type Backend struct {
	oauth   *oauth2.Config
	timeout time.Duration
}

// NewBackend creates a backend from the contents of an OAuth client
// credentials file. redirectURL overrides the file's first redirect URI.
func NewBackend(clientJSON []byte, redirectURL string, timeout time.Duration) (*Backend, error) {
	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth client credentials: %w", err)
	}
	if redirectURL != "" {
		oauthConfig.RedirectURL = redirectURL
	}
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Backend{oauth: oauthConfig, timeout: timeout}, nil
}

// Name implements service.Backend.
func (b *Backend) Name() string { return "Google Tasks" }

// BeginAuth starts an offline PKCE authorization code flow.
func (b *Backend) BeginAuth(ctx context.Context) (service.AuthGrant, error) {
	verifier := oauth2.GenerateVerifier()
	authURL := b.oauth.AuthCodeURL("rtmbot", oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	return service.AuthGrant{Frob: verifier, URL: authURL, Hint: authHint}, nil
}

// CompleteAuth exchanges the code found in reply and returns the token
// as JSON.
func (b *Backend) CompleteAuth(ctx context.Context, frob, reply string) (string, error) {
	code := extractCode(reply)
	if code == "" {
		return "", errors.New("no authorization code in reply")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	token, err := b.oauth.Exchange(ctx, code, oauth2.VerifierOption(frob))
	if err != nil {
		return "", wrapError(err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractCode returns the authorization code from a pasted redirect URL
// or the bare code.
func extractCode(reply string) string {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ""
	}
	if u, err := url.Parse(reply); err == nil && u.Scheme != "" {
		return u.Query().Get("code")
	}
	if strings.ContainsAny(reply, " \t\n") {
		return ""
	}
	return reply
}

// Open returns a client acting with the JSON encoded token. The token
// source refreshes expired access tokens.
func (b *Backend) Open(ctx context.Context, token string) (service.Service, error) {
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(token), &tok); err != nil {
		return nil, fmt.Errorf("invalid stored token: %w", err)
	}
	httpClient := oauth2.NewClient(context.Background(), b.oauth.TokenSource(context.Background(), &tok))
	return newClient(ctx, b.timeout, option.WithHTTPClient(httpClient))
}

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	timeout time.Duration
	now     func() time.Time
}

var _ service.Service = (*Client)(nil)

func newClient(ctx context.Context, timeout time.Duration, opts ...option.ClientOption) (*Client, error) {
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, timeout: timeout, now: time.Now}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and API
// endpoint (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint string) (*Client, error) {
	return newClient(ctx, APITimeout, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
}

// BeginSession is a no-op: Google Tasks has no transactions.
func (c *Client) BeginSession(ctx context.Context) error { return nil }

// ListTasks returns open tasks of every list. The API has no query
// language, so filter is not applied.
func (c *Client) ListTasks(ctx context.Context, filter string) ([]service.TaskList, error) {
	lists, err := c.ListLists(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result []service.TaskList
	for _, list := range lists {
		found := service.TaskList{ID: list.ID}
		err := c.svc.Tasks.List(list.ID).
			MaxResults(PageSize).
			ShowCompleted(false).
			ShowDeleted(false).
			ShowHidden(false).
			Pages(ctx, func(resp *tasks.Tasks) error {
				for _, t := range resp.Items {
					found.Series = append(found.Series, toSeries(list.ID, t))
				}
				return nil
			})
		if err != nil {
			return nil, wrapError(err)
		}
		if len(found.Series) > 0 {
			result = append(result, found)
		}
	}
	return result, nil
}

// AddTask creates a task. Google Tasks does not parse the name.
func (c *Client) AddTask(ctx context.Context, name string, parse bool, listID string) (service.TaskList, error) {
	if listID == "" {
		listID = DefaultListID
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(listID, &tasks.Task{Title: name}).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, wrapError(err)
	}
	return single(listID, created), nil
}

// AddNote appends title and text to the task's notes field.
func (c *Client) AddNote(ctx context.Context, ref service.TaskRef, title, text string) (service.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	t, err := c.svc.Tasks.Get(ref.ListID, ref.TaskID).Context(ctx).Do()
	if err != nil {
		return service.Note{}, wrapError(err)
	}

	body := text
	if title != "" {
		body = title + "\n" + text
	}
	notes := body
	if t.Notes != "" {
		notes = t.Notes + noteSeparator + body
	}

	if _, err := c.svc.Tasks.Patch(ref.ListID, ref.TaskID, &tasks.Task{Notes: notes}).Context(ctx).Do(); err != nil {
		return service.Note{}, wrapError(err)
	}
	return service.Note{Title: title, Text: text}, nil
}

// CompleteTask marks a task as completed.
func (c *Client) CompleteTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	return c.patch(ctx, ref, &tasks.Task{Status: "completed"})
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(ref.ListID, ref.TaskID).Context(ctx).Do(); err != nil {
		return service.TaskList{}, wrapError(err)
	}
	return service.TaskList{ID: ref.ListID, Series: []service.TaskSeries{{
		ID:     ref.SeriesID,
		ListID: ref.ListID,
		Task:   service.Task{ID: ref.TaskID, Deleted: c.now().UTC().Format(time.RFC3339), Priority: service.PriorityNone},
	}}}, nil
}

// PostponeTask moves the due date one day forward. Tasks without a due
// date or overdue tasks become due today.
func (c *Client) PostponeTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	t, err := c.svc.Tasks.Get(ref.ListID, ref.TaskID).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, wrapError(err)
	}
	return c.patch(ctx, ref, &tasks.Task{Due: postponeDue(t.Due, c.now())})
}

// postponeDue returns the RFC 3339 due date following due.
func postponeDue(due string, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d, err := time.Parse(time.RFC3339, due)
	if err != nil || d.Before(today) {
		return today.Format(time.RFC3339)
	}
	return d.UTC().AddDate(0, 0, 1).Format(time.RFC3339)
}

// AddTags is not supported: Google Tasks has no tags.
func (c *Client) AddTags(ctx context.Context, ref service.TaskRef, tags string) (service.TaskList, error) {
	return service.TaskList{}, service.ErrUnsupported
}

// RemoveTags is not supported: Google Tasks has no tags.
func (c *Client) RemoveTags(ctx context.Context, ref service.TaskRef, tags string) (service.TaskList, error) {
	return service.TaskList{}, service.ErrUnsupported
}

// MoveTask moves a task to another list.
func (c *Client) MoveTask(ctx context.Context, ref service.TaskRef, toListID string) (service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	moved, err := c.svc.Tasks.Move(ref.ListID, ref.TaskID).DestinationTasklist(toListID).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, wrapError(err)
	}
	return single(toListID, moved), nil
}

// ListLists returns all task lists in API order. The default list keeps
// the @default alias.
func (c *Client) ListLists(ctx context.Context) ([]service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// First, get the default list to know its real ID
	defaultList, err := c.svc.Tasklists.Get(DefaultListID).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}

	var result []service.TaskList
	err = c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			id := list.Id
			if id == defaultList.Id {
				id = DefaultListID
			}
			result = append(result, service.TaskList{ID: id, Name: list.Title})
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// Settings reports UTC and the default list: the API exposes no account
// settings.
func (c *Client) Settings(ctx context.Context) (service.Settings, error) {
	return service.Settings{Timezone: "UTC", DefaultListID: DefaultListID}, nil
}

// Timezones returns only UTC.
func (c *Client) Timezones(ctx context.Context) ([]service.Timezone, error) {
	return []service.Timezone{{ID: "0", Name: "UTC"}}, nil
}

func (c *Client) patch(ctx context.Context, ref service.TaskRef, update *tasks.Task) (service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	t, err := c.svc.Tasks.Patch(ref.ListID, ref.TaskID, update).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, wrapError(err)
	}
	return single(ref.ListID, t), nil
}

func single(listID string, t *tasks.Task) service.TaskList {
	return service.TaskList{ID: listID, Series: []service.TaskSeries{toSeries(listID, t)}}
}

// toSeries maps a task onto a series holding itself as the only
// occurrence. Notes become one note per blank-line separated block.
func toSeries(listID string, t *tasks.Task) service.TaskSeries {
	s := service.TaskSeries{
		ID:     t.Id,
		ListID: listID,
		Name:   t.Title,
		Task: service.Task{
			ID:        t.Id,
			Due:       t.Due,
			Completed: derefString(t.Completed),
			Priority:  service.PriorityNone,
		},
	}
	if t.Deleted {
		s.Task.Deleted = t.Updated
	}
	for _, l := range t.Links {
		if l.Link != "" {
			s.URL = l.Link
			break
		}
	}
	if t.Notes != "" {
		for _, block := range strings.Split(t.Notes, noteSeparator) {
			if block = strings.TrimSpace(block); block != "" {
				s.Notes = append(s.Notes, service.Note{Text: block})
			}
		}
	}
	return s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// Check for timeout
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(errStr, "context deadline exceeded") {
		return &service.Error{Message: "request timed out"}
	}

	// Check for auth errors
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
		return &service.Error{Message: "token expired or revoked", Code: 401}
	}

	// Check for not found
	if strings.Contains(errStr, "404") {
		return &service.Error{Message: "not found", Code: 404}
	}

	return err
}
