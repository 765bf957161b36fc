package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	tasks "google.golang.org/api/tasks/v1"

	"rtmbot/internal/service"
)

const clientJSON = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"s",
"auth_uri":"https://accounts.example.com/o/oauth2/auth","token_uri":"https://oauth2.example.com/token",
"redirect_uris":["http://localhost"]}}`

func TestExtractCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"4/0AbCd", "4/0AbCd"},
		{"  4/0AbCd \n", "4/0AbCd"},
		{"http://localhost/?state=rtmbot&code=4/xyz", "4/xyz"},
		{"http://localhost/?state=rtmbot&error=denied", ""},
		{"hey there", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractCode(tt.in); got != tt.want {
			t.Errorf("extractCode(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestPostponeDue(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 4, 0, 0, time.UTC)
	tests := []struct {
		due  string
		want string
	}{
		{"", "2026-03-10T00:00:00Z"},
		{"2026-03-01T00:00:00Z", "2026-03-10T00:00:00Z"},
		{"2026-03-10T00:00:00Z", "2026-03-11T00:00:00Z"},
		{"2026-03-31T00:00:00Z", "2026-04-01T00:00:00Z"},
		{"garbage", "2026-03-10T00:00:00Z"},
	}
	for _, tt := range tests {
		if got := postponeDue(tt.due, now); got != tt.want {
			t.Errorf("postponeDue(%q): expected %q, got %q", tt.due, tt.want, got)
		}
	}
}

func TestToSeries(t *testing.T) {
	completed := "2026-03-09T10:00:00Z"
	got := toSeries("L1", &tasks.Task{
		Id:        "T1",
		Title:     "Report",
		Due:       "2026-03-12T00:00:00Z",
		Completed: &completed,
		Notes:     "Note\nfirst\n\nsecond",
		Links:     []*tasks.TaskLinks{{Link: "https://mail.example.com/1"}},
	})

	expected := service.TaskSeries{
		ID:     "T1",
		ListID: "L1",
		Name:   "Report",
		URL:    "https://mail.example.com/1",
		Notes:  []service.Note{{Text: "Note\nfirst"}, {Text: "second"}},
		Task: service.Task{
			ID:        "T1",
			Due:       "2026-03-12T00:00:00Z",
			Completed: completed,
			Priority:  service.PriorityNone,
		},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("toSeries mismatch (-want +got):\n%s", diff)
	}
	if got.Ref() != (service.TaskRef{ListID: "L1", SeriesID: "T1", TaskID: "T1"}) {
		t.Errorf("unexpected ref %v", got.Ref())
	}
}

func TestBeginAuth_UsesPKCE(t *testing.T) {
	b, err := NewBackend([]byte(clientJSON), "", 0)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	grant, err := b.BeginAuth(context.Background())
	if err != nil {
		t.Fatalf("BeginAuth: %v", err)
	}
	if grant.Frob == "" || grant.Hint == "" {
		t.Errorf("expected verifier and hint, got %+v", grant)
	}

	u, err := url.Parse(grant.URL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		t.Errorf("expected PKCE challenge, got %v", q)
	}
	if q.Get("access_type") != "offline" {
		t.Errorf("expected offline access, got %q", q.Get("access_type"))
	}
	if strings.Contains(grant.URL, grant.Frob) {
		t.Error("verifier must not appear in the URL")
	}
}

func TestCompleteAuth_RequiresCode(t *testing.T) {
	b, err := NewBackend([]byte(clientJSON), "", 0)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if _, err := b.CompleteAuth(context.Background(), "verifier", "hey"); err == nil {
		t.Error("expected error for a reply without a code")
	}
}

func TestOpen_InvalidToken(t *testing.T) {
	b, err := NewBackend([]byte(clientJSON), "", 0)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if _, err := b.Open(context.Background(), "not json"); err == nil {
		t.Error("expected error for a malformed token")
	}
}

func TestListTasks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks/v1/users/@me/lists/@default", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"real-default","title":"My Tasks"}`)
	})
	mux.HandleFunc("/tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"real-default","title":"My Tasks"},{"id":"work","title":"Work"}]}`)
	})
	mux.HandleFunc("/tasks/v1/lists/@default/tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("showCompleted") != "false" {
			t.Errorf("expected open tasks only, got %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"items":[{"id":"a","title":"Buy milk"}]}`)
	})
	mux.HandleFunc("/tasks/v1/lists/work/tasks", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewWithHTTPClient(context.Background(), srv.Client(), srv.URL+"/")
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	lists, err := c.ListTasks(context.Background(), "status:incomplete")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	expected := []service.TaskList{{
		ID: DefaultListID,
		Series: []service.TaskSeries{{
			ID: "a", ListID: DefaultListID, Name: "Buy milk",
			Task: service.Task{ID: "a", Priority: service.PriorityNone},
		}},
	}}
	if diff := cmp.Diff(expected, lists); diff != "" {
		t.Errorf("ListTasks mismatch (-want +got):\n%s", diff)
	}
}

func TestTagsUnsupported(t *testing.T) {
	c := &Client{}
	if _, err := c.AddTags(context.Background(), service.TaskRef{}, "x"); !errors.Is(err, service.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if _, err := c.RemoveTags(context.Background(), service.TaskRef{}, "x"); !errors.Is(err, service.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestWrapError(t *testing.T) {
	var remote *service.Error
	if err := wrapError(errors.New("googleapi: Error 404: Not Found")); !errors.As(err, &remote) || remote.Code != 404 {
		t.Errorf("expected not found error, got %v", err)
	}
	if err := wrapError(context.DeadlineExceeded); err == nil || err.Error() != "request timed out" {
		t.Errorf("expected timeout error, got %v", err)
	}
	if wrapError(nil) != nil {
		t.Error("expected nil")
	}
}
