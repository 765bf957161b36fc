package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rtmbot/internal/commands"
	"rtmbot/internal/observability"
	"rtmbot/internal/service"
	"rtmbot/internal/session"
	"rtmbot/internal/store"
	"rtmbot/internal/testutil"
)

const user = "alice@example.com"

// clock starts on Tuesday 2026-03-10 12:00 UTC.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// stamp formats the instant d after now as the service does.
func (c *clock) stamp(d time.Duration) string {
	return c.t.Add(d).Format(time.RFC3339)
}

type harness struct {
	d       *Dispatcher
	backend *testutil.FakeBackend
	svc     *testutil.FakeService
	store   store.Store
	clock   *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := testutil.NewFakeService()
	backend := testutil.NewFakeBackend(svc)
	st := store.NewMemoryStore()
	c := newClock()
	svc.Now = c.now

	d := NewDispatcher(backend, st,
		WithClock(c.now),
		WithLogger(observability.Discard()),
	)
	return &harness{d: d, backend: backend, svc: svc, store: st, clock: c}
}

// authorize stores a session holding a token for user.
func (h *harness) authorize(t *testing.T) {
	t.Helper()
	s := session.New()
	s.FinishAuth("token")
	if err := session.Save(context.Background(), store.ForUser(h.store, user), s); err != nil {
		t.Fatalf("save session: %v", err)
	}
}

func (h *harness) say(t *testing.T, msg string) string {
	t.Helper()
	reply, err := h.d.Handle(context.Background(), user, msg)
	if err != nil {
		t.Fatalf("Handle(%q): unexpected error: %v", msg, err)
	}
	return reply
}

func TestHandle_AuthenticateThenList(t *testing.T) {
	h := newHarness(t)

	first := h.say(t, "hi")
	expected := "rtmbot\n\nFirst you need to grant access to RTM to me.\n" +
		"Please follow the URL: https://auth.example.com/?frob=frob-1\n\nThen say 'hey' to me"
	if first != expected {
		t.Errorf("expected %q, got %q", expected, first)
	}

	second := h.say(t, "hey")
	if second != "Authenticated!\n\n"+commands.HelpText {
		t.Errorf("expected authenticated reply, got %q", second)
	}
	if got := h.backend.Calls[1]; got != "CompleteAuth frob-1" {
		t.Errorf("expected exchange of frob-1, got %q", got)
	}

	if third := h.say(t, "LIST"); third != "*no tasks*" {
		t.Errorf("expected %q, got %q", "*no tasks*", third)
	}
	if got := h.backend.Calls[len(h.backend.Calls)-1]; got != "Open token-for-frob-1" {
		t.Errorf("expected service opened with exchanged token, got %q", got)
	}
}

func TestHandle_FailedExchangeStartsOver(t *testing.T) {
	h := newHarness(t)
	h.backend.CompleteAuthErr = &service.Error{Message: "Invalid frob", Code: 101}

	h.say(t, "hi")
	if reply := h.say(t, "hey"); reply != RetryPrompt {
		t.Errorf("expected retry prompt, got %q", reply)
	}

	h.backend.CompleteAuthErr = nil
	reply := h.say(t, "hey again")
	if !strings.Contains(reply, "frob=frob-2") {
		t.Errorf("expected a fresh authorization URL, got %q", reply)
	}
}

func TestHandle_BeginAuthFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.BeginAuthErr = errors.New("connection refused")

	if reply := h.say(t, "hi"); reply != RetryPrompt {
		t.Errorf("expected retry prompt, got %q", reply)
	}

	s, err := session.Load(context.Background(), store.ForUser(h.store, user))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Stage() != session.Unauthenticated {
		t.Errorf("expected unauthenticated, got %v", s.Stage())
	}
}

func TestHandle_EmptyMessage(t *testing.T) {
	h := newHarness(t)

	if reply := h.say(t, "   \n"); reply != "" {
		t.Errorf("expected empty reply, got %q", reply)
	}
	if len(h.backend.Calls) != 0 {
		t.Errorf("expected no backend calls, got %v", h.backend.Calls)
	}
	if _, err := h.store.Get(context.Background(), user, session.Key); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected no session stored, got %v", err)
	}
}

func TestHandle_ListThenCompleteResolvesShownTask(t *testing.T) {
	h := newHarness(t)
	h.authorize(t)
	b := h.svc.AddSeries(service.TaskSeries{Name: "b", Task: service.Task{Due: h.clock.stamp(48 * time.Hour)}})
	a := h.svc.AddSeries(service.TaskSeries{Name: "a"})

	listing := h.say(t, "L")
	if listing != "1. a\n\n2. b ^Thursday\n\n" {
		t.Fatalf("unexpected listing %q", listing)
	}

	if reply := h.say(t, "C 2"); reply != "2 -- Task completed" {
		t.Errorf("unexpected reply %q", reply)
	}
	if s, _ := h.svc.Series(b); !s.Task.IsCompleted() {
		t.Error("expected task b completed")
	}
	if s, _ := h.svc.Series(a); s.Task.IsCompleted() {
		t.Error("expected task a untouched")
	}

	// Context survives across messages until the next LIST.
	if reply := h.say(t, "C 1"); reply != "1 -- Task completed" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandle_UnknownContextID(t *testing.T) {
	h := newHarness(t)
	h.authorize(t)

	reply := h.say(t, "D 4")
	if reply != "ERROR: There is no task with ID 4 in your current context" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandle_RemoteFailureBecomesReply(t *testing.T) {
	h := newHarness(t)
	h.authorize(t)
	h.svc.AddSeries(service.TaskSeries{Name: "a"})
	h.say(t, "LIST")

	h.svc.PostponeTaskErr = &service.Error{Message: "Service currently unavailable", Code: 105}
	if reply := h.say(t, "P 1"); reply != "ERROR: Service currently unavailable" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandle_ConfirmationPersists(t *testing.T) {
	h := newHarness(t)
	h.authorize(t)

	if reply := h.say(t, "CONFIRMATION"); reply != "Task add confirmation is now OFF" {
		t.Errorf("unexpected reply %q", reply)
	}
	if reply := h.say(t, "Buy milk"); reply != "" {
		t.Errorf("expected silent add, got %q", reply)
	}
	if reply := h.say(t, "CONFIRMATION"); reply != "Task add confirmation is now ON" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandle_LowercaseAliasAddsTask(t *testing.T) {
	h := newHarness(t)
	h.authorize(t)

	if reply := h.say(t, "c 1"); reply != "Task added: c 1" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandle_RendersInUserTimezone(t *testing.T) {
	h := newHarness(t)
	h.authorize(t)
	h.svc.SetSettings(service.Settings{Timezone: "Europe/Berlin", DefaultListID: testutil.DefaultListID})
	h.svc.AddSeries(service.TaskSeries{
		Name: "Call",
		Task: service.Task{Due: "2026-03-10T22:30:00Z", HasDueTime: true},
	})

	if reply := h.say(t, "LIST"); reply != "1. Call ^today 23:30\n\n" {
		t.Errorf("unexpected listing %q", reply)
	}
}

func TestHandle_SettingsRefetchedWhenStale(t *testing.T) {
	h := newHarness(t)
	h.authorize(t)
	h.svc.AddSeries(service.TaskSeries{Name: "a"})

	h.say(t, "LIST")
	h.clock.advance(30 * time.Minute)
	h.say(t, "LIST")
	if n := h.svc.CallCount("Settings"); n != 1 {
		t.Errorf("expected settings fetched once, got %d", n)
	}

	h.clock.advance(31 * time.Minute)
	h.say(t, "LIST")
	if n := h.svc.CallCount("Settings"); n != 2 {
		t.Errorf("expected settings refetched after an hour, got %d", n)
	}
}

func TestHandle_ResourceSharesSession(t *testing.T) {
	h := newHarness(t)
	h.authorize(t)
	h.svc.AddSeries(service.TaskSeries{Name: "a"})

	ctx := context.Background()
	if _, err := h.d.Handle(ctx, user+"/phone", "LIST"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := h.d.Handle(ctx, user+"/laptop", "C 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "1 -- Task completed" {
		t.Errorf("unexpected reply %q", reply)
	}
}

type failingStore struct {
	store.Store
	err error
}

func (s failingStore) Set(ctx context.Context, userID, key string, value []byte) error {
	return s.err
}

func TestHandle_StoreFailureIsReturned(t *testing.T) {
	svc := testutil.NewFakeService()
	boom := errors.New("disk full")
	d := NewDispatcher(testutil.NewFakeBackend(svc), failingStore{Store: store.NewMemoryStore(), err: boom},
		WithLogger(observability.Discard()))

	_, err := d.Handle(context.Background(), user, "hi")
	if !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestNormalizeUserID(t *testing.T) {
	tests := map[string]string{
		"alice@example.com":       "alice@example.com",
		"alice@example.com/Gajim": "alice@example.com",
		" bob@host/res/extra ":    "bob@host",
		"plain-id":                "plain-id",
		"chat/room":               "chat/room",
	}
	for in, want := range tests {
		if got := NormalizeUserID(in); got != want {
			t.Errorf("NormalizeUserID(%q): expected %q, got %q", in, want, got)
		}
	}
}
