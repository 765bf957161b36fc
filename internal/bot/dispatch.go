// Package bot turns chat messages into replies: it tracks the
// authorization handshake of every user and routes authenticated
// messages to the matching command.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rtmbot/internal/commands"
	"rtmbot/internal/grammar"
	"rtmbot/internal/observability"
	"rtmbot/internal/output"
	"rtmbot/internal/service"
	"rtmbot/internal/session"
	"rtmbot/internal/store"
)

const (
	// RetryPrompt is the reply when the authorization handshake fails.
	RetryPrompt = "Something went wrong. Please try to say something more"

	// DefaultBotName introduces the authorization prompt.
	DefaultBotName = "rtmbot"

	defaultAuthHint = "Then say 'hey' to me"
)

// Dispatcher handles chat messages for many users.
type Dispatcher struct {
	backend     service.Backend
	store       store.Store
	registry    *commands.Registry
	metrics     *observability.Metrics
	logger      *slog.Logger
	now         func() time.Time
	settingsTTL time.Duration
	botName     string
	zones       *zoneCache
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRegistry replaces the default command registry.
func WithRegistry(r *commands.Registry) Option {
	return func(d *Dispatcher) { d.registry = r }
}

// WithMetrics records message metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithSettingsTTL sets how long cached account settings stay fresh.
func WithSettingsTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		if ttl > 0 {
			d.settingsTTL = ttl
		}
	}
}

// WithBotName sets the name shown in the authorization prompt.
func WithBotName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.botName = name
		}
	}
}

// NewDispatcher creates a dispatcher for backend, keeping user state in st.
func NewDispatcher(backend service.Backend, st store.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:     backend,
		store:       st,
		registry:    commands.DefaultRegistry,
		logger:      slog.Default(),
		now:         time.Now,
		settingsTTL: session.DefaultSettingsTTL,
		botName:     DefaultBotName,
		zones:       newZoneCache(time.Hour),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes one message from userID and returns the reply. The
// user's session is read once and written once, also when the command
// fails. Only store failures are returned as errors.
func (d *Dispatcher) Handle(ctx context.Context, userID, text string) (string, error) {
	msg := strings.TrimSpace(text)
	if msg == "" {
		return "", nil
	}

	start := d.now()
	userID = NormalizeUserID(userID)
	logger := d.logger.With("user", userID)
	bucket := store.ForUser(d.store, userID)

	sess, err := session.Load(ctx, bucket)
	if err != nil {
		return "", err
	}

	var o outcome
	switch sess.Stage() {
	case session.Unauthenticated:
		o = d.beginAuth(ctx, logger, sess)
	case session.FrobPending:
		o = d.completeAuth(ctx, logger, sess, msg)
	default:
		o = d.run(ctx, logger, sess, msg)
	}

	if err := session.Save(ctx, bucket, sess); err != nil {
		return "", err
	}

	d.metrics.ObserveHandle(o.command, o.result, d.now().Sub(start))
	logger.Debug("message handled", "command", o.command, "outcome", o.result)
	return o.reply, nil
}

type outcome struct {
	reply   string
	command string
	result  string
}

func (d *Dispatcher) beginAuth(ctx context.Context, logger *slog.Logger, sess *session.Session) outcome {
	grant, err := d.backend.BeginAuth(ctx)
	if err != nil {
		logger.Warn("authorization request failed", "backend", d.backend.Name(), "error", err)
		d.metrics.AuthEvent("request_failed")
		return outcome{reply: RetryPrompt, command: "auth", result: "remote_error"}
	}

	sess.StartAuth(grant.Frob)
	d.metrics.AuthEvent("requested")

	hint := grant.Hint
	if hint == "" {
		hint = defaultAuthHint
	}
	reply := fmt.Sprintf("%s\n\nFirst you need to grant access to %s to me.\nPlease follow the URL: %s\n\n%s",
		d.botName, d.backend.Name(), grant.URL, hint)
	return outcome{reply: reply, command: "auth", result: "ok"}
}

func (d *Dispatcher) completeAuth(ctx context.Context, logger *slog.Logger, sess *session.Session, msg string) outcome {
	token, err := d.backend.CompleteAuth(ctx, sess.PendingFrob, msg)
	if err != nil {
		logger.Warn("token exchange failed", "backend", d.backend.Name(), "error", err)
		d.metrics.AuthEvent("rejected")
		sess.ResetAuth()
		return outcome{reply: RetryPrompt, command: "auth", result: "remote_error"}
	}

	sess.FinishAuth(token)
	d.metrics.AuthEvent("granted")
	logger.Info("user authorized", "backend", d.backend.Name())
	return outcome{reply: "Authenticated!\n\n" + commands.HelpText, command: "auth", result: "ok"}
}

func (d *Dispatcher) run(ctx context.Context, logger *slog.Logger, sess *session.Session, msg string) outcome {
	parsed := grammar.Parse(msg)
	cmd, ok := d.registry.Lookup(parsed)
	if !ok {
		return outcome{command: "noop", result: "ok"}
	}
	name := cmd.Name()

	svc, err := d.backend.Open(ctx, sess.AuthToken)
	if err != nil {
		logger.Error("open task service failed", "command", name, "error", err)
		return outcome{reply: commands.ErrorReply(err), command: name, result: "remote_error"}
	}

	env := &commands.Env{
		Service: svc,
		Session: sess,
		Now:     d.now(),
		Logger:  logger,
		Zone:    d.zoneLoader(svc, sess),
	}

	reply, err := cmd.Run(ctx, env, parsed)
	if err != nil {
		return outcome{reply: commands.ErrorReply(err), command: name, result: d.classify(logger, name, err)}
	}
	return outcome{reply: reply, command: name, result: "ok"}
}

// classify logs a command failure and names its outcome.
func (d *Dispatcher) classify(logger *slog.Logger, command string, err error) string {
	var user *commands.UserError
	if errors.As(err, &user) || isUnknownID(err) {
		logger.Info("command rejected", "command", command, "error", err)
		return "user_error"
	}

	code := "unknown"
	var remote *service.Error
	if errors.As(err, &remote) {
		code = strconv.Itoa(remote.Code)
	}
	d.metrics.RemoteError(command, code)
	logger.Error("command failed", "command", command, "code", code, "error", err)
	return "remote_error"
}

// zoneLoader returns the user's timezone, refetching stale settings and
// consulting the shared timezone table.
func (d *Dispatcher) zoneLoader(svc service.Service, sess *session.Session) commands.ZoneFunc {
	return func(ctx context.Context) (*output.Zone, error) {
		now := d.now()
		if sess.SettingsStale(now, d.settingsTTL) {
			settings, err := svc.Settings(ctx)
			if err != nil {
				return nil, err
			}
			sess.CacheSettings(settings, now)
		}

		table, err := d.zones.get(ctx, svc, now)
		if err != nil {
			return nil, err
		}
		zone := output.ZoneFor(sess.Settings.Timezone, table)
		return &zone, nil
	}
}
