// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rtmbot/internal/grammar"
	"rtmbot/internal/output"
	"rtmbot/internal/service"
	"rtmbot/internal/session"
)

// Command executes one parsed chat message for an authenticated user.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns the keywords that select the command in chat.
	Aliases() []string

	// Synopsis returns a short description for logs and help output.
	Synopsis() string

	// Run executes the command and returns the reply. Errors are turned
	// into an "ERROR: ..." reply by the caller.
	Run(ctx context.Context, env *Env, cmd grammar.Command) (string, error)
}

// ZoneFunc returns the user's timezone for rendering.
type ZoneFunc func(ctx context.Context) (*output.Zone, error)

// Env is what a command works with while handling one message.
type Env struct {
	Service service.Service
	Session *session.Session
	Now     time.Time
	Logger  *slog.Logger

	// Zone loads the user's timezone. A nil Zone renders in UTC.
	Zone ZoneFunc

	begun bool
}

// Begin starts the remote session before the first mutating call of the
// message. Later calls are no-ops.
func (e *Env) Begin(ctx context.Context) error {
	if e.begun {
		return nil
	}
	if err := e.Service.BeginSession(ctx); err != nil {
		return err
	}
	e.begun = true
	return nil
}

func (e *Env) zone(ctx context.Context) (*output.Zone, error) {
	if e.Zone == nil {
		return nil, nil
	}
	return e.Zone(ctx)
}

// confirm returns msg when the user wants confirmations.
func (e *Env) confirm(msg string) string {
	if e.Session.ConfirmationsEnabled() {
		return msg
	}
	return ""
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// UserError is a malformed or unresolvable command.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

// ErrorReply renders err as the reply to the user.
func ErrorReply(err error) string {
	var remote *service.Error
	if errors.As(err, &remote) {
		return "ERROR: " + remote.Message
	}
	return "ERROR: " + err.Error()
}

// KeyOf returns the registry name handling c, or "" for a no-op.
func KeyOf(c grammar.Command) string {
	switch c := c.(type) {
	case grammar.Help:
		return "help"
	case grammar.Confirmation:
		return "confirmation"
	case grammar.List:
		return "list"
	case grammar.TaskOp:
		return c.Op.String()
	case grammar.AddTask:
		return "add"
	default:
		return ""
	}
}

func aliasesOf(op grammar.Op) []string {
	for _, f := range grammar.Families() {
		if f.Op == op {
			return f.Aliases
		}
	}
	return nil
}
