// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by backends that cannot perform an operation.
var ErrUnsupported = errors.New("not supported by this task service")

// Service defines the interface for task backend operations.
// Commands never import a backend SDK directly.
type Service interface {
	// BeginSession prepares the service for mutating calls.
	// It must be called before any add, complete, delete, postpone,
	// tag or move operation.
	BeginSession(ctx context.Context) error

	// ListTasks returns the lists holding tasks that match filter.
	ListTasks(ctx context.Context, filter string) ([]TaskList, error)

	// AddTask creates a task. With parse set the service interprets
	// dates, tags and lists embedded in name. An empty listID means the
	// user's default list.
	AddTask(ctx context.Context, name string, parse bool, listID string) (TaskList, error)

	// AddNote attaches a note to the task.
	AddNote(ctx context.Context, ref TaskRef, title, text string) (Note, error)

	// CompleteTask marks a task as completed.
	CompleteTask(ctx context.Context, ref TaskRef) (TaskList, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, ref TaskRef) (TaskList, error)

	// PostponeTask moves the due date of a task forward.
	PostponeTask(ctx context.Context, ref TaskRef) (TaskList, error)

	// AddTags adds a comma separated list of tags.
	AddTags(ctx context.Context, ref TaskRef, tags string) (TaskList, error)

	// RemoveTags removes a comma separated list of tags.
	RemoveTags(ctx context.Context, ref TaskRef, tags string) (TaskList, error)

	// MoveTask moves a task to another list. The returned list holds the
	// moved series with its new list id.
	MoveTask(ctx context.Context, ref TaskRef, toListID string) (TaskList, error)

	// ListLists returns all list definitions.
	ListLists(ctx context.Context) ([]TaskList, error)

	// Settings returns the user's account settings.
	Settings(ctx context.Context) (Settings, error)

	// Timezones returns the service's timezone table.
	Timezones(ctx context.Context) ([]Timezone, error)
}

// AuthGrant is the first half of the authorization handshake.
type AuthGrant struct {
	// Frob is the opaque credential kept until the handshake completes.
	Frob string

	// URL is where the user grants access.
	URL string

	// Hint tells the user what to send back after granting access.
	Hint string
}

// Authenticator performs the two-step authorization handshake.
type Authenticator interface {
	// BeginAuth requests a new frob and the matching authorization URL.
	BeginAuth(ctx context.Context) (AuthGrant, error)

	// CompleteAuth exchanges the frob for a permanent token. reply is the
	// text of the user's next message; backends that need a code pasted
	// back by the user read it from there.
	CompleteAuth(ctx context.Context, frob, reply string) (string, error)
}

// Backend is a task service implementation.
type Backend interface {
	Authenticator

	// Name identifies the backend in logs and help output.
	Name() string

	// Open returns a Service acting on behalf of the token's owner.
	Open(ctx context.Context, token string) (Service, error)
}
