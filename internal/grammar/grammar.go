// Package grammar classifies chat messages into commands.
//
// Matching runs an ordered list of matchers and the first match wins:
//
//  1. HELP
//  2. CONFIRMATION
//  3. LIST, L or ? with an optional filter
//  4. task commands addressed by id (C, D, P, T, -T and their aliases)
//  5. a new task with a note (name on the first line, note below)
//  6. a new task
//
// Keywords are case-sensitive. Text that looks like a task command but
// does not fit its shape falls through to "new task".
package grammar

import (
	"net/url"
	"regexp"
	"strings"

	"rtmbot/internal/service"
)

// Command is the result of parsing one message.
type Command interface {
	command()
}

// Noop is an empty message.
type Noop struct{}

// Help shows the command list.
type Help struct{}

// Confirmation toggles confirmation replies.
type Confirmation struct{}

// List queries tasks with Filter, derived from the user's Query.
type List struct {
	Query  string
	Filter string
}

// Target addresses the tasks of a task command: either one legacy
// fully-qualified reference or one or more context ids.
type Target struct {
	Legacy     *service.TaskRef
	ContextIDs []string
}

// TaskOp is a command applied to existing tasks.
type TaskOp struct {
	Op     Op
	Target Target
	Param  string // tag text for AddTags and RemoveTags
}

// Note is the note of a new task.
type Note struct {
	Title string
	Text  string
}

// AddTask creates a task from smart-add text.
type AddTask struct {
	Name string
	Note *Note
}

func (Noop) command()         {}
func (Help) command()         {}
func (Confirmation) command() {}
func (List) command()         {}
func (TaskOp) command()       {}
func (AddTask) command()      {}

// DefaultNoteTitle is used when a note does not start with a URL.
const DefaultNoteTitle = "Note"

type matcher struct {
	name  string
	match func(msg string) (Command, bool)
}

// matchers is ordered; the first match wins.
var matchers = []matcher{
	{"help", matchLiteral("HELP", Help{})},
	{"confirmation", matchLiteral("CONFIRMATION", Confirmation{})},
	{"list", matchList},
	{"task", matchTaskOp},
	{"add-with-note", matchAddWithNote},
	{"add", matchAdd},
}

// Parse classifies a message.
func Parse(message string) Command {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return Noop{}
	}
	for _, m := range matchers {
		if cmd, ok := m.match(msg); ok {
			return cmd
		}
	}
	return Noop{}
}

func matchLiteral(literal string, cmd Command) func(string) (Command, bool) {
	return func(msg string) (Command, bool) {
		if msg == literal {
			return cmd, true
		}
		return nil, false
	}
}

var listPattern = regexp.MustCompile(`^(?:L(?:IST)?|\?)(\s+.+)?$`)

func matchList(msg string) (Command, bool) {
	m := listPattern.FindStringSubmatch(msg)
	if m == nil {
		return nil, false
	}
	query := strings.TrimSpace(m[1])
	return List{Query: query, Filter: Filter(query)}, true
}

// Filter derives the remote search filter from a LIST query.
func Filter(query string) string {
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return "status:incomplete"
	case !strings.Contains(query, ":"):
		return "(" + query + " OR list:" + query + " OR tag:" + query +
			" OR location:" + query + ") AND status:incomplete"
	case !strings.Contains(query, "status:"):
		return query + " AND status:incomplete"
	default:
		return query
	}
}

var idSeparator = regexp.MustCompile(`\s*,\s*`)

func matchTaskOp(msg string) (Command, bool) {
	for _, f := range families {
		if m := f.legacy.FindStringSubmatch(msg); m != nil {
			op := TaskOp{
				Op: f.Op,
				Target: Target{Legacy: &service.TaskRef{
					ListID:   m[1],
					SeriesID: m[2],
					TaskID:   m[3],
				}},
			}
			if f.NeedsParam {
				op.Param = strings.TrimSpace(m[4])
			}
			return op, true
		}

		if m := f.context.FindStringSubmatch(msg); m != nil {
			op := TaskOp{
				Op:     f.Op,
				Target: Target{ContextIDs: idSeparator.Split(m[1], -1)},
			}
			if f.NeedsParam {
				op.Param = strings.TrimSpace(m[2])
			}
			return op, true
		}
	}
	return nil, false
}

var withNotePattern = regexp.MustCompile(`(?s)^([^\n]+)\n(.+)$`)

func matchAddWithNote(msg string) (Command, bool) {
	m := withNotePattern.FindStringSubmatch(msg)
	if m == nil {
		return nil, false
	}
	note := parseNote(m[2])
	return AddTask{Name: strings.TrimSpace(m[1]), Note: &note}, true
}

func matchAdd(msg string) (Command, bool) {
	return AddTask{Name: msg}, true
}

// parseNote uses a leading URL line as the note title.
func parseNote(text string) Note {
	text = strings.TrimSpace(text)
	if m := withNotePattern.FindStringSubmatch(text); m != nil && isAbsoluteURL(m[1]) {
		return Note{Title: strings.TrimSpace(m[1]), Text: m[2]}
	}
	return Note{Title: DefaultNoteTitle, Text: text}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
