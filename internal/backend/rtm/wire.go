package rtm

import (
	"bytes"
	"encoding/json"
	"strconv"

	"rtmbot/internal/service"
)

// many decodes members the API sends as a single object when there is
// one element and as an array otherwise.
type many[T any] []T

func (m *many[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = nil
		return nil
	}
	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*m = items
		return nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*m = many[T]{one}
	return nil
}

// flag is a "0"/"1" boolean.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = n != 0
		return nil
	}
	*f = s == "1" || s == "true"
	return nil
}

// emptyOr decodes wrappers the API replaces with an empty array when
// they have no content, e.g. "tags": [] versus "tags": {"tag": [...]}.
func emptyOr(b []byte, v any) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == '[' || bytes.Equal(b, []byte("null")) {
		return nil
	}
	return json.Unmarshal(b, v)
}

type wireTags struct {
	Tag many[string] `json:"tag"`
}

func (t *wireTags) UnmarshalJSON(b []byte) error {
	type plain wireTags
	return emptyOr(b, (*plain)(t))
}

type wireNote struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"$t"`
}

type wireNotes struct {
	Note many[wireNote] `json:"note"`
}

func (n *wireNotes) UnmarshalJSON(b []byte) error {
	type plain wireNotes
	return emptyOr(b, (*plain)(n))
}

type wireRRule struct {
	Every flag   `json:"every"`
	Rule  string `json:"$t"`
}

type wireTask struct {
	ID         string `json:"id"`
	Due        string `json:"due"`
	HasDueTime flag   `json:"has_due_time"`
	Added      string `json:"added"`
	Completed  string `json:"completed"`
	Deleted    string `json:"deleted"`
	Priority   string `json:"priority"`
	Postponed  string `json:"postponed"`
	Estimate   string `json:"estimate"`
}

type wireSeries struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	URL   string         `json:"url"`
	RRule *wireRRule     `json:"rrule"`
	Tags  wireTags       `json:"tags"`
	Notes wireNotes      `json:"notes"`
	Task  many[wireTask] `json:"task"`
}

type wireList struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Deleted    flag             `json:"deleted"`
	Archived   flag             `json:"archived"`
	Smart      flag             `json:"smart"`
	TaskSeries many[wireSeries] `json:"taskseries"`
}

type wireSettings struct {
	Timezone    string `json:"timezone"`
	DateFormat  string `json:"dateformat"`
	TimeFormat  string `json:"timeformat"`
	DefaultList string `json:"defaultlist"`
	Language    string `json:"language"`
}

type wireTimezone struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DST           flag   `json:"dst"`
	Offset        string `json:"offset"`
	CurrentOffset string `json:"current_offset"`
}

func (n wireNote) toService() service.Note {
	return service.Note{ID: n.ID, Title: n.Title, Text: n.Text}
}

// toService converts a list. Every task of a series becomes its own
// TaskSeries entry so each occurrence can be addressed.
func (l wireList) toService() service.TaskList {
	list := service.TaskList{
		ID:       l.ID,
		Name:     l.Name,
		Smart:    bool(l.Smart),
		Deleted:  bool(l.Deleted),
		Archived: bool(l.Archived),
	}
	for _, ws := range l.TaskSeries {
		base := service.TaskSeries{
			ID:     ws.ID,
			ListID: l.ID,
			Name:   ws.Name,
			URL:    ws.URL,
			Tags:   []string(ws.Tags.Tag),
		}
		for _, n := range ws.Notes.Note {
			base.Notes = append(base.Notes, n.toService())
		}
		if ws.RRule != nil && ws.RRule.Rule != "" {
			base.Recurrence = &service.Recurrence{Every: bool(ws.RRule.Every), Rule: ws.RRule.Rule}
		}
		for _, wt := range ws.Task {
			s := base
			s.Task = wt.toService()
			list.Series = append(list.Series, s)
		}
	}
	return list
}

func (t wireTask) toService() service.Task {
	postponed, _ := strconv.Atoi(t.Postponed)
	priority := t.Priority
	if priority == "" {
		priority = service.PriorityNone
	}
	return service.Task{
		ID:         t.ID,
		Due:        t.Due,
		HasDueTime: bool(t.HasDueTime),
		Added:      t.Added,
		Completed:  t.Completed,
		Deleted:    t.Deleted,
		Priority:   priority,
		Postponed:  postponed,
		Estimate:   t.Estimate,
	}
}

func (s wireSettings) toService() service.Settings {
	return service.Settings{
		Timezone:      s.Timezone,
		DateFormat:    s.DateFormat,
		TimeFormat:    s.TimeFormat,
		DefaultListID: s.DefaultList,
		Language:      s.Language,
	}
}

func (z wireTimezone) toService() service.Timezone {
	offset, _ := strconv.Atoi(z.Offset)
	current, _ := strconv.Atoi(z.CurrentOffset)
	return service.Timezone{
		ID:            z.ID,
		Name:          z.Name,
		DST:           bool(z.DST),
		Offset:        offset,
		CurrentOffset: current,
	}
}

func convertLists(in []wireList) []service.TaskList {
	out := make([]service.TaskList, 0, len(in))
	for _, l := range in {
		out = append(out, l.toService())
	}
	return out
}
