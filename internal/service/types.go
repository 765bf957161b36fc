package service

import (
	"fmt"
	"strings"
)

// PriorityNone is the priority value of a task without a priority.
const PriorityNone = "N"

// TaskRef identifies a single task occurrence on the remote service.
// None of the three parts is unique on its own.
type TaskRef struct {
	ListID   string `json:"list_id"`
	SeriesID string `json:"series_id"`
	TaskID   string `json:"task_id"`
}

// String returns the legacy "<list>-<series>-<task>" notation.
func (r TaskRef) String() string {
	return r.ListID + "-" + r.SeriesID + "-" + r.TaskID
}

// Task is a single due occurrence inside a task series.
type Task struct {
	ID         string
	Due        string // ISO8601 UTC, empty if no due date
	HasDueTime bool
	Added      string
	Completed  string // completion timestamp, empty if open
	Deleted    string // deletion timestamp, empty if not deleted
	Priority   string // "1", "2", "3" or PriorityNone
	Postponed  int
	Estimate   string
}

// IsCompleted reports whether the task has been completed.
func (t Task) IsCompleted() bool { return t.Completed != "" }

// IsDeleted reports whether the task has been deleted.
func (t Task) IsDeleted() bool { return t.Deleted != "" }

// Note is a titled note attached to a task series.
type Note struct {
	ID    string
	Title string
	Text  string
}

// Recurrence is the raw repeat rule of a task series, e.g.
// "FREQ=WEEKLY;INTERVAL=1;BYDAY=2TU".
type Recurrence struct {
	Every bool
	Rule  string
}

// TaskSeries groups the recurring data of a task with its current occurrence.
type TaskSeries struct {
	ID         string
	ListID     string
	Name       string
	URL        string
	Tags       []string
	Notes      []Note
	Recurrence *Recurrence
	Task       Task
}

// Ref returns the reference of the series' current task.
func (s TaskSeries) Ref() TaskRef {
	return TaskRef{ListID: s.ListID, SeriesID: s.ID, TaskID: s.Task.ID}
}

// TaskList is either a list definition (Name set) or a container of
// task series returned by task queries and mutations.
type TaskList struct {
	ID       string
	Name     string
	Smart    bool
	Deleted  bool
	Archived bool
	Series   []TaskSeries
}

// Settings holds the user's remote account settings.
type Settings struct {
	Timezone      string `json:"timezone"`
	DateFormat    string `json:"date_format"`
	TimeFormat    string `json:"time_format"`
	DefaultListID string `json:"default_list_id"`
	Language      string `json:"language"`
}

// Timezone describes a named zone and its fixed offset in seconds.
type Timezone struct {
	ID            string
	Name          string
	DST           bool
	Offset        int
	CurrentOffset int
}

// Error is a failure reported by the remote task service.
type Error struct {
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e == nil {
		return "remote error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "remote error"
	}
	if e.Code == 0 {
		return msg
	}
	return fmt.Sprintf("%s (code %d)", msg, e.Code)
}
