// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"rtmbot/internal/service"
)

// DefaultListID is the ID of the list tasks are added to.
const DefaultListID = "100"

// ErrTaskNotFound mirrors the remote error for an unknown task.
var ErrTaskNotFound = &service.Error{Message: "Task not found", Code: 340}

// FakeService is an in-memory implementation of service.Service for testing.
// It does not evaluate search filters: ListTasks returns every open task.
type FakeService struct {
	mu        sync.RWMutex
	lists     []service.TaskList
	series    []service.TaskSeries
	settings  service.Settings
	timezones []service.Timezone
	nextID    int

	// Now stamps completion and deletion times.
	Now func() time.Time

	// Error injection for testing
	BeginSessionErr error
	ListTasksErr    error
	AddTaskErr      error
	AddNoteErr      error
	CompleteTaskErr error
	DeleteTaskErr   error
	PostponeTaskErr error
	AddTagsErr      error
	RemoveTagsErr   error
	MoveTaskErr     error
	ListListsErr    error
	SettingsErr     error
	TimezonesErr    error

	// Calls records every method invoked, e.g. "CompleteTask 100-1-1".
	Calls []string
}

// NewFakeService creates a FakeService with an "Inbox" default list,
// UTC settings and a small timezone table.
func NewFakeService() *FakeService {
	return &FakeService{
		lists: []service.TaskList{
			{ID: DefaultListID, Name: "Inbox"},
		},
		settings: service.Settings{
			Timezone:      "UTC",
			DefaultListID: DefaultListID,
			Language:      "en-US",
		},
		timezones: []service.Timezone{
			{ID: "1", Name: "UTC"},
			{ID: "2", Name: "Europe/Berlin", Offset: 3600, DST: true},
			{ID: "3", Name: "America/New_York", Offset: -18000},
		},
		nextID: 1,
		Now:    time.Now,
	}
}

// AddList adds a list definition.
func (f *FakeService) AddList(id, name string, smart bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, service.TaskList{ID: id, Name: name, Smart: smart})
}

// AddSeries stores a task series and returns its reference. Missing ids
// are generated; a missing list id means the default list.
func (f *FakeService) AddSeries(s service.TaskSeries) service.TaskRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addSeriesLocked(s).Ref()
}

func (f *FakeService) addSeriesLocked(s service.TaskSeries) service.TaskSeries {
	if s.ListID == "" {
		s.ListID = f.settings.DefaultListID
	}
	if s.ID == "" {
		s.ID = strconv.Itoa(f.nextID)
		f.nextID++
	}
	if s.Task.ID == "" {
		s.Task.ID = s.ID
	}
	if s.Task.Priority == "" {
		s.Task.Priority = service.PriorityNone
	}
	f.series = append(f.series, s)
	return s
}

// SetSettings replaces the account settings.
func (f *FakeService) SetSettings(s service.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = s
}

// Series returns the stored series behind ref.
func (f *FakeService) Series(ref service.TaskRef) (service.TaskSeries, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := f.indexLocked(ref)
	if i < 0 {
		return service.TaskSeries{}, false
	}
	return f.series[i], true
}

// CallCount returns how many recorded calls start with prefix.
func (f *FakeService) CallCount(prefix string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeService) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *FakeService) indexLocked(ref service.TaskRef) int {
	for i, s := range f.series {
		if s.ListID == ref.ListID && s.ID == ref.SeriesID && s.Task.ID == ref.TaskID {
			return i
		}
	}
	return -1
}

func (f *FakeService) listLocked(id string) service.TaskList {
	for _, l := range f.lists {
		if l.ID == id {
			return service.TaskList{ID: l.ID, Name: l.Name, Smart: l.Smart}
		}
	}
	return service.TaskList{ID: id}
}

// mutate applies fn to the series behind ref and returns its list.
func (f *FakeService) mutate(ref service.TaskRef, fn func(s *service.TaskSeries)) (service.TaskList, error) {
	i := f.indexLocked(ref)
	if i < 0 {
		return service.TaskList{}, ErrTaskNotFound
	}
	fn(&f.series[i])
	list := f.listLocked(f.series[i].ListID)
	list.Series = []service.TaskSeries{f.series[i]}
	return list, nil
}

func (f *FakeService) stamp() string {
	return f.Now().UTC().Format(time.RFC3339)
}

// BeginSession implements service.Service.
func (f *FakeService) BeginSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("BeginSession")
	return f.BeginSessionErr
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, filter string) ([]service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTasks %s", filter)
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}

	var result []service.TaskList
	for _, l := range f.lists {
		list := service.TaskList{ID: l.ID, Name: l.Name}
		for _, s := range f.series {
			if s.ListID == l.ID && !s.Task.IsCompleted() && !s.Task.IsDeleted() {
				list.Series = append(list.Series, s)
			}
		}
		if len(list.Series) > 0 {
			result = append(result, list)
		}
	}
	return result, nil
}

// AddTask implements service.Service. The name is stored verbatim.
func (f *FakeService) AddTask(ctx context.Context, name string, parse bool, listID string) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddTask %s", name)
	if f.AddTaskErr != nil {
		return service.TaskList{}, f.AddTaskErr
	}

	s := f.addSeriesLocked(service.TaskSeries{ListID: listID, Name: name})
	list := f.listLocked(s.ListID)
	list.Series = []service.TaskSeries{s}
	return list, nil
}

// AddNote implements service.Service.
func (f *FakeService) AddNote(ctx context.Context, ref service.TaskRef, title, text string) (service.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddNote %s %s", ref, title)
	if f.AddNoteErr != nil {
		return service.Note{}, f.AddNoteErr
	}

	note := service.Note{ID: "n" + strconv.Itoa(f.nextID), Title: title, Text: text}
	f.nextID++
	if _, err := f.mutate(ref, func(s *service.TaskSeries) {
		s.Notes = append(s.Notes, note)
	}); err != nil {
		return service.Note{}, err
	}
	return note, nil
}

// CompleteTask implements service.Service.
func (f *FakeService) CompleteTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CompleteTask %s", ref)
	if f.CompleteTaskErr != nil {
		return service.TaskList{}, f.CompleteTaskErr
	}
	return f.mutate(ref, func(s *service.TaskSeries) { s.Task.Completed = f.stamp() })
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask %s", ref)
	if f.DeleteTaskErr != nil {
		return service.TaskList{}, f.DeleteTaskErr
	}
	return f.mutate(ref, func(s *service.TaskSeries) { s.Task.Deleted = f.stamp() })
}

// PostponeTask implements service.Service.
func (f *FakeService) PostponeTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PostponeTask %s", ref)
	if f.PostponeTaskErr != nil {
		return service.TaskList{}, f.PostponeTaskErr
	}
	return f.mutate(ref, func(s *service.TaskSeries) { s.Task.Postponed++ })
}

// AddTags implements service.Service.
func (f *FakeService) AddTags(ctx context.Context, ref service.TaskRef, tags string) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddTags %s %s", ref, tags)
	if f.AddTagsErr != nil {
		return service.TaskList{}, f.AddTagsErr
	}
	return f.mutate(ref, func(s *service.TaskSeries) {
		for _, tag := range splitCSV(tags) {
			if !slices.Contains(s.Tags, tag) {
				s.Tags = append(s.Tags, tag)
			}
		}
	})
}

// RemoveTags implements service.Service.
func (f *FakeService) RemoveTags(ctx context.Context, ref service.TaskRef, tags string) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveTags %s %s", ref, tags)
	if f.RemoveTagsErr != nil {
		return service.TaskList{}, f.RemoveTagsErr
	}
	remove := splitCSV(tags)
	return f.mutate(ref, func(s *service.TaskSeries) {
		s.Tags = slices.DeleteFunc(s.Tags, func(tag string) bool {
			return slices.Contains(remove, tag)
		})
	})
}

// MoveTask implements service.Service.
func (f *FakeService) MoveTask(ctx context.Context, ref service.TaskRef, toListID string) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MoveTask %s %s", ref, toListID)
	if f.MoveTaskErr != nil {
		return service.TaskList{}, f.MoveTaskErr
	}
	return f.mutate(ref, func(s *service.TaskSeries) { s.ListID = toListID })
}

// ListLists implements service.Service.
func (f *FakeService) ListLists(ctx context.Context) ([]service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListLists")
	if f.ListListsErr != nil {
		return nil, f.ListListsErr
	}
	result := make([]service.TaskList, len(f.lists))
	copy(result, f.lists)
	return result, nil
}

// Settings implements service.Service.
func (f *FakeService) Settings(ctx context.Context) (service.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Settings")
	if f.SettingsErr != nil {
		return service.Settings{}, f.SettingsErr
	}
	return f.settings, nil
}

// Timezones implements service.Service.
func (f *FakeService) Timezones(ctx context.Context) ([]service.Timezone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Timezones")
	if f.TimezonesErr != nil {
		return nil, f.TimezonesErr
	}
	result := make([]service.Timezone, len(f.timezones))
	copy(result, f.timezones)
	return result, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
