package rtm

import (
	"context"
	"errors"
	"net/url"

	"rtmbot/internal/service"
)

// Service implements service.Service for one user's token.
type Service struct {
	client   *Client
	token    string
	timeline string
}

var _ service.Service = (*Service)(nil)

func (s *Service) call(ctx context.Context, method string, params url.Values, out any) error {
	if needsTimeline[method] && s.timeline == "" {
		return errors.New(method + ": no timeline, call BeginSession first")
	}
	return s.client.call(ctx, method, s.token, s.timeline, params, out)
}

// BeginSession creates the timeline mutating calls are recorded in.
func (s *Service) BeginSession(ctx context.Context) error {
	var rsp struct {
		Timeline string `json:"timeline"`
	}
	if err := s.call(ctx, "rtm.timelines.create", nil, &rsp); err != nil {
		return err
	}
	s.timeline = rsp.Timeline
	return nil
}

// ListTasks returns the lists holding tasks matching filter.
func (s *Service) ListTasks(ctx context.Context, filter string) ([]service.TaskList, error) {
	var rsp struct {
		Tasks struct {
			List many[wireList] `json:"list"`
		} `json:"tasks"`
	}
	params := url.Values{"filter": {filter}}
	if err := s.call(ctx, "rtm.tasks.getList", params, &rsp); err != nil {
		return nil, err
	}
	return convertLists(rsp.Tasks.List), nil
}

func (s *Service) mutate(ctx context.Context, method string, params url.Values) (service.TaskList, error) {
	var rsp struct {
		List wireList `json:"list"`
	}
	if err := s.call(ctx, method, params, &rsp); err != nil {
		return service.TaskList{}, err
	}
	return rsp.List.toService(), nil
}

func refParams(ref service.TaskRef) url.Values {
	return url.Values{
		"list_id":       {ref.ListID},
		"taskseries_id": {ref.SeriesID},
		"task_id":       {ref.TaskID},
	}
}

// AddTask creates a task, letting the service parse name when parse is set.
func (s *Service) AddTask(ctx context.Context, name string, parse bool, listID string) (service.TaskList, error) {
	params := url.Values{"name": {name}, "list_id": {listID}}
	if parse {
		params.Set("parse", "1")
	}
	return s.mutate(ctx, "rtm.tasks.add", params)
}

// AddNote attaches a note to the task.
func (s *Service) AddNote(ctx context.Context, ref service.TaskRef, title, text string) (service.Note, error) {
	params := refParams(ref)
	params.Set("note_title", title)
	params.Set("note_text", text)

	var rsp struct {
		Note wireNote `json:"note"`
	}
	if err := s.call(ctx, "rtm.tasks.notes.add", params, &rsp); err != nil {
		return service.Note{}, err
	}
	return rsp.Note.toService(), nil
}

// CompleteTask marks a task as completed.
func (s *Service) CompleteTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	return s.mutate(ctx, "rtm.tasks.complete", refParams(ref))
}

// DeleteTask deletes a task.
func (s *Service) DeleteTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	return s.mutate(ctx, "rtm.tasks.delete", refParams(ref))
}

// PostponeTask postpones a task by one day.
func (s *Service) PostponeTask(ctx context.Context, ref service.TaskRef) (service.TaskList, error) {
	return s.mutate(ctx, "rtm.tasks.postpone", refParams(ref))
}

// AddTags adds comma separated tags.
func (s *Service) AddTags(ctx context.Context, ref service.TaskRef, tags string) (service.TaskList, error) {
	params := refParams(ref)
	params.Set("tags", tags)
	return s.mutate(ctx, "rtm.tasks.addTags", params)
}

// RemoveTags removes comma separated tags.
func (s *Service) RemoveTags(ctx context.Context, ref service.TaskRef, tags string) (service.TaskList, error) {
	params := refParams(ref)
	params.Set("tags", tags)
	return s.mutate(ctx, "rtm.tasks.removeTags", params)
}

// MoveTask moves a task to toListID.
func (s *Service) MoveTask(ctx context.Context, ref service.TaskRef, toListID string) (service.TaskList, error) {
	params := url.Values{
		"from_list_id":  {ref.ListID},
		"to_list_id":    {toListID},
		"taskseries_id": {ref.SeriesID},
		"task_id":       {ref.TaskID},
	}
	return s.mutate(ctx, "rtm.tasks.moveTo", params)
}

// ListLists returns all list definitions.
func (s *Service) ListLists(ctx context.Context) ([]service.TaskList, error) {
	var rsp struct {
		Lists struct {
			List many[wireList] `json:"list"`
		} `json:"lists"`
	}
	if err := s.call(ctx, "rtm.lists.getList", nil, &rsp); err != nil {
		return nil, err
	}
	return convertLists(rsp.Lists.List), nil
}

// Settings returns the user's account settings.
func (s *Service) Settings(ctx context.Context) (service.Settings, error) {
	var rsp struct {
		Settings wireSettings `json:"settings"`
	}
	if err := s.call(ctx, "rtm.settings.getList", nil, &rsp); err != nil {
		return service.Settings{}, err
	}
	return rsp.Settings.toService(), nil
}

// Timezones returns the service's timezone table.
func (s *Service) Timezones(ctx context.Context) ([]service.Timezone, error) {
	var rsp struct {
		Timezones struct {
			Timezone many[wireTimezone] `json:"timezone"`
		} `json:"timezones"`
	}
	if err := s.call(ctx, "rtm.timezones.getList", nil, &rsp); err != nil {
		return nil, err
	}
	out := make([]service.Timezone, 0, len(rsp.Timezones.Timezone))
	for _, z := range rsp.Timezones.Timezone {
		out = append(out, z.toService())
	}
	return out, nil
}
