package commands

import (
	"context"
	"errors"
	"fmt"

	"rtmbot/internal/grammar"
	"rtmbot/internal/output"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd creates a task from Smart Add text, with an optional note.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }

func (c *AddCmd) Run(ctx context.Context, env *Env, cmd grammar.Command) (string, error) {
	add, ok := cmd.(grammar.AddTask)
	if !ok {
		return "", fmt.Errorf("add: unexpected command %T", cmd)
	}

	env.Session.Context.Clear()

	if err := env.Begin(ctx); err != nil {
		return "", err
	}

	list, err := env.Service.AddTask(ctx, add.Name, true, "")
	if err != nil {
		return "", err
	}
	if len(list.Series) == 0 {
		return "", errors.New("the task service returned no task")
	}

	series := list.Series[0]
	if series.ListID == "" {
		series.ListID = list.ID
	}

	if add.Note != nil {
		note, err := env.Service.AddNote(ctx, series.Ref(), add.Note.Title, add.Note.Text)
		if err != nil {
			return "", err
		}
		series.Notes = append(series.Notes, note)
	}

	if !env.Session.ConfirmationsEnabled() {
		return "", nil
	}

	zone, err := env.zone(ctx)
	if err != nil {
		return "", err
	}
	return "Task added: " + output.FormatTask(series, zone, env.Now), nil
}
