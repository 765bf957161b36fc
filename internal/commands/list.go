package commands

import (
	"context"
	"fmt"
	"sort"

	"rtmbot/internal/grammar"
	"rtmbot/internal/output"
	"rtmbot/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd shows matching tasks and numbers them for later commands.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"LIST", "L", "?"} }
func (c *ListCmd) Synopsis() string  { return "List tasks matching a filter" }

func (c *ListCmd) Run(ctx context.Context, env *Env, cmd grammar.Command) (string, error) {
	q, ok := cmd.(grammar.List)
	if !ok {
		return "", fmt.Errorf("list: unexpected command %T", cmd)
	}

	lists, err := env.Service.ListTasks(ctx, q.Filter)
	if err != nil {
		return "", err
	}

	series := flatten(lists)
	refs := make([]service.TaskRef, len(series))
	for i, s := range series {
		refs[i] = s.Ref()
	}

	if len(series) == 0 {
		env.Session.Context.Put(refs)
		return output.NoTasks, nil
	}

	zone, err := env.zone(ctx)
	if err != nil {
		return "", err
	}

	env.Session.Context.Put(refs)
	return output.FormatList(series, zone, env.Now), nil
}

// flatten joins the series of all lists, ordered by due date. Tasks
// without a due date come first; ties keep the service's order.
func flatten(lists []service.TaskList) []service.TaskSeries {
	var all []service.TaskSeries
	for _, l := range lists {
		for _, s := range l.Series {
			if s.ListID == "" {
				s.ListID = l.ID
			}
			all = append(all, s)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Task.Due < all[j].Task.Due
	})
	return all
}
