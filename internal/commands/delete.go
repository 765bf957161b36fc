package commands

import (
	"context"

	"rtmbot/internal/grammar"
	"rtmbot/internal/service"
)

func init() {
	Register(&DeleteCmd{})
}

// DeleteCmd deletes tasks and drops them from the context.
type DeleteCmd struct{}

func (c *DeleteCmd) Name() string      { return grammar.OpDelete.String() }
func (c *DeleteCmd) Aliases() []string { return aliasesOf(grammar.OpDelete) }
func (c *DeleteCmd) Synopsis() string  { return "Delete tasks" }

func (c *DeleteCmd) Run(ctx context.Context, env *Env, cmd grammar.Command) (string, error) {
	del := mutation(service.Service.DeleteTask, "Task deleted")
	return runTaskOp(ctx, env, cmd, del, func(env *Env, id string) {
		env.Session.Context.Remove(id)
	})
}
