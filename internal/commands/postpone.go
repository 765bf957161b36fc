package commands

import (
	"context"

	"rtmbot/internal/grammar"
	"rtmbot/internal/service"
)

func init() {
	Register(&PostponeCmd{})
}

// PostponeCmd moves the due date of tasks forward.
type PostponeCmd struct{}

func (c *PostponeCmd) Name() string      { return grammar.OpPostpone.String() }
func (c *PostponeCmd) Aliases() []string { return aliasesOf(grammar.OpPostpone) }
func (c *PostponeCmd) Synopsis() string  { return "Postpone tasks" }

func (c *PostponeCmd) Run(ctx context.Context, env *Env, cmd grammar.Command) (string, error) {
	postpone := mutation(service.Service.PostponeTask, "Task postponed")
	return runTaskOp(ctx, env, cmd, postpone, nil)
}
