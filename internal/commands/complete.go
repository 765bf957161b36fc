package commands

import (
	"context"

	"rtmbot/internal/grammar"
	"rtmbot/internal/service"
)

func init() {
	Register(&CompleteCmd{})
}

// CompleteCmd marks tasks completed.
type CompleteCmd struct{}

func (c *CompleteCmd) Name() string      { return grammar.OpComplete.String() }
func (c *CompleteCmd) Aliases() []string { return aliasesOf(grammar.OpComplete) }
func (c *CompleteCmd) Synopsis() string  { return "Mark tasks completed" }

func (c *CompleteCmd) Run(ctx context.Context, env *Env, cmd grammar.Command) (string, error) {
	complete := mutation(service.Service.CompleteTask, "Task completed")
	return runTaskOp(ctx, env, cmd, complete, nil)
}
