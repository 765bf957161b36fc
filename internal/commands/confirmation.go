package commands

import (
	"context"

	"rtmbot/internal/grammar"
)

func init() {
	Register(&ConfirmationCmd{})
}

// ConfirmationCmd toggles confirmation replies.
type ConfirmationCmd struct{}

func (c *ConfirmationCmd) Name() string      { return "confirmation" }
func (c *ConfirmationCmd) Aliases() []string { return []string{"CONFIRMATION"} }
func (c *ConfirmationCmd) Synopsis() string  { return "Turn confirmation messages on or off" }

func (c *ConfirmationCmd) Run(ctx context.Context, env *Env, _ grammar.Command) (string, error) {
	env.Session.Context.Clear()
	if env.Session.ToggleConfirmations() {
		return "Task add confirmation is now ON", nil
	}
	return "Task add confirmation is now OFF", nil
}
