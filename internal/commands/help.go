package commands

import (
	"context"

	"rtmbot/internal/grammar"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return []string{"HELP"} }
func (c *HelpCmd) Synopsis() string  { return "Show the command list" }

func (c *HelpCmd) Run(ctx context.Context, env *Env, _ grammar.Command) (string, error) {
	env.Session.Context.Clear()
	return HelpText, nil
}

// HelpText lists every command and alias.
const HelpText = `:: rtmbot Commands ::

HELP -- show this help message

LIST [filter] -- show your tasks, optionally filtered. Filter syntax: https://www.rememberthemilk.com/help/answers/search/advanced.rtm
L [filter] -- LIST command alias
? [filter] -- LIST command alias

CONFIRMATION -- turn command confirmation messages on or off

:: Task IDs ::

The commands below take task IDs. LIST shows them in front of every task:

1. <task name>
2. <task name>

Several IDs can be given at once, comma-separated: C 1,3

:: Task Commands ::

COMPLETE taskId -- mark the task as completed
C taskId -- COMPLETE command alias
+ taskId -- COMPLETE command alias

DELETE taskId -- delete the task
D taskId -- DELETE command alias
- taskId -- DELETE command alias

POSTPONE taskId -- postpone the task. A task without a due date or overdue is due today; otherwise the due date moves one day forward.
P taskId -- POSTPONE command alias
> taskId -- POSTPONE command alias

TAGS taskId tags -- add tags to the task. A tag naming one of your lists moves the task to that list.
T taskId tags -- TAGS command alias
# taskId tags -- TAGS command alias

-TAGS taskId tags -- remove tags from the task
-T taskId tags -- -TAGS command alias
-# taskId tags -- -TAGS command alias

:: Adding Tasks ::

Any other message adds a new task using Smart Add: https://www.rememberthemilk.com/services/smartadd/

<task name>
[<task note>]

  * <task name> -- the task name, optionally with Smart Add data (due date, tags, list)
  * <task note> -- optional note, may span several lines. A URL on its first line becomes the note title.
`
