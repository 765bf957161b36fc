package commands

import (
	"context"
	"fmt"
	"strings"

	"rtmbot/internal/grammar"
	"rtmbot/internal/service"
)

// taskAction applies a task command to one resolved task.
type taskAction func(ctx context.Context, env *Env, ref service.TaskRef, param string) (string, error)

// runTaskOp resolves the targets of op and applies action to each in
// order. A legacy reference replies with the bare result; context ids
// reply one "<id> -- <result>" line per non-empty result. An unknown id
// stops the batch; tasks already changed stay changed.
func runTaskOp(ctx context.Context, env *Env, cmd grammar.Command, action taskAction, after func(env *Env, id string)) (string, error) {
	op, ok := cmd.(grammar.TaskOp)
	if !ok {
		return "", fmt.Errorf("task command: unexpected command %T", cmd)
	}

	if op.Target.Legacy != nil {
		return action(ctx, env, *op.Target.Legacy, op.Param)
	}

	var lines []string
	for _, id := range op.Target.ContextIDs {
		ref, err := env.Session.Context.Resolve(id)
		if err != nil {
			return "", err
		}

		result, err := action(ctx, env, ref, op.Param)
		if err != nil {
			return "", err
		}
		if after != nil {
			after(env, id)
		}
		if result != "" {
			lines = append(lines, id+" -- "+result)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// mutation adapts a single remote call, such as
// service.Service.CompleteTask, into a taskAction replying with
// confirmation.
func mutation(call func(service.Service, context.Context, service.TaskRef) (service.TaskList, error), confirmation string) taskAction {
	return func(ctx context.Context, env *Env, ref service.TaskRef, _ string) (string, error) {
		if err := env.Begin(ctx); err != nil {
			return "", err
		}
		if _, err := call(env.Service, ctx, ref); err != nil {
			return "", err
		}
		return env.confirm(confirmation), nil
	}
}
