package commands

import (
	"context"
	"regexp"
	"strings"

	"rtmbot/internal/grammar"
	"rtmbot/internal/service"
)

func init() {
	Register(&TagsCmd{})
	Register(&UntagsCmd{})
}

// TagsCmd adds tags to tasks. A tag naming one of the user's lists moves
// the task there instead.
type TagsCmd struct{}

func (c *TagsCmd) Name() string      { return grammar.OpAddTags.String() }
func (c *TagsCmd) Aliases() []string { return aliasesOf(grammar.OpAddTags) }
func (c *TagsCmd) Synopsis() string  { return "Add tags or move tasks to a list" }

func (c *TagsCmd) Run(ctx context.Context, env *Env, cmd grammar.Command) (string, error) {
	return runTaskOp(ctx, env, cmd, addTags, nil)
}

func addTags(ctx context.Context, env *Env, ref service.TaskRef, param string) (string, error) {
	lists, err := env.Service.ListLists(ctx)
	if err != nil {
		return "", err
	}
	moveTo, tags := splitTags(ref.ListID, param, lists)

	if err := env.Begin(ctx); err != nil {
		return "", err
	}

	if moveTo != "" {
		moved, err := env.Service.MoveTask(ctx, ref, moveTo)
		if err != nil {
			return "", err
		}
		updated := ref
		updated.ListID = moveTo
		if len(moved.Series) > 0 && moved.Series[0].ListID != "" {
			updated.ListID = moved.Series[0].ListID
		}
		env.Session.Context.Rebind(ref, updated)
		env.logger().Debug("task moved", "from", ref.String(), "to", updated.String())
		ref = updated
	}

	if tags != "" {
		if _, err := env.Service.AddTags(ctx, ref, tags); err != nil {
			return "", err
		}
	}

	return env.confirm("Tags/List added"), nil
}

var tagSeparator = regexp.MustCompile(`(?:\s*,\s*)|\s+`)

// splitTags separates list names from tags in text. Matching is
// case-insensitive against non-smart lists; the last list named other
// than currentListID wins. Tags are lowercased and comma-joined.
func splitTags(currentListID, text string, lists []service.TaskList) (moveTo, tags string) {
	byName := make(map[string]string, len(lists))
	for _, l := range lists {
		if !l.Smart && !l.Deleted {
			byName[strings.ToLower(l.Name)] = l.ID
		}
	}

	var keep []string
	for _, tok := range tagSeparator.Split(strings.TrimSpace(text), -1) {
		tok = strings.ToLower(tok)
		if tok == "" {
			continue
		}
		if id, ok := byName[tok]; ok {
			if id != currentListID {
				moveTo = id
			}
			continue
		}
		keep = append(keep, tok)
	}
	return moveTo, strings.Join(keep, ",")
}

// UntagsCmd removes tags from tasks.
type UntagsCmd struct{}

func (c *UntagsCmd) Name() string      { return grammar.OpRemoveTags.String() }
func (c *UntagsCmd) Aliases() []string { return aliasesOf(grammar.OpRemoveTags) }
func (c *UntagsCmd) Synopsis() string  { return "Remove tags from tasks" }

func (c *UntagsCmd) Run(ctx context.Context, env *Env, cmd grammar.Command) (string, error) {
	return runTaskOp(ctx, env, cmd, removeTags, nil)
}

// removeTags passes the tag text through unmodified.
func removeTags(ctx context.Context, env *Env, ref service.TaskRef, param string) (string, error) {
	if err := env.Begin(ctx); err != nil {
		return "", err
	}
	if _, err := env.Service.RemoveTags(ctx, ref, param); err != nil {
		return "", err
	}
	return env.confirm("Tags removed"), nil
}
