package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"rtmbot/internal/exitcode"
	"rtmbot/internal/httpapi"
)

const historyFile = "repl_history"

func replCmd(opts *globalOptions) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Chat with the bot in the terminal",
		Long: `Chat with the bot in the terminal as a single user.

End a line with a backslash to continue the message on the next line,
e.g. to add a task with a note. Ctrl-D or Ctrl-C quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), opts, userID, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", defaultUser(), "user id the session is stored under")
	return cmd
}

func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username + "@localhost"
	}
	return "local@localhost"
}

func runREPL(ctx context.Context, opts *globalOptions, userID string, out io.Writer) error {
	a, err := newApp(ctx, opts, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	history := filepath.Join(a.cfg.Dir, historyFile)
	if f, err := os.Open(history); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if err := a.cfg.EnsureDir(); err != nil {
			return
		}
		if f, err := os.Create(history); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "rtmbot %s, chatting as %s. Say HELP for commands.\n\n", Version, userID)
	if err := chatLoop(ctx, line, a.dispatcher, userID, out); err != nil {
		return withCode(exitcode.BackendError, err)
	}
	return nil
}

// prompter reads one line of input; *liner.State implements it.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// chatLoop sends every entered message to h and prints the reply until
// input ends.
func chatLoop(ctx context.Context, p prompter, h httpapi.Handler, userID string, out io.Writer) error {
	for {
		msg, err := readMessage(p)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(msg) == "" {
			continue
		}
		p.AppendHistory(strings.ReplaceAll(msg, "\n", " "))

		reply, err := h.Handle(ctx, userID, msg)
		if err != nil {
			return err
		}
		if reply != "" {
			fmt.Fprintf(out, "%s\n\n", reply)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// readMessage joins lines ending in a backslash into one message.
func readMessage(p prompter) (string, error) {
	var lines []string
	prompt := "> "
	for {
		line, err := p.Prompt(prompt)
		if err != nil {
			if len(lines) > 0 && errors.Is(err, io.EOF) {
				return strings.Join(lines, "\n"), nil
			}
			return "", err
		}
		if cont, ok := strings.CutSuffix(line, `\`); ok {
			lines = append(lines, cont)
			prompt = ". "
			continue
		}
		lines = append(lines, line)
		return strings.Join(lines, "\n"), nil
	}
}
