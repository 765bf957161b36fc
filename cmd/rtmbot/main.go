// Package main is the entry point for the rtmbot command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rtmbot/internal/exitcode"
)

// Version is set at build time.
var Version = "dev"

type globalOptions struct {
	configDir  string
	configFile string
	debug      bool
}

func addGlobalFlags(fs *pflag.FlagSet, o *globalOptions) {
	fs.StringVar(&o.configDir, "config-dir", "", "configuration directory (default $XDG_CONFIG_HOME/rtmbot)")
	fs.StringVarP(&o.configFile, "config", "c", "", "config file (.json, .jsonc or .yaml)")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "rtmbot",
		Short:         "Chat bot for managing Remember The Milk tasks",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(root.PersistentFlags(), opts)

	root.AddCommand(serveCmd(opts))
	root.AddCommand(replCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "rtmbot %s\n", Version)
			return nil
		},
	}
}

// exitError carries the process exit code of a failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCodeOf(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return exitcode.UserError
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	stop()
	os.Exit(exitCodeOf(err))
}
