// Package exitcode defines exit codes for the rtmbot command.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad arguments or flags.
	UserError = 1

	// ConfigError indicates an invalid or incomplete configuration.
	ConfigError = 2

	// BackendError indicates the store or task service could not be
	// reached.
	BackendError = 3
)
