// Package cli builds the dlvctl command tree. It is the operator-facing
// dispatch layer: every command routes to a debugger.Manager, which owns
// the session registry and the active session.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/dlvctl/internal/debugger"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// rootOptions carries the persistent flags shared by subcommands.
type rootOptions struct {
	dlvPath  string
	host     string
	logLevel string
}

// NewRootCmd constructs the dlvctl root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dlvctl",
		Short: "Control headless Delve debugging sessions",
		Long: `dlvctl launches a headless Delve debugger for a compiled binary and
drives it over its JSON-RPC endpoint: breakpoints, continue, and session
lifecycle, from an interactive prompt.`,
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.dlvPath, "dlv", debugger.DefaultDlvPath, "path to the dlv executable")
	cmd.PersistentFlags().StringVar(&opts.host, "host", debugger.DefaultHost, "interface spawned debuggers listen on")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newExecCmd(opts))

	return cmd
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
