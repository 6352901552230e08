package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/dlvctl/internal/debugger"
	"github.com/dshills/dlvctl/internal/logging"
)

// newExecCmd builds the "exec" subcommand: launch a session for a
// compiled binary and drop into the operator prompt.
func newExecCmd(opts *rootOptions) *cobra.Command {
	var desc string

	cmd := &cobra.Command{
		Use:   "exec <program>",
		Short: "Launch a debugging session for a compiled binary",
		Long: `Spawns a headless Delve executing the given binary, records the
session, makes it active, and reads operator commands from stdin. All
sessions are stopped when the prompt exits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(logging.Config{
				Level:  logging.ParseLevel(opts.logLevel),
				Output: cmd.ErrOrStderr(),
				Prefix: "dlvctl",
			})

			m := debugger.NewManager(debugger.NewMemoryStore(), log)
			m.Launcher().DlvPath = opts.dlvPath
			m.Launcher().Host = opts.host

			s, err := m.Launch(args[0], "", desc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s: debugger pid %d listening on %s\n",
				s.Key(), s.Record().PID, s.Record().Addr)

			return runPrompt(cmd, m)
		},
	}

	cmd.Flags().StringVar(&desc, "desc", "", "session description")

	return cmd
}
