package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/dlvctl/internal/debugger"
)

const promptHelp = `commands:
  break <file>:<line>    set a breakpoint
  clear <file>:<line>    clear the breakpoint at a location
  breakpoints            list breakpoints
  continue               resume until the next breakpoint or exit
  sessions               list tracked sessions
  stop [key]             stop a session (no key: the active session)
  help                   show this help
  quit                   stop all sessions and exit`

// runPrompt reads operator commands until EOF or quit. Every tracked
// session is stopped on the way out so no debugger children are leaked.
func runPrompt(cmd *cobra.Command, m *debugger.Manager) error {
	out := cmd.OutOrStdout()

	defer func() {
		for key := range m.Sessions() {
			m.Stop(key)
		}
	}()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "(dlvctl) ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && dispatch(cmd.Context(), m, out, line) {
			return nil
		}
		fmt.Fprint(out, "(dlvctl) ")
	}
	return scanner.Err()
}

// dispatch runs one operator command. It reports whether the prompt
// should exit.
func dispatch(ctx context.Context, m *debugger.Manager, out io.Writer, line string) bool {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "break", "b":
		file, lineNo, err := parseLocation(args)
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return false
		}
		bp, err := m.AddBreakpoint(ctx, file, lineNo)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "%s\n", bp)

	case "clear":
		file, lineNo, err := parseLocation(args)
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return false
		}
		if err := m.ClearBreakpoint(ctx, file, lineNo); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}

	case "breakpoints", "bp":
		bps, err := m.Breakpoints(ctx)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		if len(bps) == 0 {
			fmt.Fprintln(out, "no breakpoints")
			return false
		}
		for _, bp := range bps {
			fmt.Fprintf(out, "%s\n", bp)
		}

	case "continue", "c":
		state, err := m.Continue(ctx)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "%s\n", state)

	case "sessions":
		sessions := m.Sessions()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "no sessions")
			return false
		}
		keys := make([]string, 0, len(sessions))
		for key := range sessions {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			marker := " "
			if active := m.Active(); active != nil && active.Key() == key {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, sessions[key])
		}

	case "stop":
		if len(args) > 0 {
			m.Stop(args[0])
		} else {
			m.StopActive()
		}

	case "help":
		fmt.Fprintln(out, promptHelp)

	case "quit", "exit":
		return true

	default:
		fmt.Fprintf(out, "unrecognized command: %s (try 'help')\n", command)
	}
	return false
}

// parseLocation parses a single "<file>:<line>" argument.
func parseLocation(args []string) (string, int, error) {
	if len(args) != 1 {
		return "", 0, fmt.Errorf("usage: <file>:<line>")
	}

	idx := strings.LastIndex(args[0], ":")
	if idx <= 0 || idx == len(args[0])-1 {
		return "", 0, fmt.Errorf("invalid location %q: want <file>:<line>", args[0])
	}

	line, err := strconv.Atoi(args[0][idx+1:])
	if err != nil || line < 1 {
		return "", 0, fmt.Errorf("invalid line in %q: want a 1-based line number", args[0])
	}

	return args[0][:idx], line, nil
}
