package debugger

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// State is the debugger-reported execution state returned by a continue
// command. The payload is kept verbatim; accessors read the fields the
// headless Delve server emits without forcing its whole schema into
// types.
type State struct {
	raw json.RawMessage
}

// StateFromJSON wraps a raw debugger state payload.
func StateFromJSON(raw json.RawMessage) State {
	return State{raw: raw}
}

// Raw returns the state payload exactly as the debugger sent it.
func (s State) Raw() json.RawMessage { return s.raw }

// Exited reports whether the debugged program has exited.
func (s State) Exited() bool {
	return gjson.GetBytes(s.raw, "exited").Bool()
}

// ExitStatus returns the program's exit status. Only meaningful when
// Exited is true.
func (s State) ExitStatus() int {
	return int(gjson.GetBytes(s.raw, "exitStatus").Int())
}

// Running reports whether the debugged program is still executing, i.e.
// the continue returned without a stop.
func (s State) Running() bool {
	// Delve has tagged this field inconsistently across API versions.
	if v := gjson.GetBytes(s.raw, "Running"); v.Exists() {
		return v.Bool()
	}
	return gjson.GetBytes(s.raw, "running").Bool()
}

// AtBreakpoint returns the source position of the breakpoint the current
// thread stopped at, when the state describes a breakpoint hit.
func (s State) AtBreakpoint() (file string, line int, ok bool) {
	bp := gjson.GetBytes(s.raw, "currentThread.breakPoint")
	if !bp.Exists() {
		return "", 0, false
	}
	return bp.Get("file").String(), int(bp.Get("line").Int()), true
}

// String summarizes the state for logs and the operator prompt.
func (s State) String() string {
	switch {
	case len(s.raw) == 0:
		return "unknown"
	case s.Exited():
		return fmt.Sprintf("process exited with status %d", s.ExitStatus())
	default:
		if file, line, ok := s.AtBreakpoint(); ok {
			return fmt.Sprintf("stopped at breakpoint %s:%d", file, line)
		}
		if s.Running() {
			return "running"
		}
		return "stopped"
	}
}
