package debugger

import "errors"

// Standard errors returned by the debugger package.
var (
	// ErrInvalidProgram indicates a launch was requested against a path
	// that does not name an existing file. No process is spawned and no
	// record is written.
	ErrInvalidProgram = errors.New("debug target does not exist")

	// ErrNoActiveSession indicates an operator command was issued while
	// no session is active.
	ErrNoActiveSession = errors.New("no debugging session is active")

	// ErrSessionClosed indicates an operation on a session whose
	// transport has been released.
	ErrSessionClosed = errors.New("debugging session closed")
)
