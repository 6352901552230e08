package debugger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dshills/dlvctl/internal/jsonrpc"
	"github.com/dshills/dlvctl/internal/logging"
)

// RPC method names exposed by the headless Delve server.
const (
	methodCreateBreakpoint = "RPCServer.CreateBreakpoint"
	methodListBreakpoints  = "RPCServer.ListBreakpoints"
	methodClearBreakpoint  = "RPCServer.ClearBreakpoint"
	methodCommand          = "RPCServer.Command"
)

// debugCommand is the parameter shape for RPCServer.Command.
type debugCommand struct {
	Name string `json:"name"`
}

// Breakpoint is a breakpoint as reported by the debugger. The debugger
// assigns the id; file paths are absolute and lines 1-based.
type Breakpoint struct {
	ID   int    `json:"id"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// String returns the conventional file:line form with the id.
func (b Breakpoint) String() string {
	return fmt.Sprintf("breakpoint %d at %s:%d", b.ID, b.File, b.Line)
}

// Session is a live debugging session bound to one registry Record.
//
// The Record is copied at construction; later registry mutations do not
// affect an existing Session. The RPC client is dialed lazily on the
// first operation and reused for the session's lifetime, and must be
// released with Close. Breakpoints are never cached here: the debugger
// process is the sole source of truth, so every operation round-trips.
type Session struct {
	rec Record
	log *logging.Logger

	mu     sync.Mutex
	rpc    *jsonrpc.Client
	closed bool
}

// NewSession constructs a session around a registry record. No connection
// is made until the first operation.
func NewSession(rec Record, log *logging.Logger) *Session {
	if log == nil {
		log = logging.Discard()
	}
	return &Session{rec: rec, log: log}
}

// Record returns the session's registry record as captured at
// construction.
func (s *Session) Record() Record { return s.rec }

// Key returns the session key.
func (s *Session) Key() string { return s.rec.Key }

// client returns the session's RPC client, dialing it on first use. The
// context bounds the dial only; established calls are not cancellable.
func (s *Session) client(ctx context.Context) (*jsonrpc.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.rpc != nil {
		return s.rpc, nil
	}

	c, err := jsonrpc.Dial(ctx, s.rec.Addr)
	if err != nil {
		return nil, err
	}
	s.rpc = c
	s.log.Debug("session %s connected to %s", s.rec.Key, s.rec.Addr)
	return c, nil
}

// Close releases the session's transport, if one was ever dialed. It is
// idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.rpc == nil {
		return nil
	}
	return s.rpc.Close()
}

// AddBreakpoint creates a breakpoint at file:line and returns the
// debugger's view of it. There is no client-side dedup: if the debugger
// rejects a duplicate, that error propagates unchanged.
func (s *Session) AddBreakpoint(ctx context.Context, file string, line int) (Breakpoint, error) {
	c, err := s.client(ctx)
	if err != nil {
		return Breakpoint{}, err
	}

	raw, err := c.Call(methodCreateBreakpoint, Breakpoint{File: file, Line: line})
	if err != nil {
		return Breakpoint{}, err
	}

	var bp Breakpoint
	if err := json.Unmarshal(raw, &bp); err != nil {
		return Breakpoint{}, fmt.Errorf("decode created breakpoint: %w", err)
	}
	s.log.Info("created %s", bp)
	return bp, nil
}

// Breakpoints returns the debugger's authoritative breakpoint list, in
// whatever order the server reports it.
func (s *Session) Breakpoints(ctx context.Context) ([]Breakpoint, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := c.Call(methodListBreakpoints)
	if err != nil {
		return nil, err
	}

	var bps []Breakpoint
	if err := json.Unmarshal(raw, &bps); err != nil {
		return nil, fmt.Errorf("decode breakpoint list: %w", err)
	}
	return bps, nil
}

// ClearBreakpoint removes the first breakpoint the debugger reports at
// file:line. Clearing a location with no breakpoint is not a failure: it
// logs and returns nil without issuing a clear RPC.
//
// If the debugger holds several breakpoints at the same file:line (for
// example with different conditions), only the first in server order is
// cleared; this mirrors longstanding behavior callers rely on.
func (s *Session) ClearBreakpoint(ctx context.Context, file string, line int) error {
	bps, err := s.Breakpoints(ctx)
	if err != nil {
		return err
	}

	found := false
	var match Breakpoint
	for _, bp := range bps {
		if bp.File == file && bp.Line == line {
			match = bp
			found = true
			break
		}
	}
	if !found {
		s.log.Info("no breakpoint found at %s:%d", file, line)
		return nil
	}

	c, err := s.client(ctx)
	if err != nil {
		return err
	}
	if _, err := c.Call(methodClearBreakpoint, match.ID); err != nil {
		return err
	}
	s.log.Info("cleared %s", match)
	return nil
}

// Continue resumes execution and blocks until the debugger reports its
// next state: a breakpoint hit, a manual halt, or program exit. The state
// is returned verbatim; the caller interprets it.
func (s *Session) Continue(ctx context.Context) (State, error) {
	c, err := s.client(ctx)
	if err != nil {
		return State{}, err
	}

	raw, err := c.Call(methodCommand, debugCommand{Name: "continue"})
	if err != nil {
		return State{}, err
	}

	state := StateFromJSON(raw)
	s.log.Info("debugger state: %s", state)
	return state, nil
}
