package debugger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/dlvctl/internal/logging"
)

// Marker is one highlighted source position handed to a MarkerRenderer.
type Marker struct {
	File string
	Line int
}

// MarkerRenderer highlights breakpoint positions in an editing surface.
// Markers are cleared and redrawn wholesale on each sync.
type MarkerRenderer interface {
	SetMarkers(markers []Marker)
}

// SourceLocation identifies a position in a source buffer, as reported by
// an external location resolver.
type SourceLocation struct {
	File   string
	Line   int
	Column int
	Offset int
}

// BuildResult signals completion of an external build.
type BuildResult struct {
	// Program is the path of the produced debug binary.
	Program string

	// Err is non-nil when the build failed.
	Err error
}

// BuildOrchestrator compiles a debug binary for the test or program at a
// source location. Build returns immediately; the result is delivered on
// the channel when the build finishes.
type BuildOrchestrator interface {
	Build(ctx context.Context, loc SourceLocation, output string) <-chan BuildResult
}

// Manager owns the session registry and the active session pointer, and
// dispatches operator commands to the active session. All of the shared
// mutable state lives here behind one mutex, so operator actions may be
// triggered concurrently and tests can construct independent managers.
type Manager struct {
	store    Store
	launcher *Launcher
	log      *logging.Logger

	mu      sync.Mutex
	active  *Session
	markers MarkerRenderer
}

// NewManager creates a manager over the given store. A nil logger
// discards output.
func NewManager(store Store, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{
		store:    store,
		launcher: NewLauncher(store, log),
		log:      log,
	}
}

// Launcher returns the manager's launcher for configuration (dlv path,
// listen host).
func (m *Manager) Launcher() *Launcher { return m.launcher }

// SetMarkerRenderer registers the surface that displays breakpoint
// markers. A nil renderer disables marker sync.
func (m *Manager) SetMarkerRenderer(r MarkerRenderer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = r
}

// Launch spawns a debugger for program, records the session, and makes
// it the active session.
func (m *Manager) Launch(program, key, desc string) (*Session, error) {
	rec, err := m.launcher.Launch(program, key, desc)
	if err != nil {
		return nil, err
	}

	s := NewSession(rec, m.log)
	m.setActive(s)
	m.log.Info("debugger attached to session %s", rec)
	return s, nil
}

// Attach constructs a session around an existing registry entry and
// makes it the active session. An unknown key is not an error: it logs
// and reports false.
func (m *Manager) Attach(key string) (*Session, bool) {
	rec, ok := m.store.Get(key)
	if !ok {
		m.log.Info("no session %q found", key)
		return nil, false
	}

	s := NewSession(rec, m.log)
	m.setActive(s)
	m.log.Info("debugger attached to session %s", rec)
	return s, true
}

// Active returns the session currently receiving operator commands, or
// nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Sessions returns a snapshot of all tracked sessions.
func (m *Manager) Sessions() map[string]Record {
	return m.store.List()
}

// Stop tears down the session under key. Stopping an unknown or
// already-stopped session is not an error. The registry entry is removed
// before the kill is attempted, so a half-failed kill never leaves a
// tracked zombie; kill and reap failures are warnings only, since the
// process may have exited on its own.
//
// Stop does not touch the active session pointer; use StopActive to stop
// the session operator commands are routed to.
func (m *Manager) Stop(key string) {
	rec, ok := m.store.Get(key)
	if !ok {
		m.log.Info("no session %q found", key)
		return
	}

	m.log.Info("stopping session %s", rec)
	m.store.Remove(key)

	if err := killProcess(rec.PID); err != nil {
		m.log.Warn("couldn't kill pid %d for session %s: %v", rec.PID, key, err)
	} else if err := reapProcess(rec.PID); err != nil {
		m.log.Warn("couldn't reap pid %d for session %s: %v", rec.PID, key, err)
	} else {
		m.log.Info("killed pid %d for session %s", rec.PID, key)
	}

	m.log.Info("deleted session %s", key)
}

// StopActive stops the active session, releases its transport, and
// clears the pointer. With no active session it logs and returns.
func (m *Manager) StopActive() {
	m.mu.Lock()
	s := m.active
	m.active = nil
	m.mu.Unlock()

	if s == nil {
		m.log.Info("no debugging session is active")
		return
	}

	if err := s.Close(); err != nil {
		m.log.Warn("couldn't close session %s transport: %v", s.Key(), err)
	}
	m.Stop(s.Key())
}

// DebugBuild requests a debug binary for loc from the orchestrator,
// waits for the build to complete, and launches a session for the
// result. The description labels the session, e.g. with the test
// function name.
func (m *Manager) DebugBuild(ctx context.Context, builder BuildOrchestrator, loc SourceLocation, desc string) (*Session, error) {
	key := newSessionKey()
	output := filepath.Join(os.TempDir(), "dlvctl-debug-"+key)

	m.log.Info("building %s for debugging session %s", output, key)
	select {
	case res := <-builder.Build(ctx, loc, output):
		if res.Err != nil {
			return nil, fmt.Errorf("build for session %s: %w", key, res.Err)
		}
		program := res.Program
		if program == "" {
			program = output
		}
		return m.Launch(program, key, desc)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AddBreakpoint creates a breakpoint through the active session.
func (m *Manager) AddBreakpoint(ctx context.Context, file string, line int) (Breakpoint, error) {
	s := m.Active()
	if s == nil {
		return Breakpoint{}, ErrNoActiveSession
	}
	bp, err := s.AddBreakpoint(ctx, file, line)
	if err != nil {
		return Breakpoint{}, err
	}
	m.syncMarkers(ctx, s)
	return bp, nil
}

// ClearBreakpoint clears a breakpoint through the active session.
func (m *Manager) ClearBreakpoint(ctx context.Context, file string, line int) error {
	s := m.Active()
	if s == nil {
		return ErrNoActiveSession
	}
	if err := s.ClearBreakpoint(ctx, file, line); err != nil {
		return err
	}
	m.syncMarkers(ctx, s)
	return nil
}

// Breakpoints lists breakpoints through the active session.
func (m *Manager) Breakpoints(ctx context.Context) ([]Breakpoint, error) {
	s := m.Active()
	if s == nil {
		return nil, ErrNoActiveSession
	}
	return s.Breakpoints(ctx)
}

// Continue resumes the active session and returns the debugger's
// reported state.
func (m *Manager) Continue(ctx context.Context) (State, error) {
	s := m.Active()
	if s == nil {
		return State{}, ErrNoActiveSession
	}
	return s.Continue(ctx)
}

// SyncMarkers redraws breakpoint markers for the active session on the
// registered renderer.
func (m *Manager) SyncMarkers(ctx context.Context) error {
	s := m.Active()
	if s == nil {
		return ErrNoActiveSession
	}
	return m.syncMarkers(ctx, s)
}

// setActive replaces the active session pointer. The previous session's
// transport is left open: callers may still hold it, and its debugger
// process remains tracked in the registry.
func (m *Manager) setActive(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = s
}

// syncMarkers pushes the session's breakpoint list to the renderer, when
// one is registered.
func (m *Manager) syncMarkers(ctx context.Context, s *Session) error {
	m.mu.Lock()
	r := m.markers
	m.mu.Unlock()

	if r == nil {
		return nil
	}

	bps, err := s.Breakpoints(ctx)
	if err != nil {
		return err
	}

	markers := make([]Marker, len(bps))
	for i, bp := range bps {
		markers[i] = Marker{File: bp.File, Line: bp.Line}
	}
	r.SetMarkers(markers)
	return nil
}
