package debugger

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/dlvctl/internal/logging"
)

// DefaultDlvPath is the debugger executable resolved through PATH when no
// explicit path is configured.
const DefaultDlvPath = "dlv"

// DefaultHost is the interface the spawned debugger listens on.
const DefaultHost = "localhost"

// Launcher spawns headless debugger processes and records them in a
// Store.
type Launcher struct {
	// Store receives a Record for every successful spawn.
	Store Store

	// DlvPath is the debugger executable. Defaults to DefaultDlvPath.
	DlvPath string

	// Host is the listen interface for spawned debuggers. Defaults to
	// DefaultHost.
	Host string

	// Log receives lifecycle messages. Defaults to a discard logger.
	Log *logging.Logger
}

// NewLauncher creates a launcher writing into store.
func NewLauncher(store Store, log *logging.Logger) *Launcher {
	if log == nil {
		log = logging.Discard()
	}
	return &Launcher{
		Store:   store,
		DlvPath: DefaultDlvPath,
		Host:    DefaultHost,
		Log:     log,
	}
}

// Launch spawns a headless debugger executing program and records the
// session under key. An empty key is generated. The returned Record has
// already been written to the store.
//
// Launch does not wait for the child to bind its listen socket: an RPC
// issued immediately after may see connection-refused and must be
// retried by the caller.
func (l *Launcher) Launch(program, key, desc string) (Record, error) {
	info, err := os.Stat(program)
	if err != nil || info.IsDir() {
		return Record{}, fmt.Errorf("%w: %s", ErrInvalidProgram, program)
	}

	if key == "" {
		key = newSessionKey()
	}
	if desc == "" {
		desc = "Default"
	}

	host := l.Host
	if host == "" {
		host = DefaultHost
	}
	port, err := freePort(host)
	if err != nil {
		return Record{}, fmt.Errorf("allocate port: %w", err)
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	dlv := l.DlvPath
	if dlv == "" {
		dlv = DefaultDlvPath
	}

	// No shell: the program path is passed through as a single argv
	// entry.
	cmd := exec.Command(dlv, "--headless=true", "--listen="+addr, "exec", program)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return Record{}, fmt.Errorf("start %s: %w", dlv, err)
	}

	rec := Record{
		Key:     key,
		Program: program,
		PID:     cmd.Process.Pid,
		Host:    host,
		Port:    port,
		Addr:    addr,
		Desc:    desc,
	}

	// The child is reaped by Manager.Stop, not by this process's exec
	// machinery.
	_ = cmd.Process.Release()

	l.Store.Put(key, rec)
	l.Log.Info("created debugger session %s", rec)

	return rec, nil
}

// newSessionKey generates a short opaque session identifier.
func newSessionKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// freePort reserves an ephemeral port by binding host:0, reading back the
// OS-assigned port, and releasing the socket. The reservation is best
// effort: another process can claim the port before the debugger binds
// it. That race is narrow and accepted; the failure mode is a
// connection-refused surfaced on the session's first RPC.
func freePort(host string) (int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := ln.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
