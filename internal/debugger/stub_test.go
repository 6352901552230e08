package debugger

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubDebugger is an in-process stand-in for a headless Delve server. It
// speaks the same one-JSON-object-per-message protocol and owns an
// authoritative breakpoint list, so session tests exercise the real
// transport end to end.
type stubDebugger struct {
	t  *testing.T
	ln net.Listener

	mu       sync.Mutex
	nextID   int
	bps      []Breakpoint
	calls    map[string]int
	accepted int
}

func newStubDebugger(t *testing.T) *stubDebugger {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &stubDebugger{t: t, ln: ln, nextID: 1, calls: make(map[string]int)}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

// record returns a registry Record pointing at the stub.
func (s *stubDebugger) record(key string) Record {
	addr := s.ln.Addr().(*net.TCPAddr)
	return Record{
		Key:     key,
		Program: "/tmp/stub-target",
		PID:     -1,
		Host:    addr.IP.String(),
		Port:    addr.Port,
		Addr:    addr.String(),
		Desc:    "stub",
	}
}

// seed installs breakpoints directly, bypassing the protocol.
func (s *stubDebugger) seed(bps ...Breakpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bps = append(s.bps, bps...)
	for _, bp := range bps {
		if bp.ID >= s.nextID {
			s.nextID = bp.ID + 1
		}
	}
}

func (s *stubDebugger) callCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *stubDebugger) acceptedConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

func (s *stubDebugger) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		s.mu.Unlock()
		go s.handle(conn)
	}
}

// stubResponse mirrors the server side of the wire shape.
type stubResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
	Error  any   `json:"error"`
}

func (s *stubDebugger) handle(conn net.Conn) {
	defer conn.Close()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req struct {
			ID     int64             `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := dec.Decode(&req); err != nil {
			return
		}

		s.mu.Lock()
		s.calls[req.Method]++
		resp := s.dispatch(req.ID, req.Method, req.Params)
		s.mu.Unlock()

		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

// dispatch is called with the mutex held.
func (s *stubDebugger) dispatch(id int64, method string, params []json.RawMessage) stubResponse {
	switch method {
	case methodCreateBreakpoint:
		var bp Breakpoint
		if err := json.Unmarshal(params[0], &bp); err != nil {
			return stubResponse{ID: id, Error: err.Error()}
		}
		for _, existing := range s.bps {
			if existing.File == bp.File && existing.Line == bp.Line {
				return stubResponse{ID: id, Error: fmt.Sprintf("Breakpoint exists at %s:%d", bp.File, bp.Line)}
			}
		}
		bp.ID = s.nextID
		s.nextID++
		s.bps = append(s.bps, bp)
		return stubResponse{ID: id, Result: bp}

	case methodListBreakpoints:
		out := make([]Breakpoint, len(s.bps))
		copy(out, s.bps)
		return stubResponse{ID: id, Result: out}

	case methodClearBreakpoint:
		var bpID int
		if err := json.Unmarshal(params[0], &bpID); err != nil {
			return stubResponse{ID: id, Error: err.Error()}
		}
		for i, bp := range s.bps {
			if bp.ID == bpID {
				s.bps = append(s.bps[:i], s.bps[i+1:]...)
				return stubResponse{ID: id, Result: bp}
			}
		}
		return stubResponse{ID: id, Error: fmt.Sprintf("no breakpoint with id %d", bpID)}

	case methodCommand:
		if len(s.bps) > 0 {
			bp := s.bps[0]
			return stubResponse{ID: id, Result: map[string]any{
				"exited": false,
				"currentThread": map[string]any{
					"id":         1,
					"file":       bp.File,
					"line":       bp.Line,
					"breakPoint": bp,
				},
			}}
		}
		return stubResponse{ID: id, Result: map[string]any{"exited": true, "exitStatus": 0}}

	default:
		return stubResponse{ID: id, Error: fmt.Sprintf("unknown method %q", method)}
	}
}
