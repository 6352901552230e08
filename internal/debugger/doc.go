// Package debugger manages headless Delve sessions.
//
// A session pairs one spawned `dlv --headless` process with the TCP
// endpoint its JSON-RPC server listens on, plus descriptive metadata,
// tracked from launch to stop.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────┐
//	│                        Manager                            │
//	│  - owns the session Store and the active session pointer │
//	│  - launch / attach / stop lifecycle                      │
//	│  - routes operator commands to the active session        │
//	└──────────────────────────────────────────────────────────┘
//	                            │
//	                            ▼
//	┌──────────────────────────────────────────────────────────┐
//	│                        Session                            │
//	│  - wraps one Record, copied at construction              │
//	│  - lazily dials one jsonrpc.Client on first use          │
//	│  - breakpoint and execution-control operations           │
//	└──────────────────────────────────────────────────────────┘
//	                            │
//	                            ▼
//	                 dlv --headless (child process)
//
// The debugger process owns true breakpoint and execution state; nothing
// is cached client-side. Every list, add, and clear round-trips to the
// server, and a session whose backing process has died surfaces errors
// lazily on its next RPC call rather than through any health check.
//
// A Record exists in the Store exactly as long as its child process was
// successfully spawned and has not been stopped. The Store does not track
// whether the process has since exited on its own: calls against a dead
// process fail with a transport error, not a registry error.
package debugger
