package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClientClosed is returned by Call after Close has been called.
var ErrClientClosed = errors.New("jsonrpc: client closed")

// TransportError indicates the connection to the server failed: the dial
// was refused, or a read or write on the established connection failed.
// It does not mean the server rejected the request.
type TransportError struct {
	// Op is the operation that failed: "dial", "write", or "read".
	Op string

	// Addr is the remote address, when known.
	Addr string

	// Err is the underlying network error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("jsonrpc: %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("jsonrpc: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError indicates the server sent a malformed response or a
// response whose id does not pair with the request in flight. Either way
// the connection is desynchronized and the client instance must not be
// reused; subsequent calls fail fast with the same error.
type ProtocolError struct {
	// Reason describes the desynchronization.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jsonrpc: protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("jsonrpc: protocol error: %s", e.Reason)
}

// Unwrap returns the underlying decode error, if any.
func (e *ProtocolError) Unwrap() error { return e.Err }

// RemoteError indicates the server returned a response with a non-null
// error field. Payload carries the server's error value verbatim.
type RemoteError struct {
	// Method is the RPC method that was rejected.
	Method string

	// Payload is the raw JSON error value from the response.
	Payload json.RawMessage
}

// Error implements the error interface. If the payload is a JSON string
// it is unquoted for readability.
func (e *RemoteError) Error() string {
	msg := string(e.Payload)
	var s string
	if json.Unmarshal(e.Payload, &s) == nil {
		msg = s
	}
	return fmt.Sprintf("jsonrpc: %s: %s", e.Method, msg)
}
