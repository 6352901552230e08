package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// Client is a synchronous JSON-RPC client bound to one TCP connection.
//
// Calls are strictly sequential: one request in flight at a time, each
// response paired with the request that preceded it. Callers needing
// concurrent commands must serialize them externally; Call itself is
// mutex-guarded so concurrent callers queue rather than interleave.
//
// A call blocks until a complete response has been read or the connection
// fails. There is no timeout: a hung server hangs the call, and the only
// way out is to Close the client from another goroutine, which abandons
// the call with a TransportError.
type Client struct {
	conn net.Conn
	dec  *json.Decoder

	mu     sync.Mutex
	nextID int64
	fatal  error

	closed atomic.Bool
}

// request is the wire shape of an outgoing call.
type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// response is the wire shape of an incoming reply. Result and Error are
// kept raw; exactly one of them is meaningful.
type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// Dial connects to a JSON-RPC server at addr ("host:port"). The context
// applies to establishing the connection only; it does not bound later
// calls.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &TransportError{Op: "dial", Addr: addr, Err: err}
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection. Ownership of conn passes to
// the client; it is closed by Close.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		dec:  json.NewDecoder(conn),
	}
}

// Addr returns the remote address of the underlying connection.
func (c *Client) Addr() string {
	return c.conn.RemoteAddr().String()
}

// Call sends one request and blocks until its response arrives. It
// returns the raw result value, or a TransportError, ProtocolError, or
// RemoteError per the package documentation.
//
// Request ids are drawn from a per-client counter starting at 0.
func (c *Client) Call(method string, params ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if c.fatal != nil {
		return nil, c.fatal
	}

	if params == nil {
		params = []any{}
	}
	id := c.nextID
	c.nextID++

	payload, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: encode %s request: %w", method, err)
	}

	if _, err := c.conn.Write(payload); err != nil {
		return nil, &TransportError{Op: "write", Addr: c.Addr(), Err: err}
	}

	// The decoder pulls from the connection until a complete JSON value
	// has been accumulated, so a response split across several reads is
	// handled here, not by a single fixed-size read.
	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		if c.closed.Load() {
			return nil, ErrClientClosed
		}
		if isMalformed(err) {
			perr := &ProtocolError{Reason: "malformed response", Err: err}
			c.fatal = perr
			return nil, perr
		}
		return nil, &TransportError{Op: "read", Addr: c.Addr(), Err: err}
	}

	if resp.ID != id {
		perr := &ProtocolError{
			Reason: fmt.Sprintf("response id %d does not match request id %d", resp.ID, id),
		}
		c.fatal = perr
		return nil, perr
	}

	if !isJSONNull(resp.Error) {
		return nil, &RemoteError{Method: method, Payload: resp.Error}
	}

	return resp.Result, nil
}

// Close closes the underlying connection. It is idempotent, and it
// unblocks a Call waiting on a read in another goroutine.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// isMalformed reports whether a decode error means the server sent bytes
// that are not valid JSON, as opposed to the connection failing.
func isMalformed(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ)
}

// isJSONNull reports whether a raw value is absent or the JSON null
// literal.
func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
