// Package jsonrpc implements the synchronous JSON-RPC client used to talk
// to a headless Delve server.
//
// The wire protocol is the one net/rpc's jsonrpc codec speaks: one JSON
// object per request, one per response, no framing headers, over a single
// persistent TCP connection. Requests carry a client-assigned monotonic id;
// the protocol is strictly request/response, so responses are correlated
// sequentially rather than through a pending-call table.
//
// Errors fall into three classes that callers can distinguish with
// errors.As:
//
//   - TransportError: the connection could not be established, or failed
//     mid-call (refused, reset, closed).
//   - ProtocolError: the server sent something unparseable or out of
//     sequence. The client is unusable afterward.
//   - RemoteError: the server processed the request and rejected it; the
//     server's error payload is carried verbatim.
package jsonrpc
