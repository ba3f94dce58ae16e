// Package mcp implements a constrained subset of the Model Context Protocol
// request/response pattern over HTTP.
//
// # Protocol
//
// The dispatcher processes JSON-RPC 2.0 messages on POST /mcp. A body may be
// a single message or a batch array; a request carries both a method and a
// non-null id, anything else is a notification and produces no response. A
// batch with zero requests is acknowledged with HTTP 202 and no body.
//
// Supported methods:
//
//   - initialize: mints a session and returns the protocol envelope
//   - tools/list: returns the static tool catalog
//   - tools/call: invokes a registered tool
//   - notifications/initialized: accepted and swallowed
//
// Unknown methods yield a -32601 error; one message's failure never aborts
// its siblings in a batch.
//
// # Sessions
//
// Sessions are identified by a 256-bit random hex id carried in the
// Mcp-Session-Id header (read case-insensitively, emitted canonically). A
// non-initialize request without a session id silently mints one and
// announces it in the response header; a supplied-but-unknown id is rejected
// with HTTP 400 and a -32603 error. Sessions live until DELETE /mcp removes
// them; there is no idle expiry.
//
// # Transport preconditions
//
// Requests with an Origin header must prefix-match the localhost allow-list
// (plus configured extras) or are rejected with 403. POST requires an Accept
// of application/json or text/event-stream (406 otherwise). GET negotiates
// text/event-stream and then always answers 405: server-initiated streaming
// is rejected by design, not missing.
//
// # Error taxonomy
//
// Protocol errors are JSON-RPC error objects inside an HTTP 200 envelope.
// Tool-execution failures are successful results whose isError flag is set,
// so clients can always parse result.content. Transport rejections use plain
// HTTP statuses with a flat error body.
package mcp
