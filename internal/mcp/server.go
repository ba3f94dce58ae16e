// ABOUTME: Session-scoped JSON-RPC dispatcher for the MCP endpoint.
// ABOUTME: Enforces transport preconditions and routes methods to tools.

package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nicomartin/joke-gateway/internal/rest"
	"github.com/nicomartin/joke-gateway/internal/store"
	"github.com/nicomartin/joke-gateway/internal/tools"
)

// protocolVersion is advertised in initialize responses.
const protocolVersion = "2024-11-05"

const (
	serverName    = "joke-gateway"
	serverVersion = "1.0.0"
)

// SessionHeader carries the session id. Read case-insensitively, emitted
// with this canonical casing.
const SessionHeader = "Mcp-Session-Id"

// Standard JSON-RPC error codes
const (
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// defaultAllowedOrigins is the fixed origin allow-list. Matching is by
// string prefix; requests without an Origin header are always allowed.
var defaultAllowedOrigins = []string{
	"http://localhost",
	"https://localhost",
	"http://127.0.0.1",
	"https://127.0.0.1",
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Config holds configuration for the dispatcher.
type Config struct {
	Store    store.Store
	Registry *tools.Registry
	Logger   *slog.Logger

	// ExtraAllowedOrigins are origin prefixes accepted in addition to the
	// fixed localhost allow-list.
	ExtraAllowedOrigins []string
}

// Server dispatches MCP protocol requests: it validates transport
// preconditions, manages the session lifecycle and routes JSON-RPC methods
// to tool implementations.
type Server struct {
	store          store.Store
	registry       *tools.Registry
	logger         *slog.Logger
	allowedOrigins []string
}

// NewServer creates a dispatcher with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make([]string, 0, len(defaultAllowedOrigins)+len(cfg.ExtraAllowedOrigins))
	allowed = append(allowed, defaultAllowedOrigins...)
	allowed = append(allowed, cfg.ExtraAllowedOrigins...)

	return &Server{
		store:          cfg.Store,
		registry:       cfg.Registry,
		logger:         logger,
		allowedOrigins: allowed,
	}, nil
}

// originAllowed reports whether the Origin header value passes the
// allow-list. An absent Origin means a same-origin or non-browser caller.
func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// HandleGet answers GET /mcp. Server-initiated streaming is deliberately
// unimplemented: after negotiation the endpoint always resolves to 405.
func (s *Server) HandleGet(req *rest.Request) (*rest.Response, error) {
	if !s.originAllowed(req.Headers.Get("Origin")) {
		return &rest.Response{
			Status: http.StatusForbidden,
			Body:   map[string]any{"error": "Forbidden: Invalid origin"},
		}, nil
	}

	if !strings.Contains(req.Headers.Get("Accept"), "text/event-stream") {
		return &rest.Response{
			Status: http.StatusNotAcceptable,
			Body:   map[string]any{"error": "Not Acceptable: text/event-stream required"},
		}, nil
	}

	return &rest.Response{
		Status: http.StatusMethodNotAllowed,
		Body:   map[string]any{"error": "Method Not Allowed: GET SSE stream not implemented"},
	}, nil
}

// HandlePost processes a JSON-RPC message batch sent via POST /mcp.
func (s *Server) HandlePost(req *rest.Request) (*rest.Response, error) {
	if !s.originAllowed(req.Headers.Get("Origin")) {
		return &rest.Response{
			Status: http.StatusForbidden,
			Body:   map[string]any{"error": "Forbidden: Invalid origin"},
		}, nil
	}

	accept := req.Headers.Get("Accept")
	if !strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/event-stream") {
		return &rest.Response{
			Status: http.StatusNotAcceptable,
			Body:   map[string]any{"error": "Not Acceptable: application/json or text/event-stream required"},
		}, nil
	}

	if bodyEmpty(req.Body) {
		return &rest.Response{
			Status: http.StatusBadRequest,
			Body:   map[string]any{"error": "Bad Request: Empty body"},
		}, nil
	}

	messages := normalizeBatch(req.Body)

	// A request carries both a method and a non-null id; everything else is
	// a notification or a bare response and needs no reply.
	hasRequests := false
	for _, m := range messages {
		if isRequest(m) {
			hasRequests = true
			break
		}
	}
	if !hasRequests {
		return &rest.Response{Status: http.StatusAccepted}, nil
	}

	ctx := req.Context
	resp := &rest.Response{}
	sessionID := req.Headers.Get(SessionHeader)
	sessionValidated := false
	responses := make([]JSONRPCResponse, 0, len(messages))

	for _, m := range messages {
		method, _ := m["method"].(string)
		if method == "" {
			// Bare response or ack, ignored.
			continue
		}
		id, ok := m["id"]
		if !ok || id == nil {
			if method == "notifications/initialized" {
				s.logger.Debug("client initialized notification")
			} else {
				s.logger.Debug("ignoring notification", "method", method)
			}
			continue
		}

		// Session gate: a missing session id silently mints a new session,
		// while a supplied-but-unknown id hard-rejects the batch. This
		// asymmetry is intentional.
		if method != "initialize" {
			if sessionID == "" {
				sess, err := s.mintSession(ctx)
				if err != nil {
					s.logger.Error("failed to create session", "error", err)
					responses = append(responses, errorResponse(id, JSONRPCInternalError, "Internal error"))
					continue
				}
				sessionID = sess.ID
				sessionValidated = true
				resp.SetHeader(SessionHeader, sess.ID)
			} else if !sessionValidated {
				_, err := s.store.GetSession(ctx, sessionID)
				if errors.Is(err, store.ErrNotFound) {
					return &rest.Response{
						Status: http.StatusBadRequest,
						Body:   errorResponse(id, JSONRPCInternalError, "Bad Request: Invalid session ID"),
					}, nil
				}
				if err != nil {
					return nil, fmt.Errorf("validating session: %w", err)
				}
				sessionValidated = true
			}
		}

		if r := s.dispatch(ctx, method, m, id, resp); r != nil {
			responses = append(responses, *r)
		}
	}

	// A single response is returned unwrapped; several come back as an
	// array in original message order.
	if len(responses) == 1 {
		resp.Body = responses[0]
	} else {
		resp.Body = responses
	}
	return resp, nil
}

// HandleDelete terminates the session named by the session header.
func (s *Server) HandleDelete(req *rest.Request) (*rest.Response, error) {
	sessionID := req.Headers.Get(SessionHeader)
	if sessionID != "" {
		err := s.store.DeleteSession(req.Context, sessionID)
		if err == nil {
			s.logger.Info("session terminated", "session_id", sessionID)
			return &rest.Response{
				Body: map[string]any{"message": "Session terminated"},
			}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("terminating session: %w", err)
		}
	}

	return &rest.Response{
		Status: http.StatusNotFound,
		Body:   map[string]any{"error": "Session not found"},
	}, nil
}

// dispatch routes one request message to its method handler. A nil return
// means the message produced no response.
func (s *Server) dispatch(ctx context.Context, method string, m map[string]any, id any, resp *rest.Response) *JSONRPCResponse {
	params, _ := m["params"].(map[string]any)

	switch method {
	case "initialize":
		return s.handleInitialize(ctx, id, resp)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, params, id)
	case "notifications/initialized":
		return nil
	default:
		r := errorResponse(id, JSONRPCMethodNotFound, "Method not found")
		return &r
	}
}

// handleInitialize mints a session and returns the protocol envelope.
func (s *Server) handleInitialize(ctx context.Context, id any, resp *rest.Response) *JSONRPCResponse {
	sess, err := s.mintSession(ctx)
	if err != nil {
		s.logger.Error("failed to create session", "error", err)
		r := errorResponse(id, JSONRPCInternalError, "Internal error")
		return &r
	}
	resp.SetHeader(SessionHeader, sess.ID)

	s.logger.Info("session created", "session_id", sess.ID)

	r := successResponse(id, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{
				"listChanged": false,
			},
		},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": serverVersion,
		},
	})
	return &r
}

// handleToolsList returns the static tool catalog.
func (s *Server) handleToolsList(id any) *JSONRPCResponse {
	defs := s.registry.List()
	s.logger.Debug("tools/list", "count", len(defs))

	r := successResponse(id, map[string]any{"tools": defs})
	return &r
}

// handleToolsCall resolves the named tool and invokes it. Tool-execution
// failures arrive as isError results inside a successful response; only
// infrastructure faults become JSON-RPC errors.
func (s *Server) handleToolsCall(ctx context.Context, params map[string]any, id any) *JSONRPCResponse {
	name, _ := params["name"].(string)
	if name == "" {
		r := errorResponse(id, JSONRPCInvalidParams, "Tool name is required")
		return &r
	}

	tool, ok := s.registry.Get(name)
	if !ok {
		r := errorResponse(id, JSONRPCInvalidParams, "Unknown tool: "+name)
		return &r
	}

	args, _ := params["arguments"].(map[string]any)
	if args == nil {
		args = map[string]any{}
	}

	result, err := tool.Call(ctx, args)
	if err != nil {
		// One message's failure never aborts its siblings.
		s.logger.Warn("tool execution failed", "tool_name", name, "error", err)
		r := errorResponse(id, JSONRPCInternalError, "tool execution failed")
		return &r
	}

	r := successResponse(id, result)
	return &r
}

// normalizeBatch treats an object body as a single message and an array body
// as a list; non-object elements are dropped.
func normalizeBatch(body any) []map[string]any {
	switch b := body.(type) {
	case map[string]any:
		return []map[string]any{b}
	case []any:
		messages := make([]map[string]any, 0, len(b))
		for _, el := range b {
			if m, ok := el.(map[string]any); ok {
				messages = append(messages, m)
			}
		}
		return messages
	default:
		return nil
	}
}

// isRequest reports whether a message is a request: it has a method and a
// non-null id.
func isRequest(m map[string]any) bool {
	method, _ := m["method"].(string)
	if method == "" {
		return false
	}
	id, ok := m["id"]
	return ok && id != nil
}

// bodyEmpty reports whether a decoded body is empty.
func bodyEmpty(v any) bool {
	switch b := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(b) == 0
	case []any:
		return len(b) == 0
	case string:
		return b == ""
	case bool:
		return !b
	case float64:
		return b == 0
	default:
		return false
	}
}

func successResponse(id any, result any) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

func errorResponse(id any, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}
}
