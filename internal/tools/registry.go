// ABOUTME: Thread-safe registry mapping tool names to tool implementations.
// ABOUTME: Preserves registration order for the tools/list catalog.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrToolCollision indicates a tool name is already registered.
var ErrToolCollision = errors.New("tool name collision")

// ErrToolNotFound indicates the specified tool was not found.
var ErrToolNotFound = errors.New("tool not found")

// Definition describes a tool for the tools/list catalog.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Content is one block of tool output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Result is the outcome of a tool invocation. Execution failures are carried
// as IsError with a human-readable message, never as transport errors.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// TextResult builds a single-block text result.
func TextResult(text string, isError bool) *Result {
	return &Result{
		Content: []Content{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// Tool is a named, schema-described operation invokable via tools/call.
type Tool interface {
	Definition() Definition
	Call(ctx context.Context, args map[string]any) (*Result, error)
}

// Registry maintains the fixed set of available tools.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates a new Registry instance.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool to the registry. Names must be unique.
func (r *Registry) Register(t Tool) error {
	def := t.Definition()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolCollision, def.Name)
	}
	r.tools[def.Name] = t
	r.order = append(r.order, def.Name)

	r.logger.Debug("tool registered", "tool_name", def.Name)
	return nil
}

// List returns all tool definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// Call invokes the named tool. Returns ErrToolNotFound for unknown names.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*Result, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t.Call(ctx, args)
}
