// ABOUTME: The get_joke tool: maps call arguments onto a JokeAPI fetch.
// ABOUTME: Tool failures surface as isError results, never transport errors.

package jokes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/nicomartin/joke-gateway/internal/tools"
)

// inputSchema is the JSON-Schema shape of get_joke arguments.
const inputSchema = `{
	"type": "object",
	"properties": {
		"category": {
			"type": "string",
			"enum": ["Any", "Programming", "Misc", "Pun", "Spooky", "Christmas"],
			"description": "Category of joke to retrieve"
		},
		"type": {
			"type": "string",
			"enum": ["single", "twopart"],
			"description": "Type of joke (single line or setup/delivery)"
		},
		"contains": {
			"type": "string",
			"description": "Search for jokes containing this string"
		},
		"amount": {
			"type": "integer",
			"minimum": 1,
			"maximum": 10,
			"description": "Number of jokes to retrieve (1-10)"
		}
	},
	"required": []
}`

// Tool implements the get_joke tool backed by a JokeAPI client.
type Tool struct {
	client *Client
	logger *slog.Logger
}

// NewTool creates the get_joke tool.
func NewTool(client *Client, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tool{client: client, logger: logger}
}

// Definition describes get_joke for the tool catalog.
func (t *Tool) Definition() tools.Definition {
	return tools.Definition{
		Name:        "get_joke",
		Description: "Fetches and returns a joke from JokeAPI that you can share with the user. The joke will be returned as text content ready to be displayed.",
		InputSchema: json.RawMessage(inputSchema),
	}
}

// Call fetches jokes for the given arguments. Upstream failures are captured
// in the result's isError flag with a human-readable message.
func (t *Tool) Call(ctx context.Context, args map[string]any) (*tools.Result, error) {
	params := parseParams(args)
	requestID := uuid.New().String()

	t.logger.Debug("get_joke",
		"request_id", requestID,
		"category", params.Category,
		"amount", params.Amount,
	)

	text, err := t.client.Fetch(ctx, params)
	if err != nil {
		t.logger.Warn("get_joke failed", "request_id", requestID, "error", err)
		return tools.TextResult(failureText(err), true), nil
	}
	return tools.TextResult(text, false), nil
}

// failureText maps a fetch failure onto the client-facing message.
func failureText(err error) string {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		return "API Error: " + apiErr.message
	case errors.Is(err, errBadPayload):
		return "Failed to parse API response"
	case errors.Is(err, errUpstream):
		return "HTTP Error: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

// parseParams coerces decoded JSON arguments into fetch params. Arguments
// may also arrive as strings when invoked via the REST convenience endpoint.
func parseParams(args map[string]any) Params {
	p := Params{Category: "Any", Amount: 1}

	if v, ok := stringArg(args, "category"); ok && v != "" {
		p.Category = v
	}
	if v, ok := stringArg(args, "type"); ok {
		p.Type = v
	}
	if v, ok := stringArg(args, "contains"); ok {
		p.Contains = v
	}
	if v, ok := intArg(args, "amount"); ok && v > 0 {
		p.Amount = v
	}
	return p
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intArg(args map[string]any, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
