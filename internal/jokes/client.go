// ABOUTME: HTTP client for the public JokeAPI content service.
// ABOUTME: Applies the non-overridable safe-mode policy and formats joke text.

package jokes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the JokeAPI endpoint prefix. The category is appended as
// a path segment.
const DefaultBaseURL = "https://v2.jokeapi.dev/joke"

// DefaultTimeout bounds the outbound fetch. A fetch exceeding it fails fast
// and surfaces as a tool-level error.
const DefaultTimeout = 10 * time.Second

// userAgent is sent on every upstream request.
const userAgent = "joke-gateway/1.0"

// errBadPayload indicates the upstream body could not be decoded.
var errBadPayload = errors.New("failed to parse upstream response")

// errUpstream wraps transport-level fetch failures.
var errUpstream = errors.New("upstream request failed")

// apiError is an error flag reported inside a decoded upstream payload.
type apiError struct {
	message string
}

func (e *apiError) Error() string {
	return e.message
}

// Params are the caller-supplied joke selection parameters.
type Params struct {
	Category string
	Type     string
	Contains string
	Amount   int
}

// apiJoke is one joke in an upstream payload.
type apiJoke struct {
	Type     string `json:"type"`
	Joke     string `json:"joke"`
	Setup    string `json:"setup"`
	Delivery string `json:"delivery"`
}

// apiResponse is the decoded upstream payload. Single-joke responses carry
// the joke fields at the top level; multi-joke responses use the jokes array.
type apiResponse struct {
	Error   bool      `json:"error"`
	Message string    `json:"message"`
	Jokes   []apiJoke `json:"jokes"`
	apiJoke
}

// Client fetches jokes from a JokeAPI-compatible endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client for the given base URL. Zero values fall back
// to DefaultBaseURL and DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// buildURL assembles the upstream request URL. safe-mode and the JSON format
// are always forced regardless of caller input.
func (c *Client) buildURL(p Params) string {
	category := p.Category
	if category == "" {
		category = "Any"
	}

	q := url.Values{}
	if p.Type != "" {
		q.Set("type", p.Type)
	}
	if p.Contains != "" {
		q.Set("contains", p.Contains)
	}
	if p.Amount > 1 {
		q.Set("amount", fmt.Sprintf("%d", p.Amount))
	}
	q.Set("safe-mode", "true")
	q.Set("format", "json")

	return c.baseURL + "/" + url.PathEscape(category) + "?" + q.Encode()
}

// Fetch retrieves jokes matching the given params and returns them as one
// text block, multiple jokes separated by a blank line.
//
// Failures are classified: transport errors and bad statuses wrap
// errUpstream, undecodable bodies return errBadPayload, and an error flag in
// the payload returns an apiError carrying the upstream message.
func (c *Client) Fetch(ctx context.Context, p Params) (string, error) {
	reqURL := c.buildURL(p)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUpstream, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUpstream, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode)
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", errBadPayload
	}

	if data.Error {
		message := data.Message
		if message == "" {
			message = "Unknown error"
		}
		return "", &apiError{message: message}
	}

	if len(data.Jokes) > 0 {
		parts := make([]string, 0, len(data.Jokes))
		for _, j := range data.Jokes {
			parts = append(parts, formatJoke(j))
		}
		return strings.Join(parts, "\n\n"), nil
	}
	return formatJoke(data.apiJoke), nil
}

// formatJoke renders one joke: single-line jokes as-is, two-part jokes as
// setup and delivery on separate lines.
func formatJoke(j apiJoke) string {
	if j.Type == "single" {
		return j.Joke
	}
	return j.Setup + "\n" + j.Delivery
}
