// ABOUTME: Integration tests exercising the full HTTP surface through the
// ABOUTME: router: health, the joke endpoint and an MCP protocol round-trip.

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicomartin/joke-gateway/internal/config"
)

func newTestGateway(t *testing.T, jokeURL string) *Gateway {
	t.Helper()

	cfg := config.Default()
	cfg.Store.Backend = "file"
	cfg.Store.Path = filepath.Join(t.TempDir(), "sessions.json")
	cfg.Joke.BaseURL = jokeURL
	cfg.Joke.FetchTimeout = 2 * time.Second

	gw, err := New(cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { gw.store.Close() })
	return gw
}

func jokeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":false,"type":"single","joke":"Integration joke."}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := httptest.NewRecorder()
	gw.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestJokeEndpoint(t *testing.T) {
	upstream := jokeUpstream(t)
	gw := newTestGateway(t, upstream.URL)

	rec := httptest.NewRecorder()
	gw.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/joke?category=Programming&amount=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "Integration joke.", result.Content[0].Text)
}

func TestMCPRoundTrip(t *testing.T) {
	upstream := jokeUpstream(t)
	gw := newTestGateway(t, upstream.URL)
	router := gw.Router()

	post := func(body string, sessionID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if sessionID != "" {
			req.Header.Set("Mcp-Session-Id", sessionID)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// initialize mints a session and announces it in the response header.
	rec := post(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := rec.Header().Get("Mcp-Session-Id")
	require.Len(t, sessionID, 64)

	var initResp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))
	result := initResp["result"].(map[string]any)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])

	// tools/list with the minted session.
	rec = post(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`, sessionID)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	toolList := listResp["result"].(map[string]any)["tools"].([]any)
	require.Len(t, toolList, 1)
	assert.Equal(t, "get_joke", toolList[0].(map[string]any)["name"])

	// tools/call reaches the upstream stub.
	rec = post(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_joke","arguments":{"category":"Programming"}}}`, sessionID)
	require.Equal(t, http.StatusOK, rec.Code)

	var callResp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &callResp))
	callResult := callResp["result"].(map[string]any)
	assert.Equal(t, false, callResult["isError"])
	content := callResult["content"].([]any)
	assert.Equal(t, "Integration joke.", content[0].(map[string]any)["text"])

	// DELETE terminates the session; a second delete reports 404.
	del := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	del.Header.Set("Mcp-Session-Id", sessionID)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, del)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, del)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A terminated session id is now rejected.
	rec = post(`{"jsonrpc":"2.0","id":4,"method":"tools/list"}`, sessionID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := httptest.NewRecorder()
	gw.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSOnMCPSurface(t *testing.T) {
	gw := newTestGateway(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Access-Control-Request-Headers", "X-Custom")
	rec := httptest.NewRecorder()
	gw.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	allowed := rec.Header().Get("Access-Control-Allow-Headers")
	assert.Contains(t, allowed, "X-Custom")
	assert.Contains(t, allowed, "Mcp-Session-Id")
}
