// ABOUTME: Tests for the JokeAPI client: URL assembly, formatting and
// ABOUTME: failure classification against a stubbed upstream.

package jokes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 0, slog.Default()), srv
}

func TestFetchSingleJoke(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":false,"type":"single","joke":"A SQL query walks into a bar."}`))
	})

	text, err := client.Fetch(context.Background(), Params{Category: "Programming"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if text != "A SQL query walks into a bar." {
		t.Errorf("unexpected joke text: %q", text)
	}
	if gotPath != "/Programming" {
		t.Errorf("category must be a path segment, got %q", gotPath)
	}
	if gotQuery.Get("safe-mode") != "true" || gotQuery.Get("format") != "json" {
		t.Errorf("safe-mode and format must always be forced, got %v", gotQuery)
	}
	if gotQuery.Has("amount") {
		t.Error("amount must be omitted for a single joke")
	}
}

func TestFetchTwoPartJoke(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"type":"twopart","setup":"Why did the scarecrow win an award?","delivery":"He was outstanding in his field."}`))
	})

	text, err := client.Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	want := "Why did the scarecrow win an award?\nHe was outstanding in his field."
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestFetchMultipleJokes(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"error": false,
			"amount": 2,
			"jokes": [
				{"type":"single","joke":"First joke."},
				{"type":"twopart","setup":"Setup?","delivery":"Delivery."}
			]
		}`))
	})

	text, err := client.Fetch(context.Background(), Params{Amount: 2})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	want := "First joke.\n\nSetup?\nDelivery."
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
	if gotQuery.Get("amount") != "2" {
		t.Errorf("amount must be forwarded, got %v", gotQuery)
	}
}

func TestFetchDefaultsToAnyCategory(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"error":false,"type":"single","joke":"ok"}`))
	})

	if _, err := client.Fetch(context.Background(), Params{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "/Any" {
		t.Errorf("empty category must default to Any, got %q", gotPath)
	}
}

func TestFetchForwardsFilters(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"error":false,"type":"single","joke":"ok"}`))
	})

	_, err := client.Fetch(context.Background(), Params{Type: "twopart", Contains: "bar"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotQuery.Get("type") != "twopart" || gotQuery.Get("contains") != "bar" {
		t.Errorf("filters must be forwarded, got %v", gotQuery)
	}
}

func TestFetchAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true,"message":"No matching joke found"}`))
	})

	_, err := client.Fetch(context.Background(), Params{})
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apiError, got %v", err)
	}
	if apiErr.message != "No matching joke found" {
		t.Errorf("unexpected message: %q", apiErr.message)
	}
}

func TestFetchAPIErrorWithoutMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true}`))
	})

	_, err := client.Fetch(context.Background(), Params{})
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apiError, got %v", err)
	}
	if apiErr.message != "Unknown error" {
		t.Errorf("unexpected message: %q", apiErr.message)
	}
}

func TestFetchUndecodableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not json`))
	})

	_, err := client.Fetch(context.Background(), Params{})
	if !errors.Is(err, errBadPayload) {
		t.Fatalf("expected errBadPayload, got %v", err)
	}
}

func TestFetchBadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	_, err := client.Fetch(context.Background(), Params{})
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected errUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error must carry the status, got %v", err)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // port now refuses connections
	client := NewClient(srv.URL, 0, slog.Default())

	_, err := client.Fetch(context.Background(), Params{})
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected errUpstream, got %v", err)
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"error":false,"type":"single","joke":"ok"}`))
	})

	if _, err := client.Fetch(context.Background(), Params{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotUA != userAgent {
		t.Errorf("got user agent %q, want %q", gotUA, userAgent)
	}
}
