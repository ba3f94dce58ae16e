// ABOUTME: Wires the REST router, session store, tool registry and MCP dispatcher.
// ABOUTME: Owns the HTTP server lifecycle including graceful shutdown.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nicomartin/joke-gateway/internal/config"
	"github.com/nicomartin/joke-gateway/internal/jokes"
	"github.com/nicomartin/joke-gateway/internal/mcp"
	"github.com/nicomartin/joke-gateway/internal/rest"
	"github.com/nicomartin/joke-gateway/internal/store"
	"github.com/nicomartin/joke-gateway/internal/tools"
)

// Version is reported by the health endpoint; set from main at startup.
var Version = "dev"

// Gateway assembles the components behind the HTTP surface.
type Gateway struct {
	config     *config.Config
	logger     *slog.Logger
	store      store.Store
	registry   *tools.Registry
	dispatcher *mcp.Server
	router     *rest.Router
	httpServer *http.Server
}

// OpenStore creates the configured session store backend.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "file":
		return store.NewFileStore(cfg.Store.Path)
	default:
		return store.NewSQLiteStore(cfg.Store.Path)
	}
}

// New creates a gateway from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	st, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	registry := tools.NewRegistry(logger.With("component", "tools"))
	jokeClient := jokes.NewClient(cfg.Joke.BaseURL, cfg.Joke.FetchTimeout, logger.With("component", "jokes"))
	if err := registry.Register(jokes.NewTool(jokeClient, logger.With("component", "jokes"))); err != nil {
		st.Close()
		return nil, fmt.Errorf("registering get_joke tool: %w", err)
	}

	dispatcher, err := mcp.NewServer(mcp.Config{
		Store:               st,
		Registry:            registry,
		Logger:              logger.With("component", "mcp"),
		ExtraAllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating MCP dispatcher: %w", err)
	}

	gw := &Gateway{
		config:     cfg,
		logger:     logger,
		store:      st,
		registry:   registry,
		dispatcher: dispatcher,
	}
	gw.router = gw.buildRouter()

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// buildRouter registers the HTTP surface.
func (g *Gateway) buildRouter() *rest.Router {
	router := rest.NewRouter(g.logger.With("component", "rest"))

	router.Get("/mcp", g.dispatcher.HandleGet)
	router.Post("/mcp", g.dispatcher.HandlePost)
	router.Delete("/mcp", g.dispatcher.HandleDelete)

	router.Get("/joke", g.handleJoke)
	router.Get("/health", g.handleHealth)

	return router
}

// handleJoke is the direct, non-JSON-RPC convenience endpoint for the joke
// tool. Query parameters map straight onto tool arguments.
func (g *Gateway) handleJoke(req *rest.Request) (*rest.Response, error) {
	args := map[string]any{}
	for _, key := range []string{"category", "type", "contains", "amount"} {
		if v, ok := req.Query[key]; ok {
			args[key] = v
		}
	}

	result, err := g.registry.Call(req.Context, "get_joke", args)
	if err != nil {
		return nil, fmt.Errorf("calling get_joke: %w", err)
	}
	return &rest.Response{Body: result}, nil
}

// handleHealth reports liveness.
func (g *Gateway) handleHealth(_ *rest.Request) (*rest.Response, error) {
	return &rest.Response{Body: map[string]any{
		"status":  "ok",
		"version": Version,
	}}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the run context is already
// canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := g.httpServer.Shutdown(ctx)
	if closeErr := g.store.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing store: %w", closeErr)
	}
	return err
}

// Router exposes the HTTP handler, used by tests to exercise the full
// surface without a listener.
func (g *Gateway) Router() http.Handler {
	return g.router
}
