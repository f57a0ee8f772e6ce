// ABOUTME: Relay orchestrator that wires the store, resolver, and dispatcher
// ABOUTME: Manages the HTTP server lifecycle and graceful shutdown

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/teams-relay/internal/auth"
	"github.com/2389/teams-relay/internal/config"
	"github.com/2389/teams-relay/internal/dispatch"
	"github.com/2389/teams-relay/internal/identity"
	"github.com/2389/teams-relay/internal/invoke"
	"github.com/2389/teams-relay/internal/store"
)

// Server orchestrates the teams-relay components: the SQLite store, the
// directory resolver, the downstream invoker, and the event dispatcher
// behind a single HTTP server.
type Server struct {
	config     *config.Config
	store      store.Store
	invoker    *invoke.HTTPInvoker
	dispatcher *dispatch.Dispatcher
	metrics    *Metrics
	httpServer *http.Server
	logger     *slog.Logger
}

// initStore creates the store based on config and environment.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("RELAY_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// buildEndpoints maps configured target URLs to invoker endpoints. The
// translation target is omitted when unconfigured; the invoker rejects
// calls to unknown targets.
func buildEndpoints(cfg *config.Config) map[string]invoke.Endpoint {
	endpoints := map[string]invoke.Endpoint{
		invoke.TargetAIHandler: {
			URL:     cfg.Targets.AIHandler.URL,
			Timeout: cfg.Targets.AIHandler.Timeout,
		},
		invoke.TargetTicketing: {
			URL:     cfg.Targets.TicketingHandler.URL,
			Timeout: cfg.Targets.TicketingHandler.Timeout,
		},
	}
	if cfg.Targets.TranslationService.URL != "" {
		endpoints[invoke.TargetTranslation] = invoke.Endpoint{
			URL:     cfg.Targets.TranslationService.URL,
			Timeout: cfg.Targets.TranslationService.Timeout,
		}
	}
	return endpoints
}

// registerEventRoute registers the event endpoint with or without auth
// middleware depending on whether a JWT secret is configured.
func (s *Server) registerEventRoute(mux *http.ServeMux, cfg *config.Config, logger *slog.Logger) {
	events := http.HandlerFunc(s.handleEvents)
	if cfg.Auth.JWTSecret != "" {
		verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		middleware := auth.HTTPAuthMiddleware(verifier, logger.With("component", "auth"))
		mux.Handle("/events", middleware(events))
		logger.Info("HTTP auth middleware enabled")
	} else {
		mux.Handle("/events", events)
		logger.Warn("HTTP auth disabled - no jwt_secret configured")
	}
}

// New creates a new Server instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	invoker := invoke.NewHTTPInvoker(buildEndpoints(cfg), metrics, logger)
	resolver := identity.NewResolver(cfg.Directory.TokenURL, nil, logger)
	dispatcher := dispatch.New(s, resolver, invoker, metrics, logger)

	srv := &Server{
		config:     cfg,
		store:      s,
		invoker:    invoker,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.With("component", "relay"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	srv.registerEventRoute(mux, cfg, logger)

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, metrics.Handler())
		logger.Info("metrics endpoint enabled", "path", path)
	}

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// Run starts the relay server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := s.startServer(ln)
	serverErr := s.waitForShutdownSignal(ctx, errCh)

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// startServer starts the HTTP server in a goroutine, returning error channel.
func (s *Server) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (s *Server) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		return err
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the server and releases resources. In-flight
// fire-and-forget invocations are drained before the store closes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down relay")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))

	s.invoker.Close()

	errs = appendCloseError(errs, "store close", s.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
