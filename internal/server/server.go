package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/keifu/internal/auth"
	"github.com/ashita-ai/keifu/internal/ledger"
	"github.com/ashita-ai/keifu/internal/model"
	"github.com/ashita-ai/keifu/internal/ratelimit"
)

// Server is the Keifu HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Limiter, MCPServer.
type ServerConfig struct {
	// Required dependencies.
	Store   *ledger.Store
	JWTMgr  *auth.JWTManager
	Keyring *auth.Keyring
	Logger  *slog.Logger

	// Optional dependencies (nil = disabled).
	Limiter   ratelimit.Limiter
	MCPServer *mcpserver.MCPServer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
	SnapshotEnabled     bool
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Store:               cfg.Store,
		JWTMgr:              cfg.JWTMgr,
		Keyring:             cfg.Keyring,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		SnapshotEnabled:     cfg.SnapshotEnabled,
	})

	// Request ID extractor for rate limit error responses.
	reqIDFunc := func(r *http.Request) string {
		return RequestIDFromContext(r.Context())
	}

	rl := ratelimit.Middleware(cfg.Limiter, roleKeyFunc, reqIDFunc)
	authRL := ratelimit.Middleware(cfg.Limiter, ratelimit.IPKeyFunc, reqIDFunc)

	mux := http.NewServeMux()

	// Auth endpoint (no auth required, rate limited by IP).
	mux.Handle("POST /auth/token", authRL(http.HandlerFunc(h.HandleAuthToken)))

	// Decision writes (editor+, rate limited).
	writeRole := requireRole(model.RoleEditor)
	mux.Handle("POST /v1/decisions", rl(writeRole(http.HandlerFunc(h.HandleCreateDecision))))
	mux.Handle("POST /v1/decisions/{id}/outcome", rl(writeRole(http.HandlerFunc(h.HandleSetOutcome))))
	mux.Handle("POST /v1/decisions/{id}/supersede", rl(writeRole(http.HandlerFunc(h.HandleSupersede))))
	mux.Handle("POST /v1/decisions/{id}/reverse", rl(writeRole(http.HandlerFunc(h.HandleReverse))))

	// Decision reads (reader+, rate limited).
	readRole := requireRole(model.RoleReader)
	mux.Handle("GET /v1/decisions", rl(readRole(http.HandlerFunc(h.HandleListDecisions))))
	mux.Handle("GET /v1/decisions/{id}", rl(readRole(http.HandlerFunc(h.HandleGetDecision))))
	mux.Handle("GET /v1/decisions/{id}/lineage", rl(readRole(http.HandlerFunc(h.HandleLineage))))
	mux.Handle("POST /v1/query", rl(readRole(http.HandlerFunc(h.HandleQuery))))
	mux.Handle("GET /v1/report", rl(readRole(http.HandlerFunc(h.HandleReport))))

	// Snapshot administration (admin-only, no rate limit).
	adminOnly := requireRole(model.RoleAdmin)
	mux.Handle("GET /v1/export", adminOnly(http.HandlerFunc(h.HandleExport)))
	mux.Handle("POST /v1/import", adminOnly(http.HandlerFunc(h.HandleImport)))
	mux.Handle("POST /v1/clear", adminOnly(http.HandlerFunc(h.HandleClear)))

	// MCP StreamableHTTP transport (auth required, reader+).
	if cfg.MCPServer != nil {
		mcpHTTP := mcpserver.NewStreamableHTTPServer(cfg.MCPServer)
		mux.Handle("/mcp", readRole(mcpHTTP))
	}

	// Health (no auth, no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// roleKeyFunc builds the rate limit key from the caller's role and IP.
// Returns empty string for admins (exempt from rate limits).
func roleKeyFunc(r *http.Request) string {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		return ratelimit.IPKeyFunc(r)
	}
	if model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		return ""
	}
	return string(claims.Role) + ":" + ratelimit.IPKeyFunc(r)
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
