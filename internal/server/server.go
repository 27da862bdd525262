package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/images"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/ratelimit"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/service/directory"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the Agent Studio HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Uploader, ImageStore, Broker, Limiter,
// MCPServer, OpenAPISpec, ExtraRoutes, Middlewares.
type ServerConfig struct {
	// Required dependencies.
	Directory     *directory.Service
	Storage       Pinger
	StorageDriver string
	Logger        *slog.Logger

	// Optional dependencies (nil = disabled).
	Uploader   *images.Uploader
	ImageStore Pinger
	Broker     *Broker
	Limiter    ratelimit.Limiter
	MCPServer  *mcpserver.MCPServer

	// Retry-After sent with 429 responses.
	RateLimitRetryAfter time.Duration

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64

	OpenAPISpec []byte

	// ExtraRoutes are registered after the built-in routes and share the
	// middleware chain.
	ExtraRoutes []func(mux *http.ServeMux)
	// Middlewares wrap the whole chain. The first is outermost.
	Middlewares []func(http.Handler) http.Handler
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Directory:           cfg.Directory,
		Storage:             cfg.Storage,
		StorageDriver:       cfg.StorageDriver,
		Uploader:            cfg.Uploader,
		ImageStore:          cfg.ImageStore,
		Broker:              cfg.Broker,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		OpenAPISpec:         cfg.OpenAPISpec,
	})

	mux := http.NewServeMux()

	// Directory CRUD.
	mux.HandleFunc("GET /v1/agents", h.HandleListAgents)
	mux.HandleFunc("POST /v1/agents", h.HandleCreateAgent)
	mux.HandleFunc("PUT /v1/agents", h.HandleUpdateAgent)
	mux.HandleFunc("DELETE /v1/agents", h.HandleDeleteAgent)
	mux.HandleFunc("GET /v1/agents/{id}", h.HandleGetAgent)

	// Same handlers with bare bodies, for the original settings page.
	mux.Handle("GET /api/agents", legacyBodies(http.HandlerFunc(h.HandleListAgents)))
	mux.Handle("POST /api/agents", legacyBodies(http.HandlerFunc(h.HandleCreateAgent)))
	mux.Handle("PUT /api/agents", legacyBodies(http.HandlerFunc(h.HandleUpdateAgent)))
	mux.Handle("DELETE /api/agents", legacyBodies(http.HandlerFunc(h.HandleDeleteAgent)))

	// Gallery.
	mux.HandleFunc("GET /v1/catalog", h.HandleCatalog)
	mux.HandleFunc("GET /v1/catalog/facets", h.HandleFacets)

	// Change stream (long-lived, never rate limited: GET).
	mux.HandleFunc("GET /v1/agents/events", h.HandleSubscribe)

	mux.HandleFunc("POST /v1/images", h.HandleUploadImage)
	mux.Handle("POST /api/upload-image", legacyBodies(http.HandlerFunc(h.HandleUploadImage)))

	if cfg.MCPServer != nil {
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(cfg.MCPServer))
	}

	mux.HandleFunc("GET /openapi.yaml", h.HandleOpenAPISpec)
	mux.HandleFunc("GET /health", h.HandleHealth)

	for _, register := range cfg.ExtraRoutes {
		register(mux)
	}

	rateLimit := ratelimit.Middleware(ratelimit.MiddlewareConfig{
		Limiter: cfg.Limiter,
		KeyFunc: ratelimit.IPKeyFunc,
		RequestID: func(r *http.Request) string {
			return RequestIDFromContext(r.Context())
		},
		Logger:     cfg.Logger,
		RetryAfter: cfg.RateLimitRetryAfter,
	})

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → recovery → rate limit → handler.
	var handler http.Handler = mux
	handler = rateLimit(handler)
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		handler = cfg.Middlewares[i](handler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
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
