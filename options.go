package agentstudio

import (
	"log/slog"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/config"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
type resolvedOptions struct {
	cfg            *config.Config
	port           int
	databaseURL    string
	notifyURL      string
	logger         *slog.Logger
	version        string
	changeHooks    []ChangeHook
	routeRegistrar []RouteRegistrar
	middlewares    []Middleware
}

// WithConfig uses cfg instead of reading the environment.
// cfg is validated by New.
func WithConfig(cfg config.Config) Option {
	return func(o *resolvedOptions) { o.cfg = &cfg }
}

// WithPort overrides the TCP port from config (AGENTSTUDIO_PORT).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithDatabaseURL overrides DATABASE_URL and selects the Postgres backend.
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithNotifyURL overrides the direct Postgres URL used for LISTEN/NOTIFY (NOTIFY_URL).
// LISTEN needs a connection that does not go through a pooler.
func WithNotifyURL(url string) Option {
	return func(o *resolvedOptions) { o.notifyURL = url }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported by /health, MCP and the logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithChangeHook registers a hook that is told about every directory mutation.
func WithChangeHook(hook ChangeHook) Option {
	return func(o *resolvedOptions) { o.changeHooks = append(o.changeHooks, hook) }
}

// WithExtraRoutes registers additional routes on the shared HTTP mux.
func WithExtraRoutes(fn RouteRegistrar) Option {
	return func(o *resolvedOptions) { o.routeRegistrar = append(o.routeRegistrar, fn) }
}

// WithMiddleware registers an outermost HTTP middleware.
func WithMiddleware(mw Middleware) Option {
	return func(o *resolvedOptions) { o.middlewares = append(o.middlewares, mw) }
}
