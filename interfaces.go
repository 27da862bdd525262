package agentstudio

import (
	"context"
	"net/http"
)

// ChangeHook receives a notification after every directory mutation.
// Multiple hooks may be registered via multiple WithChangeHook calls.
// Hooks run in their own goroutine and must not block indefinitely.
// Failures are logged but do not fail the originating request.
type ChangeHook interface {
	OnAgentChanged(ctx context.Context, ev ChangeEvent) error
}

// ChangeHookFunc adapts a function to ChangeHook.
type ChangeHookFunc func(ctx context.Context, ev ChangeEvent) error

// OnAgentChanged calls f.
func (f ChangeHookFunc) OnAgentChanged(ctx context.Context, ev ChangeEvent) error {
	return f(ctx, ev)
}

// RouteRegistrar registers additional routes on the shared HTTP mux.
// Extra routes get the same request IDs, tracing, logging and rate limiting
// as the built-in ones. Called once during New after the built-in routes.
type RouteRegistrar func(mux *http.ServeMux)

// Middleware wraps the root HTTP handler.
// Applied outermost, so it sees every request including /health.
// Multiple middlewares are applied in registration order (first-registered = outermost).
type Middleware func(http.Handler) http.Handler
