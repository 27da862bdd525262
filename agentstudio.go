// Package agentstudio is the public API for embedding the Agent Studio server.
//
// The agentstudio command uses it, and so can a deployment that wants to add
// routes, middleware or change hooks without forking:
//
//	app, err := agentstudio.New(ctx,
//	    agentstudio.WithVersion(version),
//	    agentstudio.WithLogger(logger),
//	    agentstudio.WithChangeHook(auditHook{}),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The root package imports internal/*, never the other way round. Public
// types (Agent, ChangeEvent) are standalone structs; conversions live here.
package agentstudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AhmedFT-hub/FT-Agent-Studio/api"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/config"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/images"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/mcp"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/ratelimit"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/server"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/service/directory"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage/backend"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/telemetry"
)

// App is the Agent Studio server lifecycle. Construct with New, run with Run.
type App struct {
	cfg          config.Config
	backend      *backend.Backend
	directory    *directory.Service
	srv          *server.Server
	broker       *server.Broker
	limiter      ratelimit.Limiter
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New connects to storage, applies migrations and wires every subsystem.
// It does not start goroutines or accept connections; call Run.
func New(ctx context.Context, opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg config.Config
	if o.cfg != nil {
		cfg = *o.cfg
	} else {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.databaseURL != "" {
		cfg.Storage = config.StoragePostgres
		cfg.DatabaseURL = o.databaseURL
	}
	if o.notifyURL != "" {
		cfg.NotifyURL = o.notifyURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("agentstudio starting", "version", version, "port", cfg.Port, "storage", cfg.Storage)

	otelShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:       cfg.OTELEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Insecure:       cfg.OTELInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	b, err := backend.Open(ctx, cfg, logger, backend.Options{Migrate: true})
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, err
	}

	// With a LISTEN connection the broker relays changes between replicas
	// over pg_notify; otherwise events stay in this process.
	var notifier server.Notifier
	if b.HasNotify() {
		notifier = b.Postgres
	} else {
		logger.Info("change events: in-process only (no notify connection)")
	}
	broker := server.NewBroker(notifier, logger)

	var publisher directory.Publisher = broker
	if len(o.changeHooks) > 0 {
		publisher = &hookPublisher{next: broker, hooks: o.changeHooks, logger: logger}
	}
	dir := directory.New(b.Store, logger, directory.WithPublisher(publisher))

	var uploader *images.Uploader
	var imageStore server.Pinger
	if cfg.ImagesEnabled() {
		minioStore, err := images.NewMinioStore(ctx, images.MinioConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			Secure:    cfg.MinIOSecure,
			PublicURL: cfg.MinIOPublicURL,
		}, logger)
		if err != nil {
			b.Close()
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("images: %w", err)
		}
		uploader = images.NewUploader(minioStore, cfg.MaxImageBytes)
		imageStore = minioStore
		logger.Info("image uploads: enabled", "bucket", cfg.MinIOBucket)
	} else {
		logger.Info("image uploads: disabled (no MINIO_ENDPOINT)")
	}

	var limiter ratelimit.Limiter
	var retryAfter time.Duration
	if cfg.RateLimitEnabled {
		mem := ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		limiter = mem
		retryAfter = mem.RetryAfter()
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	mcpSrv := mcp.New(dir, logger, version)

	extraRoutes := make([]func(*http.ServeMux), 0, len(o.routeRegistrar))
	for _, fn := range o.routeRegistrar {
		extraRoutes = append(extraRoutes, fn)
	}
	middlewares := make([]func(http.Handler) http.Handler, 0, len(o.middlewares))
	for _, mw := range o.middlewares {
		middlewares = append(middlewares, mw)
	}

	srv := server.New(server.ServerConfig{
		Directory:           dir,
		Storage:             b.Pinger,
		StorageDriver:       b.Driver,
		Logger:              logger,
		Uploader:            uploader,
		ImageStore:          imageStore,
		Broker:              broker,
		Limiter:             limiter,
		MCPServer:           mcpSrv.MCPServer(),
		RateLimitRetryAfter: retryAfter,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		OpenAPISpec:         api.OpenAPISpec,
		ExtraRoutes:         extraRoutes,
		Middlewares:         middlewares,
	})

	return &App{
		cfg:          cfg,
		backend:      b,
		directory:    dir,
		srv:          srv,
		broker:       broker,
		limiter:      limiter,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Handler returns the root HTTP handler, for tests and custom listeners.
func (a *App) Handler() http.Handler {
	return a.srv.Handler()
}

// Agents returns the directory as the gallery shows it.
func (a *App) Agents(ctx context.Context) ([]Agent, error) {
	listing, err := a.directory.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Agent, len(listing.Agents))
	for i, rec := range listing.Agents {
		out[i] = toPublicAgent(rec)
	}
	return out, nil
}

// Run starts the change broker and the HTTP server, then blocks until ctx is
// cancelled or the server fails. Shutdown is called on return.
func (a *App) Run(ctx context.Context) error {
	go a.broker.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	if err := a.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops accepting HTTP requests, drains in-flight ones within
// AGENTSTUDIO_SHUTDOWN_TIMEOUT, then closes storage and telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("agentstudio shutting down")

	httpCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
	err := a.srv.Shutdown(httpCtx)
	cancel()
	if err != nil {
		a.logger.Error("http shutdown error", "error", err)
	}

	_ = a.limiter.Close()
	a.backend.Close()
	_ = a.otelShutdown(context.Background())

	a.logger.Info("agentstudio stopped")
	return err
}

// hookPublisher forwards events to the broker, then to each ChangeHook in
// its own goroutine.
type hookPublisher struct {
	next   directory.Publisher
	hooks  []ChangeHook
	logger *slog.Logger
}

func (p *hookPublisher) Publish(ctx context.Context, ev model.ChangeEvent) {
	p.next.Publish(ctx, ev)

	pub := toPublicEvent(ev)
	hookCtx := context.WithoutCancel(ctx)
	for _, h := range p.hooks {
		go func() {
			if err := h.OnAgentChanged(hookCtx, pub); err != nil {
				p.logger.Warn("change hook failed", "error", err, "kind", pub.Kind, "agent_id", pub.AgentID)
			}
		}()
	}
}

func toPublicAgent(rec model.AgentRecord) Agent {
	return Agent{
		ID:                 rec.ID,
		Name:               rec.Name,
		Slug:               rec.Slug,
		Description:        rec.Description,
		Category:           string(rec.Category),
		Tags:               append([]string(nil), rec.Tags...),
		Status:             string(rec.Status),
		ExternalURL:        rec.ExternalURL,
		ImageURL:           rec.ImageURL,
		LastUpdated:        rec.LastUpdated,
		PrimaryActionLabel: rec.PrimaryActionLabel,
	}
}

func toPublicEvent(ev model.ChangeEvent) ChangeEvent {
	return ChangeEvent{
		Kind:      ChangeKind(ev.Kind),
		AgentID:   ev.AgentID,
		IsDefault: ev.IsDefault,
		At:        ev.At,
	}
}
