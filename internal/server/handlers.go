package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/images"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/service/directory"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	directory           *directory.Service
	storage             Pinger
	storageDriver       string
	uploader            *images.Uploader
	imageStore          Pinger
	broker              *Broker
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	openapiSpec         []byte
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Uploader, ImageStore, Broker, OpenAPISpec.
type HandlersDeps struct {
	Directory           *directory.Service
	Storage             Pinger
	StorageDriver       string
	Uploader            *images.Uploader
	ImageStore          Pinger
	Broker              *Broker
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	OpenAPISpec         []byte
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		directory:           d.Directory,
		storage:             d.Storage,
		storageDriver:       d.StorageDriver,
		uploader:            d.Uploader,
		imageStore:          d.ImageStore,
		broker:              d.Broker,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		openapiSpec:         d.OpenAPISpec,
	}
}

// HandleSubscribe handles GET /v1/agents/events (SSE).
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	if h.broker == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "change stream not available")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Long-lived: lift the server's WriteTimeout for this response.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	ch := h.broker.Subscribe()
	defer h.broker.Unsubscribe(ch)

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			if _, err := w.Write([]byte(":keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	storageStatus := "connected"
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.storage.Ping(r.Context()); err != nil {
		storageStatus = "disconnected"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	resp := model.HealthResponse{
		Status:  status,
		Version: h.version,
		Storage: storageStatus,
		Driver:  h.storageDriver,
		Uptime:  int64(time.Since(h.startedAt).Seconds()),
	}

	if h.imageStore != nil {
		if err := h.imageStore.Ping(r.Context()); err == nil {
			resp.ImageStore = "connected"
		} else {
			resp.ImageStore = "disconnected"
			if status == "healthy" {
				resp.Status = "degraded"
			}
		}
	}

	if h.broker != nil {
		resp.SSEBroker = "running"
	}

	writeJSON(w, r, httpStatus, resp)
}

// HandleOpenAPISpec serves the embedded OpenAPI specification.
func (h *Handlers) HandleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.openapiSpec) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openapiSpec)
}

// writeDirectoryError maps a directory service error to a response.
// Storage failures were already logged with detail by the service.
func (h *Handlers) writeDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case model.IsValidation(err):
		writeValidationError(w, r, err)
	case errors.Is(err, directory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "agent not found")
	case errors.Is(err, directory.ErrStorage):
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "the agent directory is unavailable, try again")
	default:
		h.writeInternalError(w, r, "directory request failed", err)
	}
}

// writeInternalError logs err and writes a generic 500.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", RequestIDFromContext(r.Context()),
	)
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, msg)
}
