package model

import (
	"encoding/json"
	"time"
)

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeUnavailable     = "UNAVAILABLE"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedType = "UNSUPPORTED_MEDIA_TYPE"
)

// ValidationDetails is carried in ErrorDetail.Details for INVALID_INPUT errors.
type ValidationDetails struct {
	Fields []string `json:"fields"`
}

// ListAgentsResponse is the response for GET /v1/agents.
// AgentOverrides mirrors Overrides under the key older settings pages read.
type ListAgentsResponse struct {
	Agents         []AgentRecord         `json:"agents"`
	CustomAgents   []AgentRecord         `json:"customAgents"`
	Overrides      map[string]AgentPatch `json:"overrides"`
	AgentOverrides map[string]AgentPatch `json:"agentOverrides"`
}

// UpdateAgentRequest is the request body for PUT /v1/agents.
// Updates stays raw so the patch decoder can reject unknown keys.
type UpdateAgentRequest struct {
	ID        string          `json:"id"`
	Updates   json.RawMessage `json:"updates"`
	IsDefault bool            `json:"isDefault"`
}

// MutationResult is the body returned by create, update and delete.
type MutationResult struct {
	Success bool         `json:"success"`
	Agent   *AgentRecord `json:"agent,omitempty"`
}

// CatalogResponse is the response for GET /v1/catalog.
type CatalogResponse struct {
	Agents []AgentRecord `json:"agents"`
	Total  int           `json:"total"`
	Query  string        `json:"query,omitempty"`
}

// FacetsResponse lists the filter values offered by the gallery.
type FacetsResponse struct {
	Categories []Category `json:"categories"`
	Statuses   []Status   `json:"statuses"`
}

// ImageUploadResponse is the response for POST /v1/images.
type ImageUploadResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Storage    string `json:"storage"`
	Driver     string `json:"driver"`
	ImageStore string `json:"image_store,omitempty"`
	SSEBroker  string `json:"sse_broker,omitempty"`
	Uptime     int64  `json:"uptime_seconds"`
}

// ChangeKind names a directory mutation.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeReset   ChangeKind = "reset"
)

// ChangeEvent is published after a successful directory mutation so that
// open galleries can refresh.
type ChangeEvent struct {
	Kind      ChangeKind `json:"kind"`
	AgentID   string     `json:"agentId"`
	IsDefault bool       `json:"isDefault"`
	At        time.Time  `json:"at"`
}

// LegacyResult is the bare body written on the /api/agents alias, which the
// original settings page reads without the data envelope.
type LegacyResult struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}
