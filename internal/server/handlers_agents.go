package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

// HandleListAgents handles GET /v1/agents.
func (h *Handlers) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	listing, err := h.directory.List(r.Context())
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, model.ListAgentsResponse{
		Agents:         listing.Agents,
		CustomAgents:   listing.CustomAgents,
		Overrides:      listing.Overrides,
		AgentOverrides: listing.Overrides,
	})
}

// HandleGetAgent handles GET /v1/agents/{id}.
func (h *Handlers) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.directory.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, agent)
}

// HandleCreateAgent handles POST /v1/agents.
func (h *Handlers) HandleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var draft model.AgentDraft
	if err := decodeJSON(w, r, &draft, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	agent, err := h.directory.CreateCustom(r.Context(), draft)
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, model.MutationResult{Success: true, Agent: &agent})
}

// HandleUpdateAgent handles PUT /v1/agents with {id, updates, isDefault}.
func (h *Handlers) HandleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateAgentRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeValidationError(w, r, &model.ValidationError{Fields: []string{"id"}, Message: "missing id or updates"})
		return
	}

	patch, err := model.DecodePatch(req.Updates)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	agent, err := h.directory.UpdateAgent(r.Context(), req.ID, patch, req.IsDefault)
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, model.MutationResult{Success: true, Agent: &agent})
}

// HandleDeleteAgent handles DELETE /v1/agents?id=…&reset=true.
// reset=true reverts a default agent to its seed values.
func (h *Handlers) HandleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get("id"))
	if id == "" {
		writeValidationError(w, r, &model.ValidationError{Fields: []string{"id"}, Message: "agent id is required"})
		return
	}

	reset := false
	if raw := q.Get("reset"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeValidationError(w, r, &model.ValidationError{Fields: []string{"reset"}, Message: "reset must be true or false"})
			return
		}
		reset = v
	}

	if err := h.directory.RemoveAgent(r.Context(), id, reset); err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, model.MutationResult{Success: true})
}
