package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

const (
	uriAgents      = "agentstudio://agents"
	uriFacets      = "agentstudio://catalog/facets"
	uriAgentPrefix = "agentstudio://agents/"
)

func (s *Server) registerResources() {
	// agentstudio://agents: the merged directory.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriAgents,
			"Agent Catalog",
			mcplib.WithResourceDescription("Every agent as the gallery shows it, with custom agents and stored overrides"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentsResource,
	)

	// agentstudio://catalog/facets: allowed categories and statuses.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriFacets,
			"Catalog Facets",
			mcplib.WithResourceDescription("Categories and statuses an agent can have"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleFacetsResource,
	)

	// agentstudio://agents/{id}: one presented agent.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			uriAgentPrefix+"{id}",
			"Agent",
			mcplib.WithTemplateDescription("A single agent with any override applied"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleAgentResource,
	)
}

func (s *Server) handleAgentsResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	listing, err := s.directory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: agents: %w", err)
	}
	return jsonContents(uriAgents, model.ListAgentsResponse{
		Agents:         listing.Agents,
		CustomAgents:   listing.CustomAgents,
		Overrides:      listing.Overrides,
		AgentOverrides: listing.Overrides,
	})
}

func (s *Server) handleFacetsResource(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	return jsonContents(uriFacets, model.FacetsResponse{
		Categories: model.Categories(),
		Statuses:   model.Statuses(),
	})
}

func (s *Server) handleAgentResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	id, err := parseAgentURI(request.Params.URI)
	if err != nil {
		return nil, err
	}
	agent, err := s.directory.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mcp: agent %q: %w", id, err)
	}
	return jsonContents(request.Params.URI, agent)
}

// parseAgentURI extracts the id from agentstudio://agents/{id}.
func parseAgentURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, uriAgentPrefix) {
		return "", fmt.Errorf("mcp: invalid agent URI: %s", uri)
	}
	id := strings.TrimPrefix(uri, uriAgentPrefix)
	if id == "" {
		return "", errors.New("mcp: invalid agent URI: empty id")
	}
	if strings.Contains(id, "/") {
		return "", fmt.Errorf("mcp: invalid agent URI: %s", uri)
	}
	return id, nil
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
