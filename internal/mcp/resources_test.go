package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

func TestParseAgentURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		wantID    string
		wantError bool
	}{
		{name: "seed id", uri: "agentstudio://agents/4", wantID: "4"},
		{name: "custom id", uri: "agentstudio://agents/custom-1731400000000", wantID: "custom-1731400000000"},
		{name: "empty id", uri: "agentstudio://agents/", wantError: true},
		{name: "nested path", uri: "agentstudio://agents/4/history", wantError: true},
		{name: "wrong scheme", uri: "other://agents/4", wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := parseAgentURI(tt.uri)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func readResource(uri string) mcplib.ReadResourceRequest {
	return mcplib.ReadResourceRequest{Params: mcplib.ReadResourceParams{URI: uri}}
}

func resourceText(t *testing.T, contents []mcplib.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", tc.MIMEType)
	return tc.Text
}

func TestAgentsResource(t *testing.T) {
	s := newTestServer(t)
	contents, err := s.handleAgentsResource(context.Background(), readResource(uriAgents))
	require.NoError(t, err)

	var body model.ListAgentsResponse
	require.NoError(t, json.Unmarshal([]byte(resourceText(t, contents)), &body))
	assert.Len(t, body.Agents, 9)
	assert.Empty(t, body.CustomAgents)
}

func TestAgentResource(t *testing.T) {
	s := newTestServer(t)
	uri := "agentstudio://agents/8"
	contents, err := s.handleAgentResource(context.Background(), readResource(uri))
	require.NoError(t, err)

	var agent model.AgentRecord
	require.NoError(t, json.Unmarshal([]byte(resourceText(t, contents)), &agent))
	assert.Equal(t, "Price Negotiator", agent.Name)

	_, err = s.handleAgentResource(context.Background(), readResource("agentstudio://agents/custom-0"))
	assert.Error(t, err)
}

func TestFacetsResource(t *testing.T) {
	s := newTestServer(t)
	contents, err := s.handleFacetsResource(context.Background(), readResource(uriFacets))
	require.NoError(t, err)

	var body model.FacetsResponse
	require.NoError(t, json.Unmarshal([]byte(resourceText(t, contents)), &body))
	assert.Equal(t, model.Categories(), body.Categories)
	assert.Equal(t, model.Statuses(), body.Statuses)
}
