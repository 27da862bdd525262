package mcp

import (
	"context"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptText(t *testing.T, result *mcplib.GetPromptResult) string {
	t.Helper()
	require.NotEmpty(t, result.Messages)
	msg := result.Messages[0]
	assert.Equal(t, mcplib.RoleUser, msg.Role)
	tc, ok := msg.Content.(mcplib.TextContent)
	require.True(t, ok, "message content should be TextContent")
	return tc.Text
}

func TestAddAgentPrompt(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleAddAgentPrompt(context.Background(), mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{
			Name:      "add-agent",
			Arguments: map[string]string{"name": "Yard Manager", "url": "https://yard.example.com"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, result.Description, "Yard Manager")

	text := promptText(t, result)
	assert.Contains(t, text, "agents_search")
	assert.Contains(t, text, "agent_create")
	assert.Contains(t, text, "https://yard.example.com")
	assert.Contains(t, text, "Control Tower")
}

func TestAddAgentPrompt_WithoutURL(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleAddAgentPrompt(context.Background(), mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{
			Name:      "add-agent",
			Arguments: map[string]string{"name": "Yard Manager"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, promptText(t, result), "Ask for the URL")
}

func TestAddAgentPrompt_MissingName(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleAddAgentPrompt(context.Background(), mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{Name: "add-agent", Arguments: map[string]string{}},
	})
	assert.Error(t, err)
}

func TestTidyCatalogPrompt(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleTidyCatalogPrompt(context.Background(), mcplib.GetPromptRequest{})
	require.NoError(t, err)

	text := promptText(t, result)
	assert.Contains(t, text, "agents_list")
	assert.Contains(t, text, "reset=true")
}
