package mcp

import (
	"context"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	// add-agent: walks the assistant through registering a new agent.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("add-agent",
			mcplib.WithPromptDescription("Register a new agent in the catalog"),
			mcplib.WithArgument("name",
				mcplib.ArgumentDescription("Name of the agent to add"),
				mcplib.RequiredArgument(),
			),
			mcplib.WithArgument("url",
				mcplib.ArgumentDescription("URL of the agent's interface, if known"),
			),
		),
		s.handleAddAgentPrompt,
	)

	// tidy-catalog: review the catalog for stale or inconsistent cards.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("tidy-catalog",
			mcplib.WithPromptDescription("Review the catalog for duplicates, vague descriptions and mislabelled categories"),
		),
		s.handleTidyCatalogPrompt,
	)
}

func (s *Server) handleAddAgentPrompt(_ context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	name := strings.TrimSpace(request.Params.Arguments["name"])
	if name == "" {
		return nil, fmt.Errorf("name argument is required")
	}
	url := strings.TrimSpace(request.Params.Arguments["url"])
	urlStep := "Ask for the URL of the agent's interface; it must be an absolute http(s) URL."
	if url != "" {
		urlStep = fmt.Sprintf("Use %s as external_url.", url)
	}

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Add %s to the agent catalog", name),
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`I want to add an agent called %q to the catalog.

1. CALL agents_search with query=%q to make sure it is not already listed.
   If a close match exists, suggest editing it with agent_update instead.

2. %s

3. Write a one or two sentence description of what the agent does for an
   operations team. Pick a category (%s) and a status (%s).
   Suggest two to four short tags.

4. CALL agent_create with name, description, external_url and the fields you chose.

5. Report the new agent's id.`, name, name, urlStep,
						strings.Join(categoryNames(), ", "), strings.Join(statusNames(), ", ")),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyCatalogPrompt(_ context.Context, _ mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	return &mcplib.GetPromptResult{
		Description: "Review the agent catalog",
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: `Review the agent catalog and propose cleanups.

1. CALL agents_list with verbose=true.

2. Look for:
   - custom agents that duplicate a default agent or each other
   - descriptions that do not say what the agent does
   - categories or statuses that do not match the description
   - tags that differ only in spelling or case

3. Present the proposed changes as a list. Do not apply anything yet.

4. For each change I approve, CALL agent_update (is_default=true for default
   agents) or agent_remove for duplicates. To undo edits to a default agent,
   use agent_remove with reset=true.`,
				},
			},
		},
	}, nil
}
