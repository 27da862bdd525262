package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/catalog"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

func (s *Server) registerTools() {
	// agents_list: the whole directory as the gallery shows it.
	s.mcpServer.AddTool(
		mcplib.NewTool("agents_list",
			mcplib.WithDescription(`List every agent in the catalog: the default agents (with any edits applied) followed by custom agents, newest first.

WHEN TO USE: To get an overview of what exists before adding or editing an agent.
For a filtered view, use agents_search instead.

Each entry carries isDefault, which tells you how to edit it with agent_update.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithBoolean("verbose",
				mcplib.Description("Return full records (slug, imageUrl, primaryActionLabel, untruncated description) instead of compact summaries"),
			),
		),
		s.handleList,
	)

	// agents_search: gallery search and filters.
	s.mcpServer.AddTool(
		mcplib.NewTool("agents_search",
			mcplib.WithDescription(`Search the catalog the way the gallery does.

query matches case-insensitively against name, description and tags.
category and status narrow the result; each accepts one value or a
comma-separated list (any listed value matches).

EXAMPLE: agents that help with planning and are still in beta:
category="Planning", status="Beta"`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("query",
				mcplib.Description("Free text to match against name, description and tags"),
			),
			mcplib.WithString("category",
				mcplib.Description("Category filter: Planning, Tracking, Intelligence, Finance, Control Tower or Other"),
			),
			mcplib.WithString("status",
				mcplib.Description("Status filter: Live, Beta or Experimental"),
			),
			mcplib.WithBoolean("verbose",
				mcplib.Description("Return full records instead of compact summaries"),
			),
		),
		s.handleSearch,
	)

	// agent_create: add a custom agent.
	s.mcpServer.AddTool(
		mcplib.NewTool("agent_create",
			mcplib.WithDescription(`Add a custom agent to the catalog.

name, description and external_url are required. Everything else has a
default: category Other, status Live, no tags, the stock card image and the
"See it in action" button label. The id and slug are generated.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("name", mcplib.Description("Display name"), mcplib.Required()),
			mcplib.WithString("description", mcplib.Description("One or two sentences shown on the card"), mcplib.Required()),
			mcplib.WithString("external_url", mcplib.Description("Absolute http(s) URL of the agent's interface"), mcplib.Required()),
			mcplib.WithString("category",
				mcplib.Description("Planning, Tracking, Intelligence, Finance, Control Tower or Other"),
				mcplib.Enum(categoryNames()...),
			),
			mcplib.WithString("status",
				mcplib.Description("Live, Beta or Experimental"),
				mcplib.Enum(statusNames()...),
			),
			mcplib.WithArray("tags",
				mcplib.Description("Short labels shown on the card"),
				mcplib.WithStringItems(),
			),
			mcplib.WithString("image_url", mcplib.Description("Card image: a site path or an absolute URL")),
			mcplib.WithString("primary_action_label", mcplib.Description("Label of the card's main button")),
		),
		s.handleCreate,
	)

	// agent_update: edit a default agent (stored as an override) or a custom agent.
	s.mcpServer.AddTool(
		mcplib.NewTool("agent_update",
			mcplib.WithDescription(`Edit an agent. Only the fields present in updates change.

Set is_default=true for default agents (the isDefault flag from agents_list).
Their edits are stored separately and can be undone with agent_remove reset=true.

updates uses the catalog field names: name, description, category, tags,
status, externalUrl, imageUrl, primaryActionLabel. Unknown keys are rejected.
Changing name also changes the slug.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("id", mcplib.Description("Agent id"), mcplib.Required()),
			mcplib.WithBoolean("is_default", mcplib.Description("true when id names a default agent")),
			mcplib.WithObject("updates", mcplib.Description("Fields to change"), mcplib.Required()),
		),
		s.handleUpdate,
	)

	// agent_remove: delete a custom agent or reset a default one.
	s.mcpServer.AddTool(
		mcplib.NewTool("agent_remove",
			mcplib.WithDescription(`Delete a custom agent, or with reset=true discard every edit made to a default agent.

Default agents cannot be deleted. Both forms succeed when there is nothing to remove.`),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("id", mcplib.Description("Agent id"), mcplib.Required()),
			mcplib.WithBoolean("reset", mcplib.Description("Reset a default agent instead of deleting a custom one")),
		),
		s.handleRemove,
	)
}

func (s *Server) handleList(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	listing, err := s.directory.List(ctx)
	if err != nil {
		return directoryErrorResult(err), nil
	}
	return jsonResult(map[string]any{
		"agents": agentsView(listing.Agents, request.GetBool("verbose", false)),
		"total":  len(listing.Agents),
	})
}

func (s *Server) handleSearch(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	q := catalog.Query{Text: strings.TrimSpace(request.GetString("query", ""))}
	for _, c := range splitList(request.GetString("category", "")) {
		cat := model.Category(c)
		if !cat.Valid() {
			return errorResult(fmt.Sprintf("unknown category %q; use one of: %s", c, strings.Join(categoryNames(), ", "))), nil
		}
		q.Categories = append(q.Categories, cat)
	}
	for _, v := range splitList(request.GetString("status", "")) {
		st := model.Status(v)
		if !st.Valid() {
			return errorResult(fmt.Sprintf("unknown status %q; use one of: %s", v, strings.Join(statusNames(), ", "))), nil
		}
		q.Statuses = append(q.Statuses, st)
	}

	agents, err := s.directory.Search(ctx, q)
	if err != nil {
		return directoryErrorResult(err), nil
	}
	return jsonResult(map[string]any{
		"agents": agentsView(agents, request.GetBool("verbose", false)),
		"total":  len(agents),
	})
}

func (s *Server) handleCreate(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	draft := model.AgentDraft{
		Name:               request.GetString("name", ""),
		Description:        request.GetString("description", ""),
		ExternalURL:        request.GetString("external_url", ""),
		Category:           model.Category(request.GetString("category", "")),
		Status:             model.Status(request.GetString("status", "")),
		Tags:               request.GetStringSlice("tags", nil),
		ImageURL:           request.GetString("image_url", ""),
		PrimaryActionLabel: request.GetString("primary_action_label", ""),
	}

	agent, err := s.directory.CreateCustom(ctx, draft)
	if err != nil {
		return directoryErrorResult(err), nil
	}
	return jsonResult(agent)
}

func (s *Server) handleUpdate(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id := request.GetString("id", "")
	if strings.TrimSpace(id) == "" {
		return errorResult("id is required"), nil
	}

	raw, err := updatesJSON(request.GetArguments()["updates"])
	if err != nil {
		return errorResult(err.Error()), nil
	}
	patch, err := model.DecodePatch(raw)
	if err != nil {
		return directoryErrorResult(err), nil
	}

	agent, err := s.directory.UpdateAgent(ctx, id, patch, request.GetBool("is_default", false))
	if err != nil {
		return directoryErrorResult(err), nil
	}
	return jsonResult(agent)
}

func (s *Server) handleRemove(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id := request.GetString("id", "")
	if strings.TrimSpace(id) == "" {
		return errorResult("id is required"), nil
	}
	reset := request.GetBool("reset", false)

	if err := s.directory.RemoveAgent(ctx, id, reset); err != nil {
		return directoryErrorResult(err), nil
	}
	return jsonResult(map[string]any{"success": true, "id": id, "reset": reset})
}

// updatesJSON re-encodes the updates argument for the patch decoder. Some
// clients send the object as a JSON string.
func updatesJSON(v any) ([]byte, error) {
	switch u := v.(type) {
	case nil:
		return nil, fmt.Errorf("updates is required")
	case string:
		return []byte(u), nil
	default:
		data, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("updates: %w", err)
		}
		return data, nil
	}
}

func agentsView(agents []model.AgentRecord, verbose bool) any {
	if verbose {
		if agents == nil {
			return []model.AgentRecord{}
		}
		return agents
	}
	return compactAgents(agents)
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" && part != "All" {
			out = append(out, part)
		}
	}
	return out
}

func categoryNames() []string {
	cats := model.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func statusNames() []string {
	sts := model.Statuses()
	out := make([]string, len(sts))
	for i, st := range sts {
		out[i] = string(st)
	}
	return out
}
