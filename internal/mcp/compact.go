package mcp

import (
	"strings"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/catalog"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

const maxCompactDescription = 160

// compactAgent returns the fields an assistant needs to pick an agent.
// Drops slug, imageUrl and primaryActionLabel, which only matter to the
// gallery card, and shortens long descriptions.
func compactAgent(a model.AgentRecord) map[string]any {
	m := map[string]any{
		"id":          a.ID,
		"name":        a.Name,
		"category":    a.Category,
		"status":      a.Status,
		"externalUrl": a.ExternalURL,
		"description": truncate(a.Description, maxCompactDescription),
		"isDefault":   catalog.IsSeedID(a.ID),
	}
	if len(a.Tags) > 0 {
		m["tags"] = a.Tags
	}
	if a.LastUpdated != "" {
		m["lastUpdated"] = a.LastUpdated
	}
	return m
}

func compactAgents(agents []model.AgentRecord) []map[string]any {
	out := make([]map[string]any, len(agents))
	for i, a := range agents {
		out[i] = compactAgent(a)
	}
	return out
}

// truncate cuts s to at most n runes, breaking on a word boundary when one
// is close, and marks the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
