package catalog

import (
	"slices"
	"strings"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

// Query is a gallery search. Text matches case-insensitively against name,
// description, category and tags. Categories and Statuses each restrict the
// result to any of the listed values; an empty list does not restrict.
type Query struct {
	Text       string
	Categories []model.Category
	Statuses   []model.Status
}

// IsZero reports whether q matches everything.
func (q Query) IsZero() bool {
	return strings.TrimSpace(q.Text) == "" && len(q.Categories) == 0 && len(q.Statuses) == 0
}

// Filter returns the agents matching q, preserving input order.
func Filter(agents []model.AgentRecord, q Query) []model.AgentRecord {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]model.AgentRecord, 0, len(agents))
	for _, a := range agents {
		if len(q.Categories) > 0 && !slices.Contains(q.Categories, a.Category) {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, a.Status) {
			continue
		}
		if text != "" && !matchesText(a, text) {
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}

func matchesText(a model.AgentRecord, text string) bool {
	if strings.Contains(strings.ToLower(a.Name), text) ||
		strings.Contains(strings.ToLower(a.Description), text) ||
		strings.Contains(strings.ToLower(string(a.Category)), text) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return false
}
