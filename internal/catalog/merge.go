package catalog

import "github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"

// Present combines seed records, overrides and custom agents into the list
// shown to users: every seed record in seed order with its override applied,
// followed by the custom agents in the order given. Inputs are not modified.
func Present(seed []model.AgentRecord, overrides map[string]model.AgentPatch, custom []model.AgentRecord) []model.AgentRecord {
	out := make([]model.AgentRecord, 0, len(seed)+len(custom))
	for _, s := range seed {
		if o, ok := overrides[s.ID]; ok {
			out = append(out, ApplyPatch(s, o))
			continue
		}
		out = append(out, s.Clone())
	}
	for _, c := range custom {
		out = append(out, c.Clone())
	}
	return out
}

// ApplyPatch overwrites each field of rec that p sets. Tags are replaced as a
// whole. A changed name re-derives the slug.
func ApplyPatch(rec model.AgentRecord, p model.AgentPatch) model.AgentRecord {
	out := rec.Clone()
	if p.Name != nil && *p.Name != rec.Name {
		out.Name = *p.Name
		out.Slug = model.Slugify(*p.Name)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.ExternalURL != nil {
		out.ExternalURL = *p.ExternalURL
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if p.PrimaryActionLabel != nil {
		out.PrimaryActionLabel = *p.PrimaryActionLabel
	}
	return out
}

// MergePatch layers next over prev: fields set in next win, fields only set
// in prev survive. This is the upsert rule for stored overrides.
func MergePatch(prev, next model.AgentPatch) model.AgentPatch {
	out := prev.Clone()
	n := next.Clone()
	if n.Name != nil {
		out.Name = n.Name
	}
	if n.Description != nil {
		out.Description = n.Description
	}
	if n.Category != nil {
		out.Category = n.Category
	}
	if n.Tags != nil {
		out.Tags = n.Tags
	}
	if n.Status != nil {
		out.Status = n.Status
	}
	if n.ExternalURL != nil {
		out.ExternalURL = n.ExternalURL
	}
	if n.ImageURL != nil {
		out.ImageURL = n.ImageURL
	}
	if n.PrimaryActionLabel != nil {
		out.PrimaryActionLabel = n.PrimaryActionLabel
	}
	return out
}
