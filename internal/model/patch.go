package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AgentDraft is the payload for creating a custom agent. Only name,
// description and externalUrl are required; everything else falls back to a
// default in the directory service.
type AgentDraft struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Category           Category `json:"category,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Status             Status   `json:"status,omitempty"`
	ExternalURL        string   `json:"externalUrl,omitempty"`
	ImageURL           string   `json:"imageUrl,omitempty"`
	PrimaryActionLabel string   `json:"primaryActionLabel,omitempty"`

	// VercelURL is the legacy name for ExternalURL still sent by older clients.
	VercelURL string `json:"vercelUrl,omitempty"`
}

// Normalize folds the legacy URL key into ExternalURL and cleans up tags.
func (d *AgentDraft) Normalize() {
	if d.ExternalURL == "" {
		d.ExternalURL = d.VercelURL
	}
	d.VercelURL = ""
	d.Tags = NormalizeTags(d.Tags)
}

// Validate reports every missing required field at once, then checks enum
// and URL fields.
func (d AgentDraft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(d.ExternalURL) == "" && strings.TrimSpace(d.VercelURL) == "" {
		missing = append(missing, "externalUrl")
	}
	if len(missing) > 0 {
		return missingFields(missing)
	}
	if d.Category != "" && !d.Category.Valid() {
		return invalidCategory(d.Category)
	}
	if d.Status != "" && !d.Status.Valid() {
		return invalidStatus(d.Status)
	}
	u := d.ExternalURL
	if u == "" {
		u = d.VercelURL
	}
	if err := ValidateExternalURL(u); err != nil {
		return err
	}
	return ValidateImageURL(d.ImageURL)
}

// AgentPatch is a sparse set of field updates. A nil pointer means the field
// was not provided; a non-nil pointer is an explicit value, including an
// explicitly empty tag list. id, slug and lastUpdated are not patchable.
type AgentPatch struct {
	Name               *string   `json:"name,omitempty"`
	Description        *string   `json:"description,omitempty"`
	Category           *Category `json:"category,omitempty"`
	Tags               *[]string `json:"tags,omitempty"`
	Status             *Status   `json:"status,omitempty"`
	ExternalURL        *string   `json:"externalUrl,omitempty"`
	ImageURL           *string   `json:"imageUrl,omitempty"`
	PrimaryActionLabel *string   `json:"primaryActionLabel,omitempty"`
}

// patchWire is the accepted update payload. It differs from AgentPatch only
// by the legacy vercelUrl key.
type patchWire struct {
	AgentPatch
	VercelURL *string `json:"vercelUrl,omitempty"`
}

// DecodePatch parses an update payload, rejecting keys that are not part of
// the patchable field set.
func DecodePatch(raw []byte) (AgentPatch, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return AgentPatch{}, &ValidationError{Fields: []string{"updates"}, Message: "updates is required"}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	var w patchWire
	if err := dec.Decode(&w); err != nil {
		return AgentPatch{}, decodeError(err)
	}

	p := w.AgentPatch
	if w.VercelURL != nil {
		if p.ExternalURL != nil && *p.ExternalURL != *w.VercelURL {
			return AgentPatch{}, &ValidationError{
				Fields:  []string{"externalUrl", "vercelUrl"},
				Message: "externalUrl and vercelUrl disagree",
			}
		}
		p.ExternalURL = w.VercelURL
	}
	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		if tags == nil {
			tags = []string{}
		}
		p.Tags = &tags
	}
	return p, nil
}

// IsEmpty reports whether no field is set.
func (p AgentPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil && p.Tags == nil &&
		p.Status == nil && p.ExternalURL == nil && p.ImageURL == nil && p.PrimaryActionLabel == nil
}

// ForOverride returns a copy of p fit for storing as a seed override. An
// empty optional string means "not set" there, so it becomes absent and
// cannot blank the seed value when merged.
func (p AgentPatch) ForOverride() AgentPatch {
	out := p.Clone()
	if out.ImageURL != nil && strings.TrimSpace(*out.ImageURL) == "" {
		out.ImageURL = nil
	}
	if out.PrimaryActionLabel != nil && strings.TrimSpace(*out.PrimaryActionLabel) == "" {
		out.PrimaryActionLabel = nil
	}
	return out
}

// Validate checks every present field. Required fields may be omitted but
// not blanked. An empty patch is valid and changes nothing.
func (p AgentPatch) Validate() error {
	var blank []string
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		blank = append(blank, "name")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		blank = append(blank, "description")
	}
	if p.ExternalURL != nil && strings.TrimSpace(*p.ExternalURL) == "" {
		blank = append(blank, "externalUrl")
	}
	if len(blank) > 0 {
		return &ValidationError{Fields: blank, Message: "required fields cannot be empty: " + strings.Join(blank, ", ")}
	}
	if p.Category != nil && !p.Category.Valid() {
		return invalidCategory(*p.Category)
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalidStatus(*p.Status)
	}
	if p.ExternalURL != nil {
		if err := ValidateExternalURL(*p.ExternalURL); err != nil {
			return err
		}
	}
	if p.ImageURL != nil {
		if err := ValidateImageURL(*p.ImageURL); err != nil {
			return err
		}
	}
	return nil
}

// Fields returns the JSON names of the fields present in p, in declaration order.
func (p AgentPatch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Description != nil, "description")
	add(p.Category != nil, "category")
	add(p.Tags != nil, "tags")
	add(p.Status != nil, "status")
	add(p.ExternalURL != nil, "externalUrl")
	add(p.ImageURL != nil, "imageUrl")
	add(p.PrimaryActionLabel != nil, "primaryActionLabel")
	return out
}

// Clone returns a deep copy of p.
func (p AgentPatch) Clone() AgentPatch {
	out := AgentPatch{
		Name:               clonePtr(p.Name),
		Description:        clonePtr(p.Description),
		Category:           clonePtr(p.Category),
		Status:             clonePtr(p.Status),
		ExternalURL:        clonePtr(p.ExternalURL),
		ImageURL:           clonePtr(p.ImageURL),
		PrimaryActionLabel: clonePtr(p.PrimaryActionLabel),
	}
	if p.Tags != nil {
		tags := cloneTags(*p.Tags)
		if tags == nil {
			tags = []string{}
		}
		out.Tags = &tags
	}
	return out
}

// NormalizeTags trims each tag, drops empties and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// decodeError turns a json decoding failure into a ValidationError naming the
// offending key where one can be recovered.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "updates"
		}
		return &ValidationError{
			Fields:  []string{field},
			Message: fmt.Sprintf("%s: unexpected JSON %s", field, typeErr.Value),
		}
	}
	if msg := err.Error(); strings.HasPrefix(msg, "json: unknown field ") {
		key := strings.TrimPrefix(msg, "json: unknown field ")
		if unq, uerr := strconv.Unquote(key); uerr == nil {
			key = unq
		}
		return &ValidationError{
			Fields:  []string{key},
			Message: fmt.Sprintf("unknown field %q", key),
		}
	}
	return &ValidationError{Fields: []string{"updates"}, Message: "malformed updates: " + err.Error()}
}
