package model

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Category groups agents on the gallery page.
type Category string

const (
	CategoryPlanning     Category = "Planning"
	CategoryTracking     Category = "Tracking"
	CategoryIntelligence Category = "Intelligence"
	CategoryFinance      Category = "Finance"
	CategoryControlTower Category = "Control Tower"
	CategoryOther        Category = "Other"
)

// Status is the maturity label shown on an agent card.
type Status string

const (
	StatusLive         Status = "Live"
	StatusBeta         Status = "Beta"
	StatusExperimental Status = "Experimental"
)

// Defaults applied to custom agents when the draft leaves a field empty.
const (
	DefaultCategory           = CategoryOther
	DefaultStatus             = StatusLive
	DefaultImageURL           = "/agents/rate-intelligence.svg"
	DefaultPrimaryActionLabel = "See it in action"

	// LastUpdatedLayout renders lastUpdated as e.g. "Nov 2025".
	LastUpdatedLayout = "Jan 2006"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryPlanning,
		CategoryTracking,
		CategoryIntelligence,
		CategoryFinance,
		CategoryControlTower,
		CategoryOther,
	}
}

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusLive, StatusBeta, StatusExperimental}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool { return slices.Contains(Categories(), c) }

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return slices.Contains(Statuses(), s) }

// AgentRecord is one card in the catalog: a seed agent, a seed agent with an
// override applied, or a custom agent.
type AgentRecord struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	Slug               string   `json:"slug" yaml:"slug"`
	Description        string   `json:"description" yaml:"description"`
	Category           Category `json:"category" yaml:"category"`
	Tags               []string `json:"tags" yaml:"tags"`
	Status             Status   `json:"status" yaml:"status"`
	ExternalURL        string   `json:"externalUrl" yaml:"externalUrl"`
	ImageURL           string   `json:"imageUrl" yaml:"imageUrl"`
	LastUpdated        string   `json:"lastUpdated" yaml:"lastUpdated"`
	PrimaryActionLabel string   `json:"primaryActionLabel" yaml:"primaryActionLabel"`
}

// Clone returns a copy of a that shares no memory with it.
func (a AgentRecord) Clone() AgentRecord {
	a.Tags = cloneTags(a.Tags)
	return a
}

// Validate checks a complete record. Seed slugs are curated and need not
// equal Slugify(Name); drafts and patches have their own validators.
func (a AgentRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(a.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(a.Slug) == "" {
		missing = append(missing, "slug")
	}
	if strings.TrimSpace(a.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(a.ExternalURL) == "" {
		missing = append(missing, "externalUrl")
	}
	if len(missing) > 0 {
		return missingFields(missing)
	}
	if !a.Category.Valid() {
		return invalidCategory(a.Category)
	}
	if !a.Status.Valid() {
		return invalidStatus(a.Status)
	}
	if err := ValidateExternalURL(a.ExternalURL); err != nil {
		return err
	}
	return ValidateImageURL(a.ImageURL)
}

// Slugify derives the URL slug from an agent name: lowercase with each run of
// whitespace collapsed into a single hyphen.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// ValidateExternalURL ensures the embedded interface target is an absolute
// http or https URL with a host.
func ValidateExternalURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ValidationError{Fields: []string{"externalUrl"}, Message: fmt.Sprintf("externalUrl must be an absolute URL (got %q)", raw)}
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return &ValidationError{Fields: []string{"externalUrl"}, Message: fmt.Sprintf("externalUrl must use http or https (got %q)", u.Scheme)}
	}
	return nil
}

// ValidateImageURL accepts a site-relative asset path or an absolute URL.
// Empty is allowed; callers substitute DefaultImageURL.
func ValidateImageURL(raw string) error {
	if raw == "" || strings.HasPrefix(raw, "/") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ValidationError{Fields: []string{"imageUrl"}, Message: fmt.Sprintf("imageUrl must be a path or an absolute URL (got %q)", raw)}
	}
	return nil
}

func invalidCategory(c Category) error {
	return &ValidationError{Fields: []string{"category"}, Message: fmt.Sprintf("unknown category %q", c)}
}

func invalidStatus(s Status) error {
	return &ValidationError{Fields: []string{"status"}, Message: fmt.Sprintf("unknown status %q", s)}
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
