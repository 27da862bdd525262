package agentstudio

import "time"

// Agent is the public view of one catalog card, as the gallery shows it.
// It has no internal package imports so extensions can depend on it.
type Agent struct {
	ID                 string
	Name               string
	Slug               string
	Description        string
	Category           string
	Tags               []string
	Status             string
	ExternalURL        string
	ImageURL           string
	LastUpdated        string
	PrimaryActionLabel string
}

// ChangeKind names a directory mutation.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeReset   ChangeKind = "reset"
)

// ChangeEvent describes a successful directory mutation.
type ChangeEvent struct {
	Kind    ChangeKind
	AgentID string
	// IsDefault is true when AgentID names a default agent.
	IsDefault bool
	At        time.Time
}
