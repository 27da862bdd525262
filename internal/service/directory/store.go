package directory

import (
	"context"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

// Store is the persistence the service needs. Both storage.DB (Postgres)
// and sqlite.Store satisfy it. Implementations report storage.ErrNotFound
// from UpdateCustomAgent and storage.ErrDuplicateID from InsertCustomAgent.
type Store interface {
	ListCustomAgents(ctx context.Context) ([]model.AgentRecord, error)
	InsertCustomAgent(ctx context.Context, a model.AgentRecord) error
	UpdateCustomAgent(ctx context.Context, id string, p model.AgentPatch) (model.AgentRecord, error)
	DeleteCustomAgent(ctx context.Context, id string) error

	ListOverrides(ctx context.Context) (map[string]model.AgentPatch, error)
	UpsertOverride(ctx context.Context, id string, p model.AgentPatch) (model.AgentPatch, error)
	DeleteOverride(ctx context.Context, id string) error
}

// Publisher receives an event after every successful mutation. Publish must
// not block the caller for long.
type Publisher interface {
	Publish(ctx context.Context, ev model.ChangeEvent)
}
