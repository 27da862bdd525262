// Package directory is the agent directory service: the single place that
// reads and writes the override and custom agent stores and returns merged
// results. The HTTP API, the MCP tools and the CLI all go through it.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/catalog"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/ctxutil"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/telemetry"
)

// createAttempts bounds id collision retries in CreateCustom.
const createAttempts = 3

// Listing is the full state of the directory.
type Listing struct {
	// Agents is every seed agent with its override applied, followed by the
	// custom agents newest first.
	Agents       []model.AgentRecord
	CustomAgents []model.AgentRecord
	Overrides    map[string]model.AgentPatch
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the receiver of change events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements the directory operations.
type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	ids       idGenerator

	tracer    trace.Tracer
	mutations metric.Int64Counter
}

// New creates a Service over store.
func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	meter := telemetry.Meter("agentstudio/directory")
	mutations, _ := meter.Int64Counter("agentstudio.directory.mutations",
		metric.WithDescription("Directory mutations by operation and outcome"),
	)
	s := &Service{
		store:     store,
		logger:    logger,
		now:       time.Now,
		tracer:    telemetry.Tracer("agentstudio/directory"),
		mutations: mutations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List reads both stores concurrently and merges them with the seed catalog.
func (s *Service) List(ctx context.Context) (Listing, error) {
	ctx, span := s.tracer.Start(ctx, "directory.List")
	defer span.End()

	var (
		custom    []model.AgentRecord
		overrides map[string]model.AgentPatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		custom, err = s.store.ListCustomAgents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		overrides, err = s.store.ListOverrides(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Listing{}, s.storageFailure(ctx, span, "list", err)
	}
	if custom == nil {
		custom = []model.AgentRecord{}
	}
	if overrides == nil {
		overrides = map[string]model.AgentPatch{}
	}

	agents := catalog.Present(catalog.Seed(), overrides, custom)
	span.SetAttributes(
		attribute.Int("agentstudio.agents", len(agents)),
		attribute.Int("agentstudio.custom_agents", len(custom)),
		attribute.Int("agentstudio.overrides", len(overrides)),
	)
	return Listing{Agents: agents, CustomAgents: custom, Overrides: overrides}, nil
}

// Get returns the presented form of one agent.
func (s *Service) Get(ctx context.Context, id string) (model.AgentRecord, error) {
	listing, err := s.List(ctx)
	if err != nil {
		return model.AgentRecord{}, err
	}
	for _, a := range listing.Agents {
		if a.ID == id {
			return a, nil
		}
	}
	return model.AgentRecord{}, fmt.Errorf("directory: agent %q: %w", id, ErrNotFound)
}

// Search filters the merged directory for the gallery.
func (s *Service) Search(ctx context.Context, q catalog.Query) ([]model.AgentRecord, error) {
	listing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(listing.Agents, q), nil
}

// CreateCustom validates the draft, fills defaults and stores a new custom
// agent under a generated id.
func (s *Service) CreateCustom(ctx context.Context, draft model.AgentDraft) (model.AgentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "directory.CreateCustom")
	defer span.End()

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		s.record(ctx, "create", "invalid")
		span.SetStatus(codes.Error, "validation")
		return model.AgentRecord{}, err
	}

	now := s.now()
	rec := model.AgentRecord{
		Name:               strings.TrimSpace(draft.Name),
		Description:        strings.TrimSpace(draft.Description),
		Category:           draft.Category,
		Tags:               draft.Tags,
		Status:             draft.Status,
		ExternalURL:        strings.TrimSpace(draft.ExternalURL),
		ImageURL:           draft.ImageURL,
		LastUpdated:        now.Format(model.LastUpdatedLayout),
		PrimaryActionLabel: strings.TrimSpace(draft.PrimaryActionLabel),
	}
	rec.Slug = model.Slugify(rec.Name)
	if rec.Category == "" {
		rec.Category = model.DefaultCategory
	}
	if rec.Status == "" {
		rec.Status = model.DefaultStatus
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if rec.ImageURL == "" {
		rec.ImageURL = model.DefaultImageURL
	}
	if rec.PrimaryActionLabel == "" {
		rec.PrimaryActionLabel = model.DefaultPrimaryActionLabel
	}

	var err error
	for range createAttempts {
		rec.ID = s.ids.next(now)
		err = s.store.InsertCustomAgent(ctx, rec)
		if !errors.Is(err, storage.ErrDuplicateID) {
			break
		}
		s.logger.Warn("directory: custom id collision, retrying", "id", rec.ID)
	}
	if err != nil {
		return model.AgentRecord{}, s.storageFailure(ctx, span, "create", err)
	}

	span.SetAttributes(attribute.String("agentstudio.agent_id", rec.ID))
	s.record(ctx, "create", "ok")
	s.publish(ctx, model.ChangeCreated, rec.ID, false)
	return rec, nil
}

// UpdateAgent applies patch to a seed agent (isDefault) by upserting its
// override, or to a custom agent in place. It returns the agent as it will
// now be presented. A patch that sets nothing writes nothing and publishes
// nothing.
func (s *Service) UpdateAgent(ctx context.Context, id string, patch model.AgentPatch, isDefault bool) (model.AgentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "directory.UpdateAgent")
	defer span.End()
	span.SetAttributes(
		attribute.String("agentstudio.agent_id", id),
		attribute.Bool("agentstudio.is_default", isDefault),
		attribute.StringSlice("agentstudio.fields", patch.Fields()),
	)

	if err := requireID(id); err != nil {
		s.record(ctx, "update", "invalid")
		return model.AgentRecord{}, err
	}
	if err := patch.Validate(); err != nil {
		s.record(ctx, "update", "invalid")
		span.SetStatus(codes.Error, "validation")
		return model.AgentRecord{}, err
	}

	if isDefault {
		seed, ok := catalog.SeedByID(id)
		if !ok {
			s.record(ctx, "update", "not_found")
			return model.AgentRecord{}, fmt.Errorf("directory: default agent %q: %w", id, ErrNotFound)
		}
		patch = patch.ForOverride()
		if patch.IsEmpty() {
			return s.unchanged(ctx, id)
		}
		stored, err := s.store.UpsertOverride(ctx, id, patch)
		if err != nil {
			return model.AgentRecord{}, s.storageFailure(ctx, span, "update", err)
		}
		s.record(ctx, "update", "ok")
		s.publish(ctx, model.ChangeUpdated, id, true)
		return catalog.ApplyPatch(seed, stored), nil
	}

	if catalog.IsSeedID(id) {
		s.record(ctx, "update", "invalid")
		return model.AgentRecord{}, &model.ValidationError{
			Fields:  []string{"isDefault"},
			Message: fmt.Sprintf("agent %q is a default agent; send isDefault=true to override it", id),
		}
	}
	if patch.IsEmpty() {
		return s.unchanged(ctx, id)
	}
	updated, err := s.store.UpdateCustomAgent(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.record(ctx, "update", "not_found")
			return model.AgentRecord{}, fmt.Errorf("directory: custom agent %q: %w", id, ErrNotFound)
		}
		return model.AgentRecord{}, s.storageFailure(ctx, span, "update", err)
	}
	s.record(ctx, "update", "ok")
	s.publish(ctx, model.ChangeUpdated, id, false)
	return updated, nil
}

func (s *Service) unchanged(ctx context.Context, id string) (model.AgentRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.record(ctx, "update", "not_found")
		}
		return model.AgentRecord{}, err
	}
	s.record(ctx, "update", "noop")
	return rec, nil
}

// RemoveAgent deletes the override for id when reset is set, reverting a
// seed agent to its defaults, and otherwise deletes the custom agent. Both
// are idempotent.
func (s *Service) RemoveAgent(ctx context.Context, id string, reset bool) error {
	ctx, span := s.tracer.Start(ctx, "directory.RemoveAgent")
	defer span.End()
	span.SetAttributes(
		attribute.String("agentstudio.agent_id", id),
		attribute.Bool("agentstudio.reset", reset),
	)

	if err := requireID(id); err != nil {
		s.record(ctx, "remove", "invalid")
		return err
	}

	if reset {
		if err := s.store.DeleteOverride(ctx, id); err != nil {
			return s.storageFailure(ctx, span, "remove", err)
		}
		s.record(ctx, "remove", "ok")
		s.publish(ctx, model.ChangeReset, id, true)
		return nil
	}

	if err := s.store.DeleteCustomAgent(ctx, id); err != nil {
		return s.storageFailure(ctx, span, "remove", err)
	}
	s.record(ctx, "remove", "ok")
	s.publish(ctx, model.ChangeDeleted, id, false)
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &model.ValidationError{Fields: []string{"id"}, Message: "id is required"}
	}
	return nil
}

// storageFailure logs the store error with its detail and returns the
// generic sentinel in its place.
func (s *Service) storageFailure(ctx context.Context, span trace.Span, op string, err error) error {
	s.logger.ErrorContext(ctx, "directory: storage failure",
		"op", op, "error", err, "request_id", ctxutil.RequestIDFromContext(ctx))
	span.RecordError(err)
	span.SetStatus(codes.Error, "storage")
	s.record(ctx, op, "storage_error")
	return fmt.Errorf("directory: %s: %w", op, ErrStorage)
}

func (s *Service) record(ctx context.Context, op, outcome string) {
	if op == "list" {
		return
	}
	s.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func (s *Service) publish(ctx context.Context, kind model.ChangeKind, id string, isDefault bool) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, model.ChangeEvent{
		Kind:      kind,
		AgentID:   id,
		IsDefault: isDefault,
		At:        s.now().UTC(),
	})
}
