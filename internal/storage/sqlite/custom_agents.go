package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage"
)

const customAgentColumns = `id, name, slug, description, category, tags, status,
	external_url, image_url, last_updated, primary_action_label`

type scanner interface {
	Scan(dest ...any) error
}

// ListCustomAgents returns every custom agent, newest first.
func (s *Store) ListCustomAgents(ctx context.Context) ([]model.AgentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customAgentColumns+` FROM custom_agents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list custom agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	agents := []model.AgentRecord{}
	for rows.Next() {
		a, err := scanCustomAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan custom agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list custom agents: %w", err)
	}
	return agents, nil
}

// GetCustomAgent returns one custom agent or storage.ErrNotFound.
func (s *Store) GetCustomAgent(ctx context.Context, id string) (model.AgentRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+customAgentColumns+` FROM custom_agents WHERE id = ?`, id)
	a, err := scanCustomAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AgentRecord{}, fmt.Errorf("sqlite: custom agent %s: %w", id, storage.ErrNotFound)
		}
		return model.AgentRecord{}, fmt.Errorf("sqlite: get custom agent: %w", err)
	}
	return a, nil
}

// InsertCustomAgent stores a new custom agent. An existing id yields
// storage.ErrDuplicateID.
func (s *Store) InsertCustomAgent(ctx context.Context, a model.AgentRecord) error {
	tags, err := encodeTags(a.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: insert custom agent: %w", err)
	}
	now := s.now().UnixNano()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO custom_agents (`+customAgentColumns+`, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.Name, a.Slug, a.Description, string(a.Category), tags, string(a.Status),
		a.ExternalURL, a.ImageURL, a.LastUpdated, a.PrimaryActionLabel, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert custom agent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: insert custom agent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: custom agent %s: %w", a.ID, storage.ErrDuplicateID)
	}
	return nil
}

// UpdateCustomAgent applies the fields present in p and returns the stored
// result. A changed name re-derives the slug. Returns storage.ErrNotFound
// when no row has the id.
func (s *Store) UpdateCustomAgent(ctx context.Context, id string, p model.AgentPatch) (model.AgentRecord, error) {
	args, err := patchArgs(p)
	if err != nil {
		return model.AgentRecord{}, fmt.Errorf("sqlite: update custom agent: %w", err)
	}
	var slug sql.NullString
	if p.Name != nil {
		slug = sql.NullString{String: model.Slugify(*p.Name), Valid: true}
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE custom_agents SET
			name = COALESCE(?, name),
			slug = COALESCE(?, slug),
			description = COALESCE(?, description),
			category = COALESCE(?, category),
			tags = COALESCE(?, tags),
			status = COALESCE(?, status),
			external_url = COALESCE(?, external_url),
			image_url = COALESCE(?, image_url),
			primary_action_label = COALESCE(?, primary_action_label),
			updated_at = ?
		 WHERE id = ?
		 RETURNING `+customAgentColumns,
		args.name, slug, args.description, args.category, args.tags, args.status,
		args.externalURL, args.imageURL, args.primaryActionLabel, s.now().UnixNano(), id,
	)
	out, err := scanCustomAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AgentRecord{}, fmt.Errorf("sqlite: custom agent %s: %w", id, storage.ErrNotFound)
		}
		return model.AgentRecord{}, fmt.Errorf("sqlite: update custom agent: %w", err)
	}
	return out, nil
}

// DeleteCustomAgent removes a custom agent. Deleting a missing id is not an error.
func (s *Store) DeleteCustomAgent(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM custom_agents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete custom agent: %w", err)
	}
	return nil
}

func scanCustomAgent(row scanner) (model.AgentRecord, error) {
	var (
		a                      model.AgentRecord
		category, status, tags string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Slug, &a.Description, &category, &tags, &status,
		&a.ExternalURL, &a.ImageURL, &a.LastUpdated, &a.PrimaryActionLabel); err != nil {
		return model.AgentRecord{}, err
	}
	a.Category = model.Category(category)
	a.Status = model.Status(status)
	decoded, err := decodeTags(tags)
	if err != nil {
		return model.AgentRecord{}, err
	}
	a.Tags = decoded
	return a, nil
}

// nullablePatch is an AgentPatch as bind parameters; invalid means absent.
type nullablePatch struct {
	name, description, category, status       sql.NullString
	externalURL, imageURL, primaryActionLabel sql.NullString
	tags                                      sql.NullString
}

func patchArgs(p model.AgentPatch) (nullablePatch, error) {
	out := nullablePatch{
		name:               nullString(p.Name),
		description:        nullString(p.Description),
		externalURL:        nullString(p.ExternalURL),
		imageURL:           nullString(p.ImageURL),
		primaryActionLabel: nullString(p.PrimaryActionLabel),
	}
	if p.Category != nil {
		out.category = sql.NullString{String: string(*p.Category), Valid: true}
	}
	if p.Status != nil {
		out.status = sql.NullString{String: string(*p.Status), Valid: true}
	}
	if p.Tags != nil {
		tags, err := encodeTags(*p.Tags)
		if err != nil {
			return nullablePatch{}, err
		}
		out.tags = sql.NullString{String: tags, Valid: true}
	}
	return out, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
