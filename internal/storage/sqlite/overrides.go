package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

const overrideColumns = `agent_id, name, description, category, tags, status,
	external_url, image_url, primary_action_label`

// ListOverrides returns the stored override for every seed id that has one.
func (s *Store) ListOverrides(ctx context.Context) (map[string]model.AgentPatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+overrideColumns+` FROM agent_overrides`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list overrides: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]model.AgentPatch)
	for rows.Next() {
		id, p, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan override: %w", err)
		}
		out[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list overrides: %w", err)
	}
	return out, nil
}

// UpsertOverride stores p for the seed id, keeping previously stored values
// for fields p leaves absent or sets to an empty optional string. Returns
// the override as stored.
func (s *Store) UpsertOverride(ctx context.Context, id string, p model.AgentPatch) (model.AgentPatch, error) {
	args, err := patchArgs(p.ForOverride())
	if err != nil {
		return model.AgentPatch{}, fmt.Errorf("sqlite: upsert override: %w", err)
	}
	now := s.now().UnixNano()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO agent_overrides (`+overrideColumns+`, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (agent_id) DO UPDATE SET
			name = COALESCE(excluded.name, agent_overrides.name),
			description = COALESCE(excluded.description, agent_overrides.description),
			category = COALESCE(excluded.category, agent_overrides.category),
			tags = COALESCE(excluded.tags, agent_overrides.tags),
			status = COALESCE(excluded.status, agent_overrides.status),
			external_url = COALESCE(excluded.external_url, agent_overrides.external_url),
			image_url = COALESCE(excluded.image_url, agent_overrides.image_url),
			primary_action_label = COALESCE(excluded.primary_action_label, agent_overrides.primary_action_label),
			updated_at = excluded.updated_at
		 RETURNING `+overrideColumns,
		id, args.name, args.description, args.category, args.tags, args.status,
		args.externalURL, args.imageURL, args.primaryActionLabel, now, now,
	)
	_, stored, err := scanOverride(row)
	if err != nil {
		return model.AgentPatch{}, fmt.Errorf("sqlite: upsert override: %w", err)
	}
	return stored, nil
}

// DeleteOverride removes the override for a seed id. Missing rows are not an error.
func (s *Store) DeleteOverride(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM agent_overrides WHERE agent_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete override: %w", err)
	}
	return nil
}

func scanOverride(row scanner) (string, model.AgentPatch, error) {
	var (
		id                                        string
		name, description, category, tags, status sql.NullString
		externalURL, imageURL, label              sql.NullString
	)
	if err := row.Scan(&id, &name, &description, &category, &tags, &status,
		&externalURL, &imageURL, &label); err != nil {
		return "", model.AgentPatch{}, err
	}

	p := model.AgentPatch{
		Name:               stringPtr(name),
		Description:        stringPtr(description),
		ExternalURL:        stringPtr(externalURL),
		ImageURL:           stringPtr(imageURL),
		PrimaryActionLabel: stringPtr(label),
	}
	if category.Valid {
		p.Category = model.Ptr(model.Category(category.String))
	}
	if status.Valid {
		p.Status = model.Ptr(model.Status(status.String))
	}
	if tags.Valid {
		decoded, err := decodeTags(tags.String)
		if err != nil {
			return "", model.AgentPatch{}, err
		}
		p.Tags = &decoded
	}
	return id, p, nil
}
