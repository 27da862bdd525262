package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

const overrideColumns = `agent_id, name, description, category, tags, status,
	external_url, image_url, primary_action_label`

// ListOverrides returns the stored override for every seed id that has one.
// NULL columns are left unset in the returned patch.
func (db *DB) ListOverrides(ctx context.Context) (map[string]model.AgentPatch, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+overrideColumns+` FROM agent_overrides`)
	if err != nil {
		return nil, fmt.Errorf("storage: list overrides: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.AgentPatch)
	for rows.Next() {
		id, p, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan override: %w", err)
		}
		out[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list overrides: %w", err)
	}
	return out, nil
}

// UpsertOverride stores p for the seed id. Fields absent from p keep any
// previously stored value, as do empty optional strings. Returns the
// override as stored after the write.
func (db *DB) UpsertOverride(ctx context.Context, id string, p model.AgentPatch) (model.AgentPatch, error) {
	args, err := patchArgs(p.ForOverride())
	if err != nil {
		return model.AgentPatch{}, fmt.Errorf("storage: upsert override: %w", err)
	}

	var stored model.AgentPatch
	err = WithRetry(ctx, writeRetries, writeBaseDelay, func() error {
		row := db.pool.QueryRow(ctx,
			`INSERT INTO agent_overrides (`+overrideColumns+`)
			 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)
			 ON CONFLICT (agent_id) DO UPDATE SET
				name = COALESCE(EXCLUDED.name, agent_overrides.name),
				description = COALESCE(EXCLUDED.description, agent_overrides.description),
				category = COALESCE(EXCLUDED.category, agent_overrides.category),
				tags = COALESCE(EXCLUDED.tags, agent_overrides.tags),
				status = COALESCE(EXCLUDED.status, agent_overrides.status),
				external_url = COALESCE(EXCLUDED.external_url, agent_overrides.external_url),
				image_url = COALESCE(EXCLUDED.image_url, agent_overrides.image_url),
				primary_action_label = COALESCE(EXCLUDED.primary_action_label, agent_overrides.primary_action_label),
				updated_at = now()
			 RETURNING `+overrideColumns,
			id, args.name, args.description, args.category, args.tags, args.status,
			args.externalURL, args.imageURL, args.primaryActionLabel,
		)
		var scanErr error
		_, stored, scanErr = scanOverride(row)
		return scanErr
	})
	if err != nil {
		return model.AgentPatch{}, fmt.Errorf("storage: upsert override: %w", err)
	}
	return stored, nil
}

// DeleteOverride removes the override for a seed id. Missing rows are not an error.
func (db *DB) DeleteOverride(ctx context.Context, id string) error {
	err := WithRetry(ctx, writeRetries, writeBaseDelay, func() error {
		_, err := db.pool.Exec(ctx, `DELETE FROM agent_overrides WHERE agent_id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("storage: delete override: %w", err)
	}
	return nil
}

func scanOverride(row pgx.Row) (string, model.AgentPatch, error) {
	var (
		id               string
		p                model.AgentPatch
		category, status *string
		tags             []byte
	)
	if err := row.Scan(&id, &p.Name, &p.Description, &category, &tags, &status,
		&p.ExternalURL, &p.ImageURL, &p.PrimaryActionLabel); err != nil {
		return "", model.AgentPatch{}, err
	}
	if category != nil {
		p.Category = model.Ptr(model.Category(*category))
	}
	if status != nil {
		p.Status = model.Ptr(model.Status(*status))
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return "", model.AgentPatch{}, err
	}
	if decoded != nil {
		p.Tags = &decoded
	}
	return id, p, nil
}
