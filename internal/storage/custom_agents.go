package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

const (
	writeRetries   = 2
	writeBaseDelay = 25 * time.Millisecond
)

const customAgentColumns = `id, name, slug, description, category, tags, status,
	external_url, image_url, last_updated, primary_action_label`

// ListCustomAgents returns every custom agent, newest first.
func (db *DB) ListCustomAgents(ctx context.Context) ([]model.AgentRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+customAgentColumns+` FROM custom_agents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list custom agents: %w", err)
	}
	defer rows.Close()

	agents := []model.AgentRecord{}
	for rows.Next() {
		a, err := scanCustomAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan custom agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list custom agents: %w", err)
	}
	return agents, nil
}

// GetCustomAgent returns one custom agent or ErrNotFound.
func (db *DB) GetCustomAgent(ctx context.Context, id string) (model.AgentRecord, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+customAgentColumns+` FROM custom_agents WHERE id = $1`, id)
	a, err := scanCustomAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AgentRecord{}, fmt.Errorf("storage: custom agent %s: %w", id, ErrNotFound)
		}
		return model.AgentRecord{}, fmt.Errorf("storage: get custom agent: %w", err)
	}
	return a, nil
}

// InsertCustomAgent stores a new custom agent. An existing id yields ErrDuplicateID.
func (db *DB) InsertCustomAgent(ctx context.Context, a model.AgentRecord) error {
	tags, err := encodeTags(a.Tags)
	if err != nil {
		return fmt.Errorf("storage: insert custom agent: %w", err)
	}
	err = WithRetry(ctx, writeRetries, writeBaseDelay, func() error {
		_, err := db.pool.Exec(ctx,
			`INSERT INTO custom_agents (`+customAgentColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			a.ID, a.Name, a.Slug, a.Description, string(a.Category), tags, string(a.Status),
			a.ExternalURL, a.ImageURL, a.LastUpdated, a.PrimaryActionLabel,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("storage: custom agent %s: %w", a.ID, ErrDuplicateID)
		}
		return fmt.Errorf("storage: insert custom agent: %w", err)
	}
	return nil
}

// UpdateCustomAgent applies the fields present in p to the custom agent and
// returns the stored result. A changed name re-derives the slug. Returns
// ErrNotFound when no row has the id.
func (db *DB) UpdateCustomAgent(ctx context.Context, id string, p model.AgentPatch) (model.AgentRecord, error) {
	args, err := patchArgs(p)
	if err != nil {
		return model.AgentRecord{}, fmt.Errorf("storage: update custom agent: %w", err)
	}
	var slug *string
	if p.Name != nil {
		slug = model.Ptr(model.Slugify(*p.Name))
	}

	var out model.AgentRecord
	err = WithRetry(ctx, writeRetries, writeBaseDelay, func() error {
		row := db.pool.QueryRow(ctx,
			`UPDATE custom_agents SET
				name = COALESCE($2, name),
				slug = COALESCE($3, slug),
				description = COALESCE($4, description),
				category = COALESCE($5, category),
				tags = COALESCE($6::jsonb, tags),
				status = COALESCE($7, status),
				external_url = COALESCE($8, external_url),
				image_url = COALESCE($9, image_url),
				primary_action_label = COALESCE($10, primary_action_label),
				updated_at = now()
			 WHERE id = $1
			 RETURNING `+customAgentColumns,
			id, args.name, slug, args.description, args.category, args.tags, args.status,
			args.externalURL, args.imageURL, args.primaryActionLabel,
		)
		var scanErr error
		out, scanErr = scanCustomAgent(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AgentRecord{}, fmt.Errorf("storage: custom agent %s: %w", id, ErrNotFound)
		}
		return model.AgentRecord{}, fmt.Errorf("storage: update custom agent: %w", err)
	}
	return out, nil
}

// DeleteCustomAgent removes a custom agent. Deleting a missing id is not an error.
func (db *DB) DeleteCustomAgent(ctx context.Context, id string) error {
	err := WithRetry(ctx, writeRetries, writeBaseDelay, func() error {
		_, err := db.pool.Exec(ctx, `DELETE FROM custom_agents WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("storage: delete custom agent: %w", err)
	}
	return nil
}

func scanCustomAgent(row pgx.Row) (model.AgentRecord, error) {
	var (
		a                model.AgentRecord
		category, status string
		tags             []byte
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
	if decoded == nil {
		decoded = []string{}
	}
	a.Tags = decoded
	return a, nil
}

// nullablePatch holds an AgentPatch in the shape the driver binds: nil for
// absent fields.
type nullablePatch struct {
	name, description, category, status       *string
	externalURL, imageURL, primaryActionLabel *string
	tags                                      []byte
}

func patchArgs(p model.AgentPatch) (nullablePatch, error) {
	out := nullablePatch{
		name:               p.Name,
		description:        p.Description,
		externalURL:        p.ExternalURL,
		imageURL:           p.ImageURL,
		primaryActionLabel: p.PrimaryActionLabel,
	}
	if p.Category != nil {
		out.category = model.Ptr(string(*p.Category))
	}
	if p.Status != nil {
		out.status = model.Ptr(string(*p.Status))
	}
	if p.Tags != nil {
		b, err := encodeTags(*p.Tags)
		if err != nil {
			return nullablePatch{}, err
		}
		out.tags = b
	}
	return out, nil
}

// encodeTags renders tags as a JSON array. nil encodes as [].
func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return b, nil
}

// decodeTags parses a JSON array. NULL (nil input) decodes as nil.
func decodeTags(raw []byte) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
