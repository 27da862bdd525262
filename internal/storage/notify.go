package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ChannelAgents carries directory change events between server replicas.
const ChannelAgents = "agentstudio_agents"

// maxNotifyPayload is Postgres's limit on a pg_notify payload, in bytes.
const maxNotifyPayload = 8000 - 1

// ErrNoNotifyConn is returned by Listen and WaitForNotification when the DB
// was opened without a notify DSN.
var ErrNoNotifyConn = errors.New("storage: notify connection not configured")

// Listen subscribes the dedicated notify connection to channel.
func (db *DB) Listen(ctx context.Context, channel string) error {
	if db.notifyConn == nil {
		return ErrNoNotifyConn
	}
	if _, err := db.notifyConn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return fmt.Errorf("storage: listen %s: %w", channel, err)
	}
	return nil
}

// WaitForNotification blocks until a change arrives on a listened channel.
func (db *DB) WaitForNotification(ctx context.Context) (channel, payload string, err error) {
	if db.notifyConn == nil {
		return "", "", ErrNoNotifyConn
	}
	n, err := db.notifyConn.WaitForNotification(ctx)
	if err != nil {
		return "", "", fmt.Errorf("storage: wait for notification: %w", err)
	}
	return n.Channel, n.Payload, nil
}

// Notify publishes payload on channel through the pool, so it works on
// replicas that never call Listen.
func (db *DB) Notify(ctx context.Context, channel, payload string) error {
	if len(payload) > maxNotifyPayload {
		return fmt.Errorf("storage: notify %s: payload is %d bytes, limit %d", channel, len(payload), maxNotifyPayload)
	}
	if _, err := db.pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload); err != nil {
		return fmt.Errorf("storage: notify %s: %w", channel, err)
	}
	return nil
}
