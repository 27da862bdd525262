// Package backend opens the storage backend selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/config"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/service/directory"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage/sqlite"
	"github.com/AhmedFT-hub/FT-Agent-Studio/migrations"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend is an opened store.
type Backend struct {
	Store  directory.Store
	Pinger Pinger
	Driver string
	// Postgres is set for the Postgres backend, nil for SQLite.
	Postgres *storage.DB

	close func()
}

// Options controls Open.
type Options struct {
	// Migrate applies pending Postgres migrations after connecting.
	Migrate bool
}

// Open connects to the backend named by cfg.Storage.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*Backend, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := storage.New(ctx, cfg.DatabaseURL, cfg.NotifyURL, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		if opts.Migrate {
			ran, err := db.RunMigrations(ctx, migrations.FS)
			if err != nil {
				db.Close(context.Background())
				return nil, fmt.Errorf("migrations: %w", err)
			}
			if len(ran) > 0 {
				logger.Info("migrations applied", "files", ran)
			}
		}
		return &Backend{
			Store:    db,
			Pinger:   db,
			Driver:   db.Driver(),
			Postgres: db,
			close:    func() { db.Close(context.Background()) },
		}, nil

	case config.StorageSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		return &Backend{
			Store:  st,
			Pinger: st,
			Driver: st.Driver(),
			close: func() {
				if err := st.Close(); err != nil {
					logger.Warn("sqlite close failed", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("backend: unknown storage %q", cfg.Storage)
	}
}

// HasNotify reports whether change events can travel over LISTEN/NOTIFY.
func (b *Backend) HasNotify() bool {
	return b.Postgres != nil && b.Postgres.HasNotifyConn()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}
