package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/internal/profile"
	"github.com/hrygo/contextsense/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection pool for the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS contact (
		id TEXT NOT NULL PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		relationship TEXT NOT NULL DEFAULT 'UNKNOWN',
		relationship_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		contact_group TEXT NOT NULL DEFAULT '',
		favorite BOOLEAN NOT NULL DEFAULT FALSE,
		updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
	)`,
	`CREATE TABLE IF NOT EXISTS interaction (
		id BIGSERIAL PRIMARY KEY,
		contact_id TEXT NOT NULL,
		is_polite BOOLEAN NOT NULL DEFAULT FALSE,
		is_flirty BOOLEAN NOT NULL DEFAULT FALSE,
		is_informal BOOLEAN NOT NULL DEFAULT FALSE,
		is_commanding BOOLEAN NOT NULL DEFAULT FALSE,
		created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interaction_contact_created ON interaction (contact_id, created_ts)`,
}

// Migrate creates the contact and interaction tables.
func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin migration")
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration")
	}
	slog.Debug("postgres schema ready")
	return nil
}
