package sqlite

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS contact (
		id TEXT NOT NULL PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		relationship TEXT NOT NULL DEFAULT 'UNKNOWN',
		relationship_confidence REAL NOT NULL DEFAULT 0,
		contact_group TEXT NOT NULL DEFAULT '',
		favorite INTEGER NOT NULL DEFAULT 0,
		updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE TABLE IF NOT EXISTS interaction (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		contact_id TEXT NOT NULL,
		is_polite INTEGER NOT NULL DEFAULT 0,
		is_flirty INTEGER NOT NULL DEFAULT 0,
		is_informal INTEGER NOT NULL DEFAULT 0,
		is_commanding INTEGER NOT NULL DEFAULT 0,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interaction_contact_created ON interaction (contact_id, created_ts)`,
}

// Migrate creates the contact and interaction tables.
func (d *DB) Migrate(ctx context.Context) error {
	initialized, err := d.IsInitialized(ctx)
	if err != nil {
		return err
	}

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

	if !initialized {
		slog.Info("sqlite schema created", "dsn", d.profile.DSN)
	}
	return nil
}
