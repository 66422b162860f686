package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema when it does not exist yet.
	Migrate(ctx context.Context) error

	// Contact model related methods.
	UpsertContact(ctx context.Context, upsert *UpsertContact) (*Contact, error)
	GetContact(ctx context.Context, id string) (*Contact, error)

	// Interaction model related methods.
	CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error)
	ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error)
	CountInteractions(ctx context.Context, find *FindInteraction) (int, error)
	PruneInteractions(ctx context.Context, contactID string, keep int) error
}
