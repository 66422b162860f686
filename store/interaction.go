package store

import (
	"context"
)

// Interaction is one persisted learn signal.
type Interaction struct {
	ID           int64
	ContactID    string
	IsPolite     bool
	IsFlirty     bool
	IsInformal   bool
	IsCommanding bool
	CreatedTs    int64
}

type FindInteraction struct {
	ContactID string
	// SinceTs keeps interactions created at or after the unix timestamp when non-zero.
	SinceTs int64
	// Limit keeps the most recent interactions when positive.
	Limit int
}

func (s *Store) CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error) {
	return s.driver.CreateInteraction(ctx, create)
}

// ListInteractions returns interactions oldest first.
func (s *Store) ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error) {
	return s.driver.ListInteractions(ctx, find)
}

func (s *Store) CountInteractions(ctx context.Context, find *FindInteraction) (int, error) {
	return s.driver.CountInteractions(ctx, find)
}

// PruneInteractions deletes all but the keep most recent interactions of a contact.
func (s *Store) PruneInteractions(ctx context.Context, contactID string, keep int) error {
	return s.driver.PruneInteractions(ctx, contactID, keep)
}
