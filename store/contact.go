package store

import (
	"context"
)

// Contact is a persisted contact: its directory metadata and stored relationship.
type Contact struct {
	ID                     string
	DisplayName            string
	Relationship           string
	RelationshipConfidence float64
	Group                  string
	Favorite               bool
	UpdatedTs              int64
}

// UpsertContact creates a contact or updates the non-nil fields of an existing one.
type UpsertContact struct {
	ID                     string
	DisplayName            *string
	Relationship           *string
	RelationshipConfidence *float64
	Group                  *string
	Favorite               *bool
	UpdatedTs              int64
}

// DefaultRelationship is stored for contacts created without one.
const DefaultRelationship = "UNKNOWN"

func (s *Store) UpsertContact(ctx context.Context, upsert *UpsertContact) (*Contact, error) {
	contact, err := s.driver.UpsertContact(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.contactCache.Set(contact.ID, contact, 0)
	return contact, nil
}

// GetContact returns nil without error when the contact does not exist.
func (s *Store) GetContact(ctx context.Context, id string) (*Contact, error) {
	if contact, ok := s.contactCache.Get(id); ok {
		return contact, nil
	}
	contact, err := s.driver.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact != nil {
		s.contactCache.Set(id, contact, 0)
	}
	return contact, nil
}
