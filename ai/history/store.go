// Package history holds the per-contact relationship and interaction records the
// engine reads from and emits learn signals into.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/types"
)

// DefaultHistoryLimit is the number of most recent interactions returned per contact.
const DefaultHistoryLimit = 100

// RelationshipReader reads stored relationships.
type RelationshipReader interface {
	// GetRelationship returns the stored relationship, or UNKNOWN when none exists.
	GetRelationship(ctx context.Context, contactID string) (types.Relationship, error)
}

// InteractionReader reads interaction history.
type InteractionReader interface {
	// GetInteractionHistory returns the most recent interactions, oldest first.
	GetInteractionHistory(ctx context.Context, contactID string) ([]types.InteractionRecord, error)
}

// InteractionWriter persists learn signals.
type InteractionWriter interface {
	RecordInteraction(ctx context.Context, contactID string, record types.InteractionRecord) error
}

// Store is the full History Store contract.
type Store interface {
	RelationshipReader
	InteractionReader
	InteractionWriter
}

// ContactRefresher is implemented by stores that keep a display name per contact.
type ContactRefresher interface {
	RefreshContact(ctx context.Context, contactID, displayName string) error
}

// InMemoryStore is a Store kept in process memory.
// Used for tests and as a fallback when no database is configured.
type InMemoryStore struct {
	mu            sync.RWMutex
	relationships map[string]types.Relationship
	contacts      map[string]relationship.Entry
	records       map[string][]types.InteractionRecord
	limit         int
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		relationships: make(map[string]types.Relationship),
		contacts:      make(map[string]relationship.Entry),
		records:       make(map[string][]types.InteractionRecord),
		limit:         DefaultHistoryLimit,
	}
}

// SetRelationship stores the relationship of a contact.
func (s *InMemoryStore) SetRelationship(contactID string, rel types.Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships[contactID] = rel.Normalize()
}

// GetRelationship returns the stored relationship or UNKNOWN.
func (s *InMemoryStore) GetRelationship(ctx context.Context, contactID string) (types.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return types.UnknownRelationship(), err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rel, ok := s.relationships[contactID]; ok {
		return rel, nil
	}
	return types.UnknownRelationship(), nil
}

// GetInteractionHistory returns a copy of the contact's most recent records.
func (s *InMemoryStore) GetInteractionHistory(ctx context.Context, contactID string) ([]types.InteractionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[contactID]
	if len(records) == 0 {
		return nil, nil
	}
	// Return a copy to avoid concurrent modification
	out := make([]types.InteractionRecord, len(records))
	copy(out, records)
	return out, nil
}

// RecordInteraction appends a record, evicting the oldest beyond the limit.
func (s *InMemoryStore) RecordInteraction(ctx context.Context, contactID string, record types.InteractionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.records[contactID], record)
	if len(records) > s.limit {
		records = records[len(records)-s.limit:]
	}
	s.records[contactID] = records
	return nil
}

// RefreshContact registers a contact and remembers its latest non-empty
// display name.
func (s *InMemoryStore) RefreshContact(ctx context.Context, contactID, displayName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.contacts[contactID]
	if displayName != "" {
		e.DisplayName = displayName
	}
	s.contacts[contactID] = e
	return nil
}

// DisplayName returns the last refreshed display name of a contact.
func (s *InMemoryStore) DisplayName(contactID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.contacts[contactID]
	return e.DisplayName, ok && e.DisplayName != ""
}

// UpdateContact applies the non-nil fields of u.
func (s *InMemoryStore) UpdateContact(ctx context.Context, contactID string, u ContactUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.contacts[contactID]
	u.apply(&e)
	s.contacts[contactID] = e
	if u.Relationship != nil {
		s.relationships[contactID] = u.Relationship.Normalize()
	}
	return nil
}

// Lookup implements relationship.Directory over contacts known to the store.
func (s *InMemoryStore) Lookup(ctx context.Context, contactID string) (relationship.Entry, error) {
	if err := ctx.Err(); err != nil {
		return relationship.Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.contacts[contactID]
	if !ok {
		return relationship.Entry{}, relationship.ErrNotFound
	}
	since := time.Now().Add(-RecencyWindow)
	e.RecentInteractions = 0
	for _, r := range s.records[contactID] {
		if !r.Timestamp.Before(since) {
			e.RecentInteractions++
		}
	}
	return e, nil
}

var (
	_ Store                  = (*InMemoryStore)(nil)
	_ ContactRefresher       = (*InMemoryStore)(nil)
	_ ContactWriter          = (*InMemoryStore)(nil)
	_ relationship.Directory = (*InMemoryStore)(nil)
)
