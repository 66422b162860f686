package history

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/types"
	"github.com/hrygo/contextsense/store"
)

// SQLStore is a Store backed by the contact and interaction tables.
// It also serves as the relationship Directory.
type SQLStore struct {
	store *store.Store
	limit int
	now   func() time.Time
}

// NewSQLStore wraps s. A non-positive limit uses DefaultHistoryLimit.
func NewSQLStore(s *store.Store, limit int) *SQLStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &SQLStore{store: s, limit: limit, now: time.Now}
}

// GetRelationship returns the stored relationship or UNKNOWN.
func (s *SQLStore) GetRelationship(ctx context.Context, contactID string) (types.Relationship, error) {
	contact, err := s.store.GetContact(ctx, contactID)
	if err != nil {
		return types.UnknownRelationship(), err
	}
	if contact == nil {
		return types.UnknownRelationship(), nil
	}
	return types.Relationship{
		Type:       types.RelationshipType(contact.Relationship),
		Confidence: contact.RelationshipConfidence,
	}.Normalize(), nil
}

// GetInteractionHistory returns the most recent interactions, oldest first.
func (s *SQLStore) GetInteractionHistory(ctx context.Context, contactID string) ([]types.InteractionRecord, error) {
	list, err := s.store.ListInteractions(ctx, &store.FindInteraction{ContactID: contactID, Limit: s.limit})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	records := make([]types.InteractionRecord, 0, len(list))
	for _, in := range list {
		records = append(records, types.InteractionRecord{
			IsPolite:     in.IsPolite,
			IsFlirty:     in.IsFlirty,
			IsInformal:   in.IsInformal,
			IsCommanding: in.IsCommanding,
			Timestamp:    time.Unix(in.CreatedTs, 0),
		})
	}
	return records, nil
}

// RecordInteraction persists a record and prunes the contact beyond the history limit.
func (s *SQLStore) RecordInteraction(ctx context.Context, contactID string, record types.InteractionRecord) error {
	ts := record.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	if _, err := s.store.CreateInteraction(ctx, &store.Interaction{
		ContactID:    contactID,
		IsPolite:     record.IsPolite,
		IsFlirty:     record.IsFlirty,
		IsInformal:   record.IsInformal,
		IsCommanding: record.IsCommanding,
		CreatedTs:    ts.Unix(),
	}); err != nil {
		return err
	}
	return s.store.PruneInteractions(ctx, contactID, s.limit)
}

// RefreshContact creates the contact row if needed and stores a non-empty display name.
func (s *SQLStore) RefreshContact(ctx context.Context, contactID, displayName string) error {
	upsert := &store.UpsertContact{ID: contactID, UpdatedTs: s.now().Unix()}
	if displayName != "" {
		upsert.DisplayName = &displayName
	}
	_, err := s.store.UpsertContact(ctx, upsert)
	return err
}

// UpdateContact applies the non-nil fields of u.
func (s *SQLStore) UpdateContact(ctx context.Context, contactID string, u ContactUpdate) error {
	upsert := &store.UpsertContact{
		ID:          contactID,
		DisplayName: u.DisplayName,
		Group:       u.Group,
		Favorite:    u.Favorite,
		UpdatedTs:   s.now().Unix(),
	}
	if u.Relationship != nil {
		rel := u.Relationship.Normalize()
		typ := string(rel.Type)
		upsert.Relationship = &typ
		upsert.RelationshipConfidence = &rel.Confidence
	}
	_, err := s.store.UpsertContact(ctx, upsert)
	return err
}

// Lookup implements relationship.Directory.
func (s *SQLStore) Lookup(ctx context.Context, contactID string) (relationship.Entry, error) {
	contact, err := s.store.GetContact(ctx, contactID)
	if err != nil {
		return relationship.Entry{}, err
	}
	if contact == nil {
		return relationship.Entry{}, relationship.ErrNotFound
	}

	recent, err := s.store.CountInteractions(ctx, &store.FindInteraction{
		ContactID: contactID,
		SinceTs:   s.now().Add(-RecencyWindow).Unix(),
	})
	if err != nil {
		return relationship.Entry{}, errors.Wrap(err, "count recent interactions")
	}
	return relationship.Entry{
		DisplayName:        contact.DisplayName,
		Group:              contact.Group,
		Favorite:           contact.Favorite,
		RecentInteractions: recent,
	}, nil
}

var (
	_ Store                  = (*SQLStore)(nil)
	_ ContactRefresher       = (*SQLStore)(nil)
	_ ContactWriter          = (*SQLStore)(nil)
	_ relationship.Directory = (*SQLStore)(nil)
)
