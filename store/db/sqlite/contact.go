package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/store"
)

func (d *DB) UpsertContact(ctx context.Context, upsert *store.UpsertContact) (*store.Contact, error) {
	if upsert.ID == "" {
		return nil, errors.New("contact id required")
	}
	updatedTs := upsert.UpdatedTs
	if updatedTs == 0 {
		updatedTs = time.Now().Unix()
	}

	displayName := nullable(upsert.DisplayName)
	relationship := nullable(upsert.Relationship)
	confidence := nullable(upsert.RelationshipConfidence)
	group := nullable(upsert.Group)
	favorite := nullable(upsert.Favorite)

	stmt := `
		INSERT INTO contact (id, display_name, relationship, relationship_confidence, contact_group, favorite, updated_ts)
		VALUES (?, COALESCE(?, ''), COALESCE(?, '` + store.DefaultRelationship + `'), COALESCE(?, 0), COALESCE(?, ''), COALESCE(?, 0), ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = COALESCE(?, display_name),
			relationship = COALESCE(?, relationship),
			relationship_confidence = COALESCE(?, relationship_confidence),
			contact_group = COALESCE(?, contact_group),
			favorite = COALESCE(?, favorite),
			updated_ts = excluded.updated_ts
		RETURNING id, display_name, relationship, relationship_confidence, contact_group, favorite, updated_ts`
	args := []any{
		upsert.ID, displayName, relationship, confidence, group, favorite, updatedTs,
		displayName, relationship, confidence, group, favorite,
	}

	contact := &store.Contact{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&contact.ID,
		&contact.DisplayName,
		&contact.Relationship,
		&contact.RelationshipConfidence,
		&contact.Group,
		&contact.Favorite,
		&contact.UpdatedTs,
	); err != nil {
		return nil, errors.Wrapf(err, "failed to upsert contact %s", upsert.ID)
	}
	return contact, nil
}

func (d *DB) GetContact(ctx context.Context, id string) (*store.Contact, error) {
	contact := &store.Contact{}
	err := d.db.QueryRowContext(ctx, `
		SELECT id, display_name, relationship, relationship_confidence, contact_group, favorite, updated_ts
		FROM contact
		WHERE id = ?`, id).Scan(
		&contact.ID,
		&contact.DisplayName,
		&contact.Relationship,
		&contact.RelationshipConfidence,
		&contact.Group,
		&contact.Favorite,
		&contact.UpdatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get contact %s", id)
	}
	return contact, nil
}

// nullable binds a nil pointer as SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
