package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/store"
)

const upsertContactStmt = `
	INSERT INTO contact (id, display_name, relationship, relationship_confidence, contact_group, favorite, updated_ts)
	VALUES ($1, COALESCE($2::text, ''), COALESCE($3::text, 'UNKNOWN'), COALESCE($4::double precision, 0),
		COALESCE($5::text, ''), COALESCE($6::boolean, FALSE), $7)
	ON CONFLICT (id) DO UPDATE SET
		display_name = COALESCE($2::text, contact.display_name),
		relationship = COALESCE($3::text, contact.relationship),
		relationship_confidence = COALESCE($4::double precision, contact.relationship_confidence),
		contact_group = COALESCE($5::text, contact.contact_group),
		favorite = COALESCE($6::boolean, contact.favorite),
		updated_ts = EXCLUDED.updated_ts
	RETURNING id, display_name, relationship, relationship_confidence, contact_group, favorite, updated_ts
`

func (d *DB) UpsertContact(ctx context.Context, upsert *store.UpsertContact) (*store.Contact, error) {
	if upsert.ID == "" {
		return nil, errors.New("contact id required")
	}
	updatedTs := upsert.UpdatedTs
	if updatedTs == 0 {
		updatedTs = time.Now().Unix()
	}

	contact := &store.Contact{}
	err := d.db.QueryRowContext(ctx, upsertContactStmt,
		upsert.ID,
		nullable(upsert.DisplayName),
		nullable(upsert.Relationship),
		nullable(upsert.RelationshipConfidence),
		nullable(upsert.Group),
		nullable(upsert.Favorite),
		updatedTs,
	).Scan(
		&contact.ID,
		&contact.DisplayName,
		&contact.Relationship,
		&contact.RelationshipConfidence,
		&contact.Group,
		&contact.Favorite,
		&contact.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upsert contact %s", upsert.ID)
	}
	return contact, nil
}

func (d *DB) GetContact(ctx context.Context, id string) (*store.Contact, error) {
	contact := &store.Contact{}
	err := d.db.QueryRowContext(ctx, `
		SELECT id, display_name, relationship, relationship_confidence, contact_group, favorite, updated_ts
		FROM contact
		WHERE id = $1`, id).Scan(
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

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
