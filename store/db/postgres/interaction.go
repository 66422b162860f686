package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/store"
)

func (d *DB) CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error) {
	createdTs := create.CreatedTs
	if createdTs == 0 {
		createdTs = time.Now().Unix()
	}

	interaction := &store.Interaction{}
	if err := d.db.QueryRowContext(ctx, `
		INSERT INTO interaction (contact_id, is_polite, is_flirty, is_informal, is_commanding, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, contact_id, is_polite, is_flirty, is_informal, is_commanding, created_ts`,
		create.ContactID,
		create.IsPolite,
		create.IsFlirty,
		create.IsInformal,
		create.IsCommanding,
		createdTs,
	).Scan(
		&interaction.ID,
		&interaction.ContactID,
		&interaction.IsPolite,
		&interaction.IsFlirty,
		&interaction.IsInformal,
		&interaction.IsCommanding,
		&interaction.CreatedTs,
	); err != nil {
		return nil, errors.Wrapf(err, "failed to create interaction for %s", create.ContactID)
	}
	return interaction, nil
}

func (d *DB) ListInteractions(ctx context.Context, find *store.FindInteraction) ([]*store.Interaction, error) {
	where, args := interactionFilter(find)
	query := `
		SELECT id, contact_id, is_polite, is_flirty, is_informal, is_commanding, created_ts
		FROM interaction
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list interactions")
	}
	defer rows.Close()

	var list []*store.Interaction
	for rows.Next() {
		interaction := &store.Interaction{}
		if err := rows.Scan(
			&interaction.ID,
			&interaction.ContactID,
			&interaction.IsPolite,
			&interaction.IsFlirty,
			&interaction.IsInformal,
			&interaction.IsCommanding,
			&interaction.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan interaction")
		}
		list = append(list, interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate interactions")
	}

	slices.Reverse(list)
	return list, nil
}

func (d *DB) CountInteractions(ctx context.Context, find *store.FindInteraction) (int, error) {
	where, args := interactionFilter(find)
	var count int
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM interaction WHERE "+strings.Join(where, " AND "), args...,
	).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count interactions")
	}
	return count, nil
}

func (d *DB) PruneInteractions(ctx context.Context, contactID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	if _, err := d.db.ExecContext(ctx, `
		DELETE FROM interaction
		WHERE contact_id = $1 AND id NOT IN (
			SELECT id FROM interaction
			WHERE contact_id = $1
			ORDER BY created_ts DESC, id DESC
			LIMIT $2
		)`, contactID, keep); err != nil {
		return errors.Wrapf(err, "failed to prune interactions of %s", contactID)
	}
	return nil
}

func interactionFilter(find *store.FindInteraction) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ContactID != "" {
		args = append(args, find.ContactID)
		where = append(where, fmt.Sprintf("contact_id = $%d", len(args)))
	}
	if find.SinceTs > 0 {
		args = append(args, find.SinceTs)
		where = append(where, fmt.Sprintf("created_ts >= $%d", len(args)))
	}
	return where, args
}
