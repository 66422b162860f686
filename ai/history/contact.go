package history

import (
	"context"
	"time"

	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/types"
)

// RecencyWindow bounds the interactions counted as recent by directory lookups.
const RecencyWindow = 30 * 24 * time.Hour

// ContactUpdate changes the non-nil fields of a contact.
type ContactUpdate struct {
	DisplayName  *string             `json:"display_name,omitempty"`
	Group        *string             `json:"group,omitempty"`
	Favorite     *bool               `json:"favorite,omitempty"`
	Relationship *types.Relationship `json:"relationship,omitempty"`
}

// ContactWriter maintains contact directory data and stored relationships.
type ContactWriter interface {
	UpdateContact(ctx context.Context, contactID string, u ContactUpdate) error
}

func (u ContactUpdate) apply(e *relationship.Entry) {
	if u.DisplayName != nil {
		e.DisplayName = *u.DisplayName
	}
	if u.Group != nil {
		e.Group = *u.Group
	}
	if u.Favorite != nil {
		e.Favorite = *u.Favorite
	}
}
