package v1

import (
	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/types"
)

// maxTextLength bounds message and utterance bodies.
const maxTextLength = 4096

func validateText(text string) error {
	if len(text) > maxTextLength {
		return errors.Errorf("text exceeds %d bytes", maxTextLength)
	}
	return nil
}

func validateRelationship(rel *types.Relationship) error {
	if rel == nil {
		return nil
	}
	if !rel.Type.IsValid() {
		return errors.Errorf("invalid relationship type %q", rel.Type)
	}
	if rel.Confidence < 0 || rel.Confidence > 1 {
		return errors.Errorf("relationship confidence %v out of [0,1]", rel.Confidence)
	}
	return nil
}

func validateGroup(group *string) error {
	if group == nil {
		return nil
	}
	switch *group {
	case "", relationship.GroupFamily, relationship.GroupFriend, relationship.GroupWork:
		return nil
	default:
		return errors.Errorf("invalid contact group %q", *group)
	}
}
