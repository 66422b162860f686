package learning

import (
	"time"

	"github.com/hrygo/contextsense/ai/lexical"
	"github.com/hrygo/contextsense/ai/types"
)

// RecordFrom builds the interaction record of a classified text.
func RecordFrom(res lexical.Result, at time.Time) *types.InteractionRecord {
	return &types.InteractionRecord{
		IsPolite:     res.Markers.Polite,
		IsFlirty:     res.Tone == types.ToneFlirty,
		IsInformal:   res.Markers.Informal,
		IsCommanding: res.Markers.Commanding,
		Timestamp:    at,
	}
}
