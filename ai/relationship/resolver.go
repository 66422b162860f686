package relationship

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/types"
)

// StoredRelationships reads relationships recorded by the history store.
type StoredRelationships interface {
	GetRelationship(ctx context.Context, contactID string) (types.Relationship, error)
}

// Resolver prefers a stored relationship and falls back to the classifier.
type Resolver struct {
	stored     StoredRelationships
	classifier *Classifier
	timeout    time.Duration
	metrics    metrics.Recorder
}

// NewResolver creates a resolver. stored may be nil.
func NewResolver(stored StoredRelationships, classifier *Classifier, timeout time.Duration, m metrics.Recorder) *Resolver {
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	if classifier == nil {
		classifier = NewClassifier(nil, DefaultConfig())
	}
	return &Resolver{
		stored:     stored,
		classifier: classifier,
		timeout:    timeout,
		metrics:    metrics.OrNop(m),
	}
}

// Resolve returns the relationship of a contact. It never fails: an
// unavailable store is skipped and an unknown contact resolves to UNKNOWN.
func (r *Resolver) Resolve(ctx context.Context, contactID, displayName string) types.Relationship {
	if rel, ok := r.fromStore(ctx, contactID); ok {
		return rel
	}
	return r.classifier.Classify(ctx, contactID, displayName)
}

func (r *Resolver) fromStore(ctx context.Context, contactID string) (types.Relationship, bool) {
	if r.stored == nil || contactID == "" {
		return types.Relationship{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rel, err := r.stored.GetRelationship(ctx, contactID)
	if err != nil {
		reason := "error"
		if ctx.Err() != nil {
			reason = "timeout"
		}
		slog.Warn("relationship: stored relationship unavailable",
			"contact_id", contactID,
			"reason", reason,
			"error", err,
		)
		r.metrics.RecordFallback("history", reason)
		return types.Relationship{}, false
	}
	rel = rel.Normalize()
	if rel.Type == types.RelationshipUnknown {
		return types.Relationship{}, false
	}
	return rel, true
}
