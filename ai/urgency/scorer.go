// Package urgency scores how pressing a stimulus is on a [0,1] scale.
package urgency

import (
	"github.com/hrygo/contextsense/ai/types"
)

// Weights are the additive terms of the urgency formula. Downstream thresholds
// (the message gate, notify_owner) are calibrated against DefaultWeights.
type Weights struct {
	Base     map[types.RelationshipType]float64
	Request  float64
	Negative float64
	Keyword  float64
}

// DefaultWeights returns the standard relationship bases and trigger bonuses.
func DefaultWeights() Weights {
	return Weights{
		Base: map[types.RelationshipType]float64{
			types.RelationshipPartner: 0.8,
			types.RelationshipWork:    0.7,
			types.RelationshipFamily:  0.6,
			types.RelationshipFriend:  0.4,
			types.RelationshipUnknown: 0.1,
		},
		Request:  0.2,
		Negative: 0.3,
		Keyword:  0.4,
	}
}

// Input is the partial analysis the score is computed from.
type Input struct {
	Relationship types.RelationshipType
	Intent       types.Intent
	Sentiment    types.Sentiment
	// HasUrgencyKeyword is set when the raw text carries an explicit
	// "urgent"/"important" class keyword.
	HasUrgencyKeyword bool
}

// Scorer applies Weights. The zero value is not usable; use NewScorer.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer. Missing relationship bases fall back to the
// UNKNOWN base.
func NewScorer(w Weights) *Scorer {
	if w.Base == nil {
		w.Base = DefaultWeights().Base
	}
	return &Scorer{weights: w}
}

// NewDefaultScorer creates a scorer with DefaultWeights.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultWeights())
}

// Score sums the relationship base and every fired trigger, then clamps to [0,1].
// Several triggers firing together saturate at exactly 1.0.
func (s *Scorer) Score(in Input) float64 {
	base, ok := s.weights.Base[in.Relationship]
	if !ok {
		base = s.weights.Base[types.RelationshipUnknown]
	}

	score := base
	if in.Intent == types.IntentRequest {
		score += s.weights.Request
	}
	if in.Sentiment == types.SentimentNegative {
		score += s.weights.Negative
	}
	if in.HasUrgencyKeyword {
		score += s.weights.Keyword
	}
	return Clamp(score)
}

// Score scores in with DefaultWeights.
func Score(in Input) float64 {
	return defaultScorer.Score(in)
}

var defaultScorer = NewDefaultScorer()

// Clamp bounds v to [0,1]; NaN becomes 0.
func Clamp(v float64) float64 {
	return types.Clamp01(v)
}
