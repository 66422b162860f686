package types

import (
	"encoding/json"
	"time"
)

// InputAnalysis is the structured understanding of one stimulus.
// It is immutable once built: construct it with NewInputAnalysis and read it via accessors.
type InputAnalysis struct {
	originalInput   string
	sentiment       Sentiment
	intent          Intent
	entities        []Entity
	emotionalTone   EmotionalTone
	personalityType PersonalityType
	urgency         float64
	timestamp       time.Time
}

// AnalysisFields carries the inputs of NewInputAnalysis.
type AnalysisFields struct {
	OriginalInput   string          `json:"original_input"`
	Sentiment       Sentiment       `json:"sentiment"`
	Intent          Intent          `json:"intent"`
	Entities        []Entity        `json:"entities"`
	EmotionalTone   EmotionalTone   `json:"emotional_tone"`
	PersonalityType PersonalityType `json:"personality_type"`
	Urgency         float64         `json:"urgency"`
	Timestamp       time.Time       `json:"timestamp"`
}

// NewInputAnalysis builds an InputAnalysis. Urgency is clamped to [0,1] and empty
// enum fields fall back to their neutral values.
func NewInputAnalysis(f AnalysisFields) InputAnalysis {
	if f.Sentiment == "" {
		f.Sentiment = SentimentNeutral
	}
	if f.Intent == "" {
		f.Intent = IntentConversation
	}
	if f.EmotionalTone == "" {
		f.EmotionalTone = ToneNeutral
	}
	if f.PersonalityType == "" {
		f.PersonalityType = PersonalityBalanced
	}
	var entities []Entity
	if len(f.Entities) > 0 {
		entities = make([]Entity, len(f.Entities))
		copy(entities, f.Entities)
	}
	return InputAnalysis{
		originalInput:   f.OriginalInput,
		sentiment:       f.Sentiment,
		intent:          f.Intent,
		entities:        entities,
		emotionalTone:   f.EmotionalTone,
		personalityType: f.PersonalityType,
		urgency:         Clamp01(f.Urgency),
		timestamp:       f.Timestamp,
	}
}

func (a InputAnalysis) OriginalInput() string            { return a.originalInput }
func (a InputAnalysis) Sentiment() Sentiment             { return a.sentiment }
func (a InputAnalysis) Intent() Intent                   { return a.intent }
func (a InputAnalysis) EmotionalTone() EmotionalTone     { return a.emotionalTone }
func (a InputAnalysis) PersonalityType() PersonalityType { return a.personalityType }
func (a InputAnalysis) Urgency() float64                 { return a.urgency }
func (a InputAnalysis) Timestamp() time.Time             { return a.timestamp }

// Entities returns a copy of the extracted entities.
func (a InputAnalysis) Entities() []Entity {
	if len(a.entities) == 0 {
		return nil
	}
	out := make([]Entity, len(a.entities))
	copy(out, a.entities)
	return out
}

// FirstEntity returns the first entity of the given kind.
func (a InputAnalysis) FirstEntity(kind EntityKind) (string, bool) {
	for _, e := range a.entities {
		if e.Kind == kind {
			return e.Value, true
		}
	}
	return "", false
}

// Fields returns the analysis as a mutable snapshot, e.g. for JSON encoding.
func (a InputAnalysis) Fields() AnalysisFields {
	return AnalysisFields{
		OriginalInput:   a.originalInput,
		Sentiment:       a.sentiment,
		Intent:          a.intent,
		Entities:        a.Entities(),
		EmotionalTone:   a.emotionalTone,
		PersonalityType: a.personalityType,
		Urgency:         a.urgency,
		Timestamp:       a.timestamp,
	}
}

// MarshalJSON encodes the analysis with snake_case keys.
func (a InputAnalysis) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Fields())
}

// UnmarshalJSON decodes an analysis, re-applying the construction invariants.
func (a *InputAnalysis) UnmarshalJSON(data []byte) error {
	var f AnalysisFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = NewInputAnalysis(f)
	return nil
}
