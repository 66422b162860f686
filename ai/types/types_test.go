package types

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp01(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp01(tt.in))
	}
}

func TestNewInputAnalysis_Defaults(t *testing.T) {
	a := NewInputAnalysis(AnalysisFields{OriginalInput: "", Urgency: 3})

	assert.Equal(t, SentimentNeutral, a.Sentiment())
	assert.Equal(t, IntentConversation, a.Intent())
	assert.Equal(t, ToneNeutral, a.EmotionalTone())
	assert.Equal(t, PersonalityBalanced, a.PersonalityType())
	assert.Equal(t, 1.0, a.Urgency())
	assert.Nil(t, a.Entities())
}

func TestInputAnalysis_EntitiesAreCopied(t *testing.T) {
	src := []Entity{{Kind: EntityColor, Value: "rojo"}}
	a := NewInputAnalysis(AnalysisFields{Entities: src})

	src[0].Value = "azul"
	got := a.Entities()
	require.Len(t, got, 1)
	assert.Equal(t, "rojo", got[0].Value)

	got[0].Value = "verde"
	assert.Equal(t, "rojo", a.Entities()[0].Value)

	v, ok := a.FirstEntity(EntityColor)
	assert.True(t, ok)
	assert.Equal(t, "rojo", v)
	_, ok = a.FirstEntity(EntityClothing)
	assert.False(t, ok)
}

func TestInputAnalysis_JSON(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := NewInputAnalysis(AnalysisFields{
		OriginalInput: "hola",
		Intent:        IntentGreeting,
		Urgency:       0.4,
		Timestamp:     ts,
	})

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"intent":"GREETING"`)

	var back InputAnalysis
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a.Fields(), back.Fields())
}

func TestRelationship_Normalize(t *testing.T) {
	r := Relationship{Type: "COUSIN", Confidence: 2}.Normalize()
	assert.Equal(t, RelationshipUnknown, r.Type)
	assert.Equal(t, 1.0, r.Confidence)

	assert.Equal(t, Relationship{Type: RelationshipUnknown}, UnknownRelationship())
}

func TestCallAction_Answers(t *testing.T) {
	assert.True(t, ActionAnswerImmediately.Answers())
	assert.True(t, ActionAnswerWithGreeting.Answers())
	assert.True(t, ActionAnswerProfessionally.Answers())
	assert.False(t, ActionDeclinePolitely.Answers())
	assert.False(t, ActionSendToVoicemail.Answers())
}
