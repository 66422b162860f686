// Package types defines the value types shared by every stage of the decision engine.
package types

import (
	"math"
	"time"
)

// RelationshipType is the social role of a contact relative to the device owner.
type RelationshipType string

const (
	RelationshipPartner RelationshipType = "PARTNER"
	RelationshipFamily  RelationshipType = "FAMILY"
	RelationshipFriend  RelationshipType = "FRIEND"
	RelationshipWork    RelationshipType = "WORK"
	RelationshipUnknown RelationshipType = "UNKNOWN"
)

// IsValid reports whether t is one of the known relationship types.
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelationshipPartner, RelationshipFamily, RelationshipFriend, RelationshipWork, RelationshipUnknown:
		return true
	}
	return false
}

func (t RelationshipType) String() string { return string(t) }

// Relationship is a classified relationship with its confidence in [0,1].
type Relationship struct {
	Type       RelationshipType `json:"type"`
	Confidence float64          `json:"confidence"`
}

// UnknownRelationship is the default used whenever no record exists.
func UnknownRelationship() Relationship {
	return Relationship{Type: RelationshipUnknown, Confidence: 0}
}

// Normalize maps invalid types to UNKNOWN and clamps confidence to [0,1].
func (r Relationship) Normalize() Relationship {
	if !r.Type.IsValid() {
		r.Type = RelationshipUnknown
	}
	r.Confidence = Clamp01(r.Confidence)
	return r
}

// Sentiment is the polarity of a text.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

func (s Sentiment) String() string { return string(s) }

// Intent is what the sender wants from the owner.
type Intent string

const (
	IntentRequest       Intent = "REQUEST"
	IntentQuestion      Intent = "QUESTION"
	IntentAppreciation  Intent = "APPRECIATION"
	IntentGreeting      Intent = "GREETING"
	IntentFarewell      Intent = "FAREWELL"
	IntentOutfitChange  Intent = "OUTFIT_CHANGE"
	IntentPhoneAction   Intent = "PHONE_ACTION"
	IntentMessageAction Intent = "MESSAGE_ACTION"
	IntentConversation  Intent = "CONVERSATION"
)

func (i Intent) String() string { return string(i) }

// IsValid reports whether i is one of the known intents.
func (i Intent) IsValid() bool {
	switch i {
	case IntentRequest, IntentQuestion, IntentAppreciation, IntentGreeting, IntentFarewell,
		IntentOutfitChange, IntentPhoneAction, IntentMessageAction, IntentConversation:
		return true
	}
	return false
}

// EmotionalTone is the dominant emotional register of a text.
type EmotionalTone string

const (
	ToneLoving     EmotionalTone = "LOVING"
	ToneFlirty     EmotionalTone = "FLIRTY"
	ToneNeedy      EmotionalTone = "NEEDY"
	ToneExcited    EmotionalTone = "EXCITED"
	ToneThoughtful EmotionalTone = "THOUGHTFUL"
	ToneNeutral    EmotionalTone = "NEUTRAL"
)

func (t EmotionalTone) String() string { return string(t) }

// PersonalityType is the communication style inferred from a contact's history.
type PersonalityType string

const (
	PersonalityPolite     PersonalityType = "POLITE"
	PersonalityFlirty     PersonalityType = "FLIRTY"
	PersonalityCasual     PersonalityType = "CASUAL"
	PersonalityCommanding PersonalityType = "COMMANDING"
	PersonalityBalanced   PersonalityType = "BALANCED"
)

func (p PersonalityType) String() string { return string(p) }

// EntityKind classifies an extracted entity.
type EntityKind string

const (
	EntityPhoneNumber EntityKind = "PHONE_NUMBER"
	EntityPersonName  EntityKind = "PERSON_NAME"
	EntityColor       EntityKind = "COLOR"
	EntityClothing    EntityKind = "CLOTHING"
	EntityOther       EntityKind = "OTHER"
)

// Entity is a typed fragment pulled out of a text. Duplicates are allowed.
type Entity struct {
	Kind  EntityKind `json:"kind"`
	Value string     `json:"value"`
}

// TextStimulus is an inbound message or transcribed utterance.
type TextStimulus struct {
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CallStimulus is an inbound phone call. CallerDisplayName is empty when unknown.
type CallStimulus struct {
	CallerID          string    `json:"caller_id"`
	CallerDisplayName string    `json:"caller_display_name,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// ConversationContext is built fresh for every stimulus and never persisted.
type ConversationContext struct {
	Platform     string       `json:"platform"`
	SenderID     string       `json:"sender_id"`
	SenderName   string       `json:"sender_name,omitempty"`
	Relationship Relationship `json:"relationship"`
	Timestamp    time.Time    `json:"timestamp"`
}

// InteractionRecord is one past exchange with a contact as kept by the history store.
type InteractionRecord struct {
	IsPolite     bool      `json:"is_polite"`
	IsFlirty     bool      `json:"is_flirty"`
	IsInformal   bool      `json:"is_informal"`
	IsCommanding bool      `json:"is_commanding"`
	Timestamp    time.Time `json:"timestamp"`
}

// Response is what the engine would say back, plus hints for the avatar/voice layers.
type Response struct {
	Text             string   `json:"text"`
	ExpressionTag    string   `json:"expression_tag"`
	Tone             string   `json:"tone"`
	SuggestedActions []string `json:"suggested_actions"`
	Confidence       float64  `json:"confidence"`
}

// CallerInfo identifies an incoming caller. Name is empty when withheld or unknown.
type CallerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// CallAction is the terminal decision for an incoming call.
type CallAction string

const (
	ActionAnswerImmediately    CallAction = "ANSWER_IMMEDIATELY"
	ActionAnswerWithGreeting   CallAction = "ANSWER_WITH_GREETING"
	ActionAnswerProfessionally CallAction = "ANSWER_PROFESSIONALLY"
	ActionDeclinePolitely      CallAction = "DECLINE_POLITELY"
	ActionSendToVoicemail      CallAction = "SEND_TO_VOICEMAIL"
)

func (a CallAction) String() string { return string(a) }

// Answers reports whether the action picks the call up.
func (a CallAction) Answers() bool {
	switch a {
	case ActionAnswerImmediately, ActionAnswerWithGreeting, ActionAnswerProfessionally:
		return true
	}
	return false
}

// CallTone parameterises how an answered (or declined) call is spoken to.
type CallTone string

const (
	CallToneIntimate     CallTone = "intimate"
	CallToneWarm         CallTone = "warm"
	CallToneProfessional CallTone = "professional"
	CallToneFormal       CallTone = "formal"
	CallTonePolite       CallTone = "polite"
)

// CallDecision is the facade result for an incoming call.
type CallDecision struct {
	CallID       string       `json:"call_id"`
	Action       CallAction   `json:"action"`
	Tone         CallTone     `json:"tone"`
	Relationship Relationship `json:"relationship"`
	LikelySpam   bool         `json:"likely_spam"`
	Greeting     Response     `json:"greeting"`
}

// MessageDecision is the facade result for an inbound message.
type MessageDecision struct {
	ShouldRespond    bool     `json:"should_respond"`
	Response         string   `json:"response"`
	Urgency          float64  `json:"urgency"`
	SuggestedActions []string `json:"suggested_actions"`
}

// Clamp01 clamps v into [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
