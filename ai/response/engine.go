// Package response renders replies from an analysis: reply text, expression
// tag, tone, suggested actions and a confidence reflecting template specificity.
package response

import (
	"hash/fnv"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hrygo/contextsense/ai/lexical"
	"github.com/hrygo/contextsense/ai/types"
)

// Confidence by template specificity.
const (
	ConfidenceExact          = 0.9 // intent + tone + relationship
	ConfidenceIntentTone     = 0.8
	ConfidenceIntentRelation = 0.7
	ConfidenceIntent         = 0.6
	ConfidenceTone           = 0.5
	ConfidenceRelation       = 0.4
	ConfidenceFallback       = 0.3
)

// Expression tags consumed by the avatar layer.
const (
	ExpressionLove      = "love"
	ExpressionWink      = "wink"
	ExpressionConcerned = "concerned"
	ExpressionExcited   = "excited"
	ExpressionThinking  = "thinking"
	ExpressionNeutral   = "neutral"
)

// NotifyOwnerThreshold is the urgency above which the owner is notified.
const NotifyOwnerThreshold = 0.7

// Engine renders responses. Read-only after construction and safe for concurrent use.
type Engine struct {
	templates Templates
}

// NewEngine creates an engine over t; empty sections use the defaults.
func NewEngine(t Templates) *Engine {
	return &Engine{templates: t.withDefaults()}
}

// NewDefaultEngine creates an engine over DefaultTemplates.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultTemplates())
}

// Respond picks the most specific template matching the analysis and renders it.
// Without a match the neutral fallback text is used at low confidence.
func (e *Engine) Respond(text string, a types.InputAnalysis, cc types.ConversationContext) types.Response {
	rel := cc.Relationship.Type
	rule, confidence, ok := e.match(a.Intent(), a.EmotionalTone(), rel)

	texts := e.templates.Fallback
	if ok {
		texts = rule.Texts
	} else {
		confidence = ConfidenceFallback
	}

	vars := placeholders(a, cc)
	resp := types.Response{
		Text:             render(pick(texts, text), vars),
		ExpressionTag:    Expression(a.EmotionalTone(), a.Sentiment()),
		Tone:             Tone(rel, a.PersonalityType()),
		SuggestedActions: SuggestedActions(a, cc),
		Confidence:       types.Clamp01(confidence),
	}
	if resp.Text == "" {
		return e.Fallback()
	}

	slog.Debug("response: rendered reply",
		"intent", a.Intent(),
		"tone", a.EmotionalTone(),
		"relationship", rel,
		"confidence", resp.Confidence,
	)
	return resp
}

// Fallback is the neutral, low-confidence response. It is never empty.
func (e *Engine) Fallback() types.Response {
	text := "Entendido"
	if len(e.templates.Fallback) > 0 && e.templates.Fallback[0] != "" {
		text = render(e.templates.Fallback[0], nil)
	}
	return types.Response{
		Text:             text,
		ExpressionTag:    ExpressionNeutral,
		Tone:             "neutral",
		SuggestedActions: []string{},
		Confidence:       ConfidenceFallback,
	}
}

func (e *Engine) match(intent types.Intent, tone types.EmotionalTone, rel types.RelationshipType) (Rule, float64, bool) {
	var (
		best      Rule
		bestScore float64
		found     bool
	)
	for _, r := range e.templates.Rules {
		if len(r.Texts) == 0 {
			continue
		}
		if r.Intent != "" && r.Intent != intent {
			continue
		}
		if r.Tone != "" && r.Tone != tone {
			continue
		}
		if r.Relationship != "" && r.Relationship != rel {
			continue
		}
		// Strictly greater: earlier rules win ties.
		if score := specificity(r); score > bestScore {
			best, bestScore, found = r, score, true
		}
	}
	return best, bestScore, found
}

func specificity(r Rule) float64 {
	hasIntent, hasTone, hasRel := r.Intent != "", r.Tone != "", r.Relationship != ""
	switch {
	case hasIntent && hasTone && hasRel:
		return ConfidenceExact
	case hasIntent && hasTone:
		return ConfidenceIntentTone
	case hasIntent && hasRel:
		return ConfidenceIntentRelation
	case hasIntent:
		return ConfidenceIntent
	case hasTone:
		return ConfidenceTone
	case hasRel:
		return ConfidenceRelation
	default:
		return ConfidenceFallback
	}
}

// Expression maps the dominant tone to an avatar expression. Negative text
// without a dominant tone reads as concerned.
func Expression(tone types.EmotionalTone, sentiment types.Sentiment) string {
	switch tone {
	case types.ToneLoving:
		return ExpressionLove
	case types.ToneFlirty:
		return ExpressionWink
	case types.ToneNeedy:
		return ExpressionConcerned
	case types.ToneExcited:
		return ExpressionExcited
	case types.ToneThoughtful:
		return ExpressionThinking
	}
	if sentiment == types.SentimentNegative {
		return ExpressionConcerned
	}
	return ExpressionNeutral
}

// Tone picks the speaking register for a contact.
func Tone(rel types.RelationshipType, personality types.PersonalityType) string {
	switch {
	case rel == types.RelationshipWork:
		return "professional"
	case personality == types.PersonalityCommanding:
		return "attentive"
	case rel == types.RelationshipPartner:
		return "affectionate"
	case personality == types.PersonalityFlirty:
		return "playful"
	case personality == types.PersonalityPolite:
		return "courteous"
	case personality == types.PersonalityCasual:
		return "casual"
	case rel == types.RelationshipFamily:
		return "warm"
	case rel == types.RelationshipFriend:
		return "friendly"
	default:
		return "neutral"
	}
}

// SuggestedActions derives automation hints from the intent and entities.
func SuggestedActions(a types.InputAnalysis, cc types.ConversationContext) []string {
	actions := []string{}
	switch a.Intent() {
	case types.IntentPhoneAction:
		actions = append(actions, "call:"+target(a, cc))
	case types.IntentMessageAction:
		actions = append(actions, "send_message:"+target(a, cc))
	case types.IntentOutfitChange:
		color, ok := a.FirstEntity(types.EntityColor)
		if !ok {
			color = "any"
		}
		clothing, ok := a.FirstEntity(types.EntityClothing)
		if !ok {
			clothing = "any"
		}
		actions = append(actions, "change_outfit:"+color+":"+clothing)
	}
	if a.Urgency() > NotifyOwnerThreshold {
		actions = append(actions, "notify_owner")
	}
	return actions
}

// target is who a call or message should go to: a named person, else a
// number, else the sender.
func target(a types.InputAnalysis, cc types.ConversationContext) string {
	if name, ok := a.FirstEntity(types.EntityPersonName); ok {
		return name
	}
	if phone, ok := a.FirstEntity(types.EntityPhoneNumber); ok {
		return phone
	}
	return cc.SenderID
}

func placeholders(a types.InputAnalysis, cc types.ConversationContext) map[string]string {
	vars := map[string]string{
		"name":     cc.SenderName,
		"phone":    "ese número",
		"person":   "esa persona",
		"color":    "",
		"clothing": "conjunto",
	}
	if v, ok := a.FirstEntity(types.EntityPhoneNumber); ok {
		vars["phone"] = v
	}
	if v, ok := a.FirstEntity(types.EntityPersonName); ok {
		vars["person"] = v
	}
	if v, ok := a.FirstEntity(types.EntityColor); ok {
		vars["color"] = v
	}
	if v, ok := a.FirstEntity(types.EntityClothing); ok {
		vars["clothing"] = v
	}
	switch {
	case vars["person"] != "esa persona":
		vars["target"] = vars["person"]
	case vars["phone"] != "ese número":
		vars["target"] = vars["phone"]
	default:
		vars["target"] = "esa persona"
	}
	return vars
}

var (
	placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)
	spaceBeforePunct   = regexp.MustCompile(`\s+([,.!?])`)
	commaBeforePunct   = regexp.MustCompile(`,([.!?])`)
	multiSpace         = regexp.MustCompile(`\s{2,}`)
)

// render substitutes {placeholders} and tidies the punctuation left behind by
// empty values. Unknown placeholders are kept verbatim.
func render(tmpl string, vars map[string]string) string {
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		if vars == nil {
			return ""
		}
		return m
	})
	out = spaceBeforePunct.ReplaceAllString(out, "$1")
	out = commaBeforePunct.ReplaceAllString(out, "$1")
	out = multiSpace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// pick chooses a variant deterministically from the normalized text, so the
// same stimulus always gets the same reply.
func pick(texts []string, seed string) string {
	switch len(texts) {
	case 0:
		return ""
	case 1:
		return texts[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(lexical.Normalize(seed)))
	return texts[h.Sum32()%uint32(len(texts))]
}
