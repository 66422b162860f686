// Package lexical classifies a text by keyword-set membership: sentiment, intent,
// emotional tone and entities. Every function here is pure; a Classifier is
// read-only after construction and safe for concurrent use.
package lexical

import (
	"github.com/hrygo/contextsense/ai/types"
)

// Markers are stylistic cues used by urgency scoring and the learn signal.
type Markers struct {
	Polite     bool `json:"polite"`
	Informal   bool `json:"informal"`
	Commanding bool `json:"commanding"`
	Urgent     bool `json:"urgent"`
}

// Result is the full lexical classification of one text.
type Result struct {
	Normalized string
	Sentiment  types.Sentiment
	Intent     types.Intent
	Tone       types.EmotionalTone
	Entities   []types.Entity
	Markers    Markers
}

type intentMatcher struct {
	intent   types.Intent
	keywords keywordSet
}

type toneKeyword struct {
	set    keywordSet
	weight float64
}

type toneMatcher struct {
	tone     types.EmotionalTone
	keywords []toneKeyword
}

// Classifier is a lexicon compiled for matching.
type Classifier struct {
	positive   keywordSet
	negative   keywordSet
	intents    []intentMatcher
	tones      []toneMatcher
	colors     map[string]struct{}
	clothing   map[string]struct{}
	polite     keywordSet
	informal   keywordSet
	commanding keywordSet
	urgent     keywordSet
	knownWords map[string]struct{} // capitalized words that are never names
}

// NewClassifier compiles a lexicon. Empty sections fall back to the defaults.
func NewClassifier(lex Lexicon) *Classifier {
	lex = lex.withDefaults()

	c := &Classifier{
		positive:   newKeywordSet(lex.Positive),
		negative:   newKeywordSet(lex.Negative),
		colors:     newKeywordSet(lex.Colors).wordSet(),
		clothing:   newKeywordSet(lex.Clothing).wordSet(),
		polite:     newKeywordSet(lex.Polite),
		informal:   newKeywordSet(lex.Informal),
		commanding: newKeywordSet(lex.Commanding),
		urgent:     newKeywordSet(lex.Urgent),
		knownWords: make(map[string]struct{}),
	}

	for _, rule := range lex.Intents {
		if !rule.Intent.IsValid() {
			continue
		}
		ks := newKeywordSet(rule.Keywords)
		c.intents = append(c.intents, intentMatcher{intent: rule.Intent, keywords: ks})
		c.addKnown(ks)
	}
	for _, rule := range lex.Tones {
		tm := toneMatcher{tone: rule.Tone}
		for _, kw := range rule.Keywords {
			if kw.Weight <= 0 {
				continue
			}
			ks := newKeywordSet([]string{kw.Keyword})
			tm.keywords = append(tm.keywords, toneKeyword{set: ks, weight: kw.Weight})
			c.addKnown(ks)
		}
		c.tones = append(c.tones, tm)
	}
	for _, ks := range []keywordSet{c.positive, c.negative, c.polite, c.informal, c.commanding, c.urgent} {
		c.addKnown(ks)
	}
	c.addKnown(newKeywordSet(lex.NameStopwords))
	for w := range c.colors {
		c.knownWords[w] = struct{}{}
	}
	for w := range c.clothing {
		c.knownWords[w] = struct{}{}
	}
	return c
}

// NewDefaultClassifier compiles the built-in lexicon.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultLexicon())
}

func (c *Classifier) addKnown(ks keywordSet) {
	for _, w := range ks.words {
		c.knownWords[w] = struct{}{}
	}
	for _, p := range ks.phrases {
		for _, w := range tokenize(p) {
			c.knownWords[w] = struct{}{}
		}
	}
}

// Classify runs every lexical stage over raw text.
func (c *Classifier) Classify(raw string) Result {
	t := newText(raw)
	return Result{
		Normalized: t.normalized,
		Sentiment:  c.sentiment(t),
		Intent:     c.intent(t),
		Tone:       c.tone(t),
		Entities:   c.extractEntities(raw, t),
		Markers:    c.markers(t),
	}
}

// ClassifySentiment returns the majority polarity; ties are NEUTRAL.
func (c *Classifier) ClassifySentiment(raw string) types.Sentiment {
	return c.sentiment(newText(raw))
}

// ClassifyIntent returns the intent of the first matching rule.
func (c *Classifier) ClassifyIntent(raw string) types.Intent {
	return c.intent(newText(raw))
}

// ClassifyTone returns the highest scoring emotional tone.
func (c *Classifier) ClassifyTone(raw string) types.EmotionalTone {
	return c.tone(newText(raw))
}

// DetectMarkers returns the stylistic cues found in raw.
func (c *Classifier) DetectMarkers(raw string) Markers {
	return c.markers(newText(raw))
}

// HasUrgencyKeyword reports whether raw contains an explicit urgency keyword.
func (c *Classifier) HasUrgencyKeyword(raw string) bool {
	return c.urgent.matches(newText(raw))
}

func (c *Classifier) sentiment(t text) types.Sentiment {
	pos := c.positive.count(t)
	neg := c.negative.count(t)
	switch {
	case pos > neg:
		return types.SentimentPositive
	case neg > pos:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

func (c *Classifier) intent(t text) types.Intent {
	if len(t.tokens) == 0 && t.normalized == "" {
		return types.IntentConversation
	}
	for _, m := range c.intents {
		if m.keywords.matches(t) {
			return m.intent
		}
	}
	return types.IntentConversation
}

func (c *Classifier) tone(t text) types.EmotionalTone {
	best := types.ToneNeutral
	bestScore := 0.0
	for _, tm := range c.tones {
		score := 0.0
		for _, kw := range tm.keywords {
			if kw.set.matches(t) {
				score += kw.weight
			}
		}
		// Strictly greater: earlier tones win ties.
		if score > bestScore {
			best, bestScore = tm.tone, score
		}
	}
	return best
}

func (c *Classifier) markers(t text) Markers {
	return Markers{
		Polite:     c.polite.matches(t),
		Informal:   c.informal.matches(t),
		Commanding: c.commanding.matches(t),
		Urgent:     c.urgent.matches(t),
	}
}
