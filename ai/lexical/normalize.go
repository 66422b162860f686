package lexical

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text, strips diacritics and collapses whitespace.
// "¿Qué   tal?" becomes "¿que tal?".
func Normalize(text string) string {
	// A transformer chain keeps per-call state, so it is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// tokenize splits normalized text into letter/digit words.
func tokenize(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// text is a normalized input prepared for keyword matching.
type text struct {
	normalized string
	spaced     string // tokens joined by single spaces, padded: " a b c "
	tokens     []string
	tokenSet   map[string]int
}

func newText(raw string) text {
	normalized := Normalize(raw)
	tokens := tokenize(normalized)
	set := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		set[tok]++
	}
	return text{
		normalized: normalized,
		spaced:     " " + strings.Join(tokens, " ") + " ",
		tokens:     tokens,
		tokenSet:   set,
	}
}

// keywordSet matches single words against tokens, word phrases against the
// token stream and symbol keywords (punctuation, emoji) as raw substrings.
type keywordSet struct {
	words   []string
	phrases []string
	symbols []string
}

func newKeywordSet(keywords []string) keywordSet {
	var ks keywordSet
	for _, kw := range keywords {
		kw = Normalize(kw)
		if kw == "" {
			continue
		}
		switch {
		case !isWordy(kw):
			ks.symbols = append(ks.symbols, kw)
		case strings.Contains(kw, " "):
			ks.phrases = append(ks.phrases, " "+kw+" ")
		default:
			ks.words = append(ks.words, kw)
		}
	}
	return ks
}

func isWordy(s string) bool {
	for _, r := range s {
		if r != ' ' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// count returns the number of keyword occurrences in t.
func (ks keywordSet) count(t text) int {
	n := 0
	for _, w := range ks.words {
		n += t.tokenSet[w]
	}
	for _, p := range ks.phrases {
		n += strings.Count(t.spaced, p)
	}
	for _, s := range ks.symbols {
		n += strings.Count(t.normalized, s)
	}
	return n
}

// matches reports whether any keyword occurs in t.
func (ks keywordSet) matches(t text) bool {
	for _, w := range ks.words {
		if t.tokenSet[w] > 0 {
			return true
		}
	}
	for _, p := range ks.phrases {
		if strings.Contains(t.spaced, p) {
			return true
		}
	}
	for _, s := range ks.symbols {
		if strings.Contains(t.normalized, s) {
			return true
		}
	}
	return false
}

func (ks keywordSet) wordSet() map[string]struct{} {
	out := make(map[string]struct{}, len(ks.words))
	for _, w := range ks.words {
		out[w] = struct{}{}
	}
	return out
}

// Matcher matches a fixed keyword list against raw text with the same folding
// and word-boundary rules the classifier uses.
type Matcher struct {
	set keywordSet
}

// NewMatcher compiles keywords into a Matcher.
func NewMatcher(keywords ...string) Matcher {
	return Matcher{set: newKeywordSet(keywords)}
}

// Matches reports whether any keyword occurs in raw.
func (m Matcher) Matches(raw string) bool {
	return m.set.matches(newText(raw))
}

// Count returns the number of keyword occurrences in raw.
func (m Matcher) Count(raw string) int {
	return m.set.count(newText(raw))
}
