package lexical

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/hrygo/contextsense/ai/types"
)

// Pre-compiled entity patterns. Each scan is exhaustive and independent.
var (
	phonePattern = regexp.MustCompile(`\+?\d{9,}`)
	namePattern  = regexp.MustCompile(`\p{Lu}\p{Ll}+`)
	urlPattern   = regexp.MustCompile(`https?://[^\s]+`)
	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
)

// ExtractEntities scans raw text for phone numbers, person names, colors,
// garments and links. Duplicates are kept.
func (c *Classifier) ExtractEntities(raw string) []types.Entity {
	return c.extractEntities(raw, newText(raw))
}

func (c *Classifier) extractEntities(raw string, t text) []types.Entity {
	var entities []types.Entity

	for _, m := range phonePattern.FindAllString(raw, -1) {
		entities = append(entities, types.Entity{Kind: types.EntityPhoneNumber, Value: m})
	}

	for _, loc := range namePattern.FindAllStringIndex(raw, -1) {
		if loc[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(raw[:loc[0]])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				continue
			}
		}
		word := raw[loc[0]:loc[1]]
		if _, known := c.knownWords[Normalize(word)]; known {
			continue
		}
		entities = append(entities, types.Entity{Kind: types.EntityPersonName, Value: word})
	}

	for _, tok := range t.tokens {
		if _, ok := c.colors[tok]; ok {
			entities = append(entities, types.Entity{Kind: types.EntityColor, Value: tok})
		}
	}
	for _, tok := range t.tokens {
		if _, ok := c.clothing[tok]; ok {
			entities = append(entities, types.Entity{Kind: types.EntityClothing, Value: tok})
		}
	}

	for _, m := range urlPattern.FindAllString(raw, -1) {
		entities = append(entities, types.Entity{Kind: types.EntityOther, Value: m})
	}
	for _, m := range emailPattern.FindAllString(raw, -1) {
		entities = append(entities, types.Entity{Kind: types.EntityOther, Value: m})
	}

	return entities
}
