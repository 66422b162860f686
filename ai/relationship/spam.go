package relationship

import (
	"strings"
	"unicode"
)

// SpamRules parameterise the likely-spam heuristic.
type SpamRules struct {
	// CountryPrefixes are stripped before measuring the national number.
	CountryPrefixes []string `yaml:"country_prefixes"`
	// NationalLength is the digit count of a regular national number.
	NationalLength int `yaml:"national_length"`
	// PremiumPrefixes mark reserved premium-rate ranges.
	PremiumPrefixes []string `yaml:"premium_prefixes"`
}

// DefaultSpamRules returns rules for Spanish numbering.
func DefaultSpamRules() SpamRules {
	return SpamRules{
		CountryPrefixes: []string{"+34", "0034"},
		NationalLength:  9,
		PremiumPrefixes: []string{"803", "806", "807", "905"},
	}
}

// IsLikelySpam applies DefaultSpamRules.
func IsLikelySpam(number, displayName string) bool {
	return DefaultSpamRules().IsLikelySpam(number, displayName)
}

// IsLikelySpam reports whether a caller looks like spam: no display name and a
// number that is not a regular national number, or a premium-rate prefix.
// Only meaningful for callers whose relationship is UNKNOWN.
func (r SpamRules) IsLikelySpam(number, displayName string) bool {
	national := r.NationalNumber(number)
	for _, p := range r.PremiumPrefixes {
		if p != "" && strings.HasPrefix(national, p) {
			return true
		}
	}
	return strings.TrimSpace(displayName) == "" && len(national) != r.NationalLength
}

// NationalNumber strips formatting and a leading country prefix, leaving digits only.
func (r SpamRules) NationalNumber(number string) string {
	number = strings.TrimSpace(number)
	for _, p := range r.CountryPrefixes {
		if p != "" && strings.HasPrefix(number, p) {
			number = number[len(p):]
			break
		}
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)
}
