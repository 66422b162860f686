// Package strutil holds small string helpers shared by the ai packages.
package strutil

import "unicode/utf8"

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Truncate cuts s to at most maxRunes runes, appending Ellipsis when it cuts.
// Non-positive maxRunes yields "".
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}
