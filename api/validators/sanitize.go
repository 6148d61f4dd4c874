package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString collapses whitespace runs and caps the result at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	s := strings.Join(strings.Fields(input), " ")
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		s = string([]rune(s)[:maxLen])
	}
	return s
}
