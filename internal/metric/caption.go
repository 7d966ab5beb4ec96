package metric

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Caption derives a human-readable caption from a Go identifier, e.g.
// "applyDiscount" -> "Apply Discount" and "queue_depth" -> "Queue Depth".
// Words that already carry uppercase (acronyms such as "HTTP") stay as-is.
func Caption(identifier string) string {
	words := splitIdentifier(identifier)
	if len(words) == 0 {
		return identifier
	}
	for i, w := range words {
		if w == strings.ToLower(w) {
			words[i] = titleCaser.String(w)
		}
	}
	return strings.Join(words, " ")
}

// splitIdentifier breaks an identifier on case transitions and on the usual
// separator runes. Acronym runs ("HTTPServer") stay together.
func splitIdentifier(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && cur.Len() > 0 && unicode.IsUpper(runes[i-1])) {
				flush()
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}
