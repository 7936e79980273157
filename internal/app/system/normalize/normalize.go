// Package normalize canonicalizes user-entered values before they are
// stored or compared.
package normalize

import (
	"strings"
	"unicode"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lowercases.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Name trims and collapses internal whitespace; case is preserved.
func Name(s string) string { return strings.Join(strings.Fields(s), " ") }

// Role trims and lowercases.
func Role(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Status trims and lowercases; empty means active.
func Status(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "active"
	}
	return s
}

// Slug builds a URL slug: folded, lowercase, runs of anything that is not
// a letter or digit collapsed to a single '-'.
func Slug(s string) string {
	s = text.Fold(s)
	var b strings.Builder
	dash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
