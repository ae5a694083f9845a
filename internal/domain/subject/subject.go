// Package subject normalizes subject names into storage key tokens.
package subject

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes to NFD, strips combining marks, and recomposes,
// turning "José" into "Jose".
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Canonical lowercases a subject name, folds diacritics, drops in-token
// punctuation, and joins the remaining tokens with underscores:
// "José Altuve" -> "jose_altuve". The result contains no glob
// metacharacters and no key separators, so it is safe to embed in store
// keys and scan patterns.
func Canonical(name string) string {
	folded, _, err := transform.String(foldMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '\'' || r == '.':
			// joiners inside a token: "O'Neill" -> "oneill", "J.D." -> "jd"
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// Variants returns the storage key spellings to try for a subject: the
// canonical underscore form first, then the legacy hyphen-joined form.
func Variants(name string) []string {
	canonical := Canonical(name)
	hyphen := strings.ReplaceAll(canonical, "_", "-")
	if hyphen == canonical {
		return []string{canonical}
	}
	return []string{canonical, hyphen}
}
