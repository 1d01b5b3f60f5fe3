// Package slug derives URL-safe identifiers for blog posts and allocates one
// that no other post is using.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps the length of a normalized slug.
const MaxLength = 120

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns   = regexp.MustCompile(`-+`)
	punctuation  = regexp.MustCompile(`[^\w\s-]`)
)

// slugStopWords are dropped from cleaned slugs.
var slugStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "in": true, "on": true, "at": true, "for": true,
	"to": true, "of": true, "with": true, "and": true, "or": true, "but": true,
}

// Normalize lowercases s, replaces every character outside [a-z0-9-] with a
// hyphen, collapses hyphen runs, trims hyphens and caps the length.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = invalidChars.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Clean folds accents, drops punctuation and stop words, then normalizes.
// "The Best Café in Sydney!" becomes "best-cafe-sydney".
func Clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(fold(s)))
	s = punctuation.ReplaceAllString(s, "")
	s = invalidChars.ReplaceAllString(s, "-")

	words := strings.Split(s, "-")
	kept := words[:0]
	for _, w := range words {
		if w != "" && !slugStopWords[w] {
			kept = append(kept, w)
		}
	}
	return Normalize(strings.Join(kept, "-"))
}

// fold strips combining marks so accented letters reduce to their base form.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
