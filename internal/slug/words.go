package slug

import (
	"regexp"
	"strings"
)

// ContentTypeFallback is used when no content type keyword matches.
const ContentTypeFallback = "article"

var wordStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "in": true, "on": true, "at": true, "for": true,
	"to": true, "of": true, "with": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "can": true, "could": true, "will": true, "would": true, "should": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true, "they": true,
	"this": true, "that": true, "these": true, "those": true,
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// SignificantWords returns the unique lowercase words of text that are longer
// than three characters and not stop words, in order of first appearance.
func SignificantWords(text string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(fold(text)), " ")

	var words []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 3 || wordStopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

// contentTypes is checked in order; the first tag with a matching cue wins.
var contentTypes = []struct {
	tag  string
	cues []string
}{
	{"guide", []string{"how", "guide", "tips", "advice", "ways"}},
	{"review", []string{"review", "compare", "versus", "vs", "best"}},
	{"tutorial", []string{"tutorial", "step", "learn", "diy", "how-to"}},
	{"benefits", []string{"benefits", "advantages", "why", "reasons"}},
	{"overview", []string{"overview", "introduction", "basics", "fundamentals"}},
	{"insight", []string{"insights", "analysis", "perspective", "understanding"}},
	{"experience", []string{"experience", "journey", "story", "case-study"}},
}

// ContentType infers a coarse content tag from title and description. Cues
// are matched as substrings of the lowercased text.
func ContentType(title, description string) string {
	combined := strings.ToLower(title + " " + description)
	for _, ct := range contentTypes {
		for _, cue := range ct.cues {
			if strings.Contains(combined, cue) {
				return ct.tag
			}
		}
	}
	return ContentTypeFallback
}
