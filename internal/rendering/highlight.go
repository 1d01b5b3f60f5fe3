// Package rendering produces display-only projections of stored blog content:
// keyword highlighting, its inverse, and inspection of the inserted markup.
package rendering

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/keyword-blog/internal/types"
	xhtml "golang.org/x/net/html"
)

// Annotation markup
const (
	AnnotationClass = "keyword-highlight"
	phraseClass     = "phrase-highlight"
	wordClass       = "word-highlight"

	KindPhrase = "phrase"
	KindWord   = "word"
)

// skippedElements hold text that is never highlighted.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"textarea": true,
	"title":    true,
}

// entity matches a character reference in raw HTML text.
var entity = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);`)

// Terms picks the phrases and words to highlight for rec. Curated keywords
// win over extracted ones, list by list: custom when non-nil, else rec.Custom,
// and an empty curated list falls back to the extracted list.
func Terms(rec types.KeywordRecord, custom *types.CustomKeywords) (phrases, words []string) {
	if custom == nil {
		custom = rec.Custom
	}
	if custom != nil {
		phrases = custom.Phrases
		words = custom.SingleWords
	}
	if len(phrases) == 0 {
		phrases = make([]string, 0, len(rec.Extracted.Phrases))
		for _, p := range rec.Extracted.Phrases {
			phrases = append(phrases, p.Phrase)
		}
	}
	if len(words) == 0 {
		words = make([]string, 0, len(rec.Extracted.SingleWords))
		for _, w := range rec.Extracted.SingleWords {
			words = append(words, w.Word)
		}
	}
	return phrases, words
}

// Highlight wraps occurrences of the keywords of rec in content with
// annotation spans. See HighlightTerms.
func Highlight(content string, rec types.KeywordRecord, custom *types.CustomKeywords) string {
	phrases, words := Terms(rec, custom)
	return HighlightTerms(content, phrases, words)
}

type matcher struct {
	kind string
	re   *regexp.Regexp
}

// HighlightTerms wraps case-insensitive occurrences of phrases (longest
// first) and then words in annotation spans. Only text outside tags, outside
// existing annotations and outside script, style, textarea and title
// elements is matched, and a match never overlaps an earlier one. Words
// without spaces match on word boundaries. All other bytes are copied
// unchanged, so StripHighlights restores the input exactly.
func HighlightTerms(content string, phrases, words []string) string {
	matchers := buildMatchers(phrases, words)
	if content == "" || len(matchers) == 0 {
		return content
	}

	var out strings.Builder
	out.Grow(len(content) + len(content)/4)

	z := xhtml.NewTokenizer(strings.NewReader(content))
	var spans []bool // open spans, true for annotations
	skipping := ""

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			// a tag cut off by the end of input comes back with the error
			out.Write(z.Raw())
			break
		}
		raw := string(z.Raw())

		switch tt {
		case xhtml.TextToken:
			if skipping != "" || inAnnotation(spans) {
				out.WriteString(raw)
			} else {
				out.WriteString(highlightText(raw, matchers))
			}
			continue
		case xhtml.StartTagToken:
			name, annotation := inspectTag(z)
			if name == "span" {
				spans = append(spans, annotation)
			} else if skippedElements[name] && skipping == "" {
				skipping = name
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			switch n := string(name); {
			case n == "span" && len(spans) > 0:
				spans = spans[:len(spans)-1]
			case n == skipping:
				skipping = ""
			}
		}
		out.WriteString(raw)
	}
	return out.String()
}

// StripHighlights removes every annotation span and keeps its content.
func StripHighlights(content string) string {
	if !strings.Contains(content, AnnotationClass) {
		return content
	}

	var out strings.Builder
	out.Grow(len(content))

	z := xhtml.NewTokenizer(strings.NewReader(content))
	var spans []bool

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			out.Write(z.Raw())
			break
		}
		raw := string(z.Raw())

		switch tt {
		case xhtml.StartTagToken:
			if name, annotation := inspectTag(z); name == "span" {
				spans = append(spans, annotation)
				if annotation {
					continue
				}
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); string(name) == "span" && len(spans) > 0 {
				annotation := spans[len(spans)-1]
				spans = spans[:len(spans)-1]
				if annotation {
					continue
				}
			}
		}
		out.WriteString(raw)
	}
	return out.String()
}

// inspectTag returns the tag name and whether it is an annotation span.
// It must be called after Raw, as the tokenizer rewrites its buffer.
func inspectTag(z *xhtml.Tokenizer) (string, bool) {
	nameBytes, hasAttr := z.TagName()
	name := string(nameBytes)
	if name != "span" {
		return name, false
	}
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "class" {
			for _, class := range strings.Fields(string(val)) {
				if class == AnnotationClass {
					return name, true
				}
			}
		}
	}
	return name, false
}

func inAnnotation(spans []bool) bool {
	for _, annotation := range spans {
		if annotation {
			return true
		}
	}
	return false
}

// buildMatchers compiles phrases longest first, then words in order.
func buildMatchers(phrases, words []string) []matcher {
	seen := make(map[string]bool)
	clean := func(terms []string) []string {
		var out []string
		for _, t := range terms {
			t = strings.TrimSpace(t)
			key := strings.ToLower(t)
			if t == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
		return out
	}

	ps := clean(phrases)
	sort.SliceStable(ps, func(i, j int) bool { return len(ps[i]) > len(ps[j]) })
	ws := clean(words)

	matchers := make([]matcher, 0, len(ps)+len(ws))
	for _, p := range ps {
		matchers = append(matchers, matcher{
			kind: KindPhrase,
			re:   regexp.MustCompile(`(?i)` + termPattern(p)),
		})
	}
	for _, w := range ws {
		pattern := termPattern(w)
		if !strings.Contains(w, " ") {
			pattern = `\b` + pattern + `\b`
		}
		matchers = append(matchers, matcher{kind: KindWord, re: regexp.MustCompile(`(?i)` + pattern)})
	}
	return matchers
}

// escapable maps characters that raw HTML text may carry as a character
// reference to a pattern matching either form.
var escapable = map[rune]string{
	'&':  `(?:&amp;|&#0*38;|&#x0*26;|&)`,
	'<':  `(?:&lt;|&#0*60;|&#x0*3c;|<)`,
	'>':  `(?:&gt;|&#0*62;|&#x0*3e;|>)`,
	'"':  `(?:&quot;|&#0*34;|&#x0*22;|")`,
	'\'': `(?:&apos;|&#0*39;|&#x0*27;|')`,
}

// termPattern quotes term for literal matching against raw HTML text.
func termPattern(term string) string {
	var sb strings.Builder
	for _, r := range term {
		if alt, ok := escapable[r]; ok {
			sb.WriteString(alt)
			continue
		}
		sb.WriteString(regexp.QuoteMeta(string(r)))
	}
	return sb.String()
}

type span struct {
	start, end int
	kind       string
}

// highlightText wraps accepted matches in one raw text token.
func highlightText(text string, matchers []matcher) string {
	entities := entity.FindAllStringIndex(text, -1)
	var accepted []span

	for _, m := range matchers {
		for _, loc := range m.re.FindAllStringIndex(text, -1) {
			s := span{start: loc[0], end: loc[1], kind: m.kind}
			if s.end > s.start && !splitsEntity(s, entities) && !overlaps(s, accepted) {
				accepted = append(accepted, s)
			}
		}
	}
	if len(accepted) == 0 {
		return text
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })

	var out strings.Builder
	last := 0
	for _, s := range accepted {
		out.WriteString(text[last:s.start])
		out.WriteString(wrap(text[s.start:s.end], s.kind))
		last = s.end
	}
	out.WriteString(text[last:])
	return out.String()
}

func overlaps(s span, accepted []span) bool {
	for _, a := range accepted {
		if s.start < a.end && a.start < s.end {
			return true
		}
	}
	return false
}

// splitsEntity reports whether s starts or ends inside a character reference.
func splitsEntity(s span, entities [][]int) bool {
	for _, e := range entities {
		if (s.start > e[0] && s.start < e[1]) || (s.end > e[0] && s.end < e[1]) {
			return true
		}
	}
	return false
}

// wrap builds the annotation span. The attribute carries the unescaped match
// re-escaped, so it never contains '<' or '>'.
func wrap(match, kind string) string {
	class := wordClass
	if kind == KindPhrase {
		class = phraseClass
	}
	return `<span class="` + AnnotationClass + ` ` + class + `" data-keyword-type="` + kind +
		`" data-keyword-text="` + html.EscapeString(html.UnescapeString(match)) + `">` + match + `</span>`
}
