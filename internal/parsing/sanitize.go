package parsing

import (
	"regexp"
	"strings"
)

var (
	newlineRuns    = regexp.MustCompile(`\n+`)
	whitespaceRuns = regexp.MustCompile(`\s{2,}`)
	interTagSpace  = regexp.MustCompile(`>\s+<`)
)

// SanitizePlain collapses newlines and whitespace runs in a plain-text field
// into single spaces.
func SanitizePlain(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = newlineRuns.ReplaceAllString(text, " ")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SanitizeHTML removes newlines from generated markup, drops whitespace
// between adjacent tags and collapses remaining runs. Tag structure is kept.
func SanitizeHTML(html string) string {
	html = strings.ReplaceAll(html, "\r", "")
	html = strings.ReplaceAll(html, "\n", "")
	html = interTagSpace.ReplaceAllString(html, "><")
	html = whitespaceRuns.ReplaceAllString(html, " ")
	return strings.TrimSpace(html)
}
