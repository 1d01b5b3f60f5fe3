// Package parsing turns the free-text response of the generation service into
// a best-effort field mapping. The service has no enforced output contract, so
// decoding degrades through an ordered chain of strategies and never fails.
package parsing

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Fields is the decoded field mapping. Values keep their JSON shapes
// (string, []any, map[string]any, float64, bool).
type Fields map[string]any

// Strategy names the decoding strategy that produced a Result.
type Strategy string

// Decoding strategies, in the order they are attempted.
const (
	StrategyDirect          Strategy = "direct"
	StrategyBracket         Strategy = "bracket_extraction"
	StrategyBraceFix        Strategy = "brace_fix"
	StrategyQuoteBraceFix   Strategy = "quote_and_brace_fix"
	StrategyFieldExtraction Strategy = "field_extraction"
	StrategyNone            Strategy = "none"
)

// Result is the outcome of Decode.
type Result struct {
	Fields   Fields
	Strategy Strategy
}

// StrategyFunc attempts to recover fields from fence-stripped text.
type StrategyFunc func(text string) (Fields, bool)

type namedStrategy struct {
	name Strategy
	fn   StrategyFunc
}

var chain = []namedStrategy{
	{StrategyDirect, ParseDirect},
	{StrategyBracket, ParseBracketed},
	{StrategyBraceFix, ParseBraceFixed},
	{StrategyQuoteBraceFix, ParseQuoteBraceFixed},
	{StrategyFieldExtraction, ExtractFields},
}

// Decode runs the strategy chain over raw and returns the first non-empty
// mapping. When nothing is recovered it returns an empty mapping tagged
// StrategyNone.
func Decode(raw string) Result {
	text := StripCodeFences(raw)
	for _, s := range chain {
		if fields, ok := attempt(s.fn, text); ok {
			return Result{Fields: fields, Strategy: s.name}
		}
	}
	return Result{Fields: Fields{}, Strategy: StrategyNone}
}

// attempt runs one strategy, treating a panic as "produced nothing".
func attempt(fn StrategyFunc, text string) (fields Fields, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			fields, ok = nil, false
		}
	}()
	fields, ok = fn(text)
	return fields, ok && len(fields) > 0
}

var (
	leadingFence  = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// StripCodeFences removes a markdown code fence wrapping the response. Fences
// inside the text are kept.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ParseDirect parses the whole text as a JSON object.
func ParseDirect(text string) (Fields, bool) {
	return parseObject(text)
}

// ParseBracketed parses the substring between the first '{' and the last '}'.
func ParseBracketed(text string) (Fields, bool) {
	fragment, closed := objectFragment(text)
	if fragment == "" || !closed {
		return nil, false
	}
	return parseObject(fragment)
}

// ParseBraceFixed appends the closing braces a truncated object is missing.
func ParseBraceFixed(text string) (Fields, bool) {
	fragment, _ := objectFragment(text)
	if fragment == "" {
		return nil, false
	}
	missing := missingBraces(fragment)
	if missing <= 0 {
		return nil, false
	}
	return parseObject(fragment + strings.Repeat("}", missing))
}

// ParseQuoteBraceFixed closes an unterminated string and then re-balances
// braces before parsing.
func ParseQuoteBraceFixed(text string) (Fields, bool) {
	fragment, _ := objectFragment(text)
	if fragment == "" {
		return nil, false
	}
	if countUnescapedQuotes(fragment)%2 == 1 {
		fragment += `"`
	}
	if missing := missingBraces(fragment); missing > 0 {
		fragment += strings.Repeat("}", missing)
	}
	return parseObject(fragment)
}

func parseObject(text string) (Fields, bool) {
	var fields Fields
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, false
	}
	if fields == nil {
		return nil, false
	}
	return fields, true
}

// objectFragment returns the text from the first '{' through the last '}'.
// When no '}' follows the first '{' the output was truncated, and the
// fragment runs to the end of the text with closed=false.
func objectFragment(text string) (fragment string, closed bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(text, "}")
	if end > start {
		return text[start : end+1], true
	}
	return text[start:], false
}

// missingBraces counts unmatched '{' outside of string literals.
func missingBraces(text string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}

// countUnescapedQuotes counts '"' characters not preceded by an odd run of
// backslashes.
func countUnescapedQuotes(text string) int {
	count := 0
	backslashes := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			backslashes++
			continue
		case '"':
			if backslashes%2 == 0 {
				count++
			}
		}
		backslashes = 0
	}
	return count
}
