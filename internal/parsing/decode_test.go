package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_StrategyChain(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantStrategy Strategy
		wantTitle    string
	}{
		{
			name:         "strict JSON",
			raw:          `{"title":"X","content":"<p>hi</p>"}`,
			wantStrategy: StrategyDirect,
			wantTitle:    "X",
		},
		{
			name:         "JSON in json fence",
			raw:          "```json\n{\"title\": \"Fenced\"}\n```",
			wantStrategy: StrategyDirect,
			wantTitle:    "Fenced",
		},
		{
			name:         "JSON in bare fence",
			raw:          "```\n{\"title\": \"Bare\"}\n```",
			wantStrategy: StrategyDirect,
			wantTitle:    "Bare",
		},
		{
			name:         "prose around JSON",
			raw:          "Sure! Here is your post:\n{\"title\": \"Wrapped\"}\nHope this helps.",
			wantStrategy: StrategyBracket,
			wantTitle:    "Wrapped",
		},
		{
			name:         "trailing garbage",
			raw:          `{"title": "Trailing"} and some words`,
			wantStrategy: StrategyBracket,
			wantTitle:    "Trailing",
		},
		{
			name:         "missing closing brace",
			raw:          `{"title": "Open", "meta": {"a": 1}`,
			wantStrategy: StrategyBraceFix,
			wantTitle:    "Open",
		},
		{
			name:         "truncated inside string",
			raw:          `{"title": "Cut", "content": "<p>half a sent`,
			wantStrategy: StrategyQuoteBraceFix,
			wantTitle:    "Cut",
		},
		{
			name:         "unrepairable structure",
			raw:          `{"title": "Regex", "content": "<p>ok</p>", "seoKeywords": ["a", "b",, ]}`,
			wantStrategy: StrategyFieldExtraction,
			wantTitle:    "Regex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode(tt.raw)
			assert.Equal(t, tt.wantStrategy, result.Strategy)
			assert.Equal(t, tt.wantTitle, result.Fields[FieldTitle])
		})
	}
}

func TestDecode_NothingRecovered(t *testing.T) {
	for _, raw := range []string{"", "   ", "no json here at all", "{", "{}", "[1,2,3]", "```\n```"} {
		result := Decode(raw)
		assert.Equal(t, StrategyNone, result.Strategy, "input %q", raw)
		require.NotNil(t, result.Fields, "input %q", raw)
		assert.Empty(t, result.Fields, "input %q", raw)
	}
}

func TestDecode_TruncatedContentKeepsText(t *testing.T) {
	result := Decode(`{"title": "T", "content": "<article><h2>Intro</h2><p>Solar is`)
	require.Equal(t, StrategyQuoteBraceFix, result.Strategy)
	assert.Equal(t, "<article><h2>Intro</h2><p>Solar is", result.Fields[FieldContent])
}

func TestDecode_BracesInsideStringsIgnored(t *testing.T) {
	result := Decode(`{"title": "a { b", "content": "<p>x</p>"`)
	require.Equal(t, StrategyBraceFix, result.Strategy)
	assert.Equal(t, "a { b", result.Fields[FieldTitle])
}

func TestParseBracketed_RequiresClosingBrace(t *testing.T) {
	_, ok := ParseBracketed(`{"title": "x"`)
	assert.False(t, ok)

	fields, ok := ParseBracketed(`noise {"title": "x"} noise`)
	require.True(t, ok)
	assert.Equal(t, "x", fields["title"])
}

func TestParseBraceFixed_NothingMissing(t *testing.T) {
	_, ok := ParseBraceFixed(`{"title": }`)
	assert.False(t, ok)
}

func TestExtractFields(t *testing.T) {
	raw := `garbage "title": "My \"Quoted\" Title", "seoTitle":"", "seo_description": "Desc",
		"seoKeywords": ["solar", "", "panels & more"], "excerpt": "Short",
		"content": "<p>Line\nTwo</p>", "slug": "my-title" ,,,`

	fields, ok := ExtractFields(raw)
	require.True(t, ok)

	assert.Equal(t, `My "Quoted" Title`, fields[FieldTitle])
	_, hasSEOTitle := fields[FieldSEOTitle]
	assert.False(t, hasSEOTitle, "empty values are dropped")
	assert.Equal(t, "Desc", fields[FieldSEODescription])
	assert.Equal(t, []any{"solar", "panels & more"}, fields[FieldSEOKeywords])
	assert.Equal(t, "Short", fields[FieldExcerpt])
	assert.Equal(t, "<p>Line\nTwo</p>", fields[FieldContent])
	assert.Equal(t, "my-title", fields[FieldSlug])
}

func TestExtractFields_NothingFound(t *testing.T) {
	fields, ok := ExtractFields("plain prose without any fields")
	assert.False(t, ok)
	assert.Empty(t, fields)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  ```\n{\"a\":1}```  "))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))

	inner := "{\"content\": \"<p>Run:</p>\n```\nnpm install\n```\n<p>done</p>\"}"
	assert.Equal(t, inner, StripCodeFences("```json\n"+inner+"\n```"))
	assert.Equal(t, inner, StripCodeFences(inner))
}

func TestDecode_FencedTextAfterPreamble(t *testing.T) {
	got := Decode("Here is the post:\n```json\n{\"title\": \"X\"}\n```")
	assert.Equal(t, StrategyBracket, got.Strategy)
	assert.Equal(t, "X", got.Fields["title"])
}

func TestCountUnescapedQuotes(t *testing.T) {
	assert.Equal(t, 2, countUnescapedQuotes(`"a"`))
	assert.Equal(t, 2, countUnescapedQuotes(`"a \" b"`))
	assert.Equal(t, 3, countUnescapedQuotes(`"a \\" b"`))
}

func TestMissingBraces(t *testing.T) {
	assert.Equal(t, 0, missingBraces(`{"a": {"b": 1}}`))
	assert.Equal(t, 2, missingBraces(`{"a": {"b": 1`))
	assert.Equal(t, 1, missingBraces(`{"a": "}}}"`))
}
