package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/keyword-blog/internal/generation"
	"github.com/jonathan/keyword-blog/internal/parsing"
	"github.com/jonathan/keyword-blog/internal/rendering"
	"github.com/jonathan/keyword-blog/internal/slug"
	"github.com/jonathan/keyword-blog/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintDocument(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	doc := &types.CandidateDocument{
		Title:          "Solar Panels Guide",
		SEOTitle:       "Solar Panels | Guide",
		SEODescription: "Everything about solar panels.",
		SEOKeywords:    []string{"solar panels", "solar panels sydney"},
		Excerpt:        "A short intro.",
		Content:        "<p>Body</p>",
	}

	p.PrintDocument(doc, parsing.StrategyBraceFix, []string{"excerpt"})
	output := buf.String()

	assert.Contains(t, output, "DECODED DOCUMENT")
	assert.Contains(t, output, "Solar Panels Guide")
	assert.Contains(t, output, "solar panels, solar panels sydney")
	assert.Contains(t, output, "11 chars")
	assert.Contains(t, output, "brace_fix")
	assert.Contains(t, output, "Synthesized: excerpt")
}

func TestPrintDocument_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDocument(nil, parsing.StrategyNone, nil)
	assert.Empty(t, buf.String())
}

func TestPrintGenerationResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	res := &generation.Result{
		BlogID:    uuid.New(),
		KeywordID: uuid.New(),
		Model:     "gemini-2.5-flash",
		Document: types.FinalDocument{
			CandidateDocument: types.CandidateDocument{Title: "Roof Repairs"},
			Slug:              "roof-repairs-x7k2p9",
		},
		Strategy:      parsing.StrategyDirect,
		SlugStep:      slug.StepRandom,
		SlugLookups:   6,
		SlugExhausted: true,
	}

	p.PrintGenerationResult(res)
	output := buf.String()

	assert.Contains(t, output, "GENERATED BLOG")
	assert.Contains(t, output, res.BlogID.String())
	assert.Contains(t, output, "gemini-2.5-flash")
	assert.Contains(t, output, "roof-repairs-x7k2p9")
	assert.Contains(t, output, "after 6 lookups")
	assert.Contains(t, output, "candidates exhausted")
	assert.Contains(t, output, "Fallback: none")
}

func TestPrintKeywordQuality(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	phrases := []types.Phrase{
		{Phrase: "solar panel installation", Frequency: 2},
		{Phrase: "solar panels", Frequency: 12, InH2: true},
		{Phrase: "a", Frequency: 1},
		{Phrase: "roof solar cost", Frequency: 3},
		{Phrase: "best solar panels", Frequency: 4},
		{Phrase: "solar rebate", Frequency: 5},
		{Phrase: "panel efficiency", Frequency: 1},
	}

	p.PrintKeywordQuality(phrases)
	output := buf.String()

	assert.Contains(t, output, "KEYWORD QUALITY")
	assert.Contains(t, output, "Total phrases: 7")
	assert.Contains(t, output, "#1  solar panels")
	assert.Contains(t, output, "[heading]")
	assert.Contains(t, output, "... and 2 more phrases")
}

func TestPrintKeywordQuality_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintKeywordQuality(nil)
	assert.Empty(t, buf.String())
}

func TestPrintMatchScore(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintMatchScore("Solar Guide", 72)
	output := buf.String()

	assert.Contains(t, output, "KEYWORD MATCH")
	assert.Contains(t, output, "Score: 72/100")
	assert.Contains(t, output, "["+strings.Repeat("█", 7)+strings.Repeat("·", 3)+"]")
}

func TestScoreBar_Bounds(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat("·", 10)+"]", scoreBar(-5))
	assert.Equal(t, "["+strings.Repeat("█", 10)+"]", scoreBar(150))
}

func TestPrintAnnotations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	summary := rendering.AnnotationSummary{
		Phrases:  2,
		Words:    3,
		Keywords: map[string]int{"solar panels": 2, "roof": 3},
	}

	p.PrintAnnotations(summary)
	output := buf.String()

	assert.Contains(t, output, "HIGHLIGHTS")
	assert.Contains(t, output, "Phrase highlights: 2")
	assert.Contains(t, output, "Word highlights:   3")
	assert.Less(t, strings.Index(output, "roof ×3"), strings.Index(output, "solar panels ×2"))
}

func TestPrintAnnotations_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnnotations(rendering.AnnotationSummary{})
	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("ü", 100))
	output := buf.String()

	assert.Contains(t, output, "...")
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
}
