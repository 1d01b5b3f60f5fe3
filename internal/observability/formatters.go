// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/keyword-blog/internal/generation"
	"github.com/jonathan/keyword-blog/internal/parsing"
	"github.com/jonathan/keyword-blog/internal/ranking"
	"github.com/jonathan/keyword-blog/internal/rendering"
	"github.com/jonathan/keyword-blog/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, shorten(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, shorten(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// shorten truncates s to limit runes, ending with "..." when cut.
func shorten(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-3]) + "..."
}

// PrintDocument outputs the fields of a decoded and completed document.
func (p *Printer) PrintDocument(doc *types.CandidateDocument, strategy parsing.Strategy, synthesized []string) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:       %s\n", doc.Title))
	sb.WriteString(fmt.Sprintf("SEO title:   %s\n", doc.SEOTitle))
	sb.WriteString(fmt.Sprintf("Description: %s\n", doc.SEODescription))
	sb.WriteString(fmt.Sprintf("Keywords:    %s\n", strings.Join(doc.SEOKeywords, ", ")))
	sb.WriteString(fmt.Sprintf("Excerpt:     %s\n", doc.Excerpt))
	sb.WriteString(fmt.Sprintf("Content:     %d chars\n", len(doc.Content)))
	if doc.SlugHint != "" {
		sb.WriteString(fmt.Sprintf("Slug hint:   %s\n", doc.SlugHint))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Decoder:     %s\n", strategy))
	if len(synthesized) > 0 {
		sb.WriteString(fmt.Sprintf("Synthesized: %s", strings.Join(synthesized, ", ")))
	} else {
		sb.WriteString("Synthesized: none")
	}

	p.printBox("DECODED DOCUMENT", sb.String())
}

// PrintGenerationResult outputs the stored post and how it was produced.
func (p *Printer) PrintGenerationResult(res *generation.Result) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Blog:     %s\n", res.BlogID))
	sb.WriteString(fmt.Sprintf("Keyword:  %s\n", res.KeywordID))
	sb.WriteString(fmt.Sprintf("Model:    %s\n", res.Model))
	sb.WriteString(fmt.Sprintf("Title:    %s\n", res.Document.Title))
	sb.WriteString(fmt.Sprintf("Slug:     %s\n", res.Document.Slug))
	sb.WriteString(fmt.Sprintf("  step %s after %d lookups", res.SlugStep, res.SlugLookups))
	if res.SlugExhausted {
		sb.WriteString(" (candidates exhausted)")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Decoder:  %s\n", res.Strategy))
	if res.Degraded() && len(res.Synthesized) > 0 {
		sb.WriteString(fmt.Sprintf("Fallback: %s", strings.Join(res.Synthesized, ", ")))
	} else {
		sb.WriteString("Fallback: none")
	}

	p.printBox("GENERATED BLOG", sb.String())
}

// PrintKeywordQuality outputs the highest quality phrases of a record.
func (p *Printer) PrintKeywordQuality(phrases []types.Phrase) {
	if len(phrases) == 0 {
		return
	}

	scored := ranking.EnrichQualityScores(phrases)
	sort.SliceStable(scored, func(i, j int) bool {
		return ranking.QualityOf(scored[i]) > ranking.QualityOf(scored[j])
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total phrases: %d\n\n", len(scored)))

	count := min(len(scored), maxItemsToShow)
	for i := 0; i < count; i++ {
		ph := scored[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, ph.Phrase))
		sb.WriteString(fmt.Sprintf("    Quality: %.1f  Frequency: %d", ranking.QualityOf(ph), ph.Frequency))
		if ph.InAnyHeading() {
			sb.WriteString("  [heading]")
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(scored) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n\n... and %d more phrases", len(scored)-maxItemsToShow))
	}

	p.printBox("KEYWORD QUALITY", sb.String())
}

// PrintMatchScore outputs the content/keyword match score of a post.
func (p *Printer) PrintMatchScore(title string, score int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\n", title))
	sb.WriteString(fmt.Sprintf("Score: %d/100 %s", score, scoreBar(score)))
	p.printBox("KEYWORD MATCH", sb.String())
}

func scoreBar(score int) string {
	filled := max(0, min(score, 100)) / 10
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", 10-filled) + "]"
}

// PrintAnnotations outputs the highlighted terms found in content.
func (p *Printer) PrintAnnotations(summary rendering.AnnotationSummary) {
	if summary.Phrases == 0 && summary.Words == 0 {
		return
	}

	keywords := make([]string, 0, len(summary.Keywords))
	for k := range summary.Keywords {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		ci, cj := summary.Keywords[keywords[i]], summary.Keywords[keywords[j]]
		if ci != cj {
			return ci > cj
		}
		return keywords[i] < keywords[j]
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Phrase highlights: %d\n", summary.Phrases))
	sb.WriteString(fmt.Sprintf("Word highlights:   %d\n", summary.Words))

	count := min(len(keywords), maxItemsToShow)
	if count > 0 {
		sb.WriteString("\n")
	}
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s ×%d", keywords[i], summary.Keywords[keywords[i]]))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(keywords) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n  ... and %d more", len(keywords)-maxItemsToShow))
	}

	p.printBox("HIGHLIGHTS", sb.String())
}
