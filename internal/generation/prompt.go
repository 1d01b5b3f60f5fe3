package generation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/keyword-blog/internal/prompts"
	"github.com/jonathan/keyword-blog/internal/types"
)

// Prompt sizing.
const (
	MaxPromptKeywords  = 150
	contextPhrases     = 20
	contextWords       = 30
	fallbackPhrases    = 10
	fallbackWords      = 15
	mainTextLimit      = 5000
	articleTextLimit   = 2000
	minArticleTextSize = 50
)

// PromptInput is everything the prompt is built from.
type PromptInput struct {
	Record types.KeywordRecord
	// Location is the resolved target location (see ResolveLocation).
	Location        string
	TargetFor       string
	SystemPrompt    *types.SystemPrompt
	CallToActionURL string
}

// ResolveLocation picks the record location, then the system prompt
// location, then fallback.
func ResolveLocation(rec types.KeywordRecord, sp *types.SystemPrompt, fallback string) string {
	if loc := strings.TrimSpace(rec.Location); loc != "" {
		return loc
	}
	if sp != nil {
		if loc := strings.TrimSpace(sp.Location); loc != "" {
			return loc
		}
	}
	return fallback
}

// BlogFor maps a prompt target to the stored blog audience.
func BlogFor(targetFor string) string {
	if targetFor == types.TargetForServiceProvider {
		return types.BlogForServiceProvider
	}
	return types.BlogForCustomer
}

// BuildPrompt assembles the generation prompt: instructions and output
// format, keyword context, the capped keyword lists, reference articles,
// audience, company information and guidelines.
func BuildPrompt(in PromptInput) (string, error) {
	tmpl, err := prompts.Load()
	if err != nil {
		return "", err
	}
	values := prompts.Values{
		Keyword:         in.Record.Keyword,
		Location:        in.Location,
		CallToActionURL: in.CallToActionURL,
	}

	phrases, words := limitKeywords(phraseTexts(in.Record.Extracted.Phrases), wordTexts(in.Record.Extracted.SingleWords), MaxPromptKeywords)

	var sb strings.Builder
	sb.WriteString(tmpl.Render(prompts.BlogBase, values))
	sb.WriteString(keywordContext(in.Record.Keyword, in.Location, phrases, words))
	sb.WriteString(numberedList("All phrases from keyword research:", phrases))
	sb.WriteString(numberedList("All single words from keyword research:", words))

	articles, used := referenceArticles(in.Record.SearchResults)
	if used == 0 {
		articles = researchContext(in.Record.Keyword, in.Location, phrases, words, tmpl.Text(prompts.ContextFallback))
	}
	sb.WriteString(articles)

	audience := prompts.Audience(in.TargetFor == types.TargetForServiceProvider)
	sb.WriteString("\n\n" + tmpl.Text(audience))

	if in.SystemPrompt.HasCompanyInfo() {
		sb.WriteString(companyInfo(in.SystemPrompt, tmpl.Text(prompts.CompanyAlignment)))
	}

	sb.WriteString("\n\nGuidelines:\n")
	if in.SystemPrompt != nil && strings.TrimSpace(in.SystemPrompt.Prompt) != "" {
		sb.WriteString(in.SystemPrompt.Prompt)
	} else {
		sb.WriteString(tmpl.Render(prompts.DefaultGuidelines, values))
	}
	if in.SystemPrompt != nil && strings.TrimSpace(in.SystemPrompt.KeywordGuideline) != "" {
		sb.WriteString("\n\nKeyword Guidelines:\n")
		sb.WriteString(in.SystemPrompt.KeywordGuideline)
	}

	return sb.String(), nil
}

// limitKeywords caps the combined list at max, splitting the budget in
// proportion to the phrase share.
func limitKeywords(phrases, words []string, max int) ([]string, []string) {
	total := len(phrases) + len(words)
	if total <= max {
		return phrases, words
	}
	maxPhrases := max * len(phrases) / total
	maxWords := max - maxPhrases
	return head(phrases, maxPhrases), head(words, maxWords)
}

func head(items []string, n int) []string {
	if n < len(items) {
		return items[:n]
	}
	return items
}

func phraseTexts(phrases []types.Phrase) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, p.Phrase)
	}
	return out
}

func wordTexts(words []types.SingleWord) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, w.Word)
	}
	return out
}

func keywordContext(keyword, location string, phrases, words []string) string {
	var sb strings.Builder
	sb.WriteString("\n\nKeyword Research Data:\n")
	fmt.Fprintf(&sb, "Main Keyword: %s\n", keyword)
	fmt.Fprintf(&sb, "Location: %s\n", location)
	if len(phrases) > 0 {
		fmt.Fprintf(&sb, "Key Phrases: %s\n", strings.Join(head(phrases, contextPhrases), ", "))
	}
	if len(words) > 0 {
		fmt.Fprintf(&sb, "Important Words: %s\n", strings.Join(head(words, contextWords), ", "))
	}
	return sb.String()
}

func numberedList(title string, items []string) string {
	var sb strings.Builder
	sb.WriteString("\n\n" + title)
	for i, item := range items {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, item)
	}
	return sb.String()
}

// articleText picks the richest text of a search result and its limit.
func articleText(r types.SearchResult) (text, source string, limit int) {
	switch {
	case r.MainText != "":
		return r.MainText, "main_text", mainTextLimit
	case r.Content != "":
		return r.Content, "content", articleTextLimit
	case r.Snippet != "":
		return r.Snippet, "snippet", articleTextLimit
	case r.Description != "":
		return r.Description, "description", articleTextLimit
	}
	return "", "", 0
}

// referenceArticles formats the search results that carry enough text and
// reports how many were used. Articles keep their position in the results.
func referenceArticles(results []types.SearchResult) (string, int) {
	var sb strings.Builder
	used := 0
	for i, r := range results {
		text, source, limit := articleText(r)
		if text == "" {
			continue
		}
		text = truncateRunes(text, limit)
		if utf8.RuneCountInString(strings.TrimSpace(text)) < minArticleTextSize {
			continue
		}
		if used == 0 {
			sb.WriteString("\n\nReference Articles:\n")
		}
		fmt.Fprintf(&sb, "\nArticle %d: %s\nURL: %s\nContent (%s): %s\n", i+1, r.Title, r.URL, source, text)
		used++
	}
	return sb.String(), used
}

func researchContext(keyword, location string, phrases, words []string, footer string) string {
	var sb strings.Builder
	sb.WriteString("\n\nKeyword Research Context:\n")
	fmt.Fprintf(&sb, "Primary keyword: %s\n", keyword)
	fmt.Fprintf(&sb, "Target location: %s\n", location)
	if len(phrases) > 0 {
		fmt.Fprintf(&sb, "Related phrases: %s\n", strings.Join(head(phrases, fallbackPhrases), ", "))
	}
	if len(words) > 0 {
		fmt.Fprintf(&sb, "Important terms: %s\n", strings.Join(head(words, fallbackWords), ", "))
	}
	sb.WriteString("\n" + footer + "\n")
	return sb.String()
}

func companyInfo(sp *types.SystemPrompt, alignment string) string {
	var sb strings.Builder
	sb.WriteString("\n\nCompany Information:")
	if sp.CompanyName != "" {
		sb.WriteString("\nCompany Name: " + sp.CompanyName)
	}
	if sp.Location != "" {
		sb.WriteString("\nLocation: " + sp.Location)
	}
	if sp.CompanyDetails != "" {
		sb.WriteString("\nCompany Details: " + sp.CompanyDetails)
	}
	if sp.CompanyAbout != "" {
		sb.WriteString("\nAbout Company: " + sp.CompanyAbout)
	}
	sb.WriteString("\n\n" + alignment)
	return sb.String()
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
