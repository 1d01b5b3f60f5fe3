// Package completion turns a partial decoded field mapping into a candidate
// document in which every required field is present.
package completion

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/keyword-blog/internal/parsing"
	"github.com/jonathan/keyword-blog/internal/schemas"
	"github.com/jonathan/keyword-blog/internal/slug"
	"github.com/jonathan/keyword-blog/internal/types"
)

// MaxSEODescription is the length limit for a synthesized seoDescription.
const MaxSEODescription = 160

// Defaults used when Options leave a value empty.
const (
	DefaultCallToActionURL  = "/get-quotes"
	DefaultCallToActionText = "Get Your Free Quotes Now!"
	DefaultLocation         = "your area"
	fallbackKeyword         = "guide"
	fallbackSlug            = "article"
)

// Options configures the placeholder text used for missing fields.
type Options struct {
	CallToActionURL  string
	CallToActionText string
	// DefaultLocation stands in for an empty record location.
	DefaultLocation string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.CallToActionURL) == "" {
		o.CallToActionURL = DefaultCallToActionURL
	}
	if strings.TrimSpace(o.CallToActionText) == "" {
		o.CallToActionText = DefaultCallToActionText
	}
	if strings.TrimSpace(o.DefaultLocation) == "" {
		o.DefaultLocation = DefaultLocation
	}
	return o
}

// Report lists the fields that had to be synthesized, in document order.
type Report struct {
	Synthesized []string
}

// Degraded reports whether any field was synthesized.
func (r Report) Degraded() bool {
	return len(r.Synthesized) > 0
}

func (r *Report) add(field string) {
	r.Synthesized = append(r.Synthesized, field)
}

// Field aliases accepted from the generation service, in preference order.
var (
	titleKeys          = []string{parsing.FieldTitle}
	seoTitleKeys       = []string{parsing.FieldSEOTitle, "seo_title"}
	seoDescriptionKeys = []string{parsing.FieldSEODescription, "seo_description", "meta_description", "metaDescription"}
	seoKeywordsKeys    = []string{parsing.FieldSEOKeywords, "seo_keywords", "keywords"}
	excerptKeys        = []string{parsing.FieldExcerpt, "summary"}
	contentKeys        = []string{parsing.FieldContent, "html"}
	slugKeys           = []string{parsing.FieldSlug}
)

// Complete fills every field the decoder could not recover and returns a
// candidate document that passes Verify. The only error it returns is the
// invariant violation reported by Verify.
func Complete(fields parsing.Fields, rec types.KeywordRecord, opts Options) (*types.CandidateDocument, Report, error) {
	opts = opts.withDefaults()
	var report Report

	keyword := strings.TrimSpace(rec.Keyword)
	if keyword == "" {
		keyword = fallbackKeyword
	}
	location := strings.TrimSpace(rec.Location)
	if location == "" {
		location = opts.DefaultLocation
	}

	doc := &types.CandidateDocument{
		Title:          parsing.SanitizePlain(stringValue(fields, titleKeys)),
		SEOTitle:       parsing.SanitizePlain(stringValue(fields, seoTitleKeys)),
		SEODescription: parsing.SanitizePlain(stringValue(fields, seoDescriptionKeys)),
		SEOKeywords:    keywordsValue(fields, seoKeywordsKeys),
		Excerpt:        parsing.SanitizePlain(stringValue(fields, excerptKeys)),
		Content:        parsing.SanitizeHTML(stringValue(fields, contentKeys)),
	}

	if doc.Title == "" {
		doc.Title = FallbackTitle(keyword)
		report.add(parsing.FieldTitle)
	}
	if doc.SEOTitle == "" {
		doc.SEOTitle = doc.Title
		report.add(parsing.FieldSEOTitle)
	}
	if doc.SEODescription == "" {
		doc.SEODescription = FallbackSEODescription(keyword, location)
		report.add(parsing.FieldSEODescription)
	}
	if len(doc.SEOKeywords) == 0 {
		doc.SEOKeywords = FallbackSEOKeywords(keyword, location)
		report.add(parsing.FieldSEOKeywords)
	}
	if doc.Excerpt == "" {
		doc.Excerpt = doc.SEODescription
		report.add(parsing.FieldExcerpt)
	}
	if doc.Content == "" {
		doc.Content = parsing.SanitizeHTML(FallbackContent(doc.Title, keyword, location, opts))
		report.add(parsing.FieldContent)
	}

	doc.SlugHint = slugHint(stringValue(fields, slugKeys), doc.Title, keyword)

	if err := Verify(doc); err != nil {
		return nil, report, err
	}
	return doc, report, nil
}

// FallbackTitle is the title used when none was generated. Hyphens and
// underscores in the keyword are shown as spaces.
func FallbackTitle(keyword string) string {
	return parsing.SanitizePlain(humanize(keyword) + " - Complete Guide")
}

// FallbackSEODescription is the meta description used when none was generated,
// truncated to MaxSEODescription characters.
func FallbackSEODescription(keyword, location string) string {
	desc := "Complete guide to " + keyword
	if location != "" {
		desc += " in " + location
	}
	desc += ". Get expert advice and quotes from trusted professionals."
	return truncate(desc, MaxSEODescription)
}

// FallbackSEOKeywords returns the keyword and the keyword with location.
// Complete always passes a location, falling back to Options.DefaultLocation.
func FallbackSEOKeywords(keyword, location string) []string {
	keywords := []string{keyword}
	if location != "" {
		keywords = append(keywords, keyword+" "+location)
	}
	return keywords
}

// FallbackContent renders the templated article used when no content was
// generated: a heading, an introduction, two sections and a call to action.
func FallbackContent(title, keyword, location string, opts Options) string {
	opts = opts.withDefaults()
	kw := html.EscapeString(keyword)

	var sb strings.Builder
	sb.WriteString("<article>")
	sb.WriteString("<h1>" + html.EscapeString(title) + "</h1>")
	sb.WriteString("<p>This comprehensive guide covers everything you need to know about " + kw + " in " + html.EscapeString(location) + ".</p>")
	sb.WriteString("<h2>What You Need to Know</h2>")
	sb.WriteString("<p>Finding the right solution for " + kw + " can be challenging. Our platform connects you with trusted local professionals who can help.</p>")
	sb.WriteString("<h2>Get Professional Help</h2>")
	sb.WriteString("<p>Don't tackle this alone. Get up to 3 quotes from verified professionals in your area.</p>")
	sb.WriteString(`<p><strong><a href="` + html.EscapeString(opts.CallToActionURL) + `" class="cta-button">` + html.EscapeString(opts.CallToActionText) + "</a></strong></p>")
	sb.WriteString("</article>")
	return sb.String()
}

// Verify checks that every required field of doc is non-empty, first directly
// and then against the embedded candidate document schema.
func Verify(doc *types.CandidateDocument) error {
	if doc == nil {
		return &IncompleteDocumentError{Missing: requiredFields()}
	}

	var missing []string
	check := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	check(parsing.FieldTitle, doc.Title)
	check(parsing.FieldSEOTitle, doc.SEOTitle)
	check(parsing.FieldSEODescription, doc.SEODescription)
	if len(doc.SEOKeywords) == 0 {
		missing = append(missing, parsing.FieldSEOKeywords)
	}
	check(parsing.FieldExcerpt, doc.Excerpt)
	check(parsing.FieldContent, doc.Content)
	if len(missing) > 0 {
		return &IncompleteDocumentError{Missing: missing}
	}

	if err := schemas.ValidateDocument(schemas.CandidateDocumentSchema, doc); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			return &IncompleteDocumentError{Missing: ve.Fields(), Cause: err}
		}
		return fmt.Errorf("failed to verify candidate document: %w", err)
	}
	return nil
}

func requiredFields() []string {
	return []string{
		parsing.FieldTitle,
		parsing.FieldSEOTitle,
		parsing.FieldSEODescription,
		parsing.FieldSEOKeywords,
		parsing.FieldExcerpt,
		parsing.FieldContent,
	}
}

func slugHint(modelSlug, title, keyword string) string {
	for _, candidate := range []string{modelSlug, title, keyword} {
		if s := slug.Clean(candidate); s != "" {
			return s
		}
	}
	return fallbackSlug
}

// stringValue returns the first non-blank value stored under one of keys.
func stringValue(fields parsing.Fields, keys []string) string {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// keywordsValue accepts a JSON array or a comma separated string.
func keywordsValue(fields parsing.Fields, keys []string) []string {
	for _, key := range keys {
		var raw []string
		switch v := fields[key].(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					raw = append(raw, s)
				}
			}
		case []string:
			raw = v
		case string:
			raw = strings.Split(v, ",")
		}

		var keywords []string
		seen := make(map[string]bool, len(raw))
		for _, kw := range raw {
			kw = parsing.SanitizePlain(kw)
			if kw == "" || seen[strings.ToLower(kw)] {
				continue
			}
			seen[strings.ToLower(kw)] = true
			keywords = append(keywords, kw)
		}
		if len(keywords) > 0 {
			return keywords
		}
	}
	return nil
}

func humanize(keyword string) string {
	return strings.NewReplacer("-", " ", "_", " ").Replace(keyword)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
