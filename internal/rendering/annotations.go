package rendering

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Annotation describes one highlight wrapper found in HTML.
type Annotation struct {
	Kind    string `json:"type"`
	Keyword string `json:"keyword"`
	Text    string `json:"text"`
}

// AnnotationSummary counts annotations per kind and distinct keyword.
type AnnotationSummary struct {
	Phrases  int            `json:"phrases"`
	Words    int            `json:"words"`
	Keywords map[string]int `json:"keywords"`
}

// Annotations lists the highlight wrappers in content in document order.
func Annotations(content string) ([]Annotation, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse highlighted content: %w", err)
	}

	annotations := make([]Annotation, 0)
	doc.Find("span." + AnnotationClass).Each(func(_ int, s *goquery.Selection) {
		kind, _ := s.Attr("data-keyword-type")
		keyword, _ := s.Attr("data-keyword-text")
		annotations = append(annotations, Annotation{
			Kind:    kind,
			Keyword: keyword,
			Text:    s.Text(),
		})
	})
	return annotations, nil
}

// Summarize counts annotations by kind and by lowercased keyword.
func Summarize(annotations []Annotation) AnnotationSummary {
	summary := AnnotationSummary{Keywords: make(map[string]int)}
	for _, a := range annotations {
		switch a.Kind {
		case KindPhrase:
			summary.Phrases++
		case KindWord:
			summary.Words++
		}
		summary.Keywords[strings.ToLower(a.Keyword)]++
	}
	return summary
}
