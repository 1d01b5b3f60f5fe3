package parsing

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Document field names as requested from the generation service.
const (
	FieldTitle          = "title"
	FieldSEOTitle       = "seoTitle"
	FieldSEODescription = "seoDescription"
	FieldSEOKeywords    = "seoKeywords"
	FieldExcerpt        = "excerpt"
	FieldContent        = "content"
	FieldSlug           = "slug"
)

const jsonString = `"((?:[^"\\]|\\.)*)"`

var (
	stringFieldPatterns = []struct {
		field   string
		pattern *regexp.Regexp
	}{
		{FieldTitle, stringFieldPattern("title")},
		{FieldSEOTitle, stringFieldPattern("seoTitle|seo_title")},
		{FieldSEODescription, stringFieldPattern("seoDescription|seo_description")},
		{FieldExcerpt, stringFieldPattern("excerpt")},
		{FieldContent, stringFieldPattern("content|html")},
		{FieldSlug, stringFieldPattern("slug")},
	}

	// truncatedContent recovers a content value cut off before its closing quote.
	truncatedContent = regexp.MustCompile(`"(?:content|html)"\s*:\s*"((?:[^"\\]|\\.)*)\\?$`)

	keywordArray  = regexp.MustCompile(`"(?:seoKeywords|seo_keywords)"\s*:\s*\[((?:[^\]"]|` + jsonString + `)*)\]`)
	quotedElement = regexp.MustCompile(jsonString)
)

func stringFieldPattern(keys string) *regexp.Regexp {
	return regexp.MustCompile(`"(?:` + keys + `)"\s*:\s*` + jsonString)
}

// ExtractFields pulls each document field out of text independently with
// regular expressions. A field is kept only when its value is non-empty.
func ExtractFields(text string) (Fields, bool) {
	fields := Fields{}

	for _, p := range stringFieldPatterns {
		m := p.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if value := unescapeJSONString(m[1]); strings.TrimSpace(value) != "" {
			fields[p.field] = value
		}
	}

	if _, ok := fields[FieldContent]; !ok {
		if m := truncatedContent.FindStringSubmatch(text); m != nil {
			if value := unescapeJSONString(m[1]); strings.TrimSpace(value) != "" {
				fields[FieldContent] = value
			}
		}
	}

	if m := keywordArray.FindStringSubmatch(text); m != nil {
		var keywords []any
		for _, el := range quotedElement.FindAllStringSubmatch(m[1], -1) {
			if kw := strings.TrimSpace(unescapeJSONString(el[1])); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) > 0 {
			fields[FieldSEOKeywords] = keywords
		}
	}

	return fields, len(fields) > 0
}

// unescapeJSONString decodes JSON escapes in a raw string body, falling back
// to a handful of literal replacements when the body is not valid JSON.
func unescapeJSONString(body string) string {
	var s string
	if err := json.Unmarshal([]byte(`"`+body+`"`), &s); err == nil {
		return s
	}
	r := strings.NewReplacer(`\"`, `"`, `\n`, "\n", `\t`, "\t", `\/`, "/", `\\`, `\`)
	return r.Replace(body)
}
