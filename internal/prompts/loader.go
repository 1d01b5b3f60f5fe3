// Package prompts holds the embedded templates the blog generation prompt is
// assembled from. Templates are checked once at load: every Key must be
// present and non-blank, and only known {{.Field}} placeholders may appear.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed generation.json
var promptFiles embed.FS

const generationFile = "generation.json"

// Key names one template in generation.json.
type Key string

// Generation prompt templates.
const (
	BlogBase                Key = "blog-base"
	AudienceCustomer        Key = "audience-customer"
	AudienceServiceProvider Key = "audience-service-provider"
	CompanyAlignment        Key = "company-alignment"
	ContextFallback         Key = "context-fallback"
	DefaultGuidelines       Key = "default-guidelines"
)

// Keys lists every template a generation prompt may use.
var Keys = []Key{
	BlogBase,
	AudienceCustomer,
	AudienceServiceProvider,
	CompanyAlignment,
	ContextFallback,
	DefaultGuidelines,
}

// Values fills template placeholders.
type Values struct {
	Keyword         string
	Location        string
	CallToActionURL string
}

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z]+)\}\}`)

var knownFields = map[string]bool{
	"Keyword":         true,
	"Location":        true,
	"CallToActionURL": true,
}

// Templates is a validated set of generation templates.
type Templates struct {
	text map[Key]string
}

// Parse decodes a JSON object of key -> template and validates it.
func Parse(data []byte) (*Templates, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	var missing []string
	text := make(map[Key]string, len(Keys))
	for _, key := range Keys {
		tmpl := raw[string(key)]
		if strings.TrimSpace(tmpl) == "" {
			missing = append(missing, string(key))
			continue
		}
		for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
			if !knownFields[m[1]] {
				return nil, fmt.Errorf("prompt template %q uses unknown placeholder %s", key, m[0])
			}
		}
		text[key] = tmpl
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("prompt templates missing: %s", strings.Join(missing, ", "))
	}
	return &Templates{text: text}, nil
}

var loadEmbedded = sync.OnceValues(func() (*Templates, error) {
	data, err := promptFiles.ReadFile(generationFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", generationFile, err)
	}
	return Parse(data)
})

// Load returns the embedded generation templates, parsed once.
func Load() (*Templates, error) {
	return loadEmbedded()
}

// Text returns the raw template for key.
func (t *Templates) Text(key Key) string {
	return t.text[key]
}

// Render returns the template for key with its placeholders filled from v.
func (t *Templates) Render(key Key, v Values) string {
	return strings.NewReplacer(
		"{{.Keyword}}", v.Keyword,
		"{{.Location}}", v.Location,
		"{{.CallToActionURL}}", v.CallToActionURL,
	).Replace(t.text[key])
}

// Audience returns the audience template key for a prompt target.
// Anything other than a service provider target reads as customers.
func Audience(serviceProvider bool) Key {
	if serviceProvider {
		return AudienceServiceProvider
	}
	return AudienceCustomer
}
