// Package types provides type definitions for structured data used throughout the keyword-blog system.
package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KeywordRecord is one keyword-research run: the primary keyword, the target
// location, the search results it was built from, and the extracted keywords.
type KeywordRecord struct {
	ID            uuid.UUID         `json:"id"`
	Keyword       string            `json:"keyword"`
	Location      string            `json:"location"`
	SearchResults []SearchResult    `json:"search_results,omitempty"`
	Extracted     ExtractedKeywords `json:"extracted_keywords"`
	Custom        *CustomKeywords   `json:"custom_keywords,omitempty"`
	BlogGenerated bool              `json:"blog_generated"`
	BlogID        *uuid.UUID        `json:"blog_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ExtractedKeywords holds the single words and phrases found in the top
// ranking articles for a keyword.
type ExtractedKeywords struct {
	SingleWords []SingleWord `json:"single_words"`
	Phrases     []Phrase     `json:"phrases"`
}

// SingleWord is a word and its frequency across the analysed articles.
// It is stored as a two element JSON array: ["word", 12].
type SingleWord struct {
	Word      string
	Frequency int
}

// MarshalJSON encodes the word as [word, frequency].
func (w SingleWord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.Word, w.Frequency})
}

// UnmarshalJSON accepts [word, frequency], {"word": .., "frequency": ..} or a bare string.
func (w *SingleWord) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) == 0 {
			return fmt.Errorf("single word tuple is empty")
		}
		if err := json.Unmarshal(tuple[0], &w.Word); err != nil {
			return fmt.Errorf("single word tuple: %w", err)
		}
		w.Frequency = 0
		if len(tuple) > 1 {
			var freq float64
			if err := json.Unmarshal(tuple[1], &freq); err != nil {
				return fmt.Errorf("single word frequency: %w", err)
			}
			w.Frequency = int(freq)
		}
		return nil
	}

	var obj struct {
		Word      string  `json:"word"`
		Frequency float64 `json:"frequency"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		w.Word = obj.Word
		w.Frequency = int(obj.Frequency)
		return nil
	}

	var bare string
	if err := json.Unmarshal(data, &bare); err != nil {
		return fmt.Errorf("unsupported single word encoding: %s", string(data))
	}
	w.Word = bare
	w.Frequency = 0
	return nil
}

// Phrase is a multi-word n-gram with its frequency and heading placement.
// QualityScore is derived data: it is recomputed whenever it is absent.
type Phrase struct {
	Phrase          string   `json:"phrase"`
	Frequency       int      `json:"frequency"`
	InH1            bool     `json:"in_h1,omitempty"`
	InH2            bool     `json:"in_h2,omitempty"`
	InH3            bool     `json:"in_h3,omitempty"`
	H1Frequency     int      `json:"h1_frequency,omitempty"`
	H2Frequency     int      `json:"h2_frequency,omitempty"`
	H3Frequency     int      `json:"h3_frequency,omitempty"`
	HierarchyLevels []int    `json:"hierarchy_levels,omitempty"`
	QualityScore    *float64 `json:"quality_score,omitempty"`
}

// InAnyHeading reports whether the phrase appeared in an h1, h2 or h3.
func (p Phrase) InAnyHeading() bool {
	return p.InH1 || p.InH2 || p.InH3
}

// CustomKeywords is the curated keyword subset an editor saved for a record.
type CustomKeywords struct {
	SingleWords []string `json:"single_words"`
	Phrases     []string `json:"phrases"`
}

// SearchResult is one organic search result the keyword research was built from.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet,omitempty"`
	DisplayLink string `json:"displayLink,omitempty"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	MainText    string `json:"main_text,omitempty"`
}

// SystemPrompt holds the editor-managed prompt and company details for a
// (type, prompt_for) pair.
type SystemPrompt struct {
	Type             string    `json:"type"`
	PromptFor        string    `json:"prompt_for"`
	Prompt           string    `json:"prompt,omitempty"`
	Location         string    `json:"location,omitempty"`
	CompanyName      string    `json:"company_name,omitempty"`
	CompanyDetails   string    `json:"company_details,omitempty"`
	CompanyAbout     string    `json:"company_about,omitempty"`
	KeywordGuideline string    `json:"keyword_guideline,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// HasCompanyInfo reports whether any company field is set.
func (p *SystemPrompt) HasCompanyInfo() bool {
	return p != nil && (p.CompanyName != "" || p.CompanyDetails != "" || p.CompanyAbout != "" || p.Location != "")
}
